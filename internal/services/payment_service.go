package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"milkpukki/internal/domain"
	"milkpukki/internal/payment"
	"milkpukki/internal/redisx"
	"milkpukki/internal/repos"
)

var (
	ErrShippingMissing = errors.New("shipping information missing for this order")
	ErrBadTxRef        = errors.New("malformed transaction reference")
)

// PaymentService drives PENDING -> PROCESSING through the external gateway.
// Successful initiation or verification ends the expiry countdown for the
// order.
type PaymentService struct {
	Orders  *repos.OrderRepo
	Gateway *payment.Client
	BaseURL string
	Redis   *redis.Client // optional
}

// Initiate builds the gateway payload from the stored order and shipping
// record, never from client input, and moves the order to PROCESSING.
// Returns the hosted checkout URL to redirect the payer to.
func (s *PaymentService) Initiate(ctx context.Context, orderID, userID, email string) (string, error) {
	o, err := s.Orders.Get(orderID)
	if err != nil {
		return "", err
	}
	if o.UserID != userID {
		return "", ErrOrderNotFound
	}
	if o.Shipping == nil {
		return "", ErrShippingMissing
	}

	txRef := TxRef(o.ID)
	first, last := splitName(o.Shipping.Name)
	resp, err := s.Gateway.Initialize(ctx, payment.InitRequest{
		Amount:      fmt.Sprintf("%.2f", o.Total),
		Currency:    "ETB",
		Email:       email,
		FirstName:   first,
		LastName:    last,
		PhoneNumber: o.Shipping.Phone,
		TxRef:       txRef,
		CallbackURL: s.BaseURL + "/api/payment/verify",
		ReturnURL:   s.BaseURL + "/orders?payment=success",
		Title:       "Payment for Order #" + shortID(o.ID),
		Description: fmt.Sprintf("Payment for %d items", len(o.Items)),
	})
	if err != nil {
		return "", err
	}

	if err := s.Orders.UpdateStatus(o.ID, domain.StatusProcessing); err != nil {
		return "", err
	}
	redisx.CacheOrderStatus(ctx, s.Redis, o.ID, string(domain.StatusProcessing))
	return resp.Data.CheckoutURL, nil
}

// Verify confirms a transaction with the gateway and records the result.
// Duplicate callbacks for the same tx_ref are dropped via the redis dedup
// key when redis is configured.
func (s *PaymentService) Verify(ctx context.Context, txRef string) error {
	orderID, err := OrderIDFromTxRef(txRef)
	if err != nil {
		return err
	}
	if redisx.MarkPaymentSeen(ctx, s.Redis, txRef, orderID) {
		return nil // already processed
	}
	ok, err := s.Gateway.Verify(ctx, txRef)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("payment verification failed")
	}
	if err := s.Orders.MarkPaymentVerified(orderID, txRef); err != nil {
		return err
	}
	redisx.CacheOrderStatus(ctx, s.Redis, orderID, string(domain.StatusProcessing))
	return nil
}

// TxRef is "order-<orderID>-<unix-ms>". The order id is a UUID and so
// contains dashes itself; OrderIDFromTxRef strips the prefix and the
// trailing timestamp rather than splitting on "-".
func TxRef(orderID string) string {
	return fmt.Sprintf("order-%s-%d", orderID, time.Now().UnixMilli())
}

func OrderIDFromTxRef(txRef string) (string, error) {
	if !strings.HasPrefix(txRef, "order-") {
		return "", ErrBadTxRef
	}
	rest := strings.TrimPrefix(txRef, "order-")
	i := strings.LastIndex(rest, "-")
	if i <= 0 {
		return "", ErrBadTxRef
	}
	return rest[:i], nil
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "Customer", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
