package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"milkpukki/internal/domain"
	applog "milkpukki/internal/log"
	"milkpukki/internal/redisx"
	"milkpukki/internal/repos"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrOrderNotFound = repos.ErrOrderNotFound
	ErrInvalidStatus = errors.New("invalid order status")
)

// TaxRate is applied to the subtotal at checkout.
const TaxRate = 0.15

type ItemInput struct {
	ProductID int64 `json:"id"`
	Qty       int   `json:"quantity"`
}

type ShippingInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// OrderService owns order status transitions and the reservation semantics
// tying an order's line items to inventory deltas. Stock itself is NOT
// touched at checkout: it was already reserved item by item through the
// ledger while the cart was built.
type OrderService struct {
	Orders *repos.OrderRepo
	Prods  *repos.ProductRepo
	Inv    *InventoryService
	Cache  *redis.Client // optional status cache
}

func NewOrderService(orders *repos.OrderRepo, prods *repos.ProductRepo, inv *InventoryService) *OrderService {
	return &OrderService{Orders: orders, Prods: prods, Inv: inv}
}

// Checkout converts the client's cart into a PENDING order with line items
// and a shipping record, created atomically. Prices are snapshotted from the
// product table, never trusted from the client.
func (s *OrderService) Checkout(userID string, items []ItemInput, ship ShippingInput) (domain.Order, error) {
	if strings.TrimSpace(ship.Name) == "" || strings.TrimSpace(ship.Phone) == "" || strings.TrimSpace(ship.Address) == "" {
		return domain.Order{}, ErrValidation
	}
	if len(items) == 0 {
		return domain.Order{}, ErrValidation
	}

	// Merge repeated product lines; order_items keys on (order_id, product_id).
	merged := make([]ItemInput, 0, len(items))
	seen := make(map[int64]int, len(items))
	for _, it := range items {
		if it.Qty < 1 {
			return domain.Order{}, ErrValidation
		}
		if j, ok := seen[it.ProductID]; ok {
			merged[j].Qty += it.Qty
			continue
		}
		seen[it.ProductID] = len(merged)
		merged = append(merged, it)
	}

	subtotal := 0.0
	lines := make([]domain.OrderItem, 0, len(merged))
	for _, it := range merged {
		p, err := s.Prods.Get(it.ProductID)
		if err != nil {
			return domain.Order{}, err
		}
		lines = append(lines, domain.OrderItem{ProductID: p.ID, Name: p.Name, Qty: it.Qty, Price: p.Price})
		subtotal += p.Price * float64(it.Qty)
	}

	o := domain.Order{
		ID:     uuid.NewString(),
		UserID: userID,
		Total:  roundCents(subtotal * (1 + TaxRate)),
		Status: domain.StatusPending,
		Items:  lines,
	}
	if err := s.Orders.Create(o, domain.Shipping{Name: ship.Name, Phone: ship.Phone, Address: ship.Address}); err != nil {
		return domain.Order{}, err
	}
	return s.Orders.Get(o.ID)
}

// SetStatus validates the target value and records it. Any recognized value
// is accepted: this is the back-office correction path, so the CanTransition
// table guards only the one-click deliver route. Status changes other than
// deletion never touch inventory: stock was committed at cart time.
func (s *OrderService) SetStatus(orderID string, status domain.Status) error {
	if !domain.ValidStatus(status) {
		return ErrInvalidStatus
	}
	if err := s.Orders.UpdateStatus(orderID, status); err != nil {
		return err
	}
	redisx.CacheOrderStatus(context.Background(), s.Cache, orderID, string(status))
	return nil
}

// Status reports an order's current status, consulting the redis cache
// before the database. The orders page polls this while it waits for a
// payment callback to land.
func (s *OrderService) Status(ctx context.Context, orderID, userID string) (domain.Status, error) {
	if v := redisx.GetOrderStatus(ctx, s.Cache, orderID); v != "" {
		return domain.Status(v), nil
	}
	o, err := s.Orders.Get(orderID)
	if err != nil {
		return "", err
	}
	if o.UserID != userID {
		return "", ErrOrderNotFound
	}
	redisx.CacheOrderStatus(ctx, s.Cache, o.ID, string(o.Status))
	return o.Status, nil
}

// CancelAndReverse releases every line item's reserved stock back to the
// ledger and deletes the order with its items. Used for explicit user
// cancellation and for expiry. Stock release is best effort: a failed
// release is logged and skipped, because a stale undeletable PENDING order
// is worse than a minor inventory discrepancy. A second call returns
// ErrOrderNotFound, so stock is never double-released.
func (s *OrderService) CancelAndReverse(orderID string) error {
	o, err := s.Orders.Get(orderID)
	if err != nil {
		return err
	}
	for _, it := range o.Items {
		if _, err := s.Inv.ApplyStockDelta(it.ProductID, it.Qty); err != nil {
			applog.Error(nil, "order.reverse.fail", err, map[string]any{
				"order_id": orderID, "product_id": it.ProductID, "qty": it.Qty,
			})
		}
	}
	if err := s.Orders.Delete(orderID); err != nil {
		return err
	}
	redisx.DropOrderStatus(context.Background(), s.Cache, orderID)
	return nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
