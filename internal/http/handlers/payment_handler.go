package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "milkpukki/internal/log"
	"milkpukki/internal/services"
)

type PaymentHandler struct {
	Payments *services.PaymentService
}

type paymentRequest struct {
	OrderID string `json:"orderId"`
}

// Initiate handles POST /api/payment: starts a hosted checkout for an owned
// order and returns the gateway redirect URL.
func (h *PaymentHandler) Initiate(c *fiber.Ctx) error {
	u := currentUser(c)

	var req paymentRequest
	if err := c.BodyParser(&req); err != nil || req.OrderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required field: orderId"})
	}

	checkoutURL, err := h.Payments.Initiate(c.Context(), req.OrderID, u.ID, u.Email)
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found or unauthorized"})
	case errors.Is(err, services.ErrShippingMissing):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Shipping information missing for this order"})
	case err != nil:
		applog.Error(c, "payment.init.fail", err, map[string]any{"order_id": req.OrderID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Payment initialization failed"})
	}

	applog.Audit(c, "payment.init", map[string]any{"order_id": req.OrderID})
	return c.JSON(fiber.Map{"checkout_url": checkoutURL, "message": "Payment initialized successfully"})
}

type verifyRequest struct {
	TxRef string `json:"tx_ref"`
}

// Verify handles the gateway callback POST /api/payment/verify. No session:
// the gateway is the caller.
func (h *PaymentHandler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil || req.TxRef == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing tx_ref"})
	}

	if err := h.Payments.Verify(c.Context(), req.TxRef); err != nil {
		if errors.Is(err, services.ErrBadTxRef) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Malformed tx_ref"})
		}
		applog.Error(c, "payment.verify.fail", err, map[string]any{"tx_ref": req.TxRef})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Payment verification failed"})
	}
	applog.Audit(c, "payment.verify", map[string]any{"tx_ref": req.TxRef})
	return c.JSON(fiber.Map{"success": true})
}
