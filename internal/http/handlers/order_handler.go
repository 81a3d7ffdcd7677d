package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"milkpukki/internal/domain"
	applog "milkpukki/internal/log"
	"milkpukki/internal/repos"
	"milkpukki/internal/services"
)

type OrderHandler struct {
	Orders  *services.OrderService
	Repo    *repos.OrderRepo
	Watcher *services.ExpiryWatcher
}

type checkoutRequest struct {
	Items        []services.ItemInput   `json:"items"`
	Total        float64                `json:"total"`
	ShippingInfo services.ShippingInput `json:"shippingInfo"`
}

// Checkout handles POST /api/checkout. Stock was already reserved through
// the ledger while the cart was built; this only records the order.
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	u := currentUser(c)

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	o, err := h.Orders.Checkout(u.ID, req.Items, req.ShippingInfo)
	switch {
	case errors.Is(err, services.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Name, phone, and address are required"})
	case errors.Is(err, services.ErrProductNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Cart references an unknown product"})
	case err != nil:
		applog.Error(c, "order.checkout.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}

	applog.Audit(c, "order.place", map[string]any{
		"order_id":     o.ID,
		"server_total": o.Total,
		"client_total": req.Total,
		"mismatch":     o.Total != req.Total,
	})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"order": o})
}

type orderView struct {
	domain.Order
	ExpiresAt string `json:"expiresAt,omitempty"`
	Countdown string `json:"countdown,omitempty"`
}

// ListMine handles GET /api/user/orders. The expiry watcher sweeps the
// viewer's overdue PENDING orders first, and each surviving PENDING order
// carries its deadline and a countdown string for the page to tick down.
func (h *OrderHandler) ListMine(c *fiber.Ctx) error {
	u := currentUser(c)
	now := time.Now().UTC()

	expired, err := h.Watcher.SweepUser(u.ID, now)
	if err != nil {
		applog.Error(c, "order.sweep.fail", err, nil)
	}
	if expired > 0 {
		applog.Audit(c, "order.sweep", map[string]any{"expired": expired})
	}

	orders, err := h.Repo.ListByUser(u.ID)
	if err != nil {
		applog.Error(c, "order.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		v := orderView{Order: o}
		if o.Status == domain.StatusPending {
			if created, perr := time.Parse(time.RFC3339, o.CreatedAt); perr == nil {
				v.ExpiresAt = services.Deadline(created).Format(time.RFC3339)
				v.Countdown = services.Countdown(services.Remaining(o, now))
			}
		}
		out = append(out, v)
	}
	return c.JSON(fiber.Map{"orders": out, "expired": expired})
}

// Status handles GET /api/order-status/:id. Backed by the redis status
// cache when configured, so payment-result polling stays off the database.
func (h *OrderHandler) Status(c *fiber.Ctx) error {
	u := currentUser(c)
	st, err := h.Orders.Status(c.Context(), c.Params("id"), u.ID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
		}
		applog.Error(c, "order.status.fail", err, map[string]any{"order_id": c.Params("id")})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.JSON(fiber.Map{"orderId": c.Params("id"), "status": st})
}

type deleteOrderRequest struct {
	OrderID string `json:"orderId"`
}

// DeleteExpired handles DELETE /api/expired-order: cancellation of an owned
// PENDING order, releasing its reserved stock. The same path serves explicit
// "delete order" clicks and the client-side expiry check.
func (h *OrderHandler) DeleteExpired(c *fiber.Ctx) error {
	u := currentUser(c)

	var req deleteOrderRequest
	if err := c.BodyParser(&req); err != nil || req.OrderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing or invalid orderId in request body"})
	}

	o, err := h.Repo.Get(req.OrderID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
		}
		applog.Error(c, "order.delete.fail", err, map[string]any{"order_id": req.OrderID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
	if o.UserID != u.ID && u.Role != "ADMIN" {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": req.OrderID})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
	}
	if o.Status != domain.StatusPending {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only pending orders can be cancelled"})
	}

	if err := h.Orders.CancelAndReverse(req.OrderID); err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
		}
		applog.Error(c, "order.delete.fail", err, map[string]any{"order_id": req.OrderID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
	applog.Audit(c, "order.cancel", map[string]any{"order_id": req.OrderID})
	return c.JSON(fiber.Map{"success": true})
}
