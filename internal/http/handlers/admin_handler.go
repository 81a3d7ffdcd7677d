package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"milkpukki/internal/domain"
	applog "milkpukki/internal/log"
	"milkpukki/internal/repos"
	"milkpukki/internal/services"
)

type AdminHandler struct {
	Orders   *services.OrderService
	Repo     *repos.OrderRepo
	Catalog  *services.CatalogService
	Contacts *repos.ContactRepo
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	return render(c, "admin_dashboard", fiber.Map{})
}

// ListOrders handles GET /api/orders (admin): all orders, newest first,
// with items and shipping populated.
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	orders, err := h.Repo.ListAll()
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch orders"})
	}
	return c.JSON(orders)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/orders/:id/status.
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	var req statusRequest
	if err := c.BodyParser(&req); err != nil || id == "" || req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing id or status"})
	}

	err := h.Orders.SetStatus(id, domain.Status(req.Status))
	switch {
	case errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unrecognized status value"})
	case errors.Is(err, services.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
	case err != nil:
		applog.Error(c, "admin.orders.update.fail", err, map[string]any{"order_id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update order status"})
	}

	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": req.Status})
	return c.JSON(fiber.Map{"success": true})
}

// Deliver handles PATCH /api/orders/:id/deliver: the one-click path once an
// order is PROCESSING or SHIPPED.
func (h *AdminHandler) Deliver(c *fiber.Ctx) error {
	id := c.Params("id")
	o, err := h.Repo.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update order"})
	}
	if !domain.CanTransition(o.Status, domain.StatusDelivered) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "order cannot be delivered from status " + string(o.Status)})
	}
	if err := h.Orders.SetStatus(id, domain.StatusDelivered); err != nil {
		applog.Error(c, "admin.orders.deliver.fail", err, map[string]any{"order_id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update order"})
	}
	applog.Audit(c, "admin.orders.deliver", map[string]any{"order_id": id})
	return c.JSON(fiber.Map{"success": true})
}
