package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "milkpukki/internal/log"
	"milkpukki/internal/services"
)

// StockHandler is the inventory ledger endpoint. The client cart calls it on
// every add/remove/quantity change: negative quantity reserves stock,
// positive releases it.
type StockHandler struct {
	Inv *services.InventoryService
}

type stockRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// Update handles POST /api/stock.
func (h *StockHandler) Update(c *fiber.Ctx) error {
	var req stockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if req.ProductID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid product ID"})
	}
	if req.Quantity == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid quantity"})
	}

	p, err := h.Inv.ApplyStockDelta(req.ProductID, req.Quantity)
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Product not found"})
	case errors.Is(err, services.ErrInsufficientStock):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Insufficient stock available"})
	case err != nil:
		applog.Error(c, "stock.update.fail", err, map[string]any{"product_id": req.ProductID, "delta": req.Quantity})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update stock"})
	}

	applog.Audit(c, "stock.update", map[string]any{"product_id": p.ID, "delta": req.Quantity, "stock": p.Stock})
	return c.JSON(fiber.Map{"success": true, "updatedProduct": p})
}
