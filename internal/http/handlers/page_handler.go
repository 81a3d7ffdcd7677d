package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "milkpukki/internal/log"
	"milkpukki/internal/services"
)

// PageHandler serves the server-rendered marketing and storefront pages.
type PageHandler struct {
	Catalog *services.CatalogService
}

func (h *PageHandler) Home(c *fiber.Ctx) error {
	products, err := h.Catalog.ListProducts("")
	if err != nil {
		applog.Error(c, "page.home.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Something went wrong"})
	}
	return render(c, "home", fiber.Map{"Products": products})
}

func (h *PageHandler) Products(c *fiber.Ctx) error {
	products, err := h.Catalog.ListProducts(c.Query("category"))
	if err != nil {
		applog.Error(c, "page.products.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Something went wrong"})
	}
	return render(c, "products", fiber.Map{"Products": products, "Category": c.Query("category")})
}

func (h *PageHandler) About(c *fiber.Ctx) error   { return render(c, "about", nil) }
func (h *PageHandler) FAQ(c *fiber.Ctx) error     { return render(c, "faq", nil) }
func (h *PageHandler) Terms(c *fiber.Ctx) error   { return render(c, "terms", nil) }
func (h *PageHandler) Contact(c *fiber.Ctx) error { return render(c, "contact", nil) }
func (h *PageHandler) Orders(c *fiber.Ctx) error  { return render(c, "orders", nil) }
func (h *PageHandler) Checkout(c *fiber.Ctx) error {
	return render(c, "checkout", nil)
}
