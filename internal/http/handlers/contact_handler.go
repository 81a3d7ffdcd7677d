package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "milkpukki/internal/log"
	"milkpukki/internal/repos"
	"milkpukki/internal/validate"
)

type ContactHandler struct {
	Contacts *repos.ContactRepo
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Submit handles POST /api/contact.
func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	name, okN := validate.Name(req.Name)
	email, okE := validate.Email(req.Email)
	if !okN || !okE || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name, email and message are required"})
	}

	sub, err := h.Contacts.Create(name, email, req.Message)
	if err != nil {
		applog.Error(c, "contact.submit.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	applog.Info(c, "contact.submit", map[string]any{"id": sub.ID})
	return c.Status(fiber.StatusCreated).JSON(sub)
}

// List handles GET /api/contact (admin).
func (h *ContactHandler) List(c *fiber.Ctx) error {
	subs, err := h.Contacts.ListAll()
	if err != nil {
		applog.Error(c, "contact.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(subs)
}
