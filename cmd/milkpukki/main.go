package main

import (
	"context"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"milkpukki/internal/config"
	"milkpukki/internal/http/handlers"
	applog "milkpukki/internal/log"
	"milkpukki/internal/redisx"
	"milkpukki/internal/repos"
	"milkpukki/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	rdb := redisx.New(cfg.RedisAddr)

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	// Templates & app
	engine := html.New("./web/templates", ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			if strings.HasPrefix(c.Path(), "/api/") {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
			}
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	// Attach user to context if logged in (for templates/headers)
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
				c.Locals("uid", u.ID)
			}
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/static/")
		},
	}))
	// CSRF protects the rendered forms; JSON API routes are session-guarded
	// and exempt.
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	app.Static("/static", "./web/static")

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, authSvc, rdb)

	// Server-side expiry sweep: unpaid PENDING orders release their stock
	// even if no client ever reloads the orders page.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go deps.Watcher.Run(ctx, cfg.SweepInterval)

	// Public pages
	app.Get("/", deps.PageHandler.Home)
	app.Get("/products", deps.PageHandler.Products)
	app.Get("/product/:id", deps.ProductHandler.Detail)
	app.Get("/about", deps.PageHandler.About)
	app.Get("/faq", deps.PageHandler.FAQ)
	app.Get("/terms", deps.PageHandler.Terms)
	app.Get("/contact", deps.PageHandler.Contact)
	app.Get("/checkout", handlers.RequireUser(authSvc), deps.PageHandler.Checkout)
	app.Get("/orders", handlers.RequireUser(authSvc), deps.PageHandler.Orders)

	// Auth (login throttled)
	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), authH.Login)
	app.Get("/signup", authH.SignupForm)
	app.Post("/signup", authH.Signup)
	app.Post("/logout", authH.Logout)

	// API
	api := app.Group("/api")
	api.Get("/session", authH.Session)
	api.Get("/products", deps.ProductHandler.List)
	api.Post("/products", handlers.RequireAdmin(authSvc), deps.ProductHandler.Add)
	api.Post("/stock", handlers.RequireUser(authSvc), deps.StockHandler.Update)
	api.Post("/checkout", handlers.RequireUser(authSvc), deps.OrderHandler.Checkout)
	api.Get("/user/orders", handlers.RequireUser(authSvc), deps.OrderHandler.ListMine)
	api.Get("/order-status/:id", handlers.RequireUser(authSvc), deps.OrderHandler.Status)
	api.Delete("/expired-order", handlers.RequireUser(authSvc), deps.OrderHandler.DeleteExpired)
	api.Post("/payment", handlers.RequireUser(authSvc), deps.PaymentHandler.Initiate)
	api.Post("/payment/verify", deps.PaymentHandler.Verify)
	api.Post("/contact", deps.ContactHandler.Submit)
	api.Get("/contact", handlers.RequireAdmin(authSvc), deps.ContactHandler.List)
	api.Get("/orders", handlers.RequireAdmin(authSvc), deps.AdminHandler.ListOrders)
	api.Patch("/orders/:id/status", handlers.RequireAdmin(authSvc), deps.AdminHandler.UpdateStatus)
	api.Patch("/orders/:id/deliver", handlers.RequireAdmin(authSvc), deps.AdminHandler.Deliver)

	// Admin pages
	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/", deps.AdminHandler.Dashboard)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
