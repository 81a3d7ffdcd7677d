package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"milkpukki/internal/config"
	"milkpukki/internal/http/handlers"
	"milkpukki/internal/repos"
	"milkpukki/internal/services"
)

// newAPIApp builds a minimal app with the JSON API surface wired the same
// way main() does it, against a fresh in-memory database.
func newAPIApp(t *testing.T) (*fiber.App, *sqlx.DB, *repos.UserRepo) {
	t.Helper()
	cfg := config.Config{DBDSN: ":memory:", BaseURL: "http://localhost:8080"}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Server().MaxRequestBodySize = 1 << 20
	app.Use(requestid.New())
	app.Use(limiter.New(limiter.Config{Max: 1000, Expiration: 0}))
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
				c.Locals("uid", u.ID)
			}
		}
		return c.Next()
	})

	deps := handlers.NewDeps(db, cfg, authSvc, nil)

	api := app.Group("/api")
	api.Get("/products", deps.ProductHandler.List)
	api.Post("/products", handlers.RequireAdmin(authSvc), deps.ProductHandler.Add)
	api.Post("/stock", handlers.RequireUser(authSvc), deps.StockHandler.Update)
	api.Post("/checkout", handlers.RequireUser(authSvc), deps.OrderHandler.Checkout)
	api.Get("/user/orders", handlers.RequireUser(authSvc), deps.OrderHandler.ListMine)
	api.Get("/order-status/:id", handlers.RequireUser(authSvc), deps.OrderHandler.Status)
	api.Delete("/expired-order", handlers.RequireUser(authSvc), deps.OrderHandler.DeleteExpired)
	api.Get("/orders", handlers.RequireAdmin(authSvc), deps.AdminHandler.ListOrders)
	api.Patch("/orders/:id/status", handlers.RequireAdmin(authSvc), deps.AdminHandler.UpdateStatus)
	api.Patch("/orders/:id/deliver", handlers.RequireAdmin(authSvc), deps.AdminHandler.Deliver)

	return app, db, userRepo
}

// seedProduct inserts a product row and returns its id. The category must be
// one of the allowed set or the CHECK constraint rejects the row.
func seedProduct(t *testing.T, db *sqlx.DB, name string, price float64, stock int) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO products(name,price,category,stock) VALUES(?,?,'MILK',?)`, name, price, stock)
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatal(err)
	}
	return id
}

// asUser binds a session cookie to one of the seeded accounts.
func asUser(t *testing.T, userRepo *repos.UserRepo, userID string) *http.Cookie {
	t.Helper()
	sid := "sid-" + userID
	if err := userRepo.BindSession(sid, userID); err != nil {
		t.Fatalf("bind session: %v", err)
	}
	return &http.Cookie{Name: "sid", Value: sid}
}

func jsonReq(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
