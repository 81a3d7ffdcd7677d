package handlers

import (
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"milkpukki/internal/config"
	"milkpukki/internal/payment"
	"milkpukki/internal/repos"
	"milkpukki/internal/services"
)

type Deps struct {
	ProductHandler *ProductHandler
	StockHandler   *StockHandler
	OrderHandler   *OrderHandler
	PaymentHandler *PaymentHandler
	ContactHandler *ContactHandler
	AdminHandler   *AdminHandler
	PageHandler    *PageHandler

	Watcher *services.ExpiryWatcher
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService, rdb *redis.Client) *Deps {
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	contactRepo := repos.NewContactRepo(db)

	invSvc := services.NewInventoryService(prodRepo)
	catalogSvc := services.NewCatalogService(prodRepo)
	orderSvc := services.NewOrderService(orderRepo, prodRepo, invSvc)
	orderSvc.Cache = rdb
	watcher := services.NewExpiryWatcher(orderRepo, orderSvc)
	paySvc := &services.PaymentService{
		Orders:  orderRepo,
		Gateway: payment.NewClient(cfg.ChapaBaseURL, cfg.ChapaSecret),
		BaseURL: cfg.BaseURL,
		Redis:   rdb,
	}

	return &Deps{
		ProductHandler: &ProductHandler{Catalog: catalogSvc, Inv: invSvc},
		StockHandler:   &StockHandler{Inv: invSvc},
		OrderHandler:   &OrderHandler{Orders: orderSvc, Repo: orderRepo, Watcher: watcher},
		PaymentHandler: &PaymentHandler{Payments: paySvc},
		ContactHandler: &ContactHandler{Contacts: contactRepo},
		AdminHandler:   &AdminHandler{Orders: orderSvc, Repo: orderRepo, Catalog: catalogSvc, Contacts: contactRepo},
		PageHandler:    &PageHandler{Catalog: catalogSvc},
		Watcher:        watcher,
	}
}
