package services

import (
	"errors"

	"milkpukki/internal/domain"
	"milkpukki/internal/repos"
)

var (
	ErrInvalidDelta      = errors.New("delta must be a non-zero integer")
	ErrProductNotFound   = repos.ErrProductNotFound
	ErrInsufficientStock = repos.ErrInsufficientStock
)

// InventoryService is the inventory ledger: product stock is the single
// source of truth for availability, and every mutation (cart changes,
// restocks, order cancellation) goes through ApplyStockDelta.
type InventoryService struct {
	Prods *repos.ProductRepo
}

func NewInventoryService(prods *repos.ProductRepo) *InventoryService {
	return &InventoryService{Prods: prods}
}

// ApplyStockDelta applies a signed stock adjustment: negative reserves,
// positive releases. The update is atomic at the storage layer. Returns the
// product with its new stock so callers can refresh their view without a
// second fetch.
func (s *InventoryService) ApplyStockDelta(productID int64, delta int) (domain.Product, error) {
	if delta == 0 {
		return domain.Product{}, ErrInvalidDelta
	}
	if productID <= 0 {
		return domain.Product{}, ErrProductNotFound
	}
	return s.Prods.ApplyDelta(productID, delta)
}

// Availability buckets current stock for product pages.
func (s *InventoryService) Availability(productID int64) (domain.Availability, error) {
	p, err := s.Prods.Get(productID)
	if err != nil {
		return domain.Availability{}, err
	}
	status := "OUT_OF_STOCK"
	switch {
	case p.Stock >= 5:
		status = "IN_STOCK"
	case p.Stock > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: p.Stock}, nil
}
