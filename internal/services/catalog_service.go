package services

import (
	"strings"

	"milkpukki/internal/domain"
	"milkpukki/internal/repos"
)

type CatalogService struct {
	Prods *repos.ProductRepo
}

func NewCatalogService(prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Prods: prods}
}

func (s *CatalogService) ListProducts(category string) ([]domain.Product, error) {
	if category == "" {
		return s.Prods.List()
	}
	return s.Prods.ListByCategory(strings.ToUpper(category))
}

func (s *CatalogService) GetProduct(id int64) (domain.Product, error) {
	return s.Prods.Get(id)
}

// AddProduct is the admin create path. Rating and image are optional;
// category must come from the fixed set.
func (s *CatalogService) AddProduct(p domain.Product) (domain.Product, error) {
	p.Category = strings.ToUpper(strings.TrimSpace(p.Category))
	if strings.TrimSpace(p.Name) == "" || p.Price < 0 || p.Stock < 0 || !domain.Categories[p.Category] {
		return domain.Product{}, ErrValidation
	}
	return s.Prods.Create(p)
}
