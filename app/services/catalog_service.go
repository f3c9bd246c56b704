package services

import (
	"time"

	"github.com/mad23dog/nomad-detroit-coffee/app/models"
	"github.com/mad23dog/nomad-detroit-coffee/app/repositories"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/cache"
)

const (
	// MaxStock bounds an admin stock adjustment.
	MaxStock = 10000

	productsCacheKey = "products:available"
	productsCacheTTL = 30 * time.Second
)

// CatalogService exposes the storefront catalog. Reads go through the
// cache; any stock write invalidates it.
type CatalogService struct {
	products *repositories.ProductRepository
}

func NewCatalogService(products *repositories.ProductRepository) *CatalogService {
	return &CatalogService{products: products}
}

// ListAvailable returns every product a customer can currently buy.
func (s *CatalogService) ListAvailable() ([]models.Product, *Error) {
	var cached []models.Product
	if cache.Get(productsCacheKey, &cached) {
		return cached, nil
	}
	products, err := s.products.ListAvailable()
	if err != nil {
		return nil, storageError(err)
	}
	cache.Set(productsCacheKey, products, productsCacheTTL)
	return products, nil
}

// GetByID returns a single product, in or out of stock.
func (s *CatalogService) GetByID(id uint) (*models.Product, *Error) {
	product, err := s.products.FindByID(id)
	if err != nil {
		return nil, storageError(err)
	}
	if product == nil {
		return nil, NewError(CodeProductNotFound, "no such product")
	}
	return product, nil
}

// SetStock overwrites a product's stock level from the back office.
func (s *CatalogService) SetStock(id uint, quantity int) (*models.Product, *Error) {
	if quantity < 0 || quantity > MaxStock {
		return nil, NewError(CodeInvalidQuantity,
			"stock must be between 0 and %d", MaxStock)
	}
	ok, err := s.products.SetStock(id, quantity)
	if err != nil {
		return nil, storageError(err)
	}
	if !ok {
		return nil, NewError(CodeProductNotFound, "no such product")
	}
	cache.Forget(productsCacheKey)
	return s.GetByID(id)
}
