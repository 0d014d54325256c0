package repo

import (
	"sync"
	"time"

	"github.com/openpantry/barcode-resolver/internal/models"
)

// InMemoryProductRepository is the in-memory implementation of
// ProductRepository, used in tests and local runs without a database.
type InMemoryProductRepository struct {
	mu       sync.Mutex
	products map[string]models.Product
}

var _ ProductRepository = (*InMemoryProductRepository)(nil)

func NewInMemoryProductRepository() *InMemoryProductRepository {
	return &InMemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

func (r *InMemoryProductRepository) GetByBarcode(barcode string) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[barcode]
	if !ok {
		return models.Product{}, ErrProductNotFound
	}
	return p, nil
}

func (r *InMemoryProductRepository) Create(product models.Product) (models.Product, error) {
	r.mu.Lock()
	r.products[product.Barcode] = product
	r.mu.Unlock()
	return product, nil
}

func (r *InMemoryProductRepository) Update(product models.Product) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.Barcode]; !ok {
		return models.Product{}, ErrProductNotFound
	}
	r.products[product.Barcode] = product
	return product, nil
}

func (r *InMemoryProductRepository) RecordMiss(barcode string, at time.Time) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[barcode]
	if !ok {
		p = models.Product{
			Barcode:        barcode,
			Status:         models.StatusNotFound,
			SearchAttempts: 1,
			LastSearched:   at,
			CreatedAt:      at,
			UpdatedAt:      at,
		}
	} else {
		p.SearchAttempts++
		p.LastSearched = at
		p.UpdatedAt = at
	}
	r.products[barcode] = p
	return p, nil
}

func (r *InMemoryProductRepository) SoftDelete(barcode string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[barcode]
	if !ok {
		return ErrProductNotFound
	}
	p.Status = models.StatusDeleted
	p.UpdatedAt = at
	r.products[barcode] = p
	return nil
}

func (r *InMemoryProductRepository) Clear() {
	r.mu.Lock()
	r.products = make(map[string]models.Product)
	r.mu.Unlock()
}
