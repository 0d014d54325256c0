package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/openpantry/barcode-resolver/internal/models"
)

// ProductCache mirrors product records in the fast tier as JSON. An entry
// never outlives the durable record it mirrors: mutation paths invalidate it.
type ProductCache struct {
	backend Cache
	ttl     time.Duration
}

func NewProductCache(backend Cache, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ProductCache{backend: backend, ttl: ttl}
}

func (pc *ProductCache) Get(ctx context.Context, barcode string) (models.Product, bool) {
	data, ok := pc.backend.Get(ctx, ProductKey(barcode))
	if !ok {
		return models.Product{}, false
	}
	var p models.Product
	if err := json.Unmarshal(data, &p); err != nil {
		// Corrupt mirror; drop it and treat as a miss.
		pc.backend.Invalidate(ctx, ProductKey(barcode))
		return models.Product{}, false
	}
	return p, true
}

func (pc *ProductCache) Put(ctx context.Context, p models.Product) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	pc.backend.Put(ctx, ProductKey(p.Barcode), data, pc.ttl)
}

func (pc *ProductCache) Invalidate(ctx context.Context, barcode string) {
	pc.backend.Invalidate(ctx, ProductKey(barcode))
}
