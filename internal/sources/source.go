// Package sources wraps the external product data providers. Each adapter
// covers exactly one provider and owns its response-to-payload mapping; the
// pipeline never sees provider-specific shapes.
package sources

import (
	"context"
	"errors"

	"github.com/openpantry/barcode-resolver/internal/models"
)

// RawProduct is the provider-agnostic payload an adapter produces from its
// provider's response. Field semantics match the canonical product fields.
type RawProduct struct {
	Barcode        string
	Name           string
	Brand          string
	Category       string
	IngredientsRaw string
	Ingredients    []models.Ingredient
	Nutrition      models.Nutrition
	ImageURL       string
}

// ErrNotFound reports that the provider definitively has no data for the
// barcode. Any other lookup error is transient: the pipeline advances to the
// next adapter without failing the resolution.
var ErrNotFound = errors.New("product not found at provider")

// Adapter wraps one external data provider behind a single lookup capability.
type Adapter interface {
	Name() string
	Lookup(ctx context.Context, barcode string) (RawProduct, error)
}
