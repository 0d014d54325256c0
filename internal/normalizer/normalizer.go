// Package normalizer maps adapter payloads into the canonical product shape
// and applies the merge policy for writes to the durable store.
package normalizer

import (
	"time"

	"github.com/openpantry/barcode-resolver/internal/analyzer"
	"github.com/openpantry/barcode-resolver/internal/models"
	"github.com/openpantry/barcode-resolver/internal/sources"
)

// Normalize produces the canonical product record for an adapter payload.
// Missing fields default to empty strings and empty collections; the additive
// analyzer runs on the raw ingredient text before the record is written.
func Normalize(raw sources.RawProduct, source models.Source, now time.Time) models.Product {
	p := models.Product{
		Barcode:        raw.Barcode,
		Name:           raw.Name,
		Brand:          raw.Brand,
		Category:       raw.Category,
		IngredientsRaw: raw.IngredientsRaw,
		Ingredients:    raw.Ingredients,
		Nutrition:      raw.Nutrition,
		ImageURL:       raw.ImageURL,
		Source:         source,
		Status:         models.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if p.Ingredients == nil {
		p.Ingredients = []models.Ingredient{}
	}
	if p.Nutrition.Nutrients == nil {
		p.Nutrition.Nutrients = map[string]models.Nutrient{}
	}
	p.FlaggedAdditives = analyzer.Analyze(p.IngredientsRaw)
	return p
}

// Merge applies a fresh resolution over an existing record: fields present in
// the update overwrite, absent fields keep their stored values, identity and
// creation time are preserved. Curated records are returned unchanged.
func Merge(existing, update models.Product) models.Product {
	if existing.Source == models.SourceCurated {
		return existing
	}

	merged := update
	merged.Barcode = existing.Barcode
	merged.CreatedAt = existing.CreatedAt
	merged.SearchAttempts = existing.SearchAttempts
	merged.UserContributed = existing.UserContributed || update.UserContributed

	if update.Name == "" {
		merged.Name = existing.Name
	}
	if update.Brand == "" {
		merged.Brand = existing.Brand
	}
	if update.Category == "" {
		merged.Category = existing.Category
	}
	if update.ImageURL == "" {
		merged.ImageURL = existing.ImageURL
	}
	if len(update.Ingredients) == 0 {
		merged.Ingredients = existing.Ingredients
	}
	if len(update.Nutrition.Nutrients) == 0 && update.Nutrition.ServingSize == "" && update.Nutrition.Grade == "" {
		merged.Nutrition = existing.Nutrition
	}
	if update.IngredientsRaw == "" {
		// No new ingredient text, so the stored findings still apply.
		merged.IngredientsRaw = existing.IngredientsRaw
		merged.FlaggedAdditives = existing.FlaggedAdditives
	}
	return merged
}
