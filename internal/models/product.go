package models

import "time"

// Source identifies where a product record's data came from. Curated outranks
// every other source: a curated record is never overwritten automatically.
type Source string

const (
	SourceCurated       Source = "curated"
	SourceOpenFoodFacts Source = "openfoodfacts"
	SourceUSDA          Source = "usda"
	SourceNutritionix   Source = "nutritionix"
	SourceUser          Source = "user"
)

// Status drives cache eligibility and the external retry policy. Records are
// never physically removed; deletion is the deleted status.
type Status string

const (
	StatusActive        Status = "active"
	StatusNotFound      Status = "not_found"
	StatusPendingReview Status = "pending_review"
	StatusDeleted       Status = "deleted"
)

// Ingredient is one entry of a structured ingredient list.
type Ingredient struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent,omitempty"`
}

// Nutrient is a single nutrient amount with its unit.
type Nutrient struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// Nutrition groups the nutrition facts reported by a data provider.
type Nutrition struct {
	Nutrients   map[string]Nutrient `json:"nutrients,omitempty"`
	ServingSize string              `json:"serving_size,omitempty"`
	Grade       string              `json:"grade,omitempty"`
}

// AdditiveFinding is a structured warning derived from the raw ingredient
// text. It is recomputed whenever IngredientsRaw changes and is never
// user-supplied.
type AdditiveFinding struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Code     string   `json:"code"`
	Concerns []string `json:"concerns"`
}

// Product is the canonical product record, one per barcode.
type Product struct {
	Barcode          string            `json:"barcode"`
	Name             string            `json:"name"`
	Brand            string            `json:"brand"`
	Category         string            `json:"category"`
	IngredientsRaw   string            `json:"ingredients_raw"`
	Ingredients      []Ingredient      `json:"ingredients"`
	Nutrition        Nutrition         `json:"nutrition"`
	FlaggedAdditives []AdditiveFinding `json:"flagged_additives"`
	ImageURL         string            `json:"image_url"`
	Source           Source            `json:"source"`
	Status           Status            `json:"status"`
	IsVerified       bool              `json:"is_verified"`
	UserContributed  bool              `json:"user_contributed"`
	SearchAttempts   int               `json:"search_attempts"`
	LastSearched     time.Time         `json:"last_searched,omitzero"`
	CreatedAt        time.Time         `json:"created_at,omitzero"`
	UpdatedAt        time.Time         `json:"updated_at,omitzero"`
}
