package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/openpantry/barcode-resolver/internal/models"
)

const openFoodFactsBaseURL = "https://world.openfoodfacts.org"

// OpenFoodFacts queries the Open Food Facts v2 product endpoint. No
// credentials are required.
type OpenFoodFacts struct {
	baseURL string
	http    *http.Client
}

var _ Adapter = (*OpenFoodFacts)(nil)

func NewOpenFoodFacts(baseURL string, timeout time.Duration) *OpenFoodFacts {
	if baseURL == "" {
		baseURL = openFoodFactsBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OpenFoodFacts{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (a *OpenFoodFacts) Name() string { return "openfoodfacts" }

type offResponse struct {
	Status  int `json:"status"`
	Product struct {
		ProductName     string `json:"product_name"`
		Brands          string `json:"brands"`
		Categories      string `json:"categories"`
		IngredientsText string `json:"ingredients_text"`
		Ingredients     []struct {
			Text            string  `json:"text"`
			PercentEstimate float64 `json:"percent_estimate"`
		} `json:"ingredients"`
		ImageURL        string             `json:"image_url"`
		ServingSize     string             `json:"serving_size"`
		NutriscoreGrade string             `json:"nutriscore_grade"`
		Nutriments      map[string]any     `json:"nutriments"`
	} `json:"product"`
}

// offNutrients maps Open Food Facts nutriment keys to canonical nutrient keys.
var offNutrients = map[string]string{
	"energy-kcal":   "calories",
	"fat":           "fat",
	"saturated-fat": "saturated_fat",
	"carbohydrates": "carbohydrates",
	"sugars":        "sugars",
	"fiber":         "fiber",
	"proteins":      "protein",
	"salt":          "salt",
	"sodium":        "sodium",
}

func (a *OpenFoodFacts) Lookup(ctx context.Context, barcode string) (RawProduct, error) {
	url := fmt.Sprintf("%s/api/v2/product/%s.json", a.baseURL, barcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return RawProduct{}, fmt.Errorf("openfoodfacts request: %w", err)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return RawProduct{}, fmt.Errorf("openfoodfacts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return RawProduct{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return RawProduct{}, fmt.Errorf("openfoodfacts status %d", resp.StatusCode)
	}

	var body offResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return RawProduct{}, fmt.Errorf("openfoodfacts decode: %w", err)
	}
	if body.Status != 1 {
		return RawProduct{}, ErrNotFound
	}

	p := body.Product
	raw := RawProduct{
		Barcode:        barcode,
		Name:           p.ProductName,
		Brand:          p.Brands,
		Category:       p.Categories,
		IngredientsRaw: p.IngredientsText,
		ImageURL:       p.ImageURL,
		Nutrition: models.Nutrition{
			Nutrients:   make(map[string]models.Nutrient),
			ServingSize: p.ServingSize,
			Grade:       p.NutriscoreGrade,
		},
	}
	for _, ing := range p.Ingredients {
		raw.Ingredients = append(raw.Ingredients, models.Ingredient{
			Name:    ing.Text,
			Percent: ing.PercentEstimate,
		})
	}
	for offKey, key := range offNutrients {
		amount, ok := p.Nutriments[offKey+"_100g"].(float64)
		if !ok {
			continue
		}
		unit := "g"
		if u, ok := p.Nutriments[offKey+"_unit"].(string); ok && u != "" {
			unit = u
		}
		raw.Nutrition.Nutrients[key] = models.Nutrient{Amount: amount, Unit: unit}
	}
	return raw, nil
}
