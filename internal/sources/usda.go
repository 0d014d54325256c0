package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openpantry/barcode-resolver/internal/models"
)

const usdaBaseURL = "https://api.nal.usda.gov"

// USDA queries the FoodData Central branded-food search by GTIN/UPC. An API
// key is required; without one every lookup fails as a transient error so the
// pipeline skips this adapter instead of crashing.
type USDA struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ Adapter = (*USDA)(nil)

func NewUSDA(baseURL, apiKey string, timeout time.Duration) *USDA {
	if baseURL == "" {
		baseURL = usdaBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &USDA{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (a *USDA) Name() string { return "usda" }

type usdaFood struct {
	Description         string  `json:"description"`
	BrandOwner          string  `json:"brandOwner"`
	BrandedFoodCategory string  `json:"brandedFoodCategory"`
	Ingredients         string  `json:"ingredients"`
	GtinUpc             string  `json:"gtinUpc"`
	ServingSize         float64 `json:"servingSize"`
	ServingSizeUnit     string  `json:"servingSizeUnit"`
	FoodNutrients       []struct {
		NutrientName string  `json:"nutrientName"`
		Value        float64 `json:"value"`
		UnitName     string  `json:"unitName"`
	} `json:"foodNutrients"`
}

// usdaNutrients maps FoodData Central nutrient names to canonical keys.
var usdaNutrients = map[string]string{
	"Energy":                        "calories",
	"Protein":                       "protein",
	"Total lipid (fat)":             "fat",
	"Fatty acids, total saturated":  "saturated_fat",
	"Carbohydrate, by difference":   "carbohydrates",
	"Fiber, total dietary":          "fiber",
	"Sugars, total including NLEA":  "sugars",
	"Sodium, Na":                    "sodium",
}

func (a *USDA) Lookup(ctx context.Context, barcode string) (RawProduct, error) {
	if a.apiKey == "" {
		return RawProduct{}, errors.New("usda: missing api key")
	}

	query := url.Values{}
	query.Set("api_key", a.apiKey)
	query.Set("query", barcode)
	query.Set("dataType", "Branded")
	query.Set("pageSize", "5")
	endpoint := fmt.Sprintf("%s/fdc/v1/foods/search?%s", a.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RawProduct{}, fmt.Errorf("usda request: %w", err)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return RawProduct{}, fmt.Errorf("usda request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RawProduct{}, fmt.Errorf("usda status %d", resp.StatusCode)
	}

	var body struct {
		Foods []usdaFood `json:"foods"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return RawProduct{}, fmt.Errorf("usda decode: %w", err)
	}

	food, ok := matchUPC(body.Foods, barcode)
	if !ok {
		return RawProduct{}, ErrNotFound
	}

	raw := RawProduct{
		Barcode:        barcode,
		Name:           food.Description,
		Brand:          food.BrandOwner,
		Category:       food.BrandedFoodCategory,
		IngredientsRaw: food.Ingredients,
		Nutrition: models.Nutrition{
			Nutrients: make(map[string]models.Nutrient),
		},
	}
	if food.ServingSize > 0 {
		raw.Nutrition.ServingSize = fmt.Sprintf("%g %s", food.ServingSize, food.ServingSizeUnit)
	}
	for _, n := range food.FoodNutrients {
		key, ok := usdaNutrients[n.NutrientName]
		if !ok {
			continue
		}
		raw.Nutrition.Nutrients[key] = models.Nutrient{
			Amount: n.Value,
			Unit:   strings.ToLower(n.UnitName),
		}
	}
	return raw, nil
}

// matchUPC picks the search result whose GTIN matches the barcode; the search
// endpoint does free-text matching, so a literal match is required.
func matchUPC(foods []usdaFood, barcode string) (usdaFood, bool) {
	want := strings.TrimLeft(barcode, "0")
	for _, f := range foods {
		if strings.TrimLeft(f.GtinUpc, "0") == want {
			return f, true
		}
	}
	return usdaFood{}, false
}
