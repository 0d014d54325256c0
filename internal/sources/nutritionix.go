package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/openpantry/barcode-resolver/internal/models"
)

const nutritionixBaseURL = "https://trackapi.nutritionix.com"

// Nutritionix queries the UPC item endpoint. Both an app id and an app key
// are required; missing credentials degrade every lookup to a transient error.
type Nutritionix struct {
	baseURL string
	appID   string
	appKey  string
	http    *http.Client
}

var _ Adapter = (*Nutritionix)(nil)

func NewNutritionix(baseURL, appID, appKey string, timeout time.Duration) *Nutritionix {
	if baseURL == "" {
		baseURL = nutritionixBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Nutritionix{
		baseURL: baseURL,
		appID:   appID,
		appKey:  appKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (a *Nutritionix) Name() string { return "nutritionix" }

type nixFood struct {
	FoodName              string  `json:"food_name"`
	BrandName             string  `json:"brand_name"`
	NfIngredientStatement string  `json:"nf_ingredient_statement"`
	NfCalories            float64 `json:"nf_calories"`
	NfTotalFat            float64 `json:"nf_total_fat"`
	NfSaturatedFat        float64 `json:"nf_saturated_fat"`
	NfTotalCarbohydrate   float64 `json:"nf_total_carbohydrate"`
	NfSugars              float64 `json:"nf_sugars"`
	NfDietaryFiber        float64 `json:"nf_dietary_fiber"`
	NfProtein             float64 `json:"nf_protein"`
	NfSodium              float64 `json:"nf_sodium"`
	ServingQty            float64 `json:"serving_qty"`
	ServingUnit           string  `json:"serving_unit"`
	Photo                 struct {
		Thumb string `json:"thumb"`
	} `json:"photo"`
}

func (a *Nutritionix) Lookup(ctx context.Context, barcode string) (RawProduct, error) {
	if a.appID == "" || a.appKey == "" {
		return RawProduct{}, errors.New("nutritionix: missing credentials")
	}

	endpoint := fmt.Sprintf("%s/v2/search/item?upc=%s", a.baseURL, url.QueryEscape(barcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RawProduct{}, fmt.Errorf("nutritionix request: %w", err)
	}
	req.Header.Set("x-app-id", a.appID)
	req.Header.Set("x-app-key", a.appKey)

	resp, err := a.http.Do(req)
	if err != nil {
		return RawProduct{}, fmt.Errorf("nutritionix request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return RawProduct{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return RawProduct{}, fmt.Errorf("nutritionix status %d", resp.StatusCode)
	}

	var body struct {
		Foods []nixFood `json:"foods"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return RawProduct{}, fmt.Errorf("nutritionix decode: %w", err)
	}
	if len(body.Foods) == 0 {
		return RawProduct{}, ErrNotFound
	}

	food := body.Foods[0]
	raw := RawProduct{
		Barcode:        barcode,
		Name:           food.FoodName,
		Brand:          food.BrandName,
		IngredientsRaw: food.NfIngredientStatement,
		ImageURL:       food.Photo.Thumb,
		Nutrition: models.Nutrition{
			Nutrients: map[string]models.Nutrient{
				"calories":      {Amount: food.NfCalories, Unit: "kcal"},
				"fat":           {Amount: food.NfTotalFat, Unit: "g"},
				"saturated_fat": {Amount: food.NfSaturatedFat, Unit: "g"},
				"carbohydrates": {Amount: food.NfTotalCarbohydrate, Unit: "g"},
				"sugars":        {Amount: food.NfSugars, Unit: "g"},
				"fiber":         {Amount: food.NfDietaryFiber, Unit: "g"},
				"protein":       {Amount: food.NfProtein, Unit: "g"},
				"sodium":        {Amount: food.NfSodium, Unit: "mg"},
			},
		},
	}
	if food.ServingQty > 0 {
		raw.Nutrition.ServingSize = fmt.Sprintf("%g %s", food.ServingQty, food.ServingUnit)
	}
	return raw, nil
}
