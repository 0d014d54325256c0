package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOpenFoodFactsLookupFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/product/4006381333931.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{
			"status": 1,
			"product": {
				"product_name": "Penne Rigate",
				"brands": "Barilla",
				"categories": "Pasta",
				"ingredients_text": "Durum wheat semolina, water",
				"ingredients": [{"text": "Durum wheat semolina", "percent_estimate": 99}],
				"image_url": "https://images.example/penne.jpg",
				"serving_size": "85 g",
				"nutriscore_grade": "a",
				"nutriments": {
					"energy-kcal_100g": 359,
					"energy-kcal_unit": "kcal",
					"proteins_100g": 13,
					"proteins_unit": "g"
				}
			}
		}`)
	}))
	defer srv.Close()

	adapter := NewOpenFoodFacts(srv.URL, time.Second)
	raw, err := adapter.Lookup(context.Background(), "4006381333931")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if raw.Name != "Penne Rigate" || raw.Brand != "Barilla" {
		t.Errorf("unexpected mapping: %+v", raw)
	}
	if len(raw.Ingredients) != 1 || raw.Ingredients[0].Name != "Durum wheat semolina" {
		t.Errorf("unexpected ingredients: %+v", raw.Ingredients)
	}
	if raw.Nutrition.Grade != "a" || raw.Nutrition.ServingSize != "85 g" {
		t.Errorf("unexpected nutrition: %+v", raw.Nutrition)
	}
	if n := raw.Nutrition.Nutrients["calories"]; n.Amount != 359 || n.Unit != "kcal" {
		t.Errorf("unexpected calories: %+v", n)
	}
	if n := raw.Nutrition.Nutrients["protein"]; n.Amount != 13 || n.Unit != "g" {
		t.Errorf("unexpected protein: %+v", n)
	}
}

func TestOpenFoodFactsLookupNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": 0}`)
	}))
	defer srv.Close()

	adapter := NewOpenFoodFacts(srv.URL, time.Second)
	_, err := adapter.Lookup(context.Background(), "00000000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenFoodFactsServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	adapter := NewOpenFoodFacts(srv.URL, time.Second)
	_, err := adapter.Lookup(context.Background(), "4006381333931")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected a transient error, got %v", err)
	}
}
