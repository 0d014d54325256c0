package repo

import (
	"errors"
	"testing"
	"time"

	"github.com/openpantry/barcode-resolver/internal/models"
)

func TestRecordMissCreatesThenIncrements(t *testing.T) {
	r := NewInMemoryProductRepository()
	now := time.Now().UTC()

	p, err := r.RecordMiss("12345678", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != models.StatusNotFound || p.SearchAttempts != 1 {
		t.Errorf("expected fresh not_found record with one attempt, got %+v", p)
	}

	later := now.Add(25 * time.Hour)
	p, err = r.RecordMiss("12345678", later)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.SearchAttempts != 2 {
		t.Errorf("expected second attempt, got %d", p.SearchAttempts)
	}
	if !p.LastSearched.Equal(later) {
		t.Errorf("expected last searched reset to %v, got %v", later, p.LastSearched)
	}
	if !p.CreatedAt.Equal(now) {
		t.Errorf("expected creation time preserved, got %v", p.CreatedAt)
	}
}

func TestSoftDelete(t *testing.T) {
	r := NewInMemoryProductRepository()
	now := time.Now().UTC()

	if err := r.SoftDelete("12345678", now); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound for unknown barcode, got %v", err)
	}

	r.Create(models.Product{Barcode: "12345678", Status: models.StatusActive})
	if err := r.SoftDelete("12345678", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err := r.GetByBarcode("12345678")
	if err != nil {
		t.Fatalf("expected soft-deleted record to remain readable, got %v", err)
	}
	if p.Status != models.StatusDeleted {
		t.Errorf("expected status deleted, got %s", p.Status)
	}
}

func TestUpdateUnknownBarcode(t *testing.T) {
	r := NewInMemoryProductRepository()
	_, err := r.Update(models.Product{Barcode: "00000000"})
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}
