package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/openpantry/barcode-resolver/internal/analyzer"
	"github.com/openpantry/barcode-resolver/internal/models"
	"github.com/openpantry/barcode-resolver/internal/repo"
)

// ErrCuratedRecord is returned when a write would touch a curated record.
var ErrCuratedRecord = errors.New("record is curated and cannot be modified")

// CurateRequest carries operator-supplied overrides. Nil fields are left
// untouched.
type CurateRequest struct {
	Name           *string           `json:"name"`
	Brand          *string           `json:"brand"`
	Category       *string           `json:"category"`
	IngredientsRaw *string           `json:"ingredients_raw"`
	ImageURL       *string           `json:"image_url"`
	Nutrition      *models.Nutrition `json:"nutrition"`
}

// ContributeRequest carries crowd-sourced product fields.
type ContributeRequest struct {
	Name           string `json:"name"`
	Brand          string `json:"brand"`
	Category       string `json:"category"`
	IngredientsRaw string `json:"ingredients_raw"`
	ImageURL       string `json:"image_url"`
}

// Curate applies an operator edit. The record becomes curated, verified and
// active, immune to automatic overwrite from then on. The fast-cache mirror
// is invalidated, not overwritten, so a stale copy cannot outlive the edit.
func (r *Resolver) Curate(ctx context.Context, barcode string, req CurateRequest) (models.Product, error) {
	now := r.now()
	create := false

	p, err := r.repo.GetByBarcode(barcode)
	if errors.Is(err, repo.ErrProductNotFound) {
		p = models.Product{Barcode: barcode, CreatedAt: now}
		create = true
	} else if err != nil {
		return models.Product{}, fmt.Errorf("curate %s: %w", barcode, err)
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Brand != nil {
		p.Brand = *req.Brand
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.ImageURL != nil {
		p.ImageURL = *req.ImageURL
	}
	if req.Nutrition != nil {
		p.Nutrition = *req.Nutrition
	}
	if req.IngredientsRaw != nil {
		p.IngredientsRaw = *req.IngredientsRaw
		p.FlaggedAdditives = analyzer.Analyze(p.IngredientsRaw)
	}

	p.Source = models.SourceCurated
	p.Status = models.StatusActive
	p.IsVerified = true
	p.UpdatedAt = now

	saved, err := r.save(p, create)
	if err != nil {
		return models.Product{}, fmt.Errorf("curate %s: %w", barcode, err)
	}
	r.cache.Invalidate(ctx, barcode)
	return saved, nil
}

// Contribute creates or updates a crowd-sourced record. Contributions land as
// pending_review and never modify curated records.
func (r *Resolver) Contribute(ctx context.Context, barcode string, req ContributeRequest) (models.Product, error) {
	now := r.now()
	create := false

	p, err := r.repo.GetByBarcode(barcode)
	if errors.Is(err, repo.ErrProductNotFound) {
		p = models.Product{Barcode: barcode, CreatedAt: now}
		create = true
	} else if err != nil {
		return models.Product{}, fmt.Errorf("contribute %s: %w", barcode, err)
	}
	if !create && p.Source == models.SourceCurated {
		return models.Product{}, ErrCuratedRecord
	}

	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Brand != "" {
		p.Brand = req.Brand
	}
	if req.Category != "" {
		p.Category = req.Category
	}
	if req.ImageURL != "" {
		p.ImageURL = req.ImageURL
	}
	if req.IngredientsRaw != "" {
		p.IngredientsRaw = req.IngredientsRaw
		p.FlaggedAdditives = analyzer.Analyze(p.IngredientsRaw)
	}

	p.Source = models.SourceUser
	p.Status = models.StatusPendingReview
	p.UserContributed = true
	p.UpdatedAt = now

	saved, err := r.save(p, create)
	if err != nil {
		return models.Product{}, fmt.Errorf("contribute %s: %w", barcode, err)
	}
	r.cache.Invalidate(ctx, barcode)
	return saved, nil
}

// Delete soft-deletes a record; the row itself is never dropped.
func (r *Resolver) Delete(ctx context.Context, barcode string) error {
	if err := r.repo.SoftDelete(barcode, r.now()); err != nil {
		return err
	}
	r.cache.Invalidate(ctx, barcode)
	return nil
}

func (r *Resolver) save(p models.Product, create bool) (models.Product, error) {
	if create {
		return r.repo.Create(p)
	}
	return r.repo.Update(p)
}
