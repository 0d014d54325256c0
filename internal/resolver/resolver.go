// Package resolver implements the resolution pipeline: layered cache checks,
// the negative-cache gate, the ordered external fallback chain and the
// persistence step, with per-barcode request coalescing.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/openpantry/barcode-resolver/internal/cache"
	"github.com/openpantry/barcode-resolver/internal/events"
	"github.com/openpantry/barcode-resolver/internal/models"
	"github.com/openpantry/barcode-resolver/internal/normalizer"
	"github.com/openpantry/barcode-resolver/internal/repo"
	"github.com/openpantry/barcode-resolver/internal/sources"
)

const (
	defaultRetryWindow    = 24 * time.Hour
	defaultAdapterTimeout = 8 * time.Second
)

const genericFailureMessage = "resolution failed, try again later"

var missSuggestions = []string{
	"Check the barcode digits and rescan",
	"Try again later, providers may be temporarily unavailable",
	"Contribute the product details manually",
}

// Options tune the pipeline policies.
type Options struct {
	// RetryWindow suppresses external re-queries for recorded misses.
	RetryWindow time.Duration
	// AdapterTimeout bounds each individual adapter call.
	AdapterTimeout time.Duration
}

// Resolver composes the cache tiers and the ordered adapter chain into a
// single resolve operation.
type Resolver struct {
	cache    *cache.ProductCache
	repo     repo.ProductRepository
	adapters []sources.Adapter
	sink     events.Sink
	log      *zap.Logger

	retryWindow    time.Duration
	adapterTimeout time.Duration

	group singleflight.Group
	now   func() time.Time
}

func New(products *cache.ProductCache, store repo.ProductRepository, adapters []sources.Adapter, sink events.Sink, log *zap.Logger, opts Options) *Resolver {
	if sink == nil {
		sink = events.NopSink{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.RetryWindow <= 0 {
		opts.RetryWindow = defaultRetryWindow
	}
	if opts.AdapterTimeout <= 0 {
		opts.AdapterTimeout = defaultAdapterTimeout
	}
	return &Resolver{
		cache:          products,
		repo:           store,
		adapters:       adapters,
		sink:           sink,
		log:            log,
		retryWindow:    opts.RetryWindow,
		adapterTimeout: opts.AdapterTimeout,
		now:            time.Now,
	}
}

type flightOutcome struct {
	result models.ResolutionResult
	err    error
}

// Resolve runs the pipeline for one barcode. The fast-cache check happens per
// caller; everything past it is coalesced so that at most one store/external
// sequence is in flight per barcode process-wide.
func (r *Resolver) Resolve(ctx context.Context, barcode string) (models.ResolutionResult, error) {
	if p, ok := r.cache.Get(ctx, barcode); ok {
		r.emit(barcode, events.OutcomeHitCache, string(p.Source), models.CacheTierFast)
		return models.ResolutionResult{
			Success:   true,
			Data:      &p,
			FromCache: true,
			CacheTier: models.CacheTierFast,
			Source:    string(p.Source),
		}, nil
	}

	v, _, _ := r.group.Do(barcode, func() (any, error) {
		// The flight outlives any single caller; a canceled request must not
		// abort the shared sequence for the others awaiting it.
		result, err := r.resolveUncached(context.WithoutCancel(ctx), barcode)
		return flightOutcome{result: result, err: err}, nil
	})
	outcome := v.(flightOutcome)
	return outcome.result, outcome.err
}

func (r *Resolver) resolveUncached(ctx context.Context, barcode string) (models.ResolutionResult, error) {
	existing, err := r.repo.GetByBarcode(barcode)
	if err != nil && !errors.Is(err, repo.ErrProductNotFound) {
		r.log.Error("store lookup failed", zap.String("barcode", barcode), zap.Error(err))
		r.emit(barcode, events.OutcomeError, "", "")
		return models.ResolutionResult{Success: false, Message: genericFailureMessage}, fmt.Errorf("store lookup: %w", err)
	}
	if err == nil {
		if result, done := r.resolveStored(ctx, existing); done {
			return result, nil
		}
	}
	return r.resolveExternal(ctx, barcode)
}

// resolveStored decides whether a durable record terminates the request.
// Only a recorded miss outside the retry window falls through to the
// external chain.
func (r *Resolver) resolveStored(ctx context.Context, p models.Product) (models.ResolutionResult, bool) {
	switch {
	case p.Source == models.SourceCurated, p.Status == models.StatusActive:
		// Curated records are terminal regardless of status.
		r.cache.Put(ctx, p)
		r.emit(p.Barcode, events.OutcomeHitStore, string(p.Source), models.CacheTierStore)
		return models.ResolutionResult{
			Success:   true,
			Data:      &p,
			FromCache: true,
			CacheTier: models.CacheTierStore,
			Source:    string(p.Source),
		}, true

	case p.Status == models.StatusPendingReview:
		r.emit(p.Barcode, events.OutcomeHitStore, string(p.Source), models.CacheTierStore)
		return models.ResolutionResult{
			Success:   true,
			Data:      &p,
			FromCache: true,
			CacheTier: models.CacheTierStore,
			Source:    string(p.Source),
			Message:   "contributed record awaiting review",
		}, true

	case p.Status == models.StatusDeleted:
		r.emit(p.Barcode, events.OutcomeMissRecorded, "", "")
		return models.ResolutionResult{
			Success: false,
			Message: "product has been removed",
		}, true

	case p.Status == models.StatusNotFound && r.now().Sub(p.LastSearched) < r.retryWindow:
		// Negative cache: suppress external calls inside the retry window.
		r.emit(p.Barcode, events.OutcomeMissRecorded, "", "")
		return models.ResolutionResult{
			Success:     false,
			Message:     "product not found",
			Suggestions: missSuggestions,
		}, true
	}
	return models.ResolutionResult{}, false
}

// resolveExternal walks the adapter chain in priority order, persisting and
// caching the first hit. Transient adapter failures advance to the next
// adapter; exhausting the chain records a miss.
func (r *Resolver) resolveExternal(ctx context.Context, barcode string) (models.ResolutionResult, error) {
	transientErrors := 0
	for _, adapter := range r.adapters {
		raw, err := r.lookupWithTimeout(ctx, adapter, barcode)
		if err != nil {
			if errors.Is(err, sources.ErrNotFound) {
				continue
			}
			transientErrors++
			r.log.Warn("adapter lookup failed",
				zap.String("adapter", adapter.Name()),
				zap.String("barcode", barcode),
				zap.Error(err))
			continue
		}

		raw.Barcode = barcode
		product := normalizer.Normalize(raw, models.Source(adapter.Name()), r.now())
		persisted, err := r.persist(product)
		if err != nil {
			// Do not cache a record that failed to persist.
			r.log.Error("persist failed", zap.String("barcode", barcode), zap.Error(err))
			r.emit(barcode, events.OutcomeError, adapter.Name(), "")
			return models.ResolutionResult{Success: false, Message: genericFailureMessage}, fmt.Errorf("persist %s: %w", barcode, err)
		}
		r.cache.Put(ctx, persisted)
		r.emit(barcode, events.OutcomeHitExternal, adapter.Name(), "")
		return models.ResolutionResult{
			Success: true,
			Data:    &persisted,
			Source:  adapter.Name(),
		}, nil
	}

	if transientErrors > 0 {
		r.log.Info("external fallback exhausted",
			zap.String("barcode", barcode),
			zap.Int("transient_errors", transientErrors))
	}
	if _, err := r.repo.RecordMiss(barcode, r.now()); err != nil {
		r.log.Error("recording miss failed", zap.String("barcode", barcode), zap.Error(err))
	}
	r.emit(barcode, events.OutcomeMissRecorded, "", "")
	return models.ResolutionResult{
		Success:     false,
		Message:     "product not found",
		Suggestions: missSuggestions,
	}, nil
}

func (r *Resolver) lookupWithTimeout(ctx context.Context, adapter sources.Adapter, barcode string) (sources.RawProduct, error) {
	ctx, cancel := context.WithTimeout(ctx, r.adapterTimeout)
	defer cancel()
	return adapter.Lookup(ctx, barcode)
}

// persist applies the write policy: insert new barcodes, merge over existing
// records, never touch curated ones.
func (r *Resolver) persist(product models.Product) (models.Product, error) {
	existing, err := r.repo.GetByBarcode(product.Barcode)
	if errors.Is(err, repo.ErrProductNotFound) {
		return r.repo.Create(product)
	}
	if err != nil {
		return models.Product{}, err
	}
	if existing.Source == models.SourceCurated {
		return existing, nil
	}
	return r.repo.Update(normalizer.Merge(existing, product))
}

func (r *Resolver) emit(barcode string, outcome events.Outcome, source, tier string) {
	r.sink.Record(events.ResolutionEvent{
		Barcode:   barcode,
		Outcome:   outcome,
		Source:    source,
		CacheTier: tier,
		Timestamp: r.now(),
	})
}
