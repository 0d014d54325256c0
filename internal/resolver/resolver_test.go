package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/openpantry/barcode-resolver/internal/cache"
	"github.com/openpantry/barcode-resolver/internal/events"
	"github.com/openpantry/barcode-resolver/internal/models"
	"github.com/openpantry/barcode-resolver/internal/normalizer"
	"github.com/openpantry/barcode-resolver/internal/repo"
	"github.com/openpantry/barcode-resolver/internal/sources"
)

type fakeAdapter struct {
	name  string
	raw   sources.RawProduct
	err   error
	block chan struct{}

	mu    sync.Mutex
	calls int
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Lookup(_ context.Context, barcode string) (sources.RawProduct, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return sources.RawProduct{}, f.err
	}
	raw := f.raw
	raw.Barcode = barcode
	return raw, nil
}

func (f *fakeAdapter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type captureSink struct {
	mu     sync.Mutex
	events []events.ResolutionEvent
}

func (s *captureSink) Record(e events.ResolutionEvent) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *captureSink) outcomes() []events.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Outcome, len(s.events))
	for i, e := range s.events {
		out[i] = e.Outcome
	}
	return out
}

type countingRepo struct {
	repo.ProductRepository

	mu      sync.Mutex
	creates int
}

func (r *countingRepo) Create(p models.Product) (models.Product, error) {
	r.mu.Lock()
	r.creates++
	r.mu.Unlock()
	return r.ProductRepository.Create(p)
}

type failingRepo struct {
	repo.ProductRepository
}

func (r *failingRepo) Create(models.Product) (models.Product, error) {
	return models.Product{}, errors.New("disk on fire")
}

func newTestResolver(store repo.ProductRepository, adapters []sources.Adapter, sink events.Sink) (*Resolver, *cache.ProductCache) {
	products := cache.NewProductCache(cache.NewMemoryCache(), time.Minute)
	r := New(products, store, adapters, sink, nil, Options{})
	return r, products
}

func TestResolveCacheHitSkipsStoreAndAdapters(t *testing.T) {
	ctx := context.Background()
	store := repo.NewInMemoryProductRepository()
	adapter := &fakeAdapter{name: "openfoodfacts"}
	r, products := newTestResolver(store, []sources.Adapter{adapter}, nil)

	products.Put(ctx, models.Product{Barcode: "12345678", Name: "Cached", Source: models.SourceUSDA})

	result, err := r.Resolve(ctx, "12345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.FromCache || result.CacheTier != models.CacheTierFast {
		t.Errorf("expected fast-tier hit, got %+v", result)
	}
	if adapter.callCount() != 0 {
		t.Errorf("expected no adapter calls, got %d", adapter.callCount())
	}
	if _, err := store.GetByBarcode("12345678"); !errors.Is(err, repo.ErrProductNotFound) {
		t.Errorf("expected the store untouched, got %v", err)
	}
}

func TestResolveStoreHitRefreshesFastCache(t *testing.T) {
	ctx := context.Background()
	store := repo.NewInMemoryProductRepository()
	adapter := &fakeAdapter{name: "openfoodfacts"}
	r, _ := newTestResolver(store, []sources.Adapter{adapter}, nil)

	store.Create(models.Product{Barcode: "12345678", Name: "Stored", Status: models.StatusActive, Source: models.SourceUSDA})

	first, err := r.Resolve(ctx, "12345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.FromCache || first.CacheTier != models.CacheTierStore {
		t.Errorf("expected store-tier hit, got %+v", first)
	}

	second, err := r.Resolve(ctx, "12345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.CacheTier != models.CacheTierFast {
		t.Errorf("expected fast-tier hit on second resolve, got %+v", second)
	}
	if adapter.callCount() != 0 {
		t.Errorf("expected no adapter calls, got %d", adapter.callCount())
	}
}

func TestNegativeCacheSuppressesRetries(t *testing.T) {
	ctx := context.Background()
	store := repo.NewInMemoryProductRepository()
	adapter := &fakeAdapter{name: "openfoodfacts", err: sources.ErrNotFound}
	r, _ := newTestResolver(store, []sources.Adapter{adapter}, nil)

	base := time.Now().UTC()
	r.now = func() time.Time { return base }

	for i := 0; i < 2; i++ {
		result, err := r.Resolve(ctx, "12345678")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Success {
			t.Fatalf("expected a miss, got %+v", result)
		}
		if len(result.Suggestions) == 0 {
			t.Errorf("expected remediation suggestions on a miss")
		}
	}
	// The first resolve walks the chain once; the second is inside the retry
	// window and must not touch the adapter again.
	if adapter.callCount() != 1 {
		t.Fatalf("expected 1 adapter call, got %d", adapter.callCount())
	}

	r.now = func() time.Time { return base.Add(25 * time.Hour) }
	if _, err := r.Resolve(ctx, "12345678"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adapter.callCount() != 2 {
		t.Errorf("expected retry after the window elapsed, got %d calls", adapter.callCount())
	}

	p, err := store.GetByBarcode("12345678")
	if err != nil {
		t.Fatalf("expected a recorded miss, got %v", err)
	}
	if p.SearchAttempts != 2 {
		t.Errorf("expected 2 search attempts, got %d", p.SearchAttempts)
	}
}

func TestFallbackOrderSkipsTransientFailures(t *testing.T) {
	ctx := context.Background()
	store := repo.NewInMemoryProductRepository()
	primary := &fakeAdapter{name: "openfoodfacts", err: errors.New("connection refused")}
	secondary := &fakeAdapter{name: "usda", raw: sources.RawProduct{Name: "From USDA"}}
	tertiary := &fakeAdapter{name: "nutritionix", raw: sources.RawProduct{Name: "From Nutritionix"}}
	sink := &captureSink{}
	r, _ := newTestResolver(store, []sources.Adapter{primary, secondary, tertiary}, sink)

	result, err := r.Resolve(ctx, "12345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Source != "usda" {
		t.Errorf("expected the secondary provider to win, got %+v", result)
	}
	if tertiary.callCount() != 0 {
		t.Errorf("expected the tertiary provider never invoked, got %d calls", tertiary.callCount())
	}

	p, err := store.GetByBarcode("12345678")
	if err != nil {
		t.Fatalf("expected a persisted record, got %v", err)
	}
	if p.Source != models.SourceUSDA || p.Status != models.StatusActive {
		t.Errorf("unexpected persisted record: %+v", p)
	}

	outcomes := sink.outcomes()
	if len(outcomes) != 1 || outcomes[0] != events.OutcomeHitExternal {
		t.Errorf("expected one hit_external event, got %v", outcomes)
	}
}

func TestCuratedRecordIsTerminal(t *testing.T) {
	ctx := context.Background()
	store := repo.NewInMemoryProductRepository()
	adapter := &fakeAdapter{name: "openfoodfacts", raw: sources.RawProduct{Name: "Provider Name"}}
	r, _ := newTestResolver(store, []sources.Adapter{adapter}, nil)

	store.Create(models.Product{
		Barcode:    "12345678",
		Name:       "Curated Name",
		Source:     models.SourceCurated,
		Status:     models.StatusActive,
		IsVerified: true,
	})

	result, err := r.Resolve(ctx, "12345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Data.Name != "Curated Name" {
		t.Errorf("expected the curated record served, got %+v", result)
	}
	if adapter.callCount() != 0 {
		t.Errorf("expected no external calls for a curated record, got %d", adapter.callCount())
	}

	// Even a direct persist of a fresh external payload must not touch it.
	update := normalizer.Normalize(sources.RawProduct{Barcode: "12345678", Name: "Provider Name"}, models.SourceOpenFoodFacts, time.Now())
	persisted, err := r.persist(update)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if persisted.Name != "Curated Name" || persisted.Source != models.SourceCurated || !persisted.IsVerified {
		t.Errorf("expected curated fields preserved, got %+v", persisted)
	}
}

func TestPersistFailureIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := &failingRepo{ProductRepository: repo.NewInMemoryProductRepository()}
	adapter := &fakeAdapter{name: "openfoodfacts", raw: sources.RawProduct{Name: "Doomed"}}
	r, products := newTestResolver(store, []sources.Adapter{adapter}, nil)

	result, err := r.Resolve(ctx, "12345678")
	if err == nil {
		t.Fatal("expected a persistence error")
	}
	if result.Success || result.Message == "" {
		t.Errorf("expected a failed result with a generic message, got %+v", result)
	}
	if _, ok := products.Get(ctx, "12345678"); ok {
		t.Error("expected nothing cached after a failed persist")
	}
}

func TestConcurrentResolvesCoalesce(t *testing.T) {
	ctx := context.Background()
	store := &countingRepo{ProductRepository: repo.NewInMemoryProductRepository()}
	adapter := &fakeAdapter{
		name:  "openfoodfacts",
		raw:   sources.RawProduct{Name: "Shared"},
		block: make(chan struct{}),
	}
	r, _ := newTestResolver(store, []sources.Adapter{adapter}, nil)

	const n = 8
	var wg sync.WaitGroup
	results := make([]models.ResolutionResult, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := r.Resolve(ctx, "12345678")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results[i] = result
		}(i)
	}

	// Give every goroutine time to join the in-flight resolution before the
	// adapter is released.
	time.Sleep(100 * time.Millisecond)
	close(adapter.block)
	wg.Wait()

	if adapter.callCount() != 1 {
		t.Errorf("expected exactly one external lookup, got %d", adapter.callCount())
	}
	store.mu.Lock()
	creates := store.creates
	store.mu.Unlock()
	if creates != 1 {
		t.Errorf("expected exactly one persisted write, got %d", creates)
	}
	for i, result := range results {
		if !result.Success || result.Data == nil || result.Data.Name != "Shared" {
			t.Errorf("result %d did not share the outcome: %+v", i, result)
		}
	}
}

func TestContributeCurateAndDelete(t *testing.T) {
	ctx := context.Background()
	store := repo.NewInMemoryProductRepository()
	adapter := &fakeAdapter{name: "openfoodfacts", err: sources.ErrNotFound}
	r, products := newTestResolver(store, []sources.Adapter{adapter}, nil)

	contributed, err := r.Contribute(ctx, "12345678", ContributeRequest{Name: "Crowd Snack", IngredientsRaw: "Water, E250"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contributed.Source != models.SourceUser || contributed.Status != models.StatusPendingReview || !contributed.UserContributed {
		t.Errorf("unexpected contributed record: %+v", contributed)
	}
	if len(contributed.FlaggedAdditives) == 0 {
		t.Error("expected the contribution's ingredients analyzed")
	}

	name := "Reviewed Snack"
	curated, err := r.Curate(ctx, "12345678", CurateRequest{Name: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if curated.Source != models.SourceCurated || !curated.IsVerified || curated.Status != models.StatusActive {
		t.Errorf("unexpected curated record: %+v", curated)
	}

	if _, err := r.Contribute(ctx, "12345678", ContributeRequest{Name: "Vandal"}); !errors.Is(err, ErrCuratedRecord) {
		t.Errorf("expected ErrCuratedRecord, got %v", err)
	}

	if err := r.Delete(ctx, "12345678"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := products.Get(ctx, "12345678"); ok {
		t.Error("expected the fast-cache mirror invalidated on delete")
	}

	result, err := r.Resolve(ctx, "12345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Errorf("expected a deleted record to resolve unsuccessfully, got %+v", result)
	}
	if calls := adapter.callCount(); calls != 0 {
		t.Errorf("expected no external calls for a deleted record, got %d", calls)
	}
}

func TestCurateInvalidatesFastCache(t *testing.T) {
	ctx := context.Background()
	store := repo.NewInMemoryProductRepository()
	r, products := newTestResolver(store, nil, nil)

	store.Create(models.Product{Barcode: "12345678", Name: "Stale", Status: models.StatusActive, Source: models.SourceUSDA})
	if _, err := r.Resolve(ctx, "12345678"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := products.Get(ctx, "12345678"); !ok {
		t.Fatal("expected the record mirrored in the fast cache")
	}

	name := "Fresh"
	if _, err := r.Curate(ctx, "12345678", CurateRequest{Name: &name}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := products.Get(ctx, "12345678"); ok {
		t.Error("expected the stale mirror invalidated by curation")
	}
}
