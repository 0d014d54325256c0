package models

// Cache tiers reported on cache-served resolutions.
const (
	CacheTierFast  = "fast"
	CacheTierStore = "store"
)

// ResolutionResult is the structured outcome every resolution returns to the
// caller. Callers never see a raw error from the pipeline internals.
type ResolutionResult struct {
	Success     bool     `json:"success"`
	Data        *Product `json:"data,omitempty"`
	FromCache   bool     `json:"from_cache,omitempty"`
	CacheTier   string   `json:"cache_tier,omitempty"`
	Source      string   `json:"source,omitempty"`
	Message     string   `json:"message,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}
