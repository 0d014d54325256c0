// Package events defines the observability contract of the resolution
// pipeline. The analytics collaborator owns storage and aggregation; the
// pipeline only emits.
package events

import (
	"time"

	"go.uber.org/zap"
)

// Outcome of one resolution request.
type Outcome string

const (
	OutcomeHitCache     Outcome = "hit_cache"
	OutcomeHitStore     Outcome = "hit_store"
	OutcomeHitExternal  Outcome = "hit_external"
	OutcomeMissRecorded Outcome = "miss_recorded"
	OutcomeError        Outcome = "error"
)

// ResolutionEvent is emitted once per resolution.
type ResolutionEvent struct {
	Barcode   string
	Outcome   Outcome
	Source    string
	CacheTier string
	Timestamp time.Time
}

// Sink receives resolution events.
type Sink interface {
	Record(event ResolutionEvent)
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Record(ResolutionEvent) {}

// ZapSink logs each event as one structured entry.
type ZapSink struct {
	log *zap.Logger
}

func NewZapSink(log *zap.Logger) *ZapSink {
	return &ZapSink{log: log}
}

func (s *ZapSink) Record(e ResolutionEvent) {
	s.log.Info("resolution",
		zap.String("barcode", e.Barcode),
		zap.String("outcome", string(e.Outcome)),
		zap.String("source", e.Source),
		zap.String("cache_tier", e.CacheTier),
		zap.Time("timestamp", e.Timestamp),
	)
}
