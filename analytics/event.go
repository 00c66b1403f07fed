// Package analytics delivers purchase events to third-party trackers.
package analytics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jrsteele09/go-storefront/storemodel"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// EventPurchase is the only event the storefront emits.
const EventPurchase = "Purchase"

// Event is one analytics record. CorrelationID doubles as the tracker's
// deduplication id.
type Event struct {
	Name          string          `json:"eventName"`
	CorrelationID string          `json:"correlationId"`
	Value         decimal.Decimal `json:"value"`
	Currency      string          `json:"currency"`
	ProductID     storemodel.ID   `json:"productId"`
	NumItems      int             `json:"numItems,omitempty"`
	PixelID       string          `json:"pixelId,omitempty"`
	CustomerPhone string          `json:"-"`
	CustomerEmail string          `json:"-"`
	SourceURL     string          `json:"-"`
	Time          time.Time       `json:"-"`
}

// Sink receives analytics events.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// LogSink writes events to a logger. It is the sink used when no tracker is
// configured.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, event Event) error {
	s.logger.Info().
		Str("event", event.Name).
		Str("correlation_id", event.CorrelationID).
		Str("value", event.Value.String()).
		Str("currency", event.Currency).
		Str("product", event.ProductID.String()).
		Msg("analytics event")
	return nil
}

// DefaultDedupeLimit is how many correlation ids a Deduper remembers.
const DefaultDedupeLimit = 10000

// Deduper forwards each correlation id to the wrapped sink at most once. An id
// is claimed before delivery, so a failed delivery is not repeated. Only the
// most recent ids are remembered; the oldest are forgotten once the limit is
// reached.
type Deduper struct {
	next  Sink
	limit int

	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
}

// DeduperOption configures a Deduper.
type DeduperOption func(*Deduper)

// WithLimit sets how many correlation ids are remembered. Values below 1 are
// ignored.
func WithLimit(n int) DeduperOption {
	return func(d *Deduper) {
		if n > 0 {
			d.limit = n
		}
	}
}

func NewDeduper(next Sink, options ...DeduperOption) (*Deduper, error) {
	if next == nil {
		return nil, errors.New("[NewDeduper] sink is required")
	}
	d := &Deduper{next: next, limit: DefaultDedupeLimit, seen: make(map[string]struct{})}
	for _, opt := range options {
		opt(d)
	}
	return d, nil
}

// Emit forwards the event unless its correlation id was seen before. Events
// without a correlation id are rejected.
func (d *Deduper) Emit(ctx context.Context, event Event) error {
	if event.CorrelationID == "" {
		return errors.New("[Deduper.Emit] correlation id is required")
	}
	d.mu.Lock()
	if _, ok := d.seen[event.CorrelationID]; ok {
		d.mu.Unlock()
		return nil
	}
	d.seen[event.CorrelationID] = struct{}{}
	d.order = append(d.order, event.CorrelationID)
	if len(d.order) > d.limit {
		delete(d.seen, d.order[0])
		d.order = d.order[1:]
	}
	d.mu.Unlock()

	return d.next.Emit(ctx, event)
}

// Seen reports whether the correlation id has been forwarded.
func (d *Deduper) Seen(correlationID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[correlationID]
	return ok
}
