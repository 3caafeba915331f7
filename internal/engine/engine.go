// Package engine coordinates who works on which item: it hands out
// time-limited leases, records judgments and skips, and keeps every item
// with at most one active holder.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/TobiSchelling/clicklabel/internal/database"
	"github.com/TobiSchelling/clicklabel/internal/logger"
)

const (
	// DefaultLeaseTTL is how long a hold stays exclusive.
	DefaultLeaseTTL = 15 * time.Minute

	MinConfidence = 1
	MaxConfidence = 4
)

// Store is the persistence the engine needs. *database.DB implements it.
type Store interface {
	AcquireLease(ctx context.Context, userID int64, now time.Time, ttl time.Duration) (*database.Item, bool, error)
	RecordLabel(ctx context.Context, itemID, userID int64, isPositive bool, confidence int, now time.Time) (*database.LabelResult, error)
	SkipItem(ctx context.Context, key string, userID int64, now time.Time) (bool, error)
}

// Assignment is an item leased to a user.
type Assignment struct {
	Item      database.Item `json:"item"`
	LeasedAt  time.Time     `json:"leased_at"`
	ExpiresAt time.Time     `json:"expires_at"`
	// Resumed is true when the user's existing hold was handed back.
	Resumed bool `json:"resumed"`
}

// Ack confirms a recorded label.
type Ack struct {
	ItemID    int64 `json:"item_id"`
	LabelID   int64 `json:"label_id,omitempty"`
	Duplicate bool  `json:"duplicate"`
}

// Engine is safe for concurrent use; all coordination happens in the store.
type Engine struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	log   *logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLeaseTTL overrides DefaultLeaseTTL. Non-positive values are ignored.
func WithLeaseTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// New creates an engine backed by store.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		ttl:   DefaultLeaseTTL,
		now:   time.Now,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With("component", "engine")
	return e
}

// LeaseTTL returns the configured lease lifetime.
func (e *Engine) LeaseTTL() time.Duration {
	return e.ttl
}

// Acquire returns the item userID should work on next. If the user still
// holds an item they have neither labeled nor skipped, that item comes back
// with its original lease time. Otherwise the first eligible item is leased to them.
// When nothing is available Acquire returns (nil, nil).
func (e *Engine) Acquire(ctx context.Context, userID int64) (*Assignment, error) {
	now := e.now()
	item, resumed, err := e.store.AcquireLease(ctx, userID, now, e.ttl)
	if err != nil {
		return nil, err
	}
	if item == nil {
		e.log.Debug("no work available", "user_id", userID)
		return nil, nil
	}

	leasedAt := now.UTC()
	if item.LeaseTime != nil {
		leasedAt = *item.LeaseTime
	}
	e.log.Info("lease granted", "user_id", userID, "item_id", item.ID, "resumed", resumed)

	return &Assignment{
		Item:      *item,
		LeasedAt:  leasedAt,
		ExpiresAt: leasedAt.Add(e.ttl),
		Resumed:   resumed,
	}, nil
}

// Record stores userID's judgment of itemID and releases the item's lease.
// The caller need not hold the lease: an answer submitted after the lease
// lapsed is still accepted, and whichever lease is present is cleared.
// Repeating a label for the same item and user is acknowledged as a
// duplicate and changes nothing but the lease.
func (e *Engine) Record(ctx context.Context, itemID, userID int64, isPositive bool, confidence int) (*Ack, error) {
	if confidence < MinConfidence || confidence > MaxConfidence {
		return nil, fmt.Errorf("confidence %d outside %d..%d: %w", confidence, MinConfidence, MaxConfidence, ErrInvalidArgument)
	}

	res, err := e.store.RecordLabel(ctx, itemID, userID, isPositive, confidence, e.now())
	if err != nil {
		return nil, err
	}
	if res.Duplicate {
		e.log.Warn("duplicate label ignored", "user_id", userID, "item_id", itemID)
	} else {
		e.log.Info("label recorded", "user_id", userID, "item_id", itemID, "label_id", res.LabelID)
	}

	return &Ack{ItemID: itemID, LabelID: res.LabelID, Duplicate: res.Duplicate}, nil
}

// Skip withdraws the item identified by itemKey from userID's pool and
// releases its lease. It reports false if the user had already skipped it.
func (e *Engine) Skip(ctx context.Context, itemKey string, userID int64) (bool, error) {
	skipped, err := e.store.SkipItem(ctx, itemKey, userID, e.now())
	if err != nil {
		return false, err
	}
	if skipped {
		e.log.Info("item skipped", "user_id", userID, "item_key", itemKey)
	}
	return skipped, nil
}
