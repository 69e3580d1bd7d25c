// Package state holds the process-wide analysis sequence and generated assets.
//
// Each field has a single writer: the analysis runner replaces analyses, the
// asset loader sets each asset once. Readers always receive copies.
package state

import (
	"sync"
	"time"

	"github.com/dvloznov/smartpause/internal/domain"
	"github.com/shopspring/decimal"
)

// AggregateFunc computes the portfolio metric from an analysis sequence.
type AggregateFunc func([]domain.SubscriptionAnalysis) decimal.Decimal

// Snapshot is a consistent view of the analysis sequence.
type Snapshot struct {
	Version   uint64
	Analyses  []domain.SubscriptionAnalysis
	UpdatedAt time.Time
}

// Event is delivered to subscribers after each replacement.
type Event struct {
	Version          uint64
	AnalysisCount    int
	RecoverableSpend decimal.Decimal
	ReplacedAt       time.Time
}

// Store is the process-scoped state container.
type Store struct {
	mu        sync.RWMutex
	version   uint64
	analyses  []domain.SubscriptionAnalysis
	updatedAt time.Time

	aggregate   AggregateFunc
	memoVersion uint64
	memoValue   decimal.Decimal
	memoValid   bool

	assets map[domain.AssetKind]string

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan Event

	now func() time.Time
}

// New seeds the store with an initial analysis sequence (normally the bootstrap set).
// A nil aggregate reports zero.
func New(initial []domain.SubscriptionAnalysis, aggregate AggregateFunc) *Store {
	if aggregate == nil {
		aggregate = func([]domain.SubscriptionAnalysis) decimal.Decimal { return decimal.Zero }
	}
	return &Store{
		version:   1,
		analyses:  domain.CloneAnalyses(initial),
		updatedAt: time.Now(),
		aggregate: aggregate,
		assets:    make(map[domain.AssetKind]string),
		subs:      make(map[int]chan Event),
		now:       time.Now,
	}
}

// Snapshot returns a copy of the current sequence with its version.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Version:   s.version,
		Analyses:  domain.CloneAnalyses(s.analyses),
		UpdatedAt: s.updatedAt,
	}
}

// Analyses returns a copy of the current sequence.
func (s *Store) Analyses() []domain.SubscriptionAnalysis {
	return s.Snapshot().Analyses
}

// Version returns the current sequence version. It starts at 1 and grows by one per replacement.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// ReplaceAnalyses swaps in a new sequence wholesale and returns the new version.
// Readers see either the old or the new sequence, never a mix.
func (s *Store) ReplaceAnalyses(next []domain.SubscriptionAnalysis) uint64 {
	cp := domain.CloneAnalyses(next)

	s.mu.Lock()
	s.version++
	s.analyses = cp
	s.updatedAt = s.now()
	s.memoValue = s.aggregate(cp)
	s.memoVersion = s.version
	s.memoValid = true
	ev := Event{
		Version:          s.version,
		AnalysisCount:    len(cp),
		RecoverableSpend: s.memoValue,
		ReplacedAt:       s.updatedAt,
	}
	s.mu.Unlock()

	s.publish(ev)
	return ev.Version
}

// RecoverableSpend returns the aggregate for the current sequence,
// recomputing it only when the version has changed.
func (s *Store) RecoverableSpend() decimal.Decimal {
	s.mu.RLock()
	if s.memoValid && s.memoVersion == s.version {
		v := s.memoValue
		s.mu.RUnlock()
		return v
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.memoValid || s.memoVersion != s.version {
		s.memoValue = s.aggregate(s.analyses)
		s.memoVersion = s.version
		s.memoValid = true
	}
	return s.memoValue
}

// SetAsset stores an asset payload the first time it is set for kind.
// It reports whether this call wrote the value.
func (s *Store) SetAsset(kind domain.AssetKind, payload string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[kind]; ok {
		return false
	}
	s.assets[kind] = payload
	return true
}

// Asset returns the payload for kind, if one has been loaded.
func (s *Store) Asset(kind domain.AssetKind) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.assets[kind]
	return v, ok
}

// Subscribe returns a channel that receives an Event after every replacement, and a
// cancel func that closes it. Delivery never blocks the writer: a subscriber that
// falls behind misses events.
func (s *Store) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) publish(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
