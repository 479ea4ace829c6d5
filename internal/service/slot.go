package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/metrics"
)

// SlotState is what a session currently holds for one owner.
type SlotState struct {
	Readings   []domain.PowerReading
	Err        error
	Loading    bool
	FetchedAt  time.Time
	Generation uint64
}

// Settled reports untouched for this long are dropped.
const slotTTL = 24 * time.Hour

type slotEntry struct {
	gen     uint64
	cancel  context.CancelFunc
	state   SlotState
	touched time.Time
}

// ReportSlot keeps the latest power report per owner. Only the most recent
// fetch for a key may write to it: Begin cancels the previous fetch and any
// Commit or Fail carrying an older generation is dropped. Settled entries
// expire after ttl.
type ReportSlot struct {
	mu      sync.Mutex
	gen     uint64
	entries map[string]*slotEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewReportSlot() *ReportSlot {
	return &ReportSlot{entries: make(map[string]*slotEntry), ttl: slotTTL, now: time.Now}
}

// Begin starts a fetch for key. The held readings and error are cleared
// straight away. The returned context is cancelled when a newer Begin for
// the same key arrives or when this fetch settles.
func (s *ReportSlot) Begin(ctx context.Context, key string) (uint64, context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evict(now)
	s.gen++
	e, ok := s.entries[key]
	if !ok {
		e = &slotEntry{}
		s.entries[key] = e
	}
	if e.cancel != nil {
		e.cancel()
	}
	fctx, cancel := context.WithCancel(ctx)
	e.gen = s.gen
	e.cancel = cancel
	e.state = SlotState{Loading: true, Generation: s.gen}
	e.touched = now
	return s.gen, fctx
}

// Commit stores readings if gen is still the latest fetch for key.
func (s *ReportSlot) Commit(key string, gen uint64, readings []domain.PowerReading) bool {
	return s.settle(key, gen, func(st *SlotState) {
		st.Readings = readings
		st.FetchedAt = s.now()
	})
}

// Fail records err if gen is still the latest fetch for key.
func (s *ReportSlot) Fail(key string, gen uint64, err error) bool {
	return s.settle(key, gen, func(st *SlotState) {
		st.Err = err
	})
}

func (s *ReportSlot) settle(key string, gen uint64, apply func(*SlotState)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.gen != gen {
		metrics.StaleResponses.Inc()
		log.Debug().Str("owner", key).Uint64("generation", gen).Msg("discarding stale power report response")
		return false
	}
	apply(&e.state)
	e.state.Loading = false
	e.touched = s.now()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	return true
}

// Snapshot returns a copy of what key currently holds.
func (s *ReportSlot) Snapshot(key string) (SlotState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return SlotState{}, false
	}
	if s.expired(e, s.now()) {
		delete(s.entries, key)
		return SlotState{}, false
	}
	st := e.state
	st.Readings = append([]domain.PowerReading(nil), e.state.Readings...)
	return st, true
}

// Len reports how many owners the slot currently holds.
func (s *ReportSlot) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evict drops every expired entry. In-flight fetches are never expired.
func (s *ReportSlot) evict(now time.Time) {
	for key, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, key)
		}
	}
}

func (s *ReportSlot) expired(e *slotEntry, now time.Time) bool {
	return e.cancel == nil && now.Sub(e.touched) > s.ttl
}
