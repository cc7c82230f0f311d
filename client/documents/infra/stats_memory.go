package infra

import (
	"context"
	"sync"
	"time"

	"document-gateway/client/documents/domain"
)

type Counters struct {
	Submitted int64
	Succeeded int64
	Failed    int64
	TotalWait time.Duration
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu        sync.Mutex
	total     Counters
	byOutcome map[domain.OutcomeKind]int64
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{byOutcome: make(map[domain.OutcomeKind]int64)}
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.Submitted++
	s.total.TotalWait += ev.Wait
	if ev.Outcome == domain.OutcomeSuccess {
		s.total.Succeeded++
	} else {
		s.total.Failed++
	}
	s.byOutcome[ev.Outcome]++
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByOutcome() map[domain.OutcomeKind]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.OutcomeKind]int64, len(s.byOutcome))
	for k, v := range s.byOutcome {
		out[k] = v
	}
	return out
}
