package stubapi

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Verdict é a resposta da cota para uma requisição.
type Verdict struct {
	Allowed bool
	// RetryAfter é quanto falta para o próximo token quando Allowed é false.
	RetryAfter time.Duration
	// Remaining são os tokens que sobram no bucket da chave.
	Remaining int
}

// Quota dá a cada chave de cliente um bucket de `requests` por `per`, como o
// endpoint real faz por token de acesso. Chaves sem uso há idleTTL são
// descartadas pelo janitor.
type Quota struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	sweep   time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	lim  *rate.Limiter
	used time.Time
}

type QuotaOption func(*Quota)

func WithIdleTTL(d time.Duration) QuotaOption {
	return func(q *Quota) { q.idleTTL = d }
}

// WithSweepEvery define o período do janitor; <= 0 desliga.
func WithSweepEvery(d time.Duration) QuotaOption {
	return func(q *Quota) { q.sweep = d }
}

func NewQuota(requests int, per time.Duration, opts ...QuotaOption) *Quota {
	requests = max(requests, 1)
	q := &Quota{
		limit:   rate.Every(per / time.Duration(requests)),
		burst:   requests,
		idleTTL: 15 * time.Minute,
		sweep:   2 * time.Minute,
		buckets: make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Quota) Burst() int { return q.burst }

// Take consome um token da chave. Quando o bucket está vazio a reserva é
// desfeita e RetryAfter diz quando o próximo token chega.
func (q *Quota) Take(key string, now time.Time) Verdict {
	lim := q.bucketFor(key, now)

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return Verdict{RetryAfter: rate.InfDuration}
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Verdict{RetryAfter: delay}
	}
	return Verdict{Allowed: true, Remaining: max(int(lim.TokensAt(now)), 0)}
}

func (q *Quota) bucketFor(key string, now time.Time) *rate.Limiter {
	q.mu.Lock()
	defer q.mu.Unlock()

	b, ok := q.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(q.limit, q.burst)}
		q.buckets[key] = b
	}
	b.used = now
	return b.lim
}

// Keys retorna quantas chaves têm bucket ativo.
func (q *Quota) Keys() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buckets)
}

// Forget remove buckets sem uso desde antes de now-idleTTL.
func (q *Quota) Forget(now time.Time) int {
	cutoff := now.Add(-q.idleTTL)

	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for k, b := range q.buckets {
		if b.used.Before(cutoff) {
			delete(q.buckets, k)
			n++
		}
	}
	return n
}

// StartJanitor chama Forget a cada período até o ctx encerrar.
func (q *Quota) StartJanitor(ctx context.Context) {
	if q.sweep <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(q.sweep)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				q.Forget(now)
			}
		}
	}()
}
