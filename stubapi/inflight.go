package stubapi

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"
)

// InFlight limita quantas criações o stub processa ao mesmo tempo e guarda o
// pico observado. Max <= 0 não limita, só mede.
type InFlight struct {
	sem          chan struct{}
	acquireAfter time.Duration
	rejectStatus int

	current atomic.Int64
	peak    atomic.Int64
}

func NewInFlight(max int, acquireTimeout time.Duration) *InFlight {
	f := &InFlight{acquireAfter: acquireTimeout, rejectStatus: http.StatusServiceUnavailable}
	if max > 0 {
		f.sem = make(chan struct{}, max)
	}
	return f
}

func (f *InFlight) Peak() int64 { return f.peak.Load() }

func (f *InFlight) Current() int64 { return f.current.Load() }

func (f *InFlight) acquire(ctx context.Context) (func(), bool) {
	if f.sem == nil {
		return func() {}, true
	}
	if f.acquireAfter > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.acquireAfter)
		defer cancel()
	}
	select {
	case f.sem <- struct{}{}:
		return func() { <-f.sem }, true
	case <-ctx.Done():
		return nil, false
	}
}

func (f *InFlight) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		release, ok := f.acquire(r.Context())
		if !ok {
			http.Error(w, http.StatusText(f.rejectStatus), f.rejectStatus)
			return
		}
		defer release()

		n := f.current.Add(1)
		defer f.current.Add(-1)
		for {
			p := f.peak.Load()
			if n <= p || f.peak.CompareAndSwap(p, n) {
				break
			}
		}

		next.ServeHTTP(w, r)
	})
}
