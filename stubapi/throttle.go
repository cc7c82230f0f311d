package stubapi

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/time/rate"
)

type KeyFunc func(r *http.Request) string

type ThrottleOptions struct {
	Quota     *Quota
	KeyFn     KeyFunc
	KeyHeader string
	// RetryAfter é usado quando a cota não sabe dizer quando libera
	// (bucket sem taxa); no caso normal vale o atraso real do bucket.
	RetryAfter time.Duration
	Logger     logr.Logger
}

// DefaultKeyFunc usa o header informado (ex.: Authorization) e cai para o
// host de RemoteAddr.
func DefaultKeyFunc(keyHeader string) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

// Throttle rejeita com 429 quem excede a cota da sua chave, com Retry-After
// calculado a partir do próximo token do bucket.
func Throttle(opts ThrottleOptions) func(next http.Handler) http.Handler {
	if opts.Quota == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader)
	}
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)
			v := opts.Quota.Take(key, time.Now())
			w.Header().Set("X-RateLimit-Burst", strconv.Itoa(opts.Quota.Burst()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(v.Remaining))

			if !v.Allowed {
				wait := v.RetryAfter
				if wait == rate.InfDuration {
					wait = opts.RetryAfter
				}
				log.V(1).Info("request throttled", "key", key, "path", r.URL.Path, "retryAfter", wait)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds arredonda para cima, com mínimo de 1s.
func retryAfterSeconds(d time.Duration) int {
	return max(int(math.Ceil(d.Seconds())), 1)
}
