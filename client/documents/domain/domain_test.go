package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestWindow_Validate(t *testing.T) {
	cases := []struct {
		name string
		w    Window
		ok   bool
	}{
		{"one second", Window{Unit: time.Second, Count: 1}, true},
		{"ten minutes", Window{Unit: time.Minute, Count: 10}, true},
		{"zero unit", Window{Unit: 0, Count: 1}, false},
		{"negative unit", Window{Unit: -time.Second, Count: 1}, false},
		{"zero count", Window{Unit: time.Second, Count: 0}, false},
		{"largest representable", Window{Unit: time.Nanosecond, Count: math.MaxInt}, true},
		{"product overflows", Window{Unit: time.Hour, Count: 1 << 40}, false},
		{"product just past max", Window{Unit: 3 * time.Nanosecond, Count: math.MaxInt/3 + 1}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.w.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid window, got %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestWindow_Duration(t *testing.T) {
	w := Window{Unit: time.Second, Count: 10}
	if got := w.Duration(); got != 10*time.Second {
		t.Fatalf("expected 10s, got %s", got)
	}
}

func TestParseResetPolicy(t *testing.T) {
	if p, err := ParseResetPolicy(""); err != nil || p != ResetFull {
		t.Fatalf("expected default ResetFull, got %v err=%v", p, err)
	}
	if p, err := ParseResetPolicy("drip"); err != nil || p != Drip {
		t.Fatalf("expected Drip, got %v err=%v", p, err)
	}
	if _, err := ParseResetPolicy("bogus"); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestDate_JSON(t *testing.T) {
	d := NewDate(2020, time.January, 23)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2020-01-23"` {
		t.Fatalf("unexpected date encoding %s", b)
	}

	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("expected %s, got %s", d, back)
	}

	var zero Date
	b, _ = json.Marshal(zero)
	if string(b) != "null" {
		t.Fatalf("expected null for zero date, got %s", b)
	}
}

func TestStatusError_MatchesTransport(t *testing.T) {
	var err error = &StatusError{Code: 503, Body: []byte("busy")}
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected StatusError to match ErrTransport")
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != 503 {
		t.Fatalf("expected errors.As to recover status 503, got %v", err)
	}
}
