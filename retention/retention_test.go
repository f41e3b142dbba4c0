package retention

import (
	"testing"
	"time"
)

func TestFor(t *testing.T) {
	cases := []struct {
		name     string
		duration time.Duration
		want     time.Duration
	}{
		{"zero duration gets the floor", 0, 2 * time.Hour},
		{"short clip gets the floor", 30 * time.Second, 2 * time.Hour},
		{"exactly the floor", 7200 * time.Second, 7200 * time.Second},
		{"long content keeps its own length", 10000 * time.Second, 10000 * time.Second},
		{"three hour video", 10800 * time.Second, 10800 * time.Second},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := For(tc.duration); got != tc.want {
				t.Errorf("For(%v) = %v, want %v", tc.duration, got, tc.want)
			}
		})
	}
}
