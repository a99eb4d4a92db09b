package random

import (
	"testing"
	"time"
)

func TestRandomize(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		percent float64
		wantMin float64
		wantMax float64
	}{
		{
			name:    "1% randomization of 100",
			value:   100,
			percent: 1.0,
			wantMin: 99,
			wantMax: 101,
		},
		{
			name:    "5% randomization of 80",
			value:   80,
			percent: 5.0,
			wantMin: 76,
			wantMax: 84,
		},
		{
			name:    "0% randomization (no change)",
			value:   50,
			percent: 0,
			wantMin: 50,
			wantMax: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Run multiple times to check range
			for i := 0; i < 100; i++ {
				result := Randomize(tt.value, tt.percent)

				if result < tt.wantMin || result > tt.wantMax {
					t.Errorf("Randomize(%v, %v) = %v, want range [%v, %v]",
						tt.value, tt.percent, result, tt.wantMin, tt.wantMax)
				}
			}
		})
	}
}

func TestJitter(t *testing.T) {
	tests := []struct {
		name    string
		d       time.Duration
		percent float64
		wantMin time.Duration
		wantMax time.Duration
	}{
		{"20% of one second", time.Second, 20, 800 * time.Millisecond, 1200 * time.Millisecond},
		{"no jitter", 500 * time.Millisecond, 0, 500 * time.Millisecond, 500 * time.Millisecond},
		{"zero duration", 0, 50, 0, 0},
		{"negative duration", -time.Second, 50, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 100; i++ {
				got := Jitter(tt.d, tt.percent)
				if got < tt.wantMin || got > tt.wantMax {
					t.Errorf("Jitter(%v, %v) = %v, want range [%v, %v]",
						tt.d, tt.percent, got, tt.wantMin, tt.wantMax)
				}
			}
		})
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 300 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := Backoff(100*time.Millisecond, tt.attempt, 0); got != tt.want {
			t.Errorf("Backoff(100ms, %d, 0) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
