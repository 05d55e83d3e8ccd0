package timeutil

import (
	"testing"
	"time"
)

func TestSecondsSinceMidnight(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"morning", "2025-07-22T07:21:00+00:00", 7*3600 + 21*60},
		{"midnight", "2025-07-22T00:00:00+00:00", 0},
		{"evening", "2025-07-22T20:45:30+00:00", 20*3600 + 45*60 + 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := time.Parse(time.RFC3339, tt.in)
			if err != nil {
				t.Fatalf("parse %q: %v", tt.in, err)
			}
			if got := SecondsSinceMidnight(ts); got != tt.want {
				t.Errorf("SecondsSinceMidnight(%s) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestToHHMM(t *testing.T) {
	if got := ToHHMM(8*3600 + 35*60); got != "08:35" {
		t.Errorf("ToHHMM = %q, want 08:35", got)
	}
	if got := ToHHMM(-5); got != "00:00" {
		t.Errorf("ToHHMM(negative) = %q, want 00:00", got)
	}
}

func TestToISOString(t *testing.T) {
	day := time.Date(2025, 7, 22, 13, 45, 0, 0, time.UTC)
	got := ToISOString(9*3600+30*60, day)
	if got != "2025-07-22T09:30:00Z" {
		t.Errorf("ToISOString = %q, want 2025-07-22T09:30:00Z", got)
	}
}
