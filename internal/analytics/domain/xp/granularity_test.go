package xp

import (
	"testing"
	"time"
)

func TestNewBucketKey(t *testing.T) {
	ts := time.Date(2024, 3, 31, 23, 0, 0, 0, time.FixedZone("x", -3*3600))
	key, err := NewBucketKey(GranularityDay, ts)
	if err != nil {
		t.Fatalf("day key: %v", err)
	}
	if key != "2024-04-01" {
		t.Fatalf("expected UTC day 2024-04-01, got %s", key)
	}
	month, _ := NewBucketKey(GranularityMonth, ts)
	if month != "2024-04" {
		t.Fatalf("expected 2024-04, got %s", month)
	}
	if start, ok := month.Time(); !ok || !start.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected bucket start %s", start)
	}
	if _, err := NewBucketKey(GranularityDay, time.Time{}); err != ErrInvalidTimestamp {
		t.Fatalf("expected ErrInvalidTimestamp, got %v", err)
	}
}

func TestParseGranularity(t *testing.T) {
	if g, err := ParseGranularity(""); err != nil || g != GranularityDay {
		t.Fatalf("expected day default, got %s %v", g, err)
	}
	if _, err := ParseGranularity("hour"); err != ErrInvalidGranularity {
		t.Fatalf("expected ErrInvalidGranularity, got %v", err)
	}
}
