package xp

import "time"

// Granularity is the time resolution of an XP series.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

// IsValid checks if the granularity is one of the supported values.
func (g Granularity) IsValid() bool {
	switch g {
	case GranularityDay, GranularityMonth:
		return true
	default:
		return false
	}
}

// ParseGranularity maps a config value onto a Granularity, defaulting to day.
func ParseGranularity(value string) (Granularity, error) {
	switch Granularity(value) {
	case "", GranularityDay:
		return GranularityDay, nil
	case GranularityMonth:
		return GranularityMonth, nil
	default:
		return "", ErrInvalidGranularity
	}
}

// BucketKey is the ISO calendar key of a bucket. Lexicographic order is
// chronological order.
type BucketKey string

// NewBucketKey builds the UTC bucket key of t.
func NewBucketKey(g Granularity, t time.Time) (BucketKey, error) {
	if t.IsZero() {
		return "", ErrInvalidTimestamp
	}
	layout, err := bucketLayout(g)
	if err != nil {
		return "", err
	}
	return BucketKey(t.UTC().Format(layout)), nil
}

// String returns the raw key.
func (k BucketKey) String() string { return string(k) }

// Time parses the key back to the start of its bucket.
func (k BucketKey) Time() (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.ParseInLocation(layout, string(k), time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func bucketLayout(g Granularity) (string, error) {
	switch g {
	case GranularityDay:
		return "2006-01-02", nil
	case GranularityMonth:
		return "2006-01", nil
	default:
		return "", ErrInvalidGranularity
	}
}
