package xp

import (
	"math"
	"sort"
	"strconv"

	"xp-dashboard/internal/profile/domain"
)

// AggregateTotals is the XP accounting of a transaction set.
// PerCategory always carries the three accounted categories; XP classified
// as other is reported in Unaccounted and never reaches GrandTotal.
type AggregateTotals struct {
	PerCategory map[domain.Category]int64 `json:"per_category"`
	GrandTotal  int64                     `json:"grand_total"`
	Unaccounted int64                     `json:"unaccounted"`
	Count       int                       `json:"count"`
}

// Of returns the total of category c.
func (t AggregateTotals) Of(c domain.Category) int64 { return t.PerCategory[c] }

// SumByCategory sums transaction amounts per category.
func SumByCategory(transactions []domain.Transaction) AggregateTotals {
	totals := AggregateTotals{PerCategory: make(map[domain.Category]int64, len(domain.AccountedCategories))}
	for _, c := range domain.AccountedCategories {
		totals.PerCategory[c] = 0
	}
	for _, tx := range transactions {
		totals.Count++
		if !tx.Category.IsAccounted() {
			totals.Unaccounted += tx.Amount
			continue
		}
		totals.PerCategory[tx.Category] += tx.Amount
	}
	for _, c := range domain.AccountedCategories {
		totals.GrandTotal += totals.PerCategory[c]
	}
	return totals
}

// PassFailStats counts graded results. Total is the gradeable subset only.
type PassFailStats struct {
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Total    int     `json:"total"`
	PassRate float64 `json:"pass_rate"`
}

// PassFail classifies results by grade: >= 1 passes, < 1 fails.
// Non-finite grades are not gradeable.
func PassFail(results []domain.Result) PassFailStats {
	var stats PassFailStats
	for _, r := range results {
		switch {
		case math.IsNaN(r.Grade) || math.IsInf(r.Grade, 0):
			continue
		case r.Grade >= 1:
			stats.Passed++
		default:
			stats.Failed++
		}
	}
	stats.Total = stats.Passed + stats.Failed
	stats.PassRate = Rate(stats.Passed, stats.Total)
	return stats
}

// Rate returns part/total as a percentage rounded to one decimal, or 0 when total is 0.
func Rate(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

// TimeSeriesPoint is the XP total of one calendar bucket.
type TimeSeriesPoint struct {
	Key   BucketKey `json:"key"`
	Total int64     `json:"total"`
}

// BucketByTime groups transactions by UTC day or month, ascending by key.
// Transactions without a timestamp are skipped.
func BucketByTime(transactions []domain.Transaction, g Granularity) ([]TimeSeriesPoint, error) {
	if !g.IsValid() {
		return nil, ErrInvalidGranularity
	}
	totals := make(map[BucketKey]int64)
	for _, tx := range transactions {
		key, err := NewBucketKey(g, tx.Timestamp)
		if err != nil {
			continue
		}
		totals[key] += tx.Amount
	}
	series := make([]TimeSeriesPoint, 0, len(totals))
	for key, total := range totals {
		series = append(series, TimeSeriesPoint{Key: key, Total: total})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Key < series[j].Key })
	return series, nil
}

// Cumulative returns the running totals of series.
func Cumulative(series []TimeSeriesPoint) []TimeSeriesPoint {
	out := make([]TimeSeriesPoint, len(series))
	var running int64
	for i, p := range series {
		running += p.Total
		out[i] = TimeSeriesPoint{Key: p.Key, Total: running}
	}
	return out
}

// RankingEntry is the summed XP of one object.
type RankingEntry struct {
	Name  string `json:"name"`
	Total int64  `json:"total"`
}

// RankByObject sums XP per resolved object name, descending by total. Ties
// keep the order in which the name first appeared. Names resolve through
// index, then the transaction's embedded name, then "#<id>". Transactions
// with neither an object id nor a name are skipped.
func RankByObject(transactions []domain.Transaction, index domain.ObjectIndex) []RankingEntry {
	positions := make(map[string]int)
	var ranking []RankingEntry
	for _, tx := range transactions {
		name := objectName(tx, index)
		if name == "" {
			continue
		}
		pos, ok := positions[name]
		if !ok {
			pos = len(ranking)
			positions[name] = pos
			ranking = append(ranking, RankingEntry{Name: name})
		}
		ranking[pos].Total += tx.Amount
	}
	sort.SliceStable(ranking, func(i, j int) bool { return ranking[i].Total > ranking[j].Total })
	return ranking
}

func objectName(tx domain.Transaction, index domain.ObjectIndex) string {
	if tx.HasObject() {
		if name, ok := index.Name(tx.ObjectID); ok {
			return name
		}
	}
	if tx.ObjectName != "" {
		return tx.ObjectName
	}
	if tx.HasObject() {
		return "#" + strconv.FormatInt(tx.ObjectID, 10)
	}
	return ""
}

// Top returns at most n leading entries; n <= 0 returns all of them.
func Top(ranking []RankingEntry, n int) []RankingEntry {
	if n <= 0 || n >= len(ranking) {
		return ranking
	}
	return ranking[:n]
}
