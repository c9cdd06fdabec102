package xp

import (
	"sort"

	"xp-dashboard/internal/profile/domain"
)

// DefaultRecentLimit is the number of recent gains shown by default.
const DefaultRecentLimit = 5

// AuditSummary is the headline audit block of a profile.
type AuditSummary struct {
	TotalResults       int           `json:"total_results"`
	ProjectsCompleted  int           `json:"projects_completed"`
	ExercisesCompleted int           `json:"exercises_completed"`
	PassFail           PassFailStats `json:"pass_fail"`
	ProgressRecords    int           `json:"progress_records"`
}

// Summarize builds the audit summary of results and progress records.
func Summarize(results []domain.Result, progress []domain.Progress) AuditSummary {
	summary := AuditSummary{
		TotalResults:    len(results),
		PassFail:        PassFail(results),
		ProgressRecords: len(progress),
	}
	for _, r := range results {
		switch r.ObjectType {
		case domain.ObjectProject:
			summary.ProjectsCompleted++
		case domain.ObjectExercise:
			summary.ExercisesCompleted++
		}
	}
	return summary
}

// RecentGains returns up to n transactions, newest first. The input is not modified.
func RecentGains(transactions []domain.Transaction, n int) []domain.Transaction {
	if n <= 0 {
		n = DefaultRecentLimit
	}
	sorted := make([]domain.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.After(sorted[j].Timestamp) })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
