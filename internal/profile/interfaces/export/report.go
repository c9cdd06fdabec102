// Package export renders a loaded dashboard as downloadable files.
package export

import (
	"time"

	"xp-dashboard/internal/analytics/domain/xp"
	"xp-dashboard/internal/profile/application"
	"xp-dashboard/internal/profile/domain"
)

// Content types of the export formats.
const (
	ContentTypePDF     = "application/pdf"
	ContentTypeXLSX    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV     = "text/csv; charset=utf-8"
	ContentTypeParquet = "application/vnd.apache.parquet"
)

// Report is the exportable content of a dashboard view. Sections that failed
// to load are listed in Missing and left zero.
type Report struct {
	User         application.UserData
	GeneratedAt  time.Time
	Totals       xp.AggregateTotals
	PassFail     xp.PassFailStats
	Audits       xp.AuditSummary
	Ranking      []xp.RankingEntry
	Transactions []domain.Transaction
	Missing      []string
}

// FromView builds a report out of a loaded view.
func FromView(v application.View) Report {
	return Report{
		User:         v.User.Data,
		GeneratedAt:  v.GeneratedAt,
		Totals:       v.XP.Data.Totals,
		PassFail:     v.PassFail.Data.Stats,
		Audits:       v.Audits.Data,
		Ranking:      v.Projects.Data.Ranking,
		Transactions: v.Transactions,
		Missing:      v.Failed(),
	}
}

func (r Report) title() string {
	name := r.User.DisplayName
	if name == "" {
		name = "User"
	}
	return "XP Profile: " + name
}
