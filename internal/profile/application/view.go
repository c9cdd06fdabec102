package application

import (
	"errors"
	"time"

	"xp-dashboard/internal/analytics/domain/xp"
	"xp-dashboard/internal/chart/draw"
	"xp-dashboard/internal/profile/domain"
)

// Section names of the dashboard view.
const (
	SectionUser     = "user"
	SectionXP       = "xp"
	SectionAudits   = "audits"
	SectionTimeline = "xpTimeline"
	SectionPassFail = "passFail"
	SectionProjects = "projects"
)

// Section is one independently failing block of the view. When Error is set
// Data holds the zero value; Empty carries the text shown for empty data.
type Section[T any] struct {
	Data  T      `json:"data"`
	Error string `json:"error,omitempty"`
	Empty string `json:"empty,omitempty"`
	Stale bool   `json:"stale,omitempty"`

	err error
}

// Err returns the underlying failure of the section.
func (s Section[T]) Err() error { return s.err }

// OK reports whether the section loaded.
func (s Section[T]) OK() bool { return s.err == nil }

func failed[T any](scope string, err error) Section[T] {
	return Section[T]{Error: scope + " " + domain.UserMessage(err), err: err}
}

// UserData is the profile header.
type UserData struct {
	ID          int64     `json:"id"`
	Login       string    `json:"login"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Gain is one recent XP transaction.
type Gain struct {
	Name     string          `json:"name"`
	Amount   int64           `json:"amount"`
	Category domain.Category `json:"category"`
	At       time.Time       `json:"at"`
}

// XPData is the XP accounting block.
type XPData struct {
	Totals    xp.AggregateTotals `json:"totals"`
	Formatted string             `json:"formatted_total"`
	Recent    []Gain             `json:"recent"`
	Count     int                `json:"transactions"`
}

// TimelineData is the XP-over-time block.
type TimelineData struct {
	Granularity xp.Granularity       `json:"granularity"`
	Points      []xp.TimeSeriesPoint `json:"points"`
	Cumulative  []xp.TimeSeriesPoint `json:"cumulative"`
	Chart       draw.Document        `json:"chart"`
	Running     draw.Document        `json:"cumulative_chart"`
}

// PassFailData is the audit ratio block.
type PassFailData struct {
	Stats xp.PassFailStats `json:"stats"`
	Donut draw.Document    `json:"donut"`
	Pie   draw.Document    `json:"pie"`
}

// ProjectsData is the per-project ranking block.
type ProjectsData struct {
	Ranking []xp.RankingEntry `json:"ranking"`
	Chart   draw.Document     `json:"chart"`
}

// View is a fully assembled dashboard.
type View struct {
	LoadID      string    `json:"load_id"`
	GeneratedAt time.Time `json:"generated_at"`

	User     Section[UserData]        `json:"user"`
	XP       Section[XPData]          `json:"xp"`
	Audits   Section[xp.AuditSummary] `json:"audits"`
	Timeline Section[TimelineData]    `json:"xpTimeline"`
	PassFail Section[PassFailData]    `json:"passFail"`
	Projects Section[ProjectsData]    `json:"projects"`

	// Transactions are the accounted transactions behind the view, newest first.
	Transactions []domain.Transaction `json:"-"`
}

// Failed lists the names of sections that did not load.
func (v View) Failed() []string {
	var names []string
	check := func(name string, ok bool) {
		if !ok {
			names = append(names, name)
		}
	}
	check(SectionUser, v.User.OK())
	check(SectionXP, v.XP.OK())
	check(SectionAudits, v.Audits.OK())
	check(SectionTimeline, v.Timeline.OK())
	check(SectionPassFail, v.PassFail.OK())
	check(SectionProjects, v.Projects.OK())
	return names
}

// ErrUnknownChart is returned for a chart name outside ChartNames.
var ErrUnknownChart = errors.New("application: unknown chart")

// Chart returns the drawing of a named chart, or the failure of the section
// it belongs to.
func (v View) Chart(name string) (draw.Document, error) {
	switch name {
	case ChartTimeline:
		return v.Timeline.Data.Chart, v.Timeline.Err()
	case ChartCumulative:
		return v.Timeline.Data.Running, v.Timeline.Err()
	case ChartPassFail:
		return v.PassFail.Data.Donut, v.PassFail.Err()
	case ChartPassFailPie:
		return v.PassFail.Data.Pie, v.PassFail.Err()
	case ChartProjects:
		return v.Projects.Data.Chart, v.Projects.Err()
	default:
		return draw.Document{}, ErrUnknownChart
	}
}

// Chart names served by the HTTP API.
const (
	ChartTimeline    = "xp-timeline"
	ChartCumulative  = "xp-cumulative"
	ChartPassFail    = "pass-fail"
	ChartPassFailPie = "pass-fail-pie"
	ChartProjects    = "projects"
)

// ChartNames lists every chart a view can draw.
var ChartNames = []string{ChartTimeline, ChartCumulative, ChartPassFail, ChartPassFailPie, ChartProjects}
