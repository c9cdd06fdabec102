package application

import (
	"context"
	"errors"
	"log"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"

	"xp-dashboard/internal/analytics/domain/xp"
	"xp-dashboard/internal/auth"
	"xp-dashboard/internal/chart/render"
	"xp-dashboard/internal/observability/metrics"
	"xp-dashboard/internal/platform"
	"xp-dashboard/internal/profile/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Fetcher runs one upstream query and returns its records.
type Fetcher interface {
	Fetch(ctx context.Context, token string, q platform.Query) ([]domain.RawRecord, error)
}

// Credentials is the session a dashboard load runs under.
type Credentials interface {
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// StaticToken is a Credentials holding a bearer token the caller owns.
// Clearing it is a no-op.
type StaticToken string

// Token returns the token, or domain.ErrNoToken when empty.
func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", domain.ErrNoToken
	}
	return string(t), nil
}

// Clear does nothing.
func (StaticToken) Clear(context.Context) error { return nil }

// Dashboard orchestrates a dashboard load: concurrent source fetch,
// normalization, aggregation and chart rendering.
type Dashboard struct {
	fetcher    Fetcher
	cfg        Config
	normalizer *domain.Normalizer
	logger     *log.Logger

	snapshots domain.SnapshotRepository
	cacheTTL  time.Duration
	now       func() time.Time
	newID     func() string
}

// Option customizes a Dashboard.
type Option func(*Dashboard)

// WithSnapshots enables the advisory snapshot cache.
func WithSnapshots(repo domain.SnapshotRepository, ttl time.Duration) Option {
	return func(d *Dashboard) {
		d.snapshots = repo
		d.cacheTTL = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) {
		if now != nil {
			d.now = now
		}
	}
}

// WithLoadIDs overrides the load id generator.
func WithLoadIDs(newID func() string) Option {
	return func(d *Dashboard) {
		if newID != nil {
			d.newID = newID
		}
	}
}

// NewDashboard constructs a dashboard orchestrator.
func NewDashboard(fetcher Fetcher, cfg Config, logger *log.Logger, opts ...Option) (*Dashboard, error) {
	if fetcher == nil {
		return nil, errors.New("application: nil fetcher")
	}
	if logger == nil {
		return nil, errors.New("application: nil logger")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Dashboard{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	d.normalizer = domain.NewNormalizer(cfg.Rules())
	d.normalizer.OnDrop = func(err *domain.MalformedRecordError) {
		logger.Printf("dashboard record dropped: kind=%s index=%d reason=%s", err.Kind, err.Index, err.Reason)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Config returns the dashboard configuration.
func (d *Dashboard) Config() Config { return d.cfg }

type categoryFetch struct {
	category domain.Category
	txs      []domain.Transaction
	err      error
	stale    bool
}

type fetchResult struct {
	users       []domain.User
	userErr     error
	categories  []categoryFetch
	results     []domain.Result
	resultsErr  error
	progress    []domain.Progress
	progressErr error
}

// Load fetches every source concurrently and assembles the view. A failing
// source only fails the sections built from it. An authentication failure is
// fatal: credentials are cleared and the error is returned.
func (d *Dashboard) Load(ctx context.Context, creds Credentials) (View, error) {
	if creds == nil {
		return View{}, domain.ErrNoToken
	}
	token, err := creds.Token(ctx)
	if err == nil && token == "" {
		err = domain.ErrNoToken
	}
	if err != nil {
		if domain.IsAuth(err) {
			metrics.IncDashboardLoad(metrics.ResultAuth)
			d.clear(ctx, creds, "")
		}
		return View{}, err
	}

	loadID := d.newID()
	started := d.now()
	userID := subjectOf(token)

	fetched, err := d.fetchAll(ctx, token, userID, loadID)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return View{}, d.abort(ctx, creds, loadID, err)
	}

	all := accounted(fetched.categories)
	index := domain.IndexFromTransactions(all)
	index, err = d.resolveObjects(ctx, token, loadID, index, fetched.categories[0].txs)
	if err != nil {
		return View{}, d.abort(ctx, creds, loadID, err)
	}

	view := View{
		LoadID:       loadID,
		GeneratedAt:  d.now().UTC(),
		Transactions: xp.RecentGains(all, len(all)),
	}
	view.User = d.userSection(fetched)
	view.XP = d.xpSection(fetched, all, index)
	view.Timeline = d.timelineSection(fetched, all)
	view.PassFail = d.passFailSection(fetched)
	view.Audits = d.auditsSection(fetched)
	view.Projects = d.projectsSection(fetched, index)

	if view.XP.OK() && !view.XP.Stale {
		d.saveSnapshot(ctx, userID, domain.CacheKeyTotals, view.XP.Data.Totals)
	}

	failedSections := view.Failed()
	result := metrics.ResultSuccess
	if len(failedSections) > 0 {
		result = metrics.ResultPartial
	}
	metrics.IncDashboardLoad(result)
	d.logger.Printf("dashboard load: load_id=%s result=%s failed=%v duration=%s", loadID, result, failedSections, d.now().Sub(started))
	return view, nil
}

func (d *Dashboard) abort(ctx context.Context, creds Credentials, loadID string, err error) error {
	if domain.IsAuth(err) {
		metrics.IncDashboardLoad(metrics.ResultAuth)
		d.logger.Printf("dashboard load: load_id=%s result=auth_error", loadID)
		d.clear(ctx, creds, loadID)
		return err
	}
	metrics.IncDashboardLoad(metrics.ResultError)
	d.logger.Printf("dashboard load: load_id=%s result=error err=%v", loadID, err)
	return err
}

func (d *Dashboard) clear(ctx context.Context, creds Credentials, loadID string) {
	if err := creds.Clear(context.WithoutCancel(ctx)); err != nil {
		d.logger.Printf("dashboard clear credentials: load_id=%s err=%v", loadID, err)
	}
}

// fetchAll issues the six source queries concurrently. Only an auth failure
// is returned; it cancels the remaining fetches.
func (d *Dashboard) fetchAll(ctx context.Context, token, userID, loadID string) (fetchResult, error) {
	rules := d.cfg.Rules()
	out := fetchResult{categories: make([]categoryFetch, len(domain.AccountedCategories))}
	g, gctx := errgroup.WithContext(ctx)

	run := func(q platform.Query, sink func([]domain.RawRecord, error)) {
		g.Go(func() error {
			started := time.Now()
			raw, err := d.fetcher.Fetch(gctx, token, q)
			metrics.ObserveSectionFetch(q.Name, fetchOutcome(err), time.Since(started))
			if err != nil && domain.IsAuth(err) {
				return err
			}
			if err != nil {
				d.logger.Printf("dashboard fetch failed: load_id=%s source=%s err=%v", loadID, q.Name, err)
			}
			sink(raw, err)
			return nil
		})
	}

	run(platform.UserQuery(), func(raw []domain.RawRecord, err error) {
		out.users, out.userErr = d.normalizer.Users(raw), err
	})
	for i, c := range domain.AccountedCategories {
		slot := &out.categories[i]
		slot.category = c
		q, err := platform.TransactionsQuery(rules, c)
		if err != nil {
			slot.err = err
			continue
		}
		run(q, func(raw []domain.RawRecord, err error) {
			key, _ := domain.CacheKeyFor(slot.category)
			if err != nil {
				slot.err = err
				if txs, ok := d.loadTransactions(gctx, userID, key); ok {
					slot.txs, slot.stale = txs, true
					d.logger.Printf("dashboard cache fallback: load_id=%s key=%s records=%d", loadID, key, len(txs))
				}
				return
			}
			slot.txs = d.normalizer.Transactions(raw)
			d.saveSnapshot(gctx, userID, key, slot.txs)
		})
	}
	run(platform.ResultsQuery(), func(raw []domain.RawRecord, err error) {
		out.results, out.resultsErr = d.normalizer.Results(raw), err
	})
	run(platform.ProgressQuery(), func(raw []domain.RawRecord, err error) {
		out.progress, out.progressErr = d.normalizer.Progress(raw), err
	})

	if err := g.Wait(); err != nil {
		return fetchResult{}, err
	}
	return out, nil
}

// resolveObjects looks up names of objects the transactions reference but do
// not name. Failures other than auth only degrade names to "#<id>".
func (d *Dashboard) resolveObjects(ctx context.Context, token, loadID string, index domain.ObjectIndex, txs []domain.Transaction) (domain.ObjectIndex, error) {
	missing := index.MissingIDs(txs, platform.MaxObjectIDs)
	if len(missing) == 0 {
		return index, nil
	}
	q := platform.ObjectsQuery(missing)
	started := time.Now()
	raw, err := d.fetcher.Fetch(ctx, token, q)
	metrics.ObserveSectionFetch(q.Name, fetchOutcome(err), time.Since(started))
	switch {
	case err == nil:
		return index.Merge(d.normalizer.Objects(raw)), nil
	case domain.IsAuth(err):
		return index, err
	default:
		d.logger.Printf("dashboard object lookup failed: load_id=%s ids=%d err=%v", loadID, len(missing), err)
		return index, nil
	}
}

func (d *Dashboard) userSection(f fetchResult) Section[UserData] {
	if f.userErr != nil {
		return failed[UserData]("Could not load your profile.", f.userErr)
	}
	if len(f.users) == 0 {
		return Section[UserData]{Empty: "No profile data available."}
	}
	u := f.users[0]
	return Section[UserData]{Data: UserData{
		ID:          u.ID,
		Login:       u.Login,
		DisplayName: u.DisplayName(),
		Email:       u.Email,
		CreatedAt:   u.CreatedAt,
	}}
}

// categoriesState reports whether any category was served from the cache and
// returns the first unrecovered category failure.
func categoriesState(cats []categoryFetch) (bool, error) {
	var stale bool
	for _, c := range cats {
		if c.err != nil && !c.stale {
			return false, c.err
		}
		stale = stale || c.stale
	}
	return stale, nil
}

func (d *Dashboard) xpSection(f fetchResult, all []domain.Transaction, index domain.ObjectIndex) Section[XPData] {
	stale, err := categoriesState(f.categories)
	if err != nil {
		return failed[XPData]("Could not load XP data.", err)
	}
	totals := xp.SumByCategory(all)
	section := Section[XPData]{Stale: stale, Data: XPData{
		Totals:    totals,
		Formatted: render.FormatInt(totals.GrandTotal),
		Count:     totals.Count,
	}}
	for _, tx := range xp.RecentGains(all, d.cfg.RecentLimit) {
		section.Data.Recent = append(section.Data.Recent, Gain{
			Name:     objectName(tx, index),
			Amount:   tx.Amount,
			Category: tx.Category,
			At:       tx.Timestamp,
		})
	}
	if totals.Count == 0 {
		section.Empty = "No XP earned yet."
	}
	return section
}

func (d *Dashboard) timelineSection(f fetchResult, all []domain.Transaction) Section[TimelineData] {
	stale, err := categoriesState(f.categories)
	if err != nil {
		return failed[TimelineData]("Could not load XP history.", err)
	}
	points, err := xp.BucketByTime(all, d.cfg.Granularity)
	if err != nil {
		return failed[TimelineData]("Could not load XP history.", err)
	}
	section := Section[TimelineData]{Stale: stale, Data: TimelineData{
		Granularity: d.cfg.Granularity,
		Points:      points,
		Cumulative:  xp.Cumulative(points),
		Chart:       render.Line(points, d.cfg.Charts.Timeline),
		Running:     render.Line(points, d.cfg.Charts.Cumulative),
	}}
	if len(points) == 0 {
		section.Empty = "No XP history yet."
	}
	return section
}

func (d *Dashboard) passFailSection(f fetchResult) Section[PassFailData] {
	if f.resultsErr != nil {
		return failed[PassFailData]("Could not load audit results.", f.resultsErr)
	}
	stats := xp.PassFail(f.results)
	section := Section[PassFailData]{Data: PassFailData{
		Stats: stats,
		Donut: render.Donut(stats, d.cfg.Charts.Donut),
		Pie:   render.Pie(stats, d.cfg.Charts.Pie),
	}}
	if stats.Total == 0 {
		section.Empty = "No graded results yet."
	}
	return section
}

func (d *Dashboard) auditsSection(f fetchResult) Section[xp.AuditSummary] {
	if err := errors.Join(f.resultsErr, f.progressErr); err != nil {
		return failed[xp.AuditSummary]("Could not load audit summary.", err)
	}
	summary := xp.Summarize(f.results, f.progress)
	section := Section[xp.AuditSummary]{Data: summary}
	if summary.TotalResults == 0 && summary.ProgressRecords == 0 {
		section.Empty = "No audits yet."
	}
	return section
}

func (d *Dashboard) projectsSection(f fetchResult, index domain.ObjectIndex) Section[ProjectsData] {
	projects := f.categories[0]
	if projects.err != nil && !projects.stale {
		return failed[ProjectsData]("Could not load project XP.", projects.err)
	}
	ranking := xp.Top(xp.RankByObject(projects.txs, index), d.cfg.RankingLimit)
	section := Section[ProjectsData]{Stale: projects.stale, Data: ProjectsData{
		Ranking: ranking,
		Chart:   render.Bar(render.BarItemsFromRanking(ranking), d.cfg.Charts.Projects),
	}}
	if len(ranking) == 0 {
		section.Empty = "No project XP yet."
	}
	return section
}

func (d *Dashboard) loadTransactions(ctx context.Context, userID, key string) ([]domain.Transaction, bool) {
	if d.snapshots == nil || userID == "" || key == "" {
		return nil, false
	}
	snap, err := d.snapshots.Find(ctx, userID, key)
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			d.logger.Printf("dashboard cache read: key=%s err=%v", key, err)
		}
		return nil, false
	}
	if !snap.FreshAt(d.now(), d.cacheTTL) {
		return nil, false
	}
	var txs []domain.Transaction
	if err := json.Unmarshal(snap.Payload, &txs); err != nil {
		d.logger.Printf("dashboard cache decode: key=%s err=%v", key, err)
		return nil, false
	}
	return txs, true
}

func (d *Dashboard) saveSnapshot(ctx context.Context, userID, key string, value any) {
	if d.snapshots == nil || userID == "" || key == "" {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		d.logger.Printf("dashboard cache encode: key=%s err=%v", key, err)
		return
	}
	snap := domain.Snapshot{UserID: userID, Key: key, Payload: payload, StoredAt: d.now().UTC()}
	if err := d.snapshots.Save(ctx, snap); err != nil {
		d.logger.Printf("dashboard cache write: key=%s err=%v", key, err)
	}
}

func accounted(cats []categoryFetch) []domain.Transaction {
	var all []domain.Transaction
	for _, c := range cats {
		all = append(all, c.txs...)
	}
	return all
}

// objectName resolves a display name for a transaction.
func objectName(tx domain.Transaction, index domain.ObjectIndex) string {
	if name, ok := index.Name(tx.ObjectID); ok {
		return name
	}
	if tx.ObjectName != "" {
		return tx.ObjectName
	}
	if tx.HasObject() {
		return "#" + strconv.FormatInt(tx.ObjectID, 10)
	}
	if tx.Path != "" {
		return path.Base(tx.Path)
	}
	return "XP"
}

func subjectOf(token string) string {
	claims, err := auth.ParseClaims(token)
	if err != nil {
		return ""
	}
	return claims.UserID()
}

func fetchOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case domain.IsAuth(err):
		return metrics.ResultAuth
	default:
		return metrics.ResultError
	}
}
