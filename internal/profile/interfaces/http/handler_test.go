package http

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"xp-dashboard/internal/platform"
	"xp-dashboard/internal/profile/application"
	"xp-dashboard/internal/profile/domain"
	"xp-dashboard/internal/session"
)

type stubFetcher struct {
	mu   sync.Mutex
	errs map[string]error
}

func (s *stubFetcher) Fetch(ctx context.Context, token string, q platform.Query) ([]domain.RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs[q.Name]; err != nil {
		return nil, err
	}
	switch q.Name {
	case "user":
		return []domain.RawRecord{{"id": float64(42), "login": "jdoe"}}, nil
	case "project_xp":
		return []domain.RawRecord{
			{"amount": float64(100), "createdAt": "2024-01-01", "path": "/athens/div-01/foo", "objectId": float64(7), "object": map[string]any{"name": "foo"}},
			{"amount": float64(50), "createdAt": "2024-01-02", "path": "/athens/div-01/bar", "objectId": float64(8), "object": map[string]any{"name": "bar"}},
		}, nil
	case "results":
		return []domain.RawRecord{{"grade": float64(1), "createdAt": "2024-01-01"}, {"grade": float64(0), "createdAt": "2024-01-02"}}, nil
	default:
		return nil, nil
	}
}

type stubAuthenticator struct {
	token string
	err   error
}

func (a *stubAuthenticator) SignIn(context.Context, string, string) (string, error) {
	return a.token, a.err
}

type testServer struct {
	handler  http.Handler
	fetcher  *stubFetcher
	authn    *stubAuthenticator
	sessions *session.Manager
	store    *session.MemoryStore
}

func mustToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("platform-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	fetcher := &stubFetcher{errs: map[string]error{}}
	dashboard, err := application.NewDashboard(fetcher, application.DefaultConfig(), logger)
	if err != nil {
		t.Fatalf("new dashboard: %v", err)
	}
	store := session.NewMemoryStore()
	authn := &stubAuthenticator{token: mustToken(t, "42")}
	sessions, err := session.NewManager(store, authn, time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("new session manager: %v", err)
	}
	h, err := NewHandler(dashboard, sessions, logger, false)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return &testServer{handler: NewRouter(h), fetcher: fetcher, authn: authn, sessions: sessions, store: store}
}

func (s *testServer) do(method, target, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if mutate != nil {
		mutate(req)
	}
	resp := httptest.NewRecorder()
	s.handler.ServeHTTP(resp, req)
	return resp
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func TestNewHandler_RejectsNilDeps(t *testing.T) {
	if _, err := NewHandler(nil, nil, nil, false); err == nil {
		t.Fatalf("expected error for nil deps")
	}
}

func TestSignIn(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.do(http.MethodPost, "/api/v1/session", `{"login":"jdoe","password":"secret","remember":true}`, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"user_id":"42"`) {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
	cookies := resp.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != session.CookieName || cookies[0].Value == "" {
		t.Fatalf("expected session cookie, got %v", cookies)
	}

	dash := srv.do(http.MethodGet, "/api/v1/dashboard", "", func(r *http.Request) { r.AddCookie(cookies[0]) })
	if dash.Code != http.StatusOK {
		t.Fatalf("expected dashboard via cookie, got %d: %s", dash.Code, dash.Body.String())
	}
}

func TestSignIn_Errors(t *testing.T) {
	srv := newTestServer(t)
	if resp := srv.do(http.MethodPost, "/api/v1/session", `{"login":"jdoe"}`, nil); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing password, got %d", resp.Code)
	}
	if resp := srv.do(http.MethodPost, "/api/v1/session", `not json`, nil); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", resp.Code)
	}

	srv.authn.err = &domain.AuthError{Status: http.StatusUnauthorized, Message: "User does not exist or password incorrect"}
	resp := srv.do(http.MethodPost, "/api/v1/session", `{"login":"jdoe","password":"nope"}`, nil)
	if resp.Code != http.StatusUnauthorized || !strings.Contains(resp.Body.String(), "password incorrect") {
		t.Fatalf("expected 401 with upstream message, got %d: %s", resp.Code, resp.Body.String())
	}

	srv.authn.err = &domain.NetworkError{Op: "signin", Status: http.StatusBadGateway}
	if resp := srv.do(http.MethodPost, "/api/v1/session", `{"login":"jdoe","password":"x"}`, nil); resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
}

func TestSignOut(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.do(http.MethodDelete, "/api/v1/session", "", nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	cookies := resp.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expired cookie, got %v", cookies)
	}
}

func TestDashboard_Bearer(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.do(http.MethodGet, "/api/v1/dashboard", "", withBearer(mustToken(t, "42")))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	body := resp.Body.String()
	for _, want := range []string{`"xpTimeline"`, `"grand_total":150`, `"pass_rate":50`, `"kind":"path"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in body: %s", want, body)
		}
	}
}

func TestDashboard_NoTokenRedirects(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.do(http.MethodGet, "/api/v1/dashboard", "", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"redirect":"/login"`) {
		t.Fatalf("expected redirect, got %s", resp.Body.String())
	}
}

func TestDashboard_ExpiredUpstreamClearsSession(t *testing.T) {
	srv := newTestServer(t)
	signIn := srv.do(http.MethodPost, "/api/v1/session", `{"login":"jdoe","password":"secret"}`, nil)
	cookie := signIn.Result().Cookies()[0]

	srv.fetcher.errs["results"] = &domain.AuthError{Status: http.StatusUnauthorized, Message: "JWTExpired"}
	resp := srv.do(http.MethodGet, "/api/v1/dashboard", "", func(r *http.Request) { r.AddCookie(cookie) })
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	cleared := resp.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Fatalf("expected expired cookie, got %v", cleared)
	}
	if _, err := srv.store.Get(context.Background(), cookie.Value); err == nil {
		t.Fatalf("expected session to be removed")
	}
}

func TestChart_Formats(t *testing.T) {
	srv := newTestServer(t)
	token := mustToken(t, "42")

	resp := srv.do(http.MethodGet, "/api/v1/charts/xp-timeline.svg", "", withBearer(token))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("Content-Type") != "image/svg+xml" || !strings.Contains(resp.Body.String(), "<svg") {
		t.Fatalf("unexpected svg response: %s", resp.Header().Get("Content-Type"))
	}

	resp = srv.do(http.MethodGet, "/api/v1/charts/projects.png", "", withBearer(token))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !bytes.HasPrefix(resp.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("expected png body")
	}

	if resp := srv.do(http.MethodGet, "/api/v1/charts/radar.svg", "", withBearer(token)); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown chart, got %d", resp.Code)
	}
	if resp := srv.do(http.MethodGet, "/api/v1/charts/projects.gif", "", withBearer(token)); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown format, got %d", resp.Code)
	}
}

func TestChart_FailedSection(t *testing.T) {
	srv := newTestServer(t)
	srv.fetcher.errs["results"] = &domain.GraphQLError{Messages: []string{"boom"}}
	resp := srv.do(http.MethodGet, "/api/v1/charts/pass-fail.svg", "", withBearer(mustToken(t, "42")))
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	ok := srv.do(http.MethodGet, "/api/v1/charts/xp-cumulative.svg", "", withBearer(mustToken(t, "42")))
	if ok.Code != http.StatusOK {
		t.Fatalf("expected unrelated chart to render, got %d", ok.Code)
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t)
	token := mustToken(t, "42")

	resp := srv.do(http.MethodGet, "/api/v1/exports/transactions.csv", "", withBearer(token))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.HasPrefix(resp.Body.String(), "created_at,amount,category") {
		t.Fatalf("unexpected csv: %s", resp.Body.String())
	}
	if got := resp.Header().Get("Content-Disposition"); got != `attachment; filename="transactions.csv"` {
		t.Fatalf("unexpected disposition: %s", got)
	}

	for _, file := range []string{"profile.pdf", "profile.xlsx", "transactions.parquet"} {
		if resp := srv.do(http.MethodGet, "/api/v1/exports/"+file, "", withBearer(token)); resp.Code != http.StatusOK || resp.Body.Len() == 0 {
			t.Fatalf("expected %s export, got %d", file, resp.Code)
		}
	}
	if resp := srv.do(http.MethodGet, "/api/v1/exports/profile.doc", "", withBearer(token)); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
