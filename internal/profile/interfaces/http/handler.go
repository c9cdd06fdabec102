package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"xp-dashboard/internal/auth"
	"xp-dashboard/internal/chart/adapter/raster"
	"xp-dashboard/internal/chart/adapter/svg"
	"xp-dashboard/internal/observability/metrics"
	"xp-dashboard/internal/profile/application"
	"xp-dashboard/internal/profile/domain"
	"xp-dashboard/internal/profile/interfaces/export"
	"xp-dashboard/internal/session"
)

const maxSignInBody = 1 << 16

// DashboardLoader loads a dashboard view for a set of credentials.
type DashboardLoader interface {
	Load(ctx context.Context, creds application.Credentials) (application.View, error)
}

// Sessions signs users in and resolves their stored tokens.
type Sessions interface {
	SignIn(ctx context.Context, login, password string, remember bool) (session.Session, error)
	Token(ctx context.Context, id string) (string, error)
	Clear(ctx context.Context, id string) error
}

// Handler provides the dashboard HTTP API.
type Handler struct {
	dashboard     DashboardLoader
	sessions      Sessions
	logger        *log.Logger
	secureCookies bool
}

// NewHandler constructs a handler.
func NewHandler(dashboard DashboardLoader, sessions Sessions, logger *log.Logger, secureCookies bool) (*Handler, error) {
	if dashboard == nil {
		return nil, errors.New("profile handler: nil dashboard")
	}
	if sessions == nil {
		return nil, errors.New("profile handler: nil sessions")
	}
	if logger == nil {
		return nil, errors.New("profile handler: nil logger")
	}
	return &Handler{dashboard: dashboard, sessions: sessions, logger: logger, secureCookies: secureCookies}, nil
}

// NewRouter returns a router serving the dashboard API.
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()
	h.Register(router)
	return router
}

// Register mounts the /api/v1 routes on router.
func (h *Handler) Register(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/session", h.handleSignIn).Methods(http.MethodPost)
	api.HandleFunc("/session", h.handleSignOut).Methods(http.MethodDelete)
	api.HandleFunc("/dashboard", h.handleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/charts/{name}.{format:svg|png}", h.handleChart).Methods(http.MethodGet)
	api.HandleFunc("/exports/{file}", h.handleExport).Methods(http.MethodGet)
}

type signInRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type signInResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSignInBody)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Login = strings.TrimSpace(req.Login)
	if req.Login == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "login and password are required")
		return
	}

	s, err := h.sessions.SignIn(r.Context(), req.Login, req.Password, req.Remember)
	if err != nil {
		switch {
		case domain.IsAuth(err):
			writeJSONError(w, http.StatusUnauthorized, authMessage(err))
		case domain.IsNetwork(err):
			writeJSONError(w, http.StatusBadGateway, domain.UserMessage(err))
		default:
			h.logger.Printf("profile http sign in: err=%v", err)
			writeJSONError(w, http.StatusInternalServerError, "sign in failed")
		}
		return
	}
	http.SetCookie(w, session.Cookie(s, h.secureCookies))
	writeJSON(w, http.StatusOK, signInResponse{Token: s.Token, UserID: s.UserID, ExpiresAt: s.ExpiresAt})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(r.Context(), session.IDFromRequest(r)); err != nil {
		h.logger.Printf("profile http sign out: err=%v", err)
	}
	http.SetCookie(w, session.ExpiredCookie(h.secureCookies))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view, creds, err := h.load(r)
	if err != nil {
		h.writeError(w, creds, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name, format := vars["name"], vars["format"]
	if !isChart(name) {
		writeJSONError(w, http.StatusNotFound, "unknown chart")
		return
	}
	view, creds, err := h.load(r)
	if err != nil {
		h.writeError(w, creds, err)
		return
	}
	doc, err := view.Chart(name)
	if err != nil {
		h.writeError(w, creds, err)
		return
	}

	var (
		buf         bytes.Buffer
		contentType string
	)
	switch format {
	case "png":
		contentType = raster.ContentType
		err = raster.Encode(&buf, doc, raster.DefaultOptions())
	default:
		contentType = svg.ContentType
		err = svg.Encode(&buf, doc, svg.DefaultOptions())
	}
	if err != nil {
		h.logger.Printf("profile http chart: name=%s format=%s err=%v", name, format, err)
		writeJSONError(w, http.StatusInternalServerError, "chart rendering failed")
		return
	}
	metrics.IncChartRender(name, format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	format, ok := exportFormats[file]
	if !ok {
		writeJSONError(w, http.StatusNotFound, "unknown export")
		return
	}
	view, creds, err := h.load(r)
	if err != nil {
		h.writeError(w, creds, err)
		return
	}

	report := export.FromView(view)
	var buf bytes.Buffer
	switch format {
	case "pdf":
		var out []byte
		out, err = export.BuildProfilePDF(report)
		buf.Write(out)
	case "xlsx":
		var out []byte
		out, err = export.BuildProfileXLSX(report)
		buf.Write(out)
	case "csv":
		err = export.WriteTransactionsCSV(&buf, report.Transactions)
	case "parquet":
		err = export.WriteTransactionsParquet(&buf, report.Transactions)
	}
	if err != nil {
		metrics.IncExport(format, metrics.ResultError)
		h.logger.Printf("profile http export: file=%s err=%v", file, err)
		writeJSONError(w, http.StatusInternalServerError, "export failed")
		return
	}
	metrics.IncExport(format, metrics.ResultSuccess)
	w.Header().Set("Content-Type", exportContentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file))
	_, _ = w.Write(buf.Bytes())
}

var exportFormats = map[string]string{
	"profile.pdf":          "pdf",
	"profile.xlsx":         "xlsx",
	"transactions.csv":     "csv",
	"transactions.parquet": "parquet",
}

var exportContentTypes = map[string]string{
	"pdf":     export.ContentTypePDF,
	"xlsx":    export.ContentTypeXLSX,
	"csv":     export.ContentTypeCSV,
	"parquet": export.ContentTypeParquet,
}

func (h *Handler) load(r *http.Request) (application.View, *requestCredentials, error) {
	creds := &requestCredentials{sessions: h.sessions, r: r}
	view, err := h.dashboard.Load(r.Context(), creds)
	return view, creds, err
}

// writeError maps the error taxonomy onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, creds *requestCredentials, err error) {
	switch {
	case domain.IsAuth(err):
		if creds != nil && creds.cleared {
			http.SetCookie(w, session.ExpiredCookie(h.secureCookies))
		}
		auth.Unauthorized(w, domain.UserMessage(err))
	case domain.IsNetwork(err), domain.IsGraphQL(err):
		writeJSONError(w, http.StatusBadGateway, domain.UserMessage(err))
	case errors.Is(err, context.Canceled):
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		h.logger.Printf("profile http: err=%v", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

// requestCredentials resolves the platform token of one request: the bearer
// token first, then the session cookie.
type requestCredentials struct {
	sessions Sessions
	r        *http.Request
	cleared  bool
}

func (c *requestCredentials) Token(ctx context.Context) (string, error) {
	if token := auth.TokenFromContext(ctx); token != "" {
		return token, nil
	}
	if token := bearerToken(c.r); token != "" {
		return token, nil
	}
	return c.sessions.Token(ctx, session.IDFromRequest(c.r))
}

func (c *requestCredentials) Clear(ctx context.Context) error {
	c.cleared = true
	return c.sessions.Clear(ctx, session.IDFromRequest(c.r))
}

func bearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func isChart(name string) bool {
	for _, candidate := range application.ChartNames {
		if candidate == name {
			return true
		}
	}
	return false
}

func authMessage(err error) string {
	var authErr *domain.AuthError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}
	return "invalid credentials"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
