// Package proxy forwards browser calls to the platform with CORS headers the
// platform does not send itself. Bodies pass through untouched.
package proxy

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"time"

	"xp-dashboard/internal/observability/metrics"
)

// Local routes served by the proxy.
const (
	SignInRoute  = "/api/auth/signin"
	GraphQLRoute = "/api/graphql"
)

const (
	allowMethods   = "GET, POST, OPTIONS"
	defaultHeaders = "authorization, content-type"
	exposeHeaders  = "content-type"
	maxAge         = "86400"
)

// Config configures the proxy.
type Config struct {
	// Upstream is the platform base URL.
	Upstream    string
	AuthPath    string
	GraphQLPath string
	// AllowedOrigins restricts the echoed origin. Empty echoes any origin,
	// or "*" when the request has none.
	AllowedOrigins []string
	Timeout        time.Duration
	Transport      http.RoundTripper
}

// Proxy is an http.Handler for SignInRoute and GraphQLRoute.
type Proxy struct {
	target  *url.URL
	routes  map[string]string
	allowed map[string]struct{}
	rp      *httputil.ReverseProxy
	timeout time.Duration
	logger  *log.Logger
}

type inboundKey struct{}

// New constructs a proxy.
func New(cfg Config, logger *log.Logger) (*Proxy, error) {
	if logger == nil {
		return nil, errors.New("proxy: nil logger")
	}
	target, err := url.Parse(strings.TrimRight(cfg.Upstream, "/"))
	if err != nil {
		return nil, err
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, errors.New("proxy: upstream must be an absolute url")
	}
	if cfg.AuthPath == "" || cfg.GraphQLPath == "" {
		return nil, errors.New("proxy: upstream paths are required")
	}

	p := &Proxy{
		target: target,
		routes: map[string]string{
			SignInRoute:  cfg.AuthPath,
			GraphQLRoute: cfg.GraphQLPath,
		},
		allowed: make(map[string]struct{}, len(cfg.AllowedOrigins)),
		timeout: cfg.Timeout,
		logger:  logger,
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			p.allowed[origin] = struct{}{}
		}
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	p.rp = &httputil.ReverseProxy{
		Rewrite:        p.rewrite,
		Transport:      observedTransport{next: transport},
		ModifyResponse: p.modifyResponse,
		ErrorHandler:   p.handleError,
	}
	return p, nil
}

// ServeHTTP answers preflights and forwards everything else.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.routes[r.URL.Path]; !ok {
		metrics.IncProxyRequest("unknown", strconv.Itoa(http.StatusNotFound))
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if r.Method == http.MethodOptions {
		p.setCORS(w.Header(), r)
		w.WriteHeader(http.StatusNoContent)
		metrics.IncProxyRequest(r.URL.Path, strconv.Itoa(http.StatusNoContent))
		return
	}
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		p.setCORS(w.Header(), r)
		w.WriteHeader(http.StatusMethodNotAllowed)
		metrics.IncProxyRequest(r.URL.Path, strconv.Itoa(http.StatusMethodNotAllowed))
		return
	}
	ctx := context.WithValue(r.Context(), inboundKey{}, r)
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	p.rp.ServeHTTP(w, r.WithContext(ctx))
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	out := pr.Out
	out.URL.Scheme = p.target.Scheme
	out.URL.Host = p.target.Host
	out.URL.Path = p.target.Path + p.routes[pr.In.URL.Path]
	out.URL.RawPath = ""
	out.Host = p.target.Host

	origin := p.target.Scheme + "://" + p.target.Host
	out.Header.Set("Origin", origin)
	out.Header.Set("Referer", origin)
}

func (p *Proxy) modifyResponse(resp *http.Response) error {
	for key := range resp.Header {
		if strings.HasPrefix(http.CanonicalHeaderKey(key), "Access-Control-") {
			resp.Header.Del(key)
		}
	}
	in := inbound(resp.Request)
	p.setCORS(resp.Header, in)
	route := "unknown"
	if in != nil {
		route = in.URL.Path
	}
	metrics.IncProxyRequest(route, strconv.Itoa(resp.StatusCode))
	return nil
}

// handleError receives the outbound request, whose Origin is already the
// upstream's; CORS and the route label come from the inbound one.
func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	in := inbound(r)
	route := "unknown"
	if in != nil {
		route = in.URL.Path
	}
	p.logger.Printf("proxy upstream error: route=%s err=%v", route, err)
	p.setCORS(w.Header(), in)
	http.Error(w, "Proxy error: upstream unavailable", http.StatusBadGateway)
	metrics.IncProxyRequest(route, strconv.Itoa(http.StatusBadGateway))
}

// setCORS writes the CORS header set, with exactly one allowed origin.
func (p *Proxy) setCORS(h http.Header, r *http.Request) {
	var origin, requested string
	if r != nil {
		origin = r.Header.Get("Origin")
		requested = r.Header.Get("Access-Control-Request-Headers")
	}
	if allow, ok := p.allowOrigin(origin); ok {
		h.Set("Access-Control-Allow-Origin", allow)
		if allow != "*" {
			h.Add("Vary", "Origin")
		}
	}
	if requested == "" {
		requested = defaultHeaders
	}
	h.Set("Access-Control-Allow-Methods", allowMethods)
	h.Set("Access-Control-Allow-Headers", requested)
	h.Set("Access-Control-Expose-Headers", exposeHeaders)
	h.Set("Access-Control-Max-Age", maxAge)
}

func (p *Proxy) allowOrigin(origin string) (string, bool) {
	if len(p.allowed) == 0 {
		if origin == "" {
			return "*", true
		}
		return origin, true
	}
	if _, ok := p.allowed[origin]; ok {
		return origin, true
	}
	return "", false
}

// inbound returns the browser request an outbound request was built from.
func inbound(out *http.Request) *http.Request {
	if out == nil {
		return nil
	}
	in, _ := out.Context().Value(inboundKey{}).(*http.Request)
	return in
}

type observedTransport struct {
	next http.RoundTripper
}

func (t observedTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(r)
	metrics.ObserveUpstream("proxy", time.Since(start))
	return resp, err
}
