package platform

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"xp-dashboard/internal/profile/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// DefaultBaseURL is the upstream platform.
	DefaultBaseURL = "https://platform.zone01.gr"
	// DefaultAuthPath is the sign-in endpoint path.
	DefaultAuthPath = "/api/auth/signin"
	// DefaultGraphQLPath is the GraphQL endpoint path.
	DefaultGraphQLPath = "/api/graphql-engine/v1/graphql"

	maxBodyBytes = 8 << 20
)

// Client talks to the upstream platform: Basic-auth sign-in and bearer GraphQL.
type Client struct {
	baseURL     string
	authPath    string
	graphqlPath string
	client      *http.Client
	observe     func(op string, d time.Duration)
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithPaths overrides the endpoint paths.
func WithPaths(authPath, graphqlPath string) Option {
	return func(c *Client) {
		if authPath != "" {
			c.authPath = authPath
		}
		if graphqlPath != "" {
			c.graphqlPath = graphqlPath
		}
	}
}

// WithLatencyObserver reports the duration of each upstream call by op
// ("signin" or "graphql").
func WithLatencyObserver(fn func(op string, d time.Duration)) Option {
	return func(c *Client) { c.observe = fn }
}

// NewClient constructs a platform client.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("platform: empty base url")
	}
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		authPath:    DefaultAuthPath,
		graphqlPath: DefaultGraphQLPath,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SignIn exchanges credentials for a platform JWT.
func (c *Client) SignIn(ctx context.Context, login, password string) (string, error) {
	if login == "" || password == "" {
		return "", &domain.AuthError{Status: http.StatusBadRequest, Message: "login and password are required"}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.authPath, nil)
	if err != nil {
		return "", err
	}
	creds := base64.StdEncoding.EncodeToString([]byte(login + ":" + password))
	req.Header.Set("Authorization", "Basic "+creds)
	req.Header.Set("Content-Type", "application/json")

	status, body, err := c.do(req, "signin")
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		msg := upstreamMessage(body)
		if msg == "" {
			msg = fmt.Sprintf("sign in failed: %d %s", status, http.StatusText(status))
		}
		if status >= 500 {
			return "", &domain.NetworkError{Op: "signin", Status: status, Err: errors.New(msg)}
		}
		return "", &domain.AuthError{Status: status, Message: msg}
	}
	return ExtractToken(body)
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlResponse struct {
	Data   jsoniter.RawMessage `json:"data"`
	Errors []gqlError          `json:"errors"`
}

type gqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

// Execute runs a GraphQL query with the bearer token and decodes `data` into out.
func (c *Client) Execute(ctx context.Context, token, query string, variables map[string]any, out any) error {
	if token == "" {
		return domain.ErrNoToken
	}
	payload, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.graphqlPath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	status, body, err := c.do(req, "graphql")
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &domain.AuthError{Status: status, Message: firstNonEmpty(upstreamMessage(body), http.StatusText(status))}
	}

	var resp gqlResponse
	decodeErr := json.Unmarshal(body, &resp)
	if status < 200 || status >= 300 {
		if decodeErr == nil && len(resp.Errors) > 0 {
			if gqlErr := classifyErrors(resp.Errors); domain.IsAuth(gqlErr) {
				return gqlErr
			}
		}
		return &domain.NetworkError{Op: "graphql", Status: status}
	}
	if decodeErr != nil {
		return &domain.NetworkError{Op: "graphql decode", Status: status, Err: decodeErr}
	}
	if len(resp.Errors) > 0 {
		return classifyErrors(resp.Errors)
	}
	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("platform: decode data: %w", err)
	}
	return nil
}

// do sends req and reads the body. Transport failures, including context
// cancellation, become NetworkError with the cause kept in the chain.
func (c *Client) do(req *http.Request, op string) (int, []byte, error) {
	start := time.Now()
	resp, err := c.client.Do(req)
	if c.observe != nil {
		defer func() { c.observe(op, time.Since(start)) }()
	}
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return 0, nil, &domain.NetworkError{Op: op, Err: ctxErr}
		}
		return 0, nil, &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, &domain.NetworkError{Op: op, Status: resp.StatusCode, Err: err}
	}
	return resp.StatusCode, body, nil
}

var jwtFailureMarkers = []string{"jwtexpired", "invalid-jwt", "could not verify jwt", "jwt expired", "jwserror"}

func classifyErrors(errs []gqlError) error {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		lower := strings.ToLower(e.Message + " " + e.Extensions.Code)
		for _, marker := range jwtFailureMarkers {
			if strings.Contains(lower, marker) {
				return &domain.AuthError{Status: http.StatusUnauthorized, Message: e.Message}
			}
		}
		messages = append(messages, e.Message)
	}
	return &domain.GraphQLError{Messages: messages}
}

func upstreamMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return firstNonEmpty(payload.Message, payload.Error)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
