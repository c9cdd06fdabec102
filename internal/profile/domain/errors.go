package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoToken is returned when no credential is available.
	ErrNoToken = errors.New("domain: no token")
	// ErrTokenExpired is returned when the stored credential has expired.
	ErrTokenExpired = errors.New("domain: token expired")
)

// AuthError signals a missing, invalid or expired credential.
// It is the only globally fatal error of a dashboard load.
type AuthError struct {
	Status  int
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = "unauthorized"
	}
	return "auth error: " + msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// NetworkError signals a transport failure, including CORS rejection by a proxy.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("network error: %s: http %d: %v", e.Op, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("network error: %s: http %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("network error: %s: %v", e.Op, e.Err)
	default:
		return "network error: " + e.Op
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// GraphQLError carries the structured errors returned by the upstream API.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	if len(e.Messages) == 0 {
		return "graphql error"
	}
	return "graphql error: " + strings.Join(e.Messages, ", ")
}

// MalformedRecordError describes a record dropped by the normalizer.
type MalformedRecordError struct {
	Kind   string
	Index  int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record #%d: %s", e.Kind, e.Index, e.Reason)
}

// IsAuth reports whether err is an AuthError or one of the credential sentinels.
func IsAuth(err error) bool {
	if err == nil {
		return false
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return true
	}
	return errors.Is(err, ErrNoToken) || errors.Is(err, ErrTokenExpired)
}

// IsNetwork reports whether err is a NetworkError.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsGraphQL reports whether err is a GraphQLError.
func IsGraphQL(err error) bool {
	var gqlErr *GraphQLError
	return errors.As(err, &gqlErr)
}

// UserMessage returns the text a dashboard section shows for err.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case IsAuth(err):
		return "Your session has expired. Please sign in again."
	case IsNetwork(err):
		return "Could not reach the platform. Check your connection and try again."
	case IsGraphQL(err):
		var gqlErr *GraphQLError
		errors.As(err, &gqlErr)
		return "The platform rejected this query: " + strings.Join(gqlErr.Messages, ", ")
	default:
		return "Something went wrong loading this section."
	}
}
