package analysis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates the request never produced a response
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates the request exceeded its deadline
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing is listening on the endpoint
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates the endpoint host could not be resolved
	ErrTypeDNS
	// ErrTypeAPI indicates the service answered with a non-2xx status
	ErrTypeAPI
	// ErrTypeParse indicates a 2xx body that is not valid JSON
	ErrTypeParse
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeAPI:
		return "API Error"
	case ErrTypeParse:
		return "Parse Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is returned by every failing Client call.
type Error struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (ErrTypeAPI only)
	StatusText string    // Reason phrase without the code (ErrTypeAPI only)
	Endpoint   string    // Endpoint URL, for hints
	Err        error     // Underlying error (if any)
	Retryable  bool      // Whether the error is retryable
}

// Error implements the error interface. API errors render as
// "API error: <code> <text>", everything else as message plus cause.
func (e *Error) Error() string {
	if e.Type == ErrTypeAPI {
		return strings.TrimSpace(fmt.Sprintf("API error: %d %s", e.StatusCode, e.StatusText))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a more specific error type
func ClassifyNetworkError(err error, endpoint string) *Error {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{
			Type:      ErrTypeTimeout,
			Message:   "request timed out",
			Endpoint:  endpoint,
			Err:       err,
			Retryable: true,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{
			Type:      ErrTypeDNS,
			Message:   fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Endpoint:  endpoint,
			Err:       err,
			Retryable: false,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &Error{
				Type:      ErrTypeConnectionRefused,
				Message:   "connection refused",
				Endpoint:  endpoint,
				Err:       err,
				Retryable: true,
			}
		}
		if errors.Is(opErr.Err, syscall.EHOSTUNREACH) || errors.Is(opErr.Err, syscall.ENETUNREACH) {
			return &Error{
				Type:      ErrTypeNetwork,
				Message:   "host unreachable",
				Endpoint:  endpoint,
				Err:       err,
				Retryable: true,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ClassifyNetworkError(urlErr.Err, endpoint)
	}

	return &Error{
		Type:      ErrTypeNetwork,
		Message:   "network error",
		Endpoint:  endpoint,
		Err:       err,
		Retryable: true,
	}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message, endpoint string, err error) *Error {
	classified := ClassifyNetworkError(err, endpoint)
	if classified != nil {
		if classified.Type == ErrTypeNetwork {
			classified.Message = message
		}
		return classified
	}
	return &Error{
		Type:      ErrTypeNetwork,
		Message:   message,
		Endpoint:  endpoint,
		Retryable: true,
	}
}

// NewAPIError creates an error for a non-2xx response. status is the
// response's Status line, e.g. "500 Internal Server Error".
func NewAPIError(statusCode int, status, endpoint string) *Error {
	text := strings.TrimSpace(strings.TrimPrefix(status, fmt.Sprintf("%d", statusCode)))
	if text == "" {
		text = http.StatusText(statusCode)
	}
	return &Error{
		Type:       ErrTypeAPI,
		Message:    "unexpected status",
		StatusCode: statusCode,
		StatusText: text,
		Endpoint:   endpoint,
		Retryable:  statusCode >= 500 || statusCode == http.StatusTooManyRequests,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *Error {
	return &Error{
		Type:      ErrTypeParse,
		Message:   message,
		Err:       err,
		Retryable: false,
	}
}

func asError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsNetworkError checks if an error is a transport failure (including timeout, connection refused, DNS)
func IsNetworkError(err error) bool {
	if e, ok := asError(err); ok {
		return e.Type == ErrTypeNetwork ||
			e.Type == ErrTypeTimeout ||
			e.Type == ErrTypeConnectionRefused ||
			e.Type == ErrTypeDNS
	}
	return false
}

// IsAPIError checks if an error is a non-2xx response
func IsAPIError(err error) bool {
	if e, ok := asError(err); ok {
		return e.Type == ErrTypeAPI
	}
	return false
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	if e, ok := asError(err); ok {
		return e.Type == ErrTypeParse
	}
	return false
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	if e, ok := asError(err); ok {
		return e.Retryable
	}
	return false
}

// TroubleshootingHints returns user-facing advice for an error, one item per line
func TroubleshootingHints(err error) []string {
	e, ok := asError(err)
	if !ok {
		return []string{"An unexpected error occurred. Please try again."}
	}

	switch e.Type {
	case ErrTypeTimeout:
		return []string{
			"The prediction service did not respond in time.",
			"Check that the backend is running and not overloaded",
			"Raise timeout_seconds in the config file",
		}
	case ErrTypeConnectionRefused:
		return []string{
			"Nothing is listening on " + e.Endpoint + ".",
			"Start the backend (python app.py) and retry",
			"Check the port in --endpoint",
			"Run `claimsense scan` to look for services on the network",
		}
	case ErrTypeDNS:
		return []string{
			"Could not resolve the service hostname.",
			"Use the IP address instead of the hostname",
			"Check your network DNS settings",
		}
	case ErrTypeAPI:
		if e.StatusCode >= 500 {
			return []string{
				fmt.Sprintf("The prediction service failed (HTTP %d).", e.StatusCode),
				"Check the backend logs for a model or database error",
			}
		}
		if e.StatusCode == http.StatusNotFound {
			return []string{
				"The endpoint path was not found.",
				"The service expects POST /Predict_Sentiment",
			}
		}
		return []string{fmt.Sprintf("The service rejected the request (HTTP %d).", e.StatusCode)}
	case ErrTypeParse:
		return []string{
			"The service answered with something that is not JSON.",
			"Check that --endpoint points at the prediction API and not a web page",
		}
	default:
		return []string{
			"Network communication failed.",
			"Check your network connection",
			"Verify the endpoint URL",
		}
	}
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	e, ok := asError(err)
	if !ok {
		return err.Error()
	}

	switch e.Type {
	case ErrTypeTimeout:
		return "Service not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Service refused connection - is the backend running?"
	case ErrTypeDNS:
		return "Cannot resolve service hostname"
	case ErrTypeAPI:
		return e.Error()
	case ErrTypeParse:
		return "Failed to parse service response"
	default:
		return "Network error - check connection"
	}
}
