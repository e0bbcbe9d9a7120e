package quickstats

import (
	"fmt"
	"strconv"
	"strings"
)

// Response is a snapshot of an HTTP exchange, kept on errors for
// diagnostics. The body is fully read before interpretation, so the
// snapshot stays valid after the underlying connection is reused.
type Response struct {
	StatusCode int
	Body       []byte
}

// NetworkError reports a transport-level failure (DNS, refused
// connection, timeout, TLS). The client never retries; whether to retry
// is the caller's call.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("quickstats: request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// InvalidJSONError reports a response body that could not be decoded as JSON.
type InvalidJSONError struct {
	Response *Response
}

func (e *InvalidJSONError) Error() string {
	return fmt.Sprintf("quickstats: response is not valid JSON (status %d)", e.Response.StatusCode)
}

// StatusError reports a non-200 status on a response that carried no
// structured error list.
type StatusError struct {
	Response *Response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("quickstats: unexpected status %d", e.Response.StatusCode)
}

// UnexpectedResponseError reports a decoded body that is missing the
// field the endpoint promises, or is not shaped the way the endpoint
// promises at all.
type UnexpectedResponseError struct {
	Body     any
	Response *Response
}

func (e *UnexpectedResponseError) Error() string {
	return "quickstats: response did not contain the expected field"
}

// APIError is an error message reported by the service itself. Known
// messages are translated into the more specific types below; anything
// the service says that we do not recognize surfaces as a plain APIError.
type APIError struct {
	Message  string
	Response *Response
}

func (e *APIError) Error() string {
	return fmt.Sprintf("quickstats: API error: %s", e.Message)
}

// UnauthorizedError reports a rejected API key.
type UnauthorizedError struct {
	APIError
}

// InvalidQueryError reports a query the service refused to parse.
type InvalidQueryError struct {
	APIError
}

// UnsupportedMediaTypeError reports a request format the service rejected.
type UnsupportedMediaTypeError struct {
	APIError
}

// RowLimitError reports a query whose result would exceed the service's
// per-call row cap. LimitKnown is false when the cap could not be parsed
// out of the message.
type RowLimitError struct {
	APIError
	Limit      int
	LimitKnown bool
}

func (e *RowLimitError) Error() string {
	if e.LimitKnown {
		return fmt.Sprintf("quickstats: query exceeds row limit of %d", e.Limit)
	}
	return "quickstats: query exceeds the row limit"
}

// MultiError carries every message the service returned when it
// reported more than one error for a single request.
type MultiError struct {
	Messages []string
	Response *Response
}

func (e *MultiError) Error() string {
	return fmt.Sprintf("quickstats: API returned %d errors: %s", len(e.Messages), strings.Join(e.Messages, "; "))
}

// Messages the service uses verbatim for known failure classes.
const (
	msgUnauthorized = "unauthorized"
	msgInvalidQuery = "bad request - invalid query"
	msgBadMediaType = "bad request - unsupported media type"

	rowLimitPrefix = "exceeds limit"
)

// errorFromMessages translates the service's error list into a typed
// error. An empty list yields nil; interpretation then falls through to
// the status-code check.
func errorFromMessages(messages []string, resp *Response) error {
	switch len(messages) {
	case 0:
		return nil
	case 1:
	default:
		return &MultiError{Messages: messages, Response: resp}
	}

	msg := messages[0]
	api := APIError{Message: msg, Response: resp}

	switch msg {
	case msgUnauthorized:
		return &UnauthorizedError{api}
	case msgInvalidQuery:
		return &InvalidQueryError{api}
	case msgBadMediaType:
		return &UnsupportedMediaTypeError{api}
	}

	if strings.HasPrefix(msg, rowLimitPrefix) {
		rle := &RowLimitError{APIError: api}
		// The service phrases this as "exceeds limit=50000"; keep the
		// error usable even when the number after '=' doesn't parse.
		if parts := strings.Split(msg, "="); len(parts) > 1 {
			if n, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
				rle.Limit = n
				rle.LimitKnown = true
			}
		}
		return rle
	}

	return &api
}
