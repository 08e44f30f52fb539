package push

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FailureClass buckets delivery failures by what the caller should do about
// them.
type FailureClass int

const (
	// FailureTransient covers network errors and unexpected statuses; the
	// attempt is logged and may be retried by a future dispatch.
	FailureTransient FailureClass = iota
	// FailureExpired means the endpoint is permanently gone (404/410) and the
	// subscription must be deactivated.
	FailureExpired
	// FailureRateLimited means the push service returned 429; no automatic
	// retry happens here.
	FailureRateLimited
)

func (c FailureClass) String() string {
	switch c {
	case FailureExpired:
		return "expired"
	case FailureRateLimited:
		return "rate_limited"
	default:
		return "transient"
	}
}

// SendError is a classified delivery failure.
type SendError struct {
	Class      FailureClass
	StatusCode int
	Message    string
	Cause      error
}

func (e *SendError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	parts = append(parts, "push "+e.Class.String())

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *SendError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsExpired reports whether the error marks a permanently gone endpoint.
func IsExpired(err error) bool {
	return classOf(err) == FailureExpired
}

// IsRateLimited reports whether the push service throttled the request.
func IsRateLimited(err error) bool {
	return classOf(err) == FailureRateLimited
}

func classOf(err error) FailureClass {
	var sendErr *SendError
	if errors.As(err, &sendErr) {
		return sendErr.Class
	}
	return FailureTransient
}

func classifyStatus(statusCode int) FailureClass {
	switch statusCode {
	case http.StatusNotFound, http.StatusGone:
		return FailureExpired
	case http.StatusTooManyRequests:
		return FailureRateLimited
	default:
		return FailureTransient
	}
}
