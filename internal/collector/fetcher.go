package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"BarSentinel/internal/model"
)

// Fetcher defines the interface for fetching bars from a data source.
type Fetcher interface {
	// LookupInstrument resolves a human-readable symbol. Unknown symbols yield ErrSymbolNotFound.
	LookupInstrument(ctx context.Context, name string) (model.Instrument, error)
	// FetchBars returns oldest-first bars of g closing at or after since.
	// A zero since means as far back as the source allows.
	FetchBars(ctx context.Context, inst model.Instrument, g model.Granularity, since time.Time) ([]model.Bar, error)
	Name() string
}

var (
	ErrRateLimited            = errors.New("rate limit exceeded")
	ErrServiceUnavailable     = errors.New("service unavailable")
	ErrSymbolNotFound         = errors.New("symbol not found")
	ErrUnsupportedGranularity = errors.New("unsupported granularity")
)

// IsRetryable reports whether err is worth retrying after a backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServiceUnavailable)
}

// APIError is an error reported in a data source's response body.
type APIError struct {
	Code    string // e.g. "EAPI"
	Message string
	Call    string
	kind    error
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s [%s]", e.Message, e.Code)
	}
	if e.Call != "" {
		msg += " in " + e.Call
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.kind }

// parseAPIError classifies a "CODE:message" error string.
func parseAPIError(raw, call string) *APIError {
	e := &APIError{Message: raw, Call: call}
	if code, msg, ok := strings.Cut(raw, ":"); ok {
		e.Code, e.Message = code, msg
	}
	switch {
	case strings.HasPrefix(raw, "EAPI:Rate limit exceeded"):
		e.kind = ErrRateLimited
	case strings.HasPrefix(raw, "EService:Unavailable"), strings.HasPrefix(raw, "EService:Busy"):
		e.kind = ErrServiceUnavailable
	case strings.HasPrefix(raw, "EQuery:Unknown asset pair"):
		e.kind = ErrSymbolNotFound
	}
	return e
}
