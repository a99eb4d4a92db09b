package holiday

import "errors"

// Kind is the machine-readable error category returned to API callers
type Kind string

const (
	KindInvalidCountry      Kind = "InvalidCountry"
	KindInvalidRange        Kind = "InvalidRange"
	KindInvalidDate         Kind = "InvalidDate"
	KindInvalidRequest      Kind = "InvalidRequest"
	KindChatTimeout         Kind = "ChatTimeout"
	KindUpstreamUnavailable Kind = "UpstreamUnavailable"
	KindInternal            Kind = "Internal"
)

var (
	ErrInvalidCountry      = errors.New("invalid country")
	ErrInvalidRange        = errors.New("invalid range")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrChatTimeout         = errors.New("chat timed out")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrDuplicateHoliday    = errors.New("duplicate holiday")
)

// KindOf maps an error chain onto its Kind
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidCountry):
		return KindInvalidCountry
	case errors.Is(err, ErrInvalidRange):
		return KindInvalidRange
	case errors.Is(err, ErrInvalidDate):
		return KindInvalidDate
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrChatTimeout):
		return KindChatTimeout
	case errors.Is(err, ErrUpstreamUnavailable):
		return KindUpstreamUnavailable
	default:
		return KindInternal
	}
}
