package usecase

import "errors"

// Sentinel errors returned by IndicatorUsecase. Callers match them with errors.Is.
var (
	ErrInvalidRequest          = errors.New("invalid request")
	ErrPolicyViolation         = errors.New("policy violation")
	ErrQuotaExceeded           = errors.New("quota exceeded")
	ErrNotFound                = errors.New("not found")
	ErrBackingStoreUnavailable = errors.New("backing store unavailable")
)

// RejectionError carries a caller-facing reason for a rejected request.
// It unwraps to one of the sentinel errors above.
type RejectionError struct {
	Kind   error
	Reason string
	Field  string // offending request field, set for ErrInvalidRequest
}

func (e *RejectionError) Error() string {
	return e.Kind.Error() + ": " + e.Reason
}

func (e *RejectionError) Unwrap() error {
	return e.Kind
}

func reject(kind error, reason string) error {
	return &RejectionError{Kind: kind, Reason: reason}
}

// ErrorKind maps err to its wire name ("invalid_request", "quota_exceeded", ...).
// Errors that are not rejections map to "internal".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrPolicyViolation):
		return "policy_violation"
	case errors.Is(err, ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrBackingStoreUnavailable):
		return "backing_store_unavailable"
	default:
		return "internal"
	}
}

// Reason returns the caller-facing message of a rejection, or "" for other errors.
func Reason(err error) string {
	var re *RejectionError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ""
}
