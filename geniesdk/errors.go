package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	The §7 error taxonomy: a status code every ServiceCallback
 *		boundary must cross unchanged, grounded on
 *		original_source/src/core/GenieError.h's numeric codes.
 *
 *------------------------------------------------------------------*/

import "fmt"

// ErrorCode is one of the fixed wire-visible status codes (§7).
type ErrorCode int

const (
	ErrSuccess           ErrorCode = 100000
	ErrBadRequest        ErrorCode = 400
	ErrUnauthorized      ErrorCode = 401
	ErrNotFound          ErrorCode = 404
	ErrTimeout           ErrorCode = 408
	ErrSourceUnsupported ErrorCode = 415
	ErrInternal          ErrorCode = 500
	ErrNetworkDown       ErrorCode = 503
)

// CoreError wraps ErrorCode so callers can use errors.Is/As without
// losing the status code that must cross the ServiceCallback boundary
// unchanged (§7 "errors carry a stable numeric code across that
// boundary").
type CoreError struct {
	Code ErrorCode
	Op   string
	Err  error
}

func (e *CoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v (code %d)", e.Op, e.Err, e.Code)
	}
	return fmt.Sprintf("%s: code %d", e.Op, e.Code)
}

func (e *CoreError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNetworkDown) match by code alone, since two
// CoreErrors from unrelated ops should still compare equal on code.
func (e *CoreError) Is(target error) bool {
	other, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

func newCoreError(code ErrorCode, op string, err error) *CoreError {
	return &CoreError{Code: code, Op: op, Err: err}
}
