package domain

import "errors"

// ErrorCode identifies the fatal failure classes surfaced to callers.
type ErrorCode string

const (
	CodeInvalidInput      ErrorCode = "INVALID_INPUT"
	CodeNoJobs            ErrorCode = "NO_JOBS"
	CodeOptimizationError ErrorCode = "OPTIMIZATION_ERROR"
)

// Error is a coded, user-surfaceable failure. Fatal errors abort the run
// before any partial route is constructed.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NewInvalidInput(msg string, err error) *Error {
	return &Error{Code: CodeInvalidInput, Message: msg, Err: err}
}

func NewNoJobs(msg string) *Error {
	return &Error{Code: CodeNoJobs, Message: msg}
}

func NewOptimizationError(msg string, err error) *Error {
	return &Error{Code: CodeOptimizationError, Message: msg, Err: err}
}

// ErrAddressNotFound marks a coordinate-resolver miss. It is a droppable-job
// condition for the assembler, not a fatal one.
var ErrAddressNotFound = errors.New("address not found")

// SkippedJob is a non-fatal per-job warning: the job was dropped from the
// route (unresolvable address) and the day is planned over the rest.
type SkippedJob struct {
	ProjectID string
	Address   string
	Reason    string
}
