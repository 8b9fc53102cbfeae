package response

import "errors"

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error Codes
type ErrCode string

var (
	FAILED_REQUEST ErrCode = "REQUEST_FAILED"
	BAD_REQUEST    ErrCode = "FAILED_TO_DECODE"
	NOT_FOUND      ErrCode = "NOT_FOUND"
	LOCKED         ErrCode = "LOCKED"
	CONFLICT       ErrCode = "CONFLICT"
	INVALID_STATE  ErrCode = "INVALID_STATE"
	UNAUTHORIZED   ErrCode = "UNAUTHORIZED"
	FORBIDDEN      ErrCode = "FORBIDDEN"
	UNREACHABLE    ErrCode = "UNREACHABLE"

	SLOT_NOT_AVAILABLE ErrCode = "SLOT_NOT_AVAILABLE"
)

// Canonical workflow error kinds. Every non-success outcome of a
// reservation operation wraps exactly one of these.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrNotFound         = errors.New("resource not found")
	ErrLocked           = errors.New("resource is locked")
	ErrConflict         = errors.New("conflict")
	ErrInvalidState     = errors.New("invalid state transition")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrUnreachable      = errors.New("service unreachable")
	ErrSlotNotAvailable = errors.New("slot is not available")
)

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}
