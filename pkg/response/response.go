package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

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
	FAILED_REQUEST     ErrCode = "REQUEST_FAILED"
	BAD_REQUEST        ErrCode = "FAILED_TO_DECODE"
	NOT_FOUND          ErrCode = "NOT_FOUND"
	LOCKED             ErrCode = "LOCKED"
	UNAUTHORIZED       ErrCode = "UNAUTHORIZED"
	FORBIDDEN          ErrCode = "FORBIDDEN"
	VALIDATION_ERROR   ErrCode = "VALIDATION_ERROR"
	DUPLICATE_RECORD   ErrCode = "DUPLICATE_RECORD"
	MISSING_REASON     ErrCode = "MISSING_REASON"
	RECORD_NOT_FOUND   ErrCode = "RECORD_NOT_FOUND"
	SESSION_NOT_FOUND  ErrCode = "SESSION_NOT_FOUND"
	SESSION_NOT_ACTIVE ErrCode = "SESSION_NOT_ACTIVE"
	ALREADY_CHECKED_IN ErrCode = "ALREADY_CHECKED_IN"
	NOT_CHECKED_IN     ErrCode = "NOT_CHECKED_IN"
	INVALID_CLASS      ErrCode = "INVALID_CLASS"
	UNKNOWN_MEMBER     ErrCode = "UNKNOWN_MEMBER"
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("resource not found")
	ErrLocked     = errors.New("resource is locked")
	ErrValidation = errors.New("validation failed")

	ErrDuplicateRecord  = errors.New("attendance already recorded for this member on this date")
	ErrMissingReason    = errors.New("adjustment reason is required")
	ErrRecordNotFound   = errors.New("attendance record not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionNotActive = errors.New("session is not active")
	ErrAlreadyCheckedIn = errors.New("member already checked in")
	ErrNotCheckedIn     = errors.New("member not checked in or already checked out")
	ErrUnknownClass     = errors.New("class not found")
	ErrUnknownMember    = errors.New("member not found")
)

type kind struct {
	err    error
	status int
	code   ErrCode
}

// kinds is checked in order, so specific errors must come before generic ones.
var kinds = []kind{
	{ErrDuplicateRecord, http.StatusBadRequest, DUPLICATE_RECORD},
	{ErrMissingReason, http.StatusBadRequest, MISSING_REASON},
	{ErrRecordNotFound, http.StatusNotFound, RECORD_NOT_FOUND},
	{ErrSessionNotFound, http.StatusNotFound, SESSION_NOT_FOUND},
	{ErrSessionNotActive, http.StatusBadRequest, SESSION_NOT_ACTIVE},
	{ErrAlreadyCheckedIn, http.StatusBadRequest, ALREADY_CHECKED_IN},
	{ErrNotCheckedIn, http.StatusBadRequest, NOT_CHECKED_IN},
	{ErrUnknownClass, http.StatusBadRequest, INVALID_CLASS},
	{ErrUnknownMember, http.StatusBadRequest, UNKNOWN_MEMBER},
	{ErrValidation, http.StatusBadRequest, VALIDATION_ERROR},
	{ErrBadRequest, http.StatusBadRequest, BAD_REQUEST},
	{ErrLocked, http.StatusConflict, LOCKED},
	{ErrNotFound, http.StatusNotFound, NOT_FOUND},
}

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}

// Classify maps a wrapped service error to an HTTP status and a client envelope.
// Unknown errors become a 500 with a generic message.
func Classify(err error, fallback string) (int, Response) {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			msg := k.err.Error()
			if k.err == ErrValidation {
				msg = validationMessage(err)
			}
			return k.status, Error(string(k.code), msg)
		}
	}

	return http.StatusInternalServerError, Error(string(FAILED_REQUEST), fallback)
}

// Invalid wraps a field-level problem so that Classify reports it as VALIDATION_ERROR.
func Invalid(format string, args ...any) error {
	return &fieldError{msg: fmt.Sprintf(format, args...)}
}

type fieldError struct {
	msg string
}

func (e *fieldError) Error() string { return e.msg }

func (e *fieldError) Unwrap() error { return ErrValidation }

func validationMessage(err error) string {
	var fe *fieldError
	if errors.As(err, &fe) {
		return fe.msg
	}
	return ErrValidation.Error()
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsg []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' is required", err.Field()))
		case "gt", "gte", "min":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' must be at least %s", err.Field(), err.Param()))
		case "lte", "max":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' must be at most %s", err.Field(), err.Param()))
		case "oneof":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' must be one of [%s]", err.Field(), err.Param()))
		case "datetime":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' must match %s", err.Field(), err.Param()))
		default:
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' is invalid", err.Field()))
		}
	}

	return Error(string(VALIDATION_ERROR), strings.Join(errMsg, ", "))
}
