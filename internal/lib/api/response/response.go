package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusPending = "VERIFICATION_PENDING"
)

// Machine-readable error codes returned alongside the human message.
const (
	CodeVerificationCooldown  = "VERIFICATION_COOLDOWN"
	CodeEmailSendFailed       = "EMAIL_SEND_FAILED"
	CodeNoVerificationPending = "NO_VERIFICATION_PENDING"
	CodeInvalidCode           = "INVALID_CODE"
	CodeTooManyAttempts       = "TOO_MANY_ATTEMPTS"
)

func OK() Response {
	return Response{Status: StatusOK}
}

func Pending(message string) Response {
	return Response{Status: StatusPending, Message: message}
}

func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// ErrorCode attaches a machine-readable code to an error response.
func ErrorCode(msg, code string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
		Code:   code,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is required", err.Field()))
		case "email":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s must be at least %s characters", err.Field(), err.Param()))
		case "len":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s must be exactly %s characters", err.Field(), err.Param()))
		case "hexadecimal":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s must be hexadecimal", err.Field()))
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is invalid", err.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMsgs, ", "),
	}
}
