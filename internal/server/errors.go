package server

import (
	"net/http"

	"github.com/go-chi/render"

	errs "github.com/Truthmedia123/weddingreplit-sub000/pkg/errors"
)

// codeNotFound is reported for unknown routes.
const codeNotFound errs.Code = "NOT_FOUND"

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code    errs.Code         `json:"code"`
	Message string            `json:"message"`
	Fields  []errs.FieldError `json:"fields,omitempty"`
}

// statusFor maps error codes to HTTP statuses.
func statusFor(code errs.Code) int {
	switch code {
	case errs.ErrCodeValidationFailed, errs.ErrCodeInvalidFormat:
		return http.StatusUnprocessableEntity
	case errs.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errs.ErrCodeTemplateNotFound, errs.ErrCodeTokenNotFound, codeNotFound:
		return http.StatusNotFound
	case errs.ErrCodeTokenExpired, errs.ErrCodeTokenConsumed:
		return http.StatusGone
	case errs.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	status := statusFor(code)

	msg := errs.UserMessage(err)
	if status == http.StatusInternalServerError {
		// Internal causes stay in the log.
		msg = "internal error"
		if code == errs.ErrCodeRenderFailed {
			msg = "the invitation could not be rendered"
		}
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{
		Code:    code,
		Message: msg,
		Fields:  errs.FieldErrors(err),
	})
}
