package httpx

import (
	"context"
	"errors"
	"net/http"

	apperrors "github.com/prakritea/artisan-studio/internal/errors"
)

// StatusForError maps an application error to the status a re-rendered page
// is served with.
//
//	validation   -> 422
//	auth         -> 401
//	network      -> 502
//	media_access -> 403
//	not_found    -> 404
//	conflict     -> 409
//	timeout      -> 504
//	anything else -> 500
func StatusForError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeAuth:
		return http.StatusUnauthorized
	case apperrors.ErrCodeNetwork:
		return http.StatusBadGateway
	case apperrors.ErrCodeMediaAccess:
		return http.StatusForbidden
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// FormErrors splits err into what a form renders: a message next to a field,
// or a general message near the submit control.
type FormErrors struct {
	Fields  map[string]string
	General string
}

// NewFormErrors classifies err. Validation errors with a field land next to
// that field. Auth errors keep the backend's message verbatim. Everything
// else shows the generic retry message.
func NewFormErrors(err error) FormErrors {
	fe := FormErrors{Fields: map[string]string{}}
	if err == nil {
		return fe
	}
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation:
		if field := apperrors.GetField(err); field != "" {
			fe.Fields[field] = apperrors.UserMessage(err)
			return fe
		}
		fe.General = apperrors.UserMessage(err)
	case apperrors.ErrCodeAuth, apperrors.ErrCodeMediaAccess, apperrors.ErrCodeConflict, apperrors.ErrCodeNotFound:
		fe.General = apperrors.UserMessage(err)
	default:
		fe.General = apperrors.MsgSomethingWentWrong
	}
	return fe
}
