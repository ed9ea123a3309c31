package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondErr maps domain and api errors onto a status and code. Unknown
// errors become a 500 without leaking their text.
func RespondErr(c *gin.Context, err error) {
	ae := FromError(err)
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
		RespondError(c, ae.Status, ae.Code, errors.New("internal error"))
		return
	}
	RespondError(c, ae.Status, ae.Code, ae.Err)
}

func FromError(err error) *apierr.Error {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, types.ErrValidation):
		return apierr.BadRequest("validation_error", err)
	case errors.Is(err, types.ErrNotFound):
		return apierr.NotFound("not_found", err)
	case errors.Is(err, types.ErrAlreadyAssigned):
		return apierr.Conflict("already_assigned", err)
	case errors.Is(err, types.ErrConflict):
		return apierr.Conflict("conflict", err)
	case errors.Is(err, types.ErrInvalidTransition):
		return apierr.Unprocessable("invalid_transition", err)
	case errors.Is(err, types.ErrInvalidState):
		return apierr.Unprocessable("invalid_state", err)
	default:
		return apierr.Internal("internal_error", err)
	}
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
