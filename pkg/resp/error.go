package resp

import (
	"errors"
	"net/http"
	"strings"

	"smartorder/pkg/lifecycle"
	"smartorder/services"

	"github.com/gin-gonic/gin"
)

// Error maps a service error onto the envelope. Feedback refusals carry
// their reason code so clients can branch without parsing messages.
func Error(c *gin.Context, err error) {
	if r := lifecycle.ReasonOf(err); r != lifecycle.ReasonNone {
		Denied(c, reasonStatus(r), err.Error(), string(r))
		return
	}
	switch {
	case errors.Is(err, lifecycle.ErrInvalidRating):
		Denied(c, http.StatusBadRequest, message(err), "invalid_rating")
	case errors.Is(err, services.ErrValidation):
		BadRequest(c, message(err))
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrUnauthorized):
		Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		Forbidden(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": message(err)})
	default:
		ServerError(c, err)
	}
}

func reasonStatus(r lifecycle.Reason) int {
	switch r {
	case lifecycle.ReasonMissingOrder:
		return http.StatusNotFound
	case lifecycle.ReasonNotCompleted:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusConflict
	}
}

// message drops the sentinel prefix ("validation failed: ") when there is detail after it.
func message(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 && i+2 < len(msg) {
		return msg[i+2:]
	}
	return msg
}
