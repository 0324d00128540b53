package httpx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/apperr"
)

type ErrorBody struct {
	Error     string `json:"error"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusFor maps an error kind onto an HTTP status. Anything unclassified is
// a 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrBusinessRule), errors.Is(err, apperr.ErrStock):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorBody{Error: msg, Status: status, RequestID: c.GetString(ctxRequestID)})
}

// Fail writes err as a JSON error. Internal errors are recorded on the
// context for the access log and never echoed to the client.
func Fail(c *gin.Context, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal error"
	}
	Abort(c, status, msg)
}
