package handler

import (
	"errors"
	"net/http"

	"github.com/fabtrain/console/internal/form"
	"github.com/fabtrain/console/internal/response"
	"github.com/fabtrain/console/internal/service"
	"github.com/fabtrain/console/internal/transport"
	"github.com/gin-gonic/gin"
)

// failWith maps console errors onto the response envelope. Form rule
// failures keep their exact message.
func failWith(c *gin.Context, err error) {
	if ve, ok := form.AsValidation(err); ok {
		response.FailWithMessage(c, http.StatusUnprocessableEntity, response.ErrCode(ve.Code), ve.Message)
		return
	}

	switch {
	case errors.Is(err, form.ErrUnknownField):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrUnknownField, err.Error())
	case errors.Is(err, form.ErrUnknownKind):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownFormKind)
	case errors.Is(err, service.ErrFormNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrFormNotFound)
	case errors.Is(err, form.ErrDisconnected), errors.Is(err, transport.ErrClosed):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrBackendDisconnected)
	case errors.Is(err, transport.ErrQueueFull):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrBackendBusy)
	default:
		_ = c.Error(err)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
