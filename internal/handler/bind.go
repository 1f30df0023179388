package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/fabtrain/console/internal/response"
	"github.com/fabtrain/console/internal/validator"
	"github.com/gin-gonic/gin"
)

// bindJSON binds the request body into dst and writes the error response
// when it cannot. With allowEmpty a request without a body leaves dst at
// its zero value.
func bindJSON(c *gin.Context, dst any, allowEmpty bool) bool {
	err := c.ShouldBindJSON(dst)
	switch {
	case err == nil:
		return true
	case allowEmpty && errors.Is(err, io.EOF):
		return true
	case validator.IsValidation(err):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.TranslateErrors(err))
	default:
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, validator.TranslateErrors(err))
	}
	return false
}

// bindURI binds path parameters into dst.
func bindURI(c *gin.Context, dst any) bool {
	if err := c.ShouldBindUri(dst); err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.TranslateErrors(err))
		return false
	}
	return true
}
