package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/infigaming-com/dolar-feed/errors"
)

const (
	ErrCodeInvalidBody = 20000 + iota
	ErrCodeInvalidRange
	ErrCodeInvalidLimit
	ErrCodeInvalidFormat
	ErrCodeQueryFailed
	ErrCodeExportFailed
)

var (
	ErrInvalidRange = errors.NewError(ErrCodeInvalidRange, "end debe ser > start").WithStatusCode(http.StatusBadRequest)
	ErrInvalidLimit = errors.NewError(ErrCodeInvalidLimit, "limit debe ser > 0").WithStatusCode(http.StatusBadRequest)
	ErrQueryFailed  = errors.NewError(ErrCodeQueryFailed, "error consultando valores")
	ErrExportFailed = errors.NewError(ErrCodeExportFailed, "error generando reporte")
)

func invalidBody(cause error) *errors.Error {
	return errors.NewError(ErrCodeInvalidBody, cause.Error(), cause).WithStatusCode(http.StatusUnprocessableEntity)
}

func invalidFormat(cause error) *errors.Error {
	return errors.NewError(ErrCodeInvalidFormat, cause.Error(), cause).WithStatusCode(http.StatusBadRequest)
}

// abortWithError renders err as {"detail": message}. Causes are attached to
// the gin context for the access log, never sent to the client.
func abortWithError(c *gin.Context, err *errors.Error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(err.GetStatusCode(), gin.H{"detail": err.GetMessage()})
}
