package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/infigaming-com/dolar-feed/util"
)

const CorrelationIdKey string = "X-CORRELATION-ID"

// CorrelationIdMiddleware reuses the caller's correlation id when one is sent
// and otherwise issues a time-ordered v7 id.
func CorrelationIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationId := c.GetHeader(CorrelationIdKey)
		if correlationId == "" {
			correlationId = util.NewUUID()
		}
		c.Header(CorrelationIdKey, correlationId)
		ctx := util.CorrelationIdToCtx(c.Request.Context(), correlationId)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
