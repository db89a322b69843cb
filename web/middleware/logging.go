package middleware

import (
	"bytes"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/infigaming-com/dolar-feed/util"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const maxLoggedBody = 1024

type loggingMiddlewareOptions struct {
	lg           *zap.Logger
	debugEnabled bool
	excludePaths []string
}

type LoggingMiddlewareOption func(*loggingMiddlewareOptions)

func WithLogger(lg *zap.Logger) LoggingMiddlewareOption {
	return func(o *loggingMiddlewareOptions) {
		o.lg = lg
	}
}

// WithDebugEnabled adds headers and bodies to the access log.
func WithDebugEnabled(debugEnabled bool) LoggingMiddlewareOption {
	return func(o *loggingMiddlewareOptions) {
		o.debugEnabled = debugEnabled
	}
}

func WithExcludePaths(excludePaths []string) LoggingMiddlewareOption {
	return func(o *loggingMiddlewareOptions) {
		o.excludePaths = excludePaths
	}
}

func defaultLoggingMiddlewareOptions() *loggingMiddlewareOptions {
	return &loggingMiddlewareOptions{
		lg: zap.L(),
	}
}

func LoggingMiddleware(opts ...LoggingMiddlewareOption) gin.HandlerFunc {
	cfg := defaultLoggingMiddlewareOptions()

	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		if lo.Contains(cfg.excludePaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		correlationId, err := util.CorrelationIdFromCtx(c.Request.Context())
		if err != nil {
			correlationId = util.NewUUID()
		}

		startTime := time.Now()
		var requestBody []byte
		var rw *responseWriter
		if cfg.debugEnabled {
			if c.Request.Body != nil {
				requestBody, _ = io.ReadAll(c.Request.Body)
				c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
			}
			rw = &responseWriter{ResponseWriter: c.Writer, body: bytes.NewBuffer([]byte{})}
			c.Writer = rw
		}

		c.Next()

		fields := []zap.Field{
			zap.String("correlation_id", correlationId),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(startTime)),
		}
		if rw != nil {
			responseBody := rw.body.Bytes()
			if len(responseBody) > maxLoggedBody {
				responseBody = responseBody[:maxLoggedBody]
			}
			fields = append(fields,
				zap.Any("queryParams", c.Request.URL.Query()),
				zap.Any("requestHeaders", c.Request.Header),
				zap.ByteString("requestBody", requestBody),
				zap.ByteString("responseBody", responseBody),
			)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			cfg.lg.Error("[Logging]", fields...)
		case cfg.debugEnabled:
			cfg.lg.Debug("[Logging]", fields...)
		default:
			cfg.lg.Info("[Logging]", fields...)
		}
	}
}
