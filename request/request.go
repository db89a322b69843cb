package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/infigaming-com/dolar-feed/util"
	"go.uber.org/zap"
)

var (
	httpClient *http.Client
	once       sync.Once
)

type requestOption struct {
	lg                   *zap.Logger
	debugEnabled         bool
	requestHeaders       map[string]string
	correlationIdKey     string
	correlationId        string
	requestTimeout       time.Duration
	slowRequestThreshold time.Duration
	maxRetries           int
	maxBodyBytes         int64
}

type Option interface {
	apply(option *requestOption) error
}

type optionFunc func(option *requestOption) error

func (f optionFunc) apply(option *requestOption) error {
	return f(option)
}

func defaultRequestOption() *requestOption {
	return &requestOption{
		lg:                   zap.L(),
		debugEnabled:         false,
		requestHeaders:       map[string]string{},
		correlationIdKey:     "X-Correlation-ID",
		requestTimeout:       3 * time.Second,
		slowRequestThreshold: 5 * time.Second,
	}
}

func WithLogger(lg *zap.Logger) Option {
	return optionFunc(func(option *requestOption) error {
		option.lg = lg
		return nil
	})
}

func WithDebugEnabled(debugEnabled bool) Option {
	return optionFunc(func(option *requestOption) error {
		option.debugEnabled = debugEnabled
		return nil
	})
}

func WithRequestHeaders(requestHeaders map[string]string) Option {
	return optionFunc(func(option *requestOption) error {
		maps.Copy(option.requestHeaders, requestHeaders)
		return nil
	})
}

func WithCorrelationId(correlationIdKey, correlationId string) Option {
	return optionFunc(func(option *requestOption) error {
		option.correlationIdKey = correlationIdKey
		option.correlationId = correlationId
		return nil
	})
}

func WithRequestTimeout(requestTimeout time.Duration) Option {
	return optionFunc(func(option *requestOption) error {
		if requestTimeout <= 0 {
			return fmt.Errorf("invalid request timeout: %v", requestTimeout)
		}
		option.requestTimeout = requestTimeout
		return nil
	})
}

func WithSlowRequestThreshold(slowRequestThreshold time.Duration) Option {
	return optionFunc(func(option *requestOption) error {
		if slowRequestThreshold <= 0 {
			return fmt.Errorf("invalid slow request threshold: %v", slowRequestThreshold)
		}
		option.slowRequestThreshold = slowRequestThreshold
		return nil
	})
}

// WithRetry enables retry with specified max attempts.
// Default is 0 (no retry). Only transient transport errors are retried,
// never non-2xx responses.
func WithRetry(maxRetries int) Option {
	return optionFunc(func(option *requestOption) error {
		if maxRetries < 0 {
			maxRetries = 0
		}
		option.maxRetries = maxRetries
		return nil
	})
}

// WithMaxBodyBytes caps how much of the response body is read. Zero means unlimited.
func WithMaxBodyBytes(n int64) Option {
	return optionFunc(func(option *requestOption) error {
		option.maxBodyBytes = n
		return nil
	})
}

func getHttpClient() *http.Client {
	once.Do(func() {
		httpClient = &http.Client{
			Timeout: 0,
		}
	})
	return httpClient
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network is unreachable")
}

func Request(ctx context.Context, method string, requestUrl string, options ...Option) (httpStatusCode int, responseBody []byte, err error) {
	start := time.Now()

	option := defaultRequestOption()
	for _, opt := range options {
		if err := opt.apply(option); err != nil {
			return 0, nil, err
		}
	}

	defer func() {
		if err != nil {
			option.lg.Error("[HTTP-REQUEST-ERROR]",
				zap.Error(err),
				zap.String("method", method),
				zap.String("url", requestUrl),
				zap.Int("httpStatusCode", httpStatusCode),
				zap.Duration("duration", time.Since(start)),
			)
			return
		}
		if option.debugEnabled {
			option.lg.Debug("[HTTP-REQUEST-DEBUG]",
				zap.String("method", method),
				zap.String("url", requestUrl),
				zap.Int("httpStatusCode", httpStatusCode),
				zap.Int("responseBytes", len(responseBody)),
				zap.Duration("duration", time.Since(start)),
			)
		}
	}()

	maxAttempts := option.maxRetries + 1
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt-1) * time.Second
			option.lg.Info("[HTTP-REQUEST-RETRY]",
				zap.Int("attempt", attempt),
				zap.Int("maxAttempts", maxAttempts),
				zap.Duration("backoff", backoff),
				zap.String("url", requestUrl),
			)
			select {
			case <-ctx.Done():
				return 0, nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		httpStatusCode, responseBody, err = doRequest(ctx, method, requestUrl, option)
		if err == nil || !isRetryableError(err) || attempt == maxAttempts {
			return httpStatusCode, responseBody, err
		}
		option.lg.Warn("[HTTP-REQUEST-RETRYABLE-ERROR]",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.String("url", requestUrl),
		)
	}
	return httpStatusCode, responseBody, err
}

func doRequest(ctx context.Context, method string, requestUrl string, option *requestOption) (int, []byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, option.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, method, requestUrl, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	correlationId := option.correlationId
	if correlationId == "" {
		if fromCtx, ctxErr := util.CorrelationIdFromCtx(ctx); ctxErr == nil {
			correlationId = fromCtx
		} else {
			correlationId = util.NewUUID()
		}
	}
	if option.correlationIdKey != "" {
		req.Header.Set(option.correlationIdKey, correlationId)
	}
	for k, v := range option.requestHeaders {
		req.Header.Set(k, v)
	}

	requestStart := time.Now()
	resp, err := getHttpClient().Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if option.maxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, option.maxBodyBytes)
	}
	responseBody, err := io.ReadAll(body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if requestDuration := time.Since(requestStart); requestDuration > option.slowRequestThreshold {
		option.lg.Warn("[HTTP-REQUEST-SLOW]",
			zap.String("method", method),
			zap.String("url", requestUrl),
			zap.Int("httpStatusCode", resp.StatusCode),
			zap.Duration("duration", requestDuration),
		)
	}

	return resp.StatusCode, responseBody, nil
}

func Get(ctx context.Context, requestUrl string, options ...Option) (httpStatusCode int, responseBody []byte, err error) {
	return Request(ctx, http.MethodGet, requestUrl, options...)
}
