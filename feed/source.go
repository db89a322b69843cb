// Package feed downloads the upstream exchange-rate document.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/infigaming-com/dolar-feed/request"
	"go.uber.org/zap"
)

// Source returns the raw upstream payload. Implementations do not parse or
// validate the body.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

type httpSource struct {
	lg      *zap.Logger
	url     string
	timeout time.Duration
}

func NewHTTPSource(lg *zap.Logger, url string, timeout time.Duration) Source {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpSource{
		lg:      lg,
		url:     url,
		timeout: timeout,
	}
}

// Fetch issues a single GET. Transport failures and non-2xx statuses are
// returned as errors; retrying is left to whoever scheduled the fetch.
func (s *httpSource) Fetch(ctx context.Context) ([]byte, error) {
	statusCode, body, err := request.Get(
		ctx,
		s.url,
		request.WithLogger(s.lg),
		request.WithRequestTimeout(s.timeout),
		request.WithSlowRequestThreshold(s.timeout/2),
		request.WithRetry(0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("feed returned status code: %d", statusCode)
	}
	return body, nil
}
