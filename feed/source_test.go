package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPSource_Fetch(t *testing.T) {
	payload := []byte(`{"dolar": 4000.55}`)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	src := NewHTTPSource(zap.NewNop(), server.URL, time.Second)
	body, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, payload, body)
}

func TestHTTPSource_MalformedBodyIsReturnedAsIs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{esto no es json}"))
	}))
	defer server.Close()

	body, err := NewHTTPSource(zap.NewNop(), server.URL, time.Second).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "{esto no es json}", string(body))
}

func TestHTTPSource_Errors(t *testing.T) {
	t.Run("non 2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := NewHTTPSource(zap.NewNop(), server.URL, time.Second).Fetch(context.Background())
		assert.ErrorContains(t, err, "503")
	})

	t.Run("unreachable upstream", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := NewHTTPSource(zap.NewNop(), url, time.Second).Fetch(context.Background())
		assert.Error(t, err)
	})
}
