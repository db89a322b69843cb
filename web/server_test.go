package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewServerAppliesHandlersAndRoutes(t *testing.T) {
	var order []string
	s := NewServer(
		WithMode(gin.TestMode),
		WithCustomHandler(func(c *gin.Context) {
			order = append(order, "first")
			c.Next()
		}),
		WithCustomHandler(func(c *gin.Context) {
			order = append(order, "second")
			c.Next()
		}),
		WithRoutes(func(e *gin.Engine) {
			e.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
		}),
	)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestNewServerRecoversPanics(t *testing.T) {
	s := NewServer(WithMode(gin.TestMode), WithRoutes(func(e *gin.Engine) {
		e.GET("/panic", func(c *gin.Context) { panic("boom") })
	}))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	s := NewServer(WithMode(gin.TestMode), WithPort(int64(port)), WithShutdownTimeout(time.Second),
		WithRoutes(func(e *gin.Engine) {
			e.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
		}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, zap.NewNop()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunReportsListenError(t *testing.T) {
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer l.Close()

	s := NewServer(WithMode(gin.TestMode), WithPort(int64(l.Addr().(*net.TCPAddr).Port)))
	err = s.Run(context.Background(), zap.NewNop())
	assert.Error(t, err)
}
