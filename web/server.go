package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	engine          *gin.Engine
	mode            string
	port            int64
	middlewares     []gin.HandlerFunc
	routes          []func(*gin.Engine)
	shutdownTimeout time.Duration
}

type Option func(*Server)

func defaultServer() *Server {
	return &Server{
		mode:            gin.ReleaseMode,
		port:            8080,
		shutdownTimeout: 15 * time.Second,
	}
}

func WithMode(mode string) Option {
	return func(s *Server) {
		if mode != "" {
			s.mode = mode
		}
	}
}

func WithPort(port int64) Option {
	return func(s *Server) {
		s.port = port
	}
}

func WithCustomHandler(handler gin.HandlerFunc) Option {
	return func(s *Server) {
		s.middlewares = append(s.middlewares, handler)
	}
}

func WithRoutes(register func(*gin.Engine)) Option {
	return func(s *Server) {
		s.routes = append(s.routes, register)
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// NewServer builds the engine: recovery first, then custom handlers in the
// order given, then routes.
func NewServer(opts ...Option) *Server {
	s := defaultServer()
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(s.mode)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery())
	s.engine.Use(s.middlewares...)
	for _, register := range s.routes {
		register(s.engine)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, lg *zap.Logger) error {
	addr := fmt.Sprintf(":%d", s.port)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("starting web server ...", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("fail to listenAndServe: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	lg.Info("shutdown web server ...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("fail to shutdown web server: %w", err)
	}
	lg.Info("web server exiting")
	return nil
}
