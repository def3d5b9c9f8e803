package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Metrics records request metrics and serves the exposition endpoint.
type Metrics interface {
	RequestObserver
	Handler() http.Handler
}

// RouterDeps aggregates HTTP dependencies.
type RouterDeps struct {
	Env     string
	Server  *Server
	Logger  *zap.Logger
	Metrics Metrics
}

// NewRouter builds the gin engine with everything mounted under /api/v1.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(Recovery(log))
	r.Use(RequestID())
	var obs RequestObserver
	if deps.Metrics != nil {
		obs = deps.Metrics
	}
	r.Use(RequestLogger(log, obs))

	api := r.Group("/api/v1")
	deps.Server.RegisterRoutes(api)
	if deps.Metrics != nil {
		api.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	return r
}

// Listener wraps the HTTP server for graceful lifecycle.
type Listener struct {
	Handler         http.Handler
	Addr            string
	Logger          *zap.Logger
	ShutdownTimeout time.Duration
}

// Run serves until ctx is done, then shuts down gracefully.
func (l *Listener) Run(ctx context.Context) error {
	if l.Handler == nil {
		return errors.New("handler not configured")
	}
	srv := &http.Server{
		Addr:              l.Addr,
		Handler:           l.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if l.Logger != nil {
		l.Logger.Info("http server listening", zap.String("addr", l.Addr))
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		timeout := l.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
