// Package web serves the engine's REST API: definition CRUD backed by the
// store, runtime status from the tracker, and Prometheus metrics.
package web

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/compare-engine/internal/status"
	"github.com/sweeney/compare-engine/internal/store"
)

// ConnectionStatus reports whether the point-store connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Server serves the REST API over HTTP.
type Server struct {
	httpServer *http.Server
	store      store.Store
	tracker    *status.Tracker
	conn       ConnectionStatus
}

// New creates a Server. conn and gatherer may be nil; the health endpoint
// then omits the broker state and /metrics is not registered.
func New(addr string, st store.Store, tracker *status.Tracker, conn ConnectionStatus, gatherer prometheus.Gatherer) *Server {
	s := &Server{store: st, tracker: tracker, conn: conn}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.handleHealth)
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/v1")
	{
		v1.GET("/memories", s.handleList)
		v1.POST("/memories", s.handleCreate)
		v1.POST("/memories/validate", s.handleValidate)
		v1.GET("/memories/:id", s.handleGet)
		v1.PUT("/memories/:id", s.handleUpdate)
		v1.DELETE("/memories/:id", s.handleDelete)
		v1.GET("/status", s.handleStatus)
		v1.GET("/status/:id", s.handleStatusOne)
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
