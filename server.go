// Package railtracker is the HTTP serving layer over the track-relative
// position engine: the animated fleet snapshot, the single-run follow
// proxy, the network geometry, health and metrics.
package railtracker

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/transitviz/railtracker/animation"
	"github.com/transitviz/railtracker/config"
	"github.com/transitviz/railtracker/feed"
	"github.com/transitviz/railtracker/metrics"
)

// Server serves the tracker API.
type Server struct {
	fleet       *animation.Fleet
	follower    Follower
	geojsonPath string
	httpServer  *http.Server
}

// Follower proxies single-run ETA queries; nil when the feed has no
// follow endpoint.
type Follower interface {
	Follow(ctx context.Context, runNumber string) (*feed.FollowResult, error)
}

// NewServer builds the API router. follower and collector may be nil.
func NewServer(cfg config.ServerConfig, fleet *animation.Fleet, follower Follower, geojsonPath string, collector *metrics.Collector) *Server {
	s := &Server{
		fleet:       fleet,
		follower:    follower,
		geojsonPath: geojsonPath,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		MaxAge:         300,
	}))

	r.Get("/api/trains", s.handleTrains)
	r.Get("/api/train/{rn}", s.handleFollow)
	r.Get("/api/geojson", s.handleGeoJSON)
	r.Get("/api/health", s.handleHealth)
	if collector != nil {
		r.Method("GET", "/metrics", collector.Handler())
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start begins listening in the background.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server error")
		}
	}()
	logrus.WithField("addr", s.httpServer.Addr).Info("server listening")
}

// WaitForShutdown blocks until SIGINT/SIGTERM and drains the server.
func (s *Server) WaitForShutdown() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logrus.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warn("server shutdown error")
	} else {
		logrus.Info("server shut down")
	}
}
