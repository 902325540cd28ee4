// Package metrics exposes the tracker's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Collector owns the registry and every tracker metric. It satisfies the
// instrumentation interfaces of the animation and publisher packages.
type Collector struct {
	reg *prometheus.Registry

	ActiveVehicles   prometheus.Gauge
	RetiringVehicles prometheus.Gauge

	Snaps              prometheus.Counter
	Blends             prometheus.Counter
	EstimateFallbacks  prometheus.Counter
	FeedErrors         prometheus.Counter
	PositionsPublished prometheus.Counter
	PublishErrors      prometheus.Counter

	RefreshDuration prometheus.Histogram
	TickDuration    prometheus.Histogram
}

// NewCollector builds and registers the full metric set.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ActiveVehicles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "railtracker_active_vehicles",
			Help: "Number of vehicles currently animated.",
		}),
		RetiringVehicles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "railtracker_retiring_vehicles",
			Help: "Number of vehicles coasting toward a terminus.",
		}),
		Snaps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railtracker_position_snaps_total",
			Help: "Refresh updates applied as instant snaps.",
		}),
		Blends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railtracker_position_blends_total",
			Help: "Refresh updates applied as track-following corrections.",
		}),
		EstimateFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railtracker_distance_fallbacks_total",
			Help: "Along-track distance estimates that fell back to straight line.",
		}),
		FeedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railtracker_feed_errors_total",
			Help: "Failed feed refreshes.",
		}),
		PositionsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railtracker_positions_published_total",
			Help: "Position messages published to NATS.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "railtracker_publish_errors_total",
			Help: "NATS publish errors.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "railtracker_refresh_duration_seconds",
			Help:    "Duration of feed fetch plus fleet update.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "railtracker_tick_duration_seconds",
			Help:    "Duration of one animation frame.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
	}

	reg.MustRegister(
		c.ActiveVehicles, c.RetiringVehicles,
		c.Snaps, c.Blends, c.EstimateFallbacks, c.FeedErrors,
		c.PositionsPublished, c.PublishErrors,
		c.RefreshDuration, c.TickDuration,
	)
	return c
}

// animation.Metrics implementation.

func (c *Collector) SetActiveVehicles(n int)   { c.ActiveVehicles.Set(float64(n)) }
func (c *Collector) SetRetiringVehicles(n int) { c.RetiringVehicles.Set(float64(n)) }
func (c *Collector) SnapInc()                  { c.Snaps.Inc() }
func (c *Collector) BlendInc()                 { c.Blends.Inc() }
func (c *Collector) EstimateFallbackInc()      { c.EstimateFallbacks.Inc() }

// animation.RunnerMetrics implementation.

func (c *Collector) RefreshObserve(d time.Duration) { c.RefreshDuration.Observe(d.Seconds()) }
func (c *Collector) TickObserve(d time.Duration)    { c.TickDuration.Observe(d.Seconds()) }
func (c *Collector) FeedErrorInc()                  { c.FeedErrors.Inc() }

// publisher.Metrics implementation.

func (c *Collector) PublishedInc()  { c.PositionsPublished.Inc() }
func (c *Collector) PublishErrInc() { c.PublishErrors.Inc() }

// Handler returns the /metrics handler for mounting into the API router.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// Serve starts a standalone HTTP server exposing /metrics on addr.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("metrics server error")
		}
	}()
	logrus.WithField("addr", addr).Info("metrics listening")
	return srv
}
