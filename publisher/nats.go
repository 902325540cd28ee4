// Package publisher streams rendered vehicle positions to NATS for
// downstream consumers (recorders, secondary displays). Publishing is
// best-effort; the animation never blocks on it.
package publisher

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/transitviz/railtracker/animation"
)

// Metrics counts publish outcomes; a nil value disables it.
type Metrics interface {
	PublishedInc()
	PublishErrInc()
}

// NATSPublisher publishes one JSON message per vehicle per frame on
// <prefix>.<line>.<run>.
type NATSPublisher struct {
	nc      *nats.Conn
	prefix  string
	metrics Metrics
}

// PositionMessage is the wire format for a published position.
type PositionMessage struct {
	ID          string    `json:"id"`
	Line        string    `json:"line"`
	Destination string    `json:"destination,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	Heading     float64   `json:"heading"`
	Stopped     bool      `json:"stopped"`
}

// NewNATSPublisher connects to NATS with reconnect logging. metrics may be
// nil.
func NewNATSPublisher(url, prefix string, metrics Metrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("railtracker"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			logrus.Warn("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logrus.Info("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSPublisher{nc: nc, prefix: prefix, metrics: metrics}, nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

// PublishPosition implements animation.Publisher.
func (p *NATSPublisher) PublishPosition(at time.Time, pos animation.VehiclePosition) error {
	msg := PositionMessage{
		ID:          pos.ID,
		Line:        pos.Line,
		Destination: pos.Destination,
		Timestamp:   at,
		Lat:         pos.Lat,
		Lon:         pos.Lon,
		Heading:     pos.Heading,
		Stopped:     pos.Stopped,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("%s.%s.%s", p.prefix, subjectToken(pos.Line), subjectToken(pos.ID))
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		if err != nil {
			p.metrics.PublishErrInc()
		} else {
			p.metrics.PublishedInc()
		}
	}
	return err
}

// subjectToken sanitizes a value for use as a NATS subject token.
func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
