package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	railtracker "github.com/transitviz/railtracker"
	"github.com/transitviz/railtracker/animation"
	"github.com/transitviz/railtracker/config"
	"github.com/transitviz/railtracker/feed"
	"github.com/transitviz/railtracker/geometry"
	"github.com/transitviz/railtracker/internal"
	"github.com/transitviz/railtracker/metrics"
	"github.com/transitviz/railtracker/publisher"
	"github.com/transitviz/railtracker/track"
)

func main() {
	mode := flag.String("mode", "serve", "serve|oneshot")
	configPath := flag.String("config", "config.yml", "path to config file")
	geojsonPath := flag.String("geojson", "", "network GeoJSON path (overrides config)")
	gtfsrtURL := flag.String("gtfsrt", "", "GTFS-RT VehiclePositions URL (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	internal.InitLogging(cfg.Log.Level)

	if *geojsonPath != "" {
		cfg.Network.GeoJSONPath = *geojsonPath
	}
	if *gtfsrtURL != "" {
		cfg.Feed.GTFSRTURL = *gtfsrtURL
	}

	segments, err := geometry.LoadNetwork(cfg.Network.GeoJSONPath)
	if err != nil {
		logrus.WithError(err).Fatal("load network geometry")
	}
	index := geometry.NewIndex(segments)

	networks := map[string]*track.Network{}
	for _, line := range index.Lines() {
		net := track.NewNetwork(index.SegmentsFor(line))
		net.ConnectTolerance = cfg.Engine.ConnectTolerance
		networks[line] = net
	}
	logrus.WithFields(logrus.Fields{
		"segments": len(segments),
		"lines":    len(networks),
	}).Info("network loaded")

	source, client := buildSource(cfg.Feed)

	switch *mode {
	case "oneshot":
		runOneshot(source, networks, cfg)
	case "serve":
		runServe(source, client, networks, cfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(1)
	}
}

// buildSource picks the sample source: GTFS-RT when configured, else the
// JSON positions API. The JSON client doubles as the follow proxy.
func buildSource(cfg config.FeedConfig) (feed.Source, *feed.Client) {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if cfg.GTFSRTURL != "" {
		return feed.NewRealtimeSource(cfg.GTFSRTURL, timeout), nil
	}
	client := feed.NewClient(cfg.PositionsURL, cfg.FollowURL, cfg.Key, cfg.Routes, timeout)
	return client, client
}

// runOneshot fetches one sample set, snaps it, and prints the result.
func runOneshot(source feed.Source, networks map[string]*track.Network, cfg *config.AppConfig) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	samples, err := source.Positions(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("fetch positions")
	}
	fleet := animation.NewFleet(networks, tuningFromConfig(cfg.Engine), nil)
	fleet.ApplyUpdate(samples, time.Now())

	out, err := json.MarshalIndent(map[string]any{"trains": fleet.Positions()}, "", "  ")
	if err != nil {
		logrus.WithError(err).Fatal("encode positions")
	}
	fmt.Println(string(out))
}

func runServe(source feed.Source, client *feed.Client, networks map[string]*track.Network, cfg *config.AppConfig) {
	collector := metrics.NewCollector()

	fleet := animation.NewFleet(networks, tuningFromConfig(cfg.Engine), collector)

	var pub animation.Publisher
	if cfg.NATS.Enabled {
		np, err := publisher.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, collector)
		if err != nil {
			logrus.WithError(err).Fatal("connect nats")
		}
		defer np.Close()
		pub = np
	}

	runner := animation.NewRunner(
		fleet, source, pub, collector,
		time.Duration(cfg.Feed.RefreshMS)*time.Millisecond,
		time.Duration(cfg.Engine.FrameMS)*time.Millisecond,
	)
	runner.Start(context.Background())
	defer runner.Stop()

	if cfg.Metrics.Addr != "" {
		collector.Serve(cfg.Metrics.Addr)
	}

	var follower railtracker.Follower
	if client != nil {
		follower = client
	}
	server := railtracker.NewServer(cfg.Server, fleet, follower, cfg.Network.GeoJSONPath, collector)
	server.Start()
	server.WaitForShutdown()
}

func tuningFromConfig(cfg config.EngineConfig) animation.Tuning {
	t := animation.DefaultTuning()
	if cfg.SnapThreshold > 0 {
		t.SnapThreshold = cfg.SnapThreshold
	}
	if cfg.RetireProximity > 0 {
		t.RetireProximity = cfg.RetireProximity
	}
	if cfg.CorrectionMS > 0 {
		t.CorrectionDuration = time.Duration(cfg.CorrectionMS) * time.Millisecond
	}
	if cfg.RetireTimeoutMS > 0 {
		t.RetireTimeout = time.Duration(cfg.RetireTimeoutMS) * time.Millisecond
	}
	return t
}
