package config

// ServerConfig contains the HTTP API configuration.
type ServerConfig struct {
	Port        int      `yaml:"port" validate:"gt=0"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// FeedConfig describes where vehicle samples come from. Either the JSON
// positions API (positionsURL + key + routes) or a GTFS-RT vehicle
// positions feed (gtfsrtURL) must be set.
type FeedConfig struct {
	PositionsURL string   `yaml:"positionsURL" validate:"omitempty,url"`
	FollowURL    string   `yaml:"followURL" validate:"omitempty,url"`
	Key          string   `yaml:"key"`
	Routes       []string `yaml:"routes"`
	GTFSRTURL    string   `yaml:"gtfsrtURL" validate:"omitempty,url"`
	RefreshMS    int      `yaml:"refreshMS" validate:"gte=0"`
	TimeoutMS    int      `yaml:"timeoutMS" validate:"gte=0"`
}

// NetworkConfig points at the rail geometry.
type NetworkConfig struct {
	GeoJSONPath string `yaml:"geojsonPath" validate:"required"`
}

// EngineConfig exposes the engine's tuned constants. The connectivity
// tolerance and thresholds are in network projection units; the shipped
// values fit the bundled network and are not assumed optimal elsewhere.
type EngineConfig struct {
	ConnectTolerance float64 `yaml:"connectTolerance" validate:"gte=0"`
	SnapThreshold    float64 `yaml:"snapThreshold" validate:"gte=0"`
	RetireProximity  float64 `yaml:"retireProximity" validate:"gte=0"`
	CorrectionMS     int     `yaml:"correctionMS" validate:"gte=0"`
	RetireTimeoutMS  int     `yaml:"retireTimeoutMS" validate:"gte=0"`
	FrameMS          int     `yaml:"frameMS" validate:"gte=0"`
}

// NATSConfig configures optional position publishing.
type NATSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subjectPrefix"`
}

// MetricsConfig configures the Prometheus endpoint. Empty Addr disables
// the standalone metrics server.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Server  ServerConfig  `yaml:"server" validate:"required"`
	Feed    FeedConfig    `yaml:"feed"`
	Network NetworkConfig `yaml:"network"`
	Engine  EngineConfig  `yaml:"engine"`
	NATS    NATSConfig    `yaml:"nats"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}
