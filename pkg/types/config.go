package types

// Config is the recommender.yaml project configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Model     ModelConfig     `yaml:"model"`
	Training  TrainingConfig  `yaml:"training"`
	Landscape LandscapeConfig `yaml:"landscape"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	MaxBodyBytes int64  `yaml:"maxBodyBytes"`
}

// ModelConfig locates the trained artifact on disk. The path may be
// overridden with the RECOMMENDER_MODEL_PATH environment variable.
type ModelConfig struct {
	Path string `yaml:"path"`
}

// TrainingConfig holds trainer hyperparameters. Seed makes the train/holdout
// split and the forest deterministic across retrains on identical inputs.
type TrainingConfig struct {
	TestSize float64 `yaml:"testSize"`
	Seed     int64   `yaml:"seed"`
	Trees    int     `yaml:"trees"`
}

// LandscapeSource selects where serving-time incentive landscape statistics
// come from when a payload does not carry them.
type LandscapeSource string

const (
	// LandscapePayload trusts caller-supplied landscape values (default).
	LandscapePayload LandscapeSource = "payload"
	// LandscapeFile recomputes landscape statistics from a co-located catalog CSV.
	LandscapeFile LandscapeSource = "file"
	// LandscapeHTTP fetches the catalog from a remote endpoint, circuit-broken.
	LandscapeHTTP LandscapeSource = "http"
)

// LandscapeConfig makes the serving-time landscape statistic source an
// explicit deployment choice rather than an assumption.
type LandscapeConfig struct {
	Source      LandscapeSource `yaml:"source"`
	CatalogPath string          `yaml:"catalogPath,omitempty"`
	CatalogURL  string          `yaml:"catalogURL,omitempty"`
}

// TelemetryConfig configures metric export. An empty endpoint disables the
// OTLP exporter; counters are still registered.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlpEndpoint,omitempty"`
}
