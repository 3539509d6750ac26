package config

import "github.com/caarlos0/env/v10"

// Config centralizes process configuration. Everything comes from the
// environment with sane defaults so the engine runs without any setup.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	ArtifactDir string `env:"ARTIFACT_DIR" envDefault:"./artifacts"`
	DataDir     string `env:"DATA_DIR" envDefault:"./data"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// ConfidenceFloor is the calibration-drift warning threshold: results
	// with lower confidence carry CALIBRATION_DRIFT_WARNING but are never
	// blocked.
	ConfidenceFloor float64 `env:"CONFIDENCE_FLOOR" envDefault:"0.6"`

	// SelfHarmThreshold is the calibrated likelihood above which the
	// statistical layer's self-harm class forces a Crisis tier.
	SelfHarmThreshold float64 `env:"SELF_HARM_THRESHOLD" envDefault:"0.5"`

	// AllowHeuristicFallback permits survey-mean scoring when model
	// artifacts are unavailable. Fallback results are always flagged.
	AllowHeuristicFallback bool `env:"ALLOW_HEURISTIC_FALLBACK" envDefault:"false"`

	// Minimum-sample gate overrides per organization size tier. Zero means
	// use the canonical policy table.
	MicroMinSample  int `env:"MICRO_MIN_SAMPLE" envDefault:"0"`
	SmallMinSample  int `env:"SMALL_MIN_SAMPLE" envDefault:"0"`
	MediumMinSample int `env:"MEDIUM_MIN_SAMPLE" envDefault:"0"`
	LargeMinSample  int `env:"LARGE_MIN_SAMPLE" envDefault:"0"`

	IPLimitPerMin int `env:"IP_LIMIT_PER_MIN" envDefault:"120"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
