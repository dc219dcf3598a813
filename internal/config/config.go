package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data   DataConfig   `yaml:"data" mapstructure:"data"`
	Goal   GoalConfig   `yaml:"goal" mapstructure:"goal"`
	Scan   ScanConfig   `yaml:"scan" mapstructure:"scan"`
	Render RenderConfig `yaml:"render" mapstructure:"render"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// DataConfig holds the four dataset source URLs and local paths.
type DataConfig struct {
	IncidentsURL    string `yaml:"incidents_url" mapstructure:"incidents_url"`
	DistrictsURL    string `yaml:"districts_url" mapstructure:"districts_url"`
	DemographicsURL string `yaml:"demographics_url" mapstructure:"demographics_url"`
	StationsURL     string `yaml:"stations_url" mapstructure:"stations_url"`
	CacheDir        string `yaml:"cache_dir" mapstructure:"cache_dir"`
	SnapshotPath    string `yaml:"snapshot_path" mapstructure:"snapshot_path"`
}

// GoalConfig holds the response-time compliance goal.
type GoalConfig struct {
	ComplianceSeconds float64 `yaml:"compliance_seconds" mapstructure:"compliance_seconds"`
}

// ScanConfig configures the spatial scan statistic.
type ScanConfig struct {
	Simulations         int     `yaml:"simulations" mapstructure:"simulations"`
	Alpha               float64 `yaml:"alpha" mapstructure:"alpha"`
	MaxBaselineFraction float64 `yaml:"max_baseline_fraction" mapstructure:"max_baseline_fraction"`
	MaxClusters         int     `yaml:"max_clusters" mapstructure:"max_clusters"`
	Seed                uint64  `yaml:"seed" mapstructure:"seed"`
}

// RenderConfig configures map output.
type RenderConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	Width     int    `yaml:"width" mapstructure:"width"`
	Height    int    `yaml:"height" mapstructure:"height"`
}

// FetchConfig configures the HTTP fetcher.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.incidents_url", "https://data.austintexas.gov/resource/ems-incidents.csv")
	v.SetDefault("data.districts_url", "https://data.austintexas.gov/api/geospatial/council-districts.zip")
	v.SetDefault("data.demographics_url", "https://data.austintexas.gov/resource/district-demographics.csv")
	v.SetDefault("data.stations_url", "https://data.austintexas.gov/api/geospatial/fire-stations.zip")
	v.SetDefault("data.cache_dir", "/tmp/ems-atlas")
	v.SetDefault("data.snapshot_path", "atlas.db")
	v.SetDefault("goal.compliance_seconds", 600)
	v.SetDefault("scan.simulations", 999)
	v.SetDefault("scan.alpha", 0.05)
	v.SetDefault("scan.max_baseline_fraction", 0.2)
	v.SetDefault("scan.max_clusters", 5)
	v.SetDefault("scan.seed", 0)
	v.SetDefault("render.output_dir", "maps")
	v.SetDefault("render.width", 900)
	v.SetDefault("render.height", 900)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.user_agent", "ems-response-atlas/1.0")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
