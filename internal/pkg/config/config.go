package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samirrijal/orbital/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Search    SearchConfig    `mapstructure:"search"`
	Geocoder  GeocoderConfig  `mapstructure:"geocoder"`
	Sentinel  SentinelConfig  `mapstructure:"sentinel"`
	Imagery   ImageryConfig   `mapstructure:"imagery"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type SearchConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	EngineID    string `mapstructure:"engine_id"`
	ResultCount int    `mapstructure:"result_count"`
	Timeout     int    `mapstructure:"timeout"`
}

type GeocoderConfig struct {
	BaseURL         string  `mapstructure:"base_url"`
	UserAgent       string  `mapstructure:"user_agent"`
	MinRadiusMeters float64 `mapstructure:"min_radius_meters"`
	Timeout         int     `mapstructure:"timeout"`
}

type SentinelConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	InstanceID string `mapstructure:"instance_id"`
	Resolution int    `mapstructure:"resolution"`
	Format     string `mapstructure:"format"`
	Timeout    int    `mapstructure:"timeout"`
}

type ImageryConfig struct {
	Layers []domain.ImagingLayer `mapstructure:"layers"`
}

type PipelineConfig struct {
	StageTimeout int `mapstructure:"stage_timeout"`
}

// StageTimeoutDuration returns the per-stage budget; zero disables it.
func (p PipelineConfig) StageTimeoutDuration() time.Duration {
	return time.Duration(p.StageTimeout) * time.Second
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
	TTL  int    `mapstructure:"ttl"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// envAliases binds the variable names used by earlier deployments.
var envAliases = map[string][]string{
	"gemini.api_key":       {"GEMINI_API_KEY"},
	"search.api_key":       {"GOOGLE_API_KEY", "SERPER_API_KEY"},
	"search.engine_id":     {"SEARCH_ENGINE_ID"},
	"sentinel.instance_id": {"SENTINEL_INSTANCE_ID"},
	"log.level":            {"LOG_LEVEL"},
}

// Load reads configuration from .env files, an optional config file and
// environment variables.
func Load(service string) (*Config, error) {
	// Existing environment wins over .env files.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 300)
	v.SetDefault("server.allow_origins", "*")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("search.provider", "google")
	v.SetDefault("search.result_count", 5)
	v.SetDefault("search.timeout", 15)
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.user_agent", "OrbitalInsightApp/1.0")
	v.SetDefault("geocoder.min_radius_meters", 2500)
	v.SetDefault("geocoder.timeout", 15)
	v.SetDefault("sentinel.base_url", "https://services.sentinel-hub.com/ogc/wms")
	v.SetDefault("sentinel.resolution", 512)
	v.SetDefault("sentinel.format", "image/png")
	v.SetDefault("sentinel.timeout", 60)
	v.SetDefault("imagery.layers", defaultLayers())
	v.SetDefault("pipeline.stage_timeout", 120)
	v.SetDefault("nats.url", "")
	v.SetDefault("valkey.addr", "")
	v.SetDefault("valkey.ttl", 86400)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: ORBITAL_GEMINI_API_KEY → gemini.api_key
	v.SetEnvPrefix("ORBITAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		prefixed := "ORBITAL_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, prefixed}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaultLayers() []map[string]any {
	layers := domain.DefaultLayers()
	out := make([]map[string]any, len(layers))
	for i, l := range layers {
		out[i] = map[string]any{"id": l.ID, "name": l.Name}
	}
	return out
}

// Validate checks that required configuration fields are present and sane.
// Missing credentials are reported as *domain.ConfigurationError.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Gemini.APIKey == "" {
		errs = append(errs, "gemini.api_key is required (GEMINI_API_KEY)")
	}
	switch c.Search.Provider {
	case "google":
		if c.Search.APIKey == "" {
			errs = append(errs, "search.api_key is required (GOOGLE_API_KEY)")
		}
		if c.Search.EngineID == "" {
			errs = append(errs, "search.engine_id is required (SEARCH_ENGINE_ID)")
		}
	case "serper":
		if c.Search.APIKey == "" {
			errs = append(errs, "search.api_key is required (SERPER_API_KEY)")
		}
	default:
		errs = append(errs, fmt.Sprintf("search.provider must be google or serper, got %q", c.Search.Provider))
	}
	if c.Search.ResultCount <= 0 || c.Search.ResultCount > 10 {
		errs = append(errs, "search.result_count must be 1-10")
	}
	if c.Sentinel.InstanceID == "" {
		errs = append(errs, "sentinel.instance_id is required (SENTINEL_INSTANCE_ID)")
	}
	if c.Sentinel.Resolution <= 0 {
		errs = append(errs, "sentinel.resolution must be positive")
	}
	if c.Geocoder.BaseURL == "" {
		errs = append(errs, "geocoder.base_url is required")
	}
	if len(c.Imagery.Layers) == 0 {
		errs = append(errs, "imagery.layers must not be empty")
	}
	for i, l := range c.Imagery.Layers {
		if l.ID == "" {
			errs = append(errs, fmt.Sprintf("imagery.layers[%d].id is required", i))
		}
	}
	if c.Pipeline.StageTimeout < 0 {
		errs = append(errs, "pipeline.stage_timeout must not be negative")
	}

	if len(errs) > 0 {
		return &domain.ConfigurationError{Problems: errs}
	}
	return nil
}
