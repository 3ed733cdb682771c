package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Geocoder  GeocoderConfig  `mapstructure:"geocoder"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Launch    LaunchConfig    `mapstructure:"launch"`
	Resolve   ResolveConfig   `mapstructure:"resolve"`
	Device    DeviceConfig    `mapstructure:"device"`
	Session   SessionConfig   `mapstructure:"session"`
	Agent     AgentConfig     `mapstructure:"agent"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
	// RequestTimeout bounds a whole handler, including geocoding and launch.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RateLimit      int           `mapstructure:"rate_limit"` // requests per minute per IP
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr    string `mapstructure:"addr"`
	Enabled bool   `mapstructure:"enabled"`
}

type TelemetryConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	OTLPAddr    string  `mapstructure:"otlp_addr"`
	Enabled     bool    `mapstructure:"enabled"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type GeocoderConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	UserAgent     string        `mapstructure:"user_agent"`
	Language      string        `mapstructure:"language"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
}

// ProvidersConfig names the two apps: their link schemes and package IDs.
type ProvidersConfig struct {
	UberScheme  string `mapstructure:"uber_scheme"`
	BoltScheme  string `mapstructure:"bolt_scheme"`
	BoltWebBase string `mapstructure:"bolt_web_base"`
	UberAppID   string `mapstructure:"uber_app_id"`
	BoltAppID   string `mapstructure:"bolt_app_id"`
}

type LaunchConfig struct {
	SettleDelay time.Duration `mapstructure:"settle_delay"`
	PreferWeb   bool          `mapstructure:"prefer_web"`
}

type ResolveConfig struct {
	GeocodeTimeout  time.Duration `mapstructure:"geocode_timeout"`
	LocationTimeout time.Duration `mapstructure:"location_timeout"`
}

type DeviceConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	StaleAfter     time.Duration `mapstructure:"stale_after"`
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// AgentConfig is read by cmd/agent only.
type AgentConfig struct {
	DeviceID           string        `mapstructure:"device_id"`
	LocationPermission bool          `mapstructure:"location_permission"`
	Lat                float64       `mapstructure:"lat"`
	Lon                float64       `mapstructure:"lon"`
	HasFix             bool          `mapstructure:"has_fix"`
	InstalledApps      []string      `mapstructure:"installed_apps"`
	Opener             string        `mapstructure:"opener"`
	StatusInterval     time.Duration `mapstructure:"status_interval"`
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.request_timeout", "15s")
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.enabled", true)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.user_agent", "ridecompare/1.0")
	v.SetDefault("geocoder.language", "en")
	v.SetDefault("geocoder.timeout", "5s")
	v.SetDefault("geocoder.rate_per_second", 1.0)
	v.SetDefault("providers.uber_scheme", "uber")
	v.SetDefault("providers.bolt_scheme", "bolt")
	v.SetDefault("providers.bolt_web_base", "https://bolt.eu")
	v.SetDefault("providers.uber_app_id", "com.ubercab")
	v.SetDefault("providers.bolt_app_id", "ee.mtakso.client")
	v.SetDefault("launch.settle_delay", "500ms")
	v.SetDefault("launch.prefer_web", false)
	v.SetDefault("resolve.geocode_timeout", "6s")
	v.SetDefault("resolve.location_timeout", "10s")
	v.SetDefault("device.request_timeout", "5s")
	v.SetDefault("device.stale_after", "45s")
	v.SetDefault("session.ttl", "1h")
	v.SetDefault("agent.device_id", "")
	v.SetDefault("agent.location_permission", true)
	v.SetDefault("agent.has_fix", false)
	v.SetDefault("agent.installed_apps", []string{"com.ubercab", "ee.mtakso.client"})
	v.SetDefault("agent.opener", "")
	v.SetDefault("agent.status_interval", "15s")
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: RIDECOMPARE_GEOCODER_BASE_URL → geocoder.base_url
	v.SetEnvPrefix("RIDECOMPARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
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
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats is enabled")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required when valkey is enabled")
	}
	if c.Telemetry.Enabled && c.Telemetry.OTLPAddr == "" {
		errs = append(errs, "telemetry.otlp_addr is required when telemetry is enabled")
	}
	if u, err := url.Parse(c.Geocoder.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("geocoder.base_url must be an absolute URL, got %q", c.Geocoder.BaseURL))
	}
	if c.Geocoder.UserAgent == "" {
		errs = append(errs, "geocoder.user_agent is required")
	}
	if c.Providers.UberScheme == "" || c.Providers.BoltScheme == "" {
		errs = append(errs, "providers.uber_scheme and providers.bolt_scheme are required")
	}
	if c.Providers.UberAppID == "" || c.Providers.BoltAppID == "" {
		errs = append(errs, "providers.uber_app_id and providers.bolt_app_id are required")
	}
	if c.Launch.SettleDelay < 0 {
		errs = append(errs, "launch.settle_delay must not be negative")
	}
	if c.Launch.PreferWeb && c.Providers.BoltWebBase == "" {
		errs = append(errs, "launch.prefer_web needs providers.bolt_web_base")
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, "session.ttl must be positive")
	}
	if c.Device.StaleAfter <= 0 {
		errs = append(errs, "device.stale_after must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ValidateAgent checks the settings cmd/agent needs on top of Validate.
func (c *Config) ValidateAgent() error {
	var errs []string
	if c.Agent.DeviceID == "" {
		errs = append(errs, "agent.device_id is required")
	}
	if !c.NATS.Enabled {
		errs = append(errs, "nats.enabled must be true for the agent")
	}
	if c.Agent.StatusInterval <= 0 {
		errs = append(errs, "agent.status_interval must be positive")
	}
	if c.Agent.HasFix && (c.Agent.Lat < -90 || c.Agent.Lat > 90 || c.Agent.Lon < -180 || c.Agent.Lon > 180) {
		errs = append(errs, "agent.lat/agent.lon out of range")
	}
	if len(errs) > 0 {
		return fmt.Errorf("agent config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
