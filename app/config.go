// Package app assembles the geobot runtime from configuration.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/geobot/app/adapters/flights"
	"github.com/m3rciful/geobot/app/adapters/geocoder"
	"github.com/m3rciful/geobot/app/adapters/news"
	"github.com/m3rciful/geobot/app/adapters/speech"
	"github.com/m3rciful/geobot/app/adapters/staticmap"
	"github.com/m3rciful/geobot/app/adapters/weather"
	coreconfig "github.com/m3rciful/geobot/core/config"
	coredatabase "github.com/m3rciful/geobot/core/database"
)

const (
	// SessionsMemory keeps sessions in process memory.
	SessionsMemory = "memory"
	// SessionsRedis keeps sessions in Redis.
	SessionsRedis = "redis"

	defaultSessionTTL = 24 * time.Hour
	defaultSeedFile   = "data/airports.yaml"
)

// SessionsConfig selects the session backend.
type SessionsConfig struct {
	Backend string        `yaml:"backend" envconfig:"SESSIONS_BACKEND"`
	TTL     time.Duration `yaml:"ttl" envconfig:"SESSIONS_TTL"`
}

// RedisConfig holds the Redis connection used by the redis session backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
	Prefix   string `yaml:"prefix"`
}

// AirportsConfig points at the airport reference data.
type AirportsConfig struct {
	SeedFile string `yaml:"seed_file" envconfig:"AIRPORTS_SEED_FILE"`
}

// HTTPConfig tunes the shared outbound HTTP client.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	Retries   int           `yaml:"retries"`
	Backoff   time.Duration `yaml:"backoff"`
	UserAgent string        `yaml:"user_agent"`
}

// AdaptersConfig configures the external lookup services.
type AdaptersConfig struct {
	// Timeout bounds a single adapter call made by the engine.
	Timeout   time.Duration      `yaml:"timeout" envconfig:"ADAPTER_TIMEOUT"`
	HTTP      HTTPConfig         `yaml:"http"`
	Geocoder  geocoder.Config    `yaml:"geocoder"`
	StaticMap staticmap.Renderer `yaml:"static_map"`
	News      news.Config        `yaml:"news"`
	Weather   weather.Config     `yaml:"weather"`
	Flights   flights.Config     `yaml:"flights"`
	Speech    speech.Config      `yaml:"speech"`
}

// MetricsConfig enables the ops HTTP server.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Airports AirportsConfig      `yaml:"airports"`
	Sessions SessionsConfig      `yaml:"sessions"`
	Redis    RedisConfig         `yaml:"redis"`
	Adapters AdaptersConfig      `yaml:"adapters"`
	Metrics  MetricsConfig       `yaml:"metrics"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads YAML, overlays the environment and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	backend := strings.ToLower(strings.TrimSpace(c.Sessions.Backend))
	if backend == "" {
		backend = SessionsMemory
	}
	switch backend {
	case SessionsMemory:
	case SessionsRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return fmt.Errorf("redis.addr is required when sessions.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid sessions.backend %q; allowed: memory, redis", c.Sessions.Backend)
	}
	c.Sessions.Backend = backend

	if c.Sessions.TTL < 0 {
		return fmt.Errorf("sessions.ttl must be >= 0")
	}
	if c.Sessions.TTL == 0 {
		c.Sessions.TTL = defaultSessionTTL
	}
	if c.Adapters.Timeout < 0 {
		return fmt.Errorf("adapters.timeout must be >= 0")
	}
	if strings.TrimSpace(c.Airports.SeedFile) == "" {
		c.Airports.SeedFile = defaultSeedFile
	}
	return nil
}
