// Package config loads service configuration from defaults, an optional YAML
// file and the environment, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar names an explicit config file.
const PathEnvVar = "CONFIG_PATH"

const envPrefix = "SHELFSOUND_"

var defaultPaths = []string{"config.yaml", "/etc/shelfsound/config.yaml"}

type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Storage     StorageConfig     `koanf:"storage"`
	Cache       CacheConfig       `koanf:"cache"`
	GoogleBooks GoogleBooksConfig `koanf:"googlebooks"`
	Spotify     SpotifyConfig     `koanf:"spotify"`
	OpenAI      OpenAIConfig      `koanf:"openai"`
	Gemini      GeminiConfig      `koanf:"gemini"`
	Ollama      OllamaConfig      `koanf:"ollama"`
	Breaker     BreakerConfig     `koanf:"breaker"`
	Worker      WorkerConfig      `koanf:"worker"`
	Logging     LoggingConfig     `koanf:"logging"`
}

type ServerConfig struct {
	Addr              string        `koanf:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	RequestDeadline   time.Duration `koanf:"request_deadline"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

type StorageConfig struct {
	Driver     string `koanf:"driver"` // sqlite or mongo
	SQLitePath string `koanf:"sqlite_path"`
	MongoURI   string `koanf:"mongo_uri"`
	MongoDB    string `koanf:"mongo_database"`
}

type CacheConfig struct {
	Driver        string        `koanf:"driver"` // memory, redis or none
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	TTL           time.Duration `koanf:"ttl"`
}

type GoogleBooksConfig struct {
	APIKey         string  `koanf:"api_key"`
	BaseURL        string  `koanf:"base_url"`
	RequestsPerSec float64 `koanf:"requests_per_second"`
	MaxRetries     int     `koanf:"max_retries"`
}

type SpotifyConfig struct {
	ClientID     string        `koanf:"client_id"`
	ClientSecret string        `koanf:"client_secret"`
	BaseURL      string        `koanf:"base_url"`
	AuthURL      string        `koanf:"auth_url"`
	Market       string        `koanf:"market"`
	MaxRetries   int           `koanf:"max_retries"`
	BaseBackoff  time.Duration `koanf:"base_backoff"`
}

type OpenAIConfig struct {
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

type GeminiConfig struct {
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

type OllamaConfig struct {
	Host  string `koanf:"host"` // empty disables the provider
	Model string `koanf:"model"`
}

type BreakerConfig struct {
	Threshold uint32        `koanf:"threshold"`
	Timeout   time.Duration `koanf:"timeout"`
}

type WorkerConfig struct {
	Workers int `koanf:"workers"`
	Queue   int `koanf:"queue"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			RequestDeadline:   8 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Storage: StorageConfig{
			Driver:     "sqlite",
			SQLitePath: "shelfsound.db",
			MongoURI:   "mongodb://localhost:27017",
			MongoDB:    "shelfsound",
		},
		Cache: CacheConfig{
			Driver:    "memory",
			RedisAddr: "localhost:6379",
			TTL:       24 * time.Hour,
		},
		GoogleBooks: GoogleBooksConfig{
			BaseURL:        "https://www.googleapis.com/books/v1",
			RequestsPerSec: 5,
			MaxRetries:     2,
		},
		Spotify: SpotifyConfig{
			BaseURL:     "https://api.spotify.com/v1",
			AuthURL:     "https://accounts.spotify.com/api/token",
			Market:      "US",
			MaxRetries:  3,
			BaseBackoff: 500 * time.Millisecond,
		},
		OpenAI: OpenAIConfig{
			Model:   "gpt-3.5-turbo",
			BaseURL: "https://api.openai.com/v1",
		},
		Gemini: GeminiConfig{
			Model:   "gemini-pro",
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		},
		Ollama: OllamaConfig{
			Model: "llama3",
		},
		Breaker: BreakerConfig{
			Threshold: 3,
			Timeout:   30 * time.Second,
		},
		Worker: WorkerConfig{
			Workers: 2,
			Queue:   100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration. Precedence: environment > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate rejects unknown drivers and nonsensical limits.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "mongo":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Cache.Driver {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}
	if c.Server.RequestDeadline <= 0 {
		return fmt.Errorf("server.request_deadline must be positive")
	}
	if c.Worker.Workers < 1 || c.Worker.Queue < 1 {
		return fmt.Errorf("worker.workers and worker.queue must be at least 1")
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range defaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// wellKnownEnv maps unprefixed variables used by the upstream SDKs.
var wellKnownEnv = map[string]string{
	"spotify_client_id":     "spotify.client_id",
	"spotify_client_secret": "spotify.client_secret",
	"openai_api_key":        "openai.api_key",
	"gemini_api_key":        "gemini.api_key",
	"google_books_api_key":  "googlebooks.api_key",
	"ollama_host":           "ollama.host",
	"storage_driver":        "storage.driver",
	"mongo_uri":             "storage.mongo_uri",
	"redis_addr":            "cache.redis_addr",
	"log_level":             "logging.level",
	"log_format":            "logging.format",
}

// envTransform maps SHELFSOUND_SECTION__FIELD to section.field and the
// well-known names above to their paths. Anything else is ignored.
func envTransform(key string) string {
	if strings.HasPrefix(key, envPrefix) {
		rest := strings.ToLower(strings.TrimPrefix(key, envPrefix))
		return strings.ReplaceAll(rest, "__", ".")
	}
	if path, ok := wellKnownEnv[strings.ToLower(key)]; ok {
		return path
	}
	return ""
}
