package config

import (
	"os"
	"time"

	"quiz-arcade/internal/domain"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Catalog struct {
		TTL string `yaml:"ttl"`
	} `yaml:"catalog"`
	Scores struct {
		// Backend selects the durable slot: file (default), redis, or memory.
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
	} `yaml:"scores"`
	Difficulties map[string]domain.DifficultyProfile `yaml:"difficulties"`
}

// Load reads YAML config from path, then applies environment overrides.
// A `.env` file is honored if present. A missing config file is not an
// error; defaults apply.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Postgres.URL = getEnv("POSTGRES_URL", cfg.Postgres.URL)
	cfg.Scores.Backend = getEnv("SCORES_BACKEND", cfg.Scores.Backend)
	cfg.Scores.Path = getEnv("SCORES_PATH", cfg.Scores.Path)
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "pretty"
	}
	if c.Scores.Backend == "" {
		c.Scores.Backend = "file"
	}
	if c.Scores.Path == "" {
		c.Scores.Path = "data/quiz-scores.json"
	}
	if len(c.Difficulties) == 0 {
		c.Difficulties = domain.DefaultDifficulties()
	}
}

// TTLDuration parses a duration string or returns the fallback if empty or
// malformed.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
