package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"live-trivia-service/internal/domain"
)

const (
	DefaultMaxPlayers              = 50
	DefaultQuestionDurationSeconds = 20
	DefaultSubjectPrefix           = "trivia"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		PublicURL      string   `yaml:"publicUrl"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret"`
		Issuer    string `yaml:"issuer"`
	} `yaml:"auth"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subjectPrefix"`
	} `yaml:"nats"`
	Quiz struct {
		TTL  string `yaml:"ttl"`
		File string `yaml:"file"`
	} `yaml:"quiz"`
	Lobby struct {
		MaxPlayers              int `yaml:"maxPlayers"`
		QuestionDurationSeconds int `yaml:"questionDurationSeconds"`
	} `yaml:"lobby"`
}

// Load reads YAML config from path and fills in defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = DefaultSubjectPrefix
	}
	if c.Lobby.MaxPlayers <= 0 {
		c.Lobby.MaxPlayers = DefaultMaxPlayers
	}
	if c.Lobby.QuestionDurationSeconds <= 0 {
		c.Lobby.QuestionDurationSeconds = DefaultQuestionDurationSeconds
	}
}

// LobbyDefaults is the config applied to lobbies created without overrides.
func (c Config) LobbyDefaults() domain.LobbyConfig {
	return domain.LobbyConfig{
		MaxPlayers:              c.Lobby.MaxPlayers,
		QuestionDurationSeconds: c.Lobby.QuestionDurationSeconds,
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
