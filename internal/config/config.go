package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	DatabaseURL string        `mapstructure:"DATABASE_URL"`
	JWTSecret   string        `mapstructure:"JWT_SECRET"`
	TokenTTL    time.Duration `mapstructure:"TOKEN_TTL"`
	RedisURL    string        `mapstructure:"REDIS_URL"`
	Port        string        `mapstructure:"PORT"`

	// RoomLockTimeout bounds how long a join waits for another transaction's
	// lock on the same room row.
	RoomLockTimeout time.Duration `mapstructure:"ROOM_LOCK_TIMEOUT"`
	FriendLimit     int           `mapstructure:"FRIEND_LIMIT"`
}

var AppConfig *Config

var defaults = map[string]any{
	"DATABASE_URL":      "",
	"JWT_SECRET":        "",
	"TOKEN_TTL":         7 * 24 * time.Hour,
	"REDIS_URL":         "",
	"PORT":              "8080",
	"ROOM_LOCK_TIMEOUT": time.Second,
	"FRIEND_LIMIT":      50,
}

// LoadConfig loads the configuration from a .env file and environment variables.
func LoadConfig() {
	cfg, err := Load(".")
	if err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
	AppConfig = cfg
}

// Load reads <dir>/.env and the environment. Environment variables win over
// the file; keys missing from both fall back to defaults.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
