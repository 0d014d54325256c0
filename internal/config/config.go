// Package config loads settings from environment variables with an optional
// .env overlay for local development.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all settings of the resolver service. Missing provider
// credentials degrade the matching adapter to transient errors; they never
// prevent startup.
type Config struct {
	Addr        string
	DatabaseURL string
	RedisAddr   string

	CacheTTL       time.Duration
	RetryWindow    time.Duration
	AdapterTimeout time.Duration

	JWTSecret           string
	CuratorUsername     string
	CuratorPasswordHash string

	OpenFoodFactsBaseURL string
	USDABaseURL          string
	USDAAPIKey           string
	NutritionixBaseURL   string
	NutritionixAppID     string
	NutritionixAppKey    string

	LogLevel string
}

// Load reads configuration from the environment. A .env file in the working
// directory is overlaid when present and ignored otherwise.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("addr", ":8080")
	v.SetDefault("database_url", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("cache_ttl", "1h")
	v.SetDefault("retry_window", "24h")
	v.SetDefault("adapter_timeout", "8s")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("curator_username", "curator")
	v.SetDefault("curator_password_hash", "")
	v.SetDefault("openfoodfacts_base_url", "")
	v.SetDefault("usda_base_url", "")
	v.SetDefault("usda_api_key", "")
	v.SetDefault("nutritionix_base_url", "")
	v.SetDefault("nutritionix_app_id", "")
	v.SetDefault("nutritionix_app_key", "")
	v.SetDefault("log_level", "info")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		Addr:                 v.GetString("addr"),
		DatabaseURL:          v.GetString("database_url"),
		RedisAddr:            v.GetString("redis_addr"),
		CacheTTL:             v.GetDuration("cache_ttl"),
		RetryWindow:          v.GetDuration("retry_window"),
		AdapterTimeout:       v.GetDuration("adapter_timeout"),
		JWTSecret:            v.GetString("jwt_secret"),
		CuratorUsername:      v.GetString("curator_username"),
		CuratorPasswordHash:  v.GetString("curator_password_hash"),
		OpenFoodFactsBaseURL: v.GetString("openfoodfacts_base_url"),
		USDABaseURL:          v.GetString("usda_base_url"),
		USDAAPIKey:           v.GetString("usda_api_key"),
		NutritionixBaseURL:   v.GetString("nutritionix_base_url"),
		NutritionixAppID:     v.GetString("nutritionix_app_id"),
		NutritionixAppKey:    v.GetString("nutritionix_app_key"),
		LogLevel:             v.GetString("log_level"),
	}, nil
}
