package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ProjectID                    string
	Port                         string
	AllowedOrigins               []string
	StorageBucket                string
	SignedURLServiceAccountEmail string
	ServiceAccountJSON           string

	LogLevel  string
	LogFormat string

	// TokenCacheTTL bounds how long a verified ID token is reused.
	TokenCacheTTL time.Duration
	// DefaultTimezone is used to derive "today" when a request has no tz.
	DefaultTimezone string
}

func Load() Config {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("TOKEN_CACHE_TTL", "1m")
	v.SetDefault("DEFAULT_TIMEZONE", "UTC")

	// FIREBASE_PROJECT_ID or GOOGLE_CLOUD_PROJECT
	projectID := v.GetString("FIREBASE_PROJECT_ID")
	if projectID == "" {
		projectID = v.GetString("GOOGLE_CLOUD_PROJECT")
	}

	storageBucket := v.GetString("FIREBASE_STORAGE_BUCKET")
	if storageBucket == "" && projectID != "" {
		storageBucket = projectID + ".appspot.com"
	}

	ttl := v.GetDuration("TOKEN_CACHE_TTL")
	if ttl < 0 {
		ttl = 0
	}

	allowed := []string{}
	for _, o := range strings.Split(v.GetString("ALLOWED_ORIGINS"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			allowed = append(allowed, o)
		}
	}

	return Config{
		ProjectID:                    projectID,
		Port:                         v.GetString("PORT"),
		AllowedOrigins:               allowed,
		StorageBucket:                storageBucket,
		SignedURLServiceAccountEmail: v.GetString("SIGNED_URL_SERVICE_ACCOUNT_EMAIL"),
		ServiceAccountJSON:           v.GetString("FIREBASE_SERVICE_ACCOUNT_JSON"),
		LogLevel:                     v.GetString("LOG_LEVEL"),
		LogFormat:                    v.GetString("LOG_FORMAT"),
		TokenCacheTTL:                ttl,
		DefaultTimezone:              v.GetString("DEFAULT_TIMEZONE"),
	}
}
