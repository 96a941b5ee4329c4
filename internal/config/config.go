package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port            string
	BackendURL      string
	BackendTimeout  time.Duration
	DatabaseURL     string // empty keeps sessions in memory
	SessionTTL      time.Duration
	DraftTTL        time.Duration
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8081"),
		BackendURL:      getEnv("BACKEND_URL", "http://localhost:8090/api"),
		BackendTimeout:  getSeconds("BACKEND_TIMEOUT_SECONDS", 15),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SessionTTL:      getMinutes("SESSION_TTL_MINUTES", 12*60),
		DraftTTL:        getMinutes("DRAFT_TTL_MINUTES", 24*60),
		AllowedOrigins:  getList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		ShutdownTimeout: getSeconds("SHUTDOWN_TIMEOUT_SECONDS", 10),
	}
}

// StubConfig configures the development stand-in for the remote backend.
type StubConfig struct {
	Port         string
	JWTSecret    string
	SeedEmail    string
	SeedPassword string
}

func LoadStub() *StubConfig {
	return &StubConfig{
		Port:         getEnv("STUB_PORT", "8090"),
		JWTSecret:    getEnv("STUB_JWT_SECRET", "dev-secret-change-in-production"),
		SeedEmail:    getEnv("SEED_EMAIL", "admin@sweetcrumbs.test"),
		SeedPassword: getEnv("SEED_PASSWORD", "admin123"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getSeconds(key string, fallback int) time.Duration {
	return time.Duration(getInt(key, fallback)) * time.Second
}

func getMinutes(key string, fallback int) time.Duration {
	return time.Duration(getInt(key, fallback)) * time.Minute
}

func getList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
