package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	MongoURI    string
	MongoDB     string
	RedisAddr   string
	JWTSecret   string
	SessionTTL  time.Duration
	CORSOrigins string
}

// Load reads server configuration from the environment. Empty MongoURI or
// RedisAddr disables that backend.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		MongoURI:    os.Getenv("MONGO_URI"),
		MongoDB:     getEnv("MONGO_DB", "surveywizard"),
		RedisAddr:   strings.TrimPrefix(os.Getenv("REDIS_URI"), "redis://"),
		JWTSecret:   getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
		SessionTTL:  time.Duration(getEnvInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
		CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}
