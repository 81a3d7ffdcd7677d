package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DBDSN         string
	RedisAddr     string
	LogFile       string
	BaseURL       string
	ChapaBaseURL  string
	ChapaSecret   string
	SweepInterval time.Duration
}

func Load() Config {
	// Optional .env for local dev; ignore if absent.
	_ = godotenv.Load()

	cfg := Config{
		Port:          getenv("PORT", "8080"),
		DBDSN:         getenv("DB_DSN", "milkpukki.db"),
		RedisAddr:     getenv("REDIS_ADDR", ""), // empty = caching disabled
		LogFile:       getenv("LOG_FILE", "./milkpukki.log"),
		BaseURL:       getenv("BASE_URL", "http://localhost:8080"),
		ChapaBaseURL:  getenv("CHAPA_BASE_URL", "https://api.chapa.co"),
		ChapaSecret:   os.Getenv("CHAPA_SECRET_KEY"),
		SweepInterval: getdur("SWEEP_INTERVAL", 5*time.Minute),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s REDIS_ADDR=%s SWEEP_INTERVAL=%s", cfg.Port, cfg.DBDSN, cfg.RedisAddr, cfg.SweepInterval)
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
