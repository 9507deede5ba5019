package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath   string
	Port     string
	LogLevel string

	// Pool defaults applied on lazy creation.
	PoolStartingBalance float64
	ContributionRate    float64
	MinimumPoolBalance  float64
	MaximumPayout       float64
}

func Load() *Config {
	godotenv.Load()

	cfg := &Config{
		DBPath:              getEnv("DB_PATH", "db.sqlite"),
		Port:                getEnv("PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		PoolStartingBalance: getEnvFloat("POOL_STARTING_BALANCE", 5000),
		ContributionRate:    getEnvFloat("POOL_CONTRIBUTION_RATE", 0.05),
		MinimumPoolBalance:  getEnvFloat("POOL_MINIMUM_BALANCE", 100),
		MaximumPayout:       getEnvFloat("POOL_MAXIMUM_PAYOUT", 10000),
	}

	if os.Getenv("API_KEY") == "" || os.Getenv("ADMIN_TOKEN") == "" {
		log.Fatal("Missing critical environment variables")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
