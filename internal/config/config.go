package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBPath     string

	DefaultCapacity int
	DefaultRate     float64

	JWTSecret     string
	JWTExpiration time.Duration

	AdminUsername string
	AdminPassword string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not load .env file: %v", err)
	}

	capacity, _ := strconv.Atoi(getEnv("DEFAULT_CAPACITY", "10"))
	rate, _ := strconv.ParseFloat(getEnv("DEFAULT_RATE", "2.0"), 64)
	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBPath:     getEnv("DB_PATH", "carpark.db"),

		DefaultCapacity: capacity,
		DefaultRate:     rate,

		JWTSecret:     getEnv("JWT_SECRET", "change-me-before-first-run"),
		JWTExpiration: time.Duration(jwtExpHours) * time.Hour,

		// First-run seed account; change before first run in production.
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin"),
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
