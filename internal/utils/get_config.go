package utils

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	// Server configuration
	AppPort        string `yaml:"APP_PORT"`
	AllowedOrigins string `yaml:"ALLOWED_ORIGINS"`
	LogFile        string `yaml:"LOG_FILE"`

	// Database configuration
	DBUser     string `yaml:"DB_USER"`
	DBName     string `yaml:"DB_NAME"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBPort     string `yaml:"DB_PORT"`
	DBHost     string `yaml:"DB_HOST"`
	DBSSLMode  string `yaml:"DB_SSLMODE"`

	// Auth
	JWTSecret    string `yaml:"JWT_SECRET"`
	ServiceToken string `yaml:"SERVICE_TOKEN"`

	// Rewards
	Timezone              string `yaml:"TIMEZONE"`
	CouponCatalogFile     string `yaml:"COUPON_CATALOG_FILE"`
	CatalogReloadInterval string `yaml:"CATALOG_RELOAD_INTERVAL"`
}

var config Config

var defaults = map[string]string{
	"APP_PORT":                "8080",
	"ALLOWED_ORIGINS":         "http://localhost:3000",
	"DB_PORT":                 "5432",
	"DB_SSLMODE":              "disable",
	"TIMEZONE":                "Asia/Seoul",
	"COUPON_CATALOG_FILE":     "coupons.yaml",
	"CATALOG_RELOAD_INTERVAL": "5m",
}

// LoadConfig reads .env and the YAML file named by CONFIG_FILE (config.yaml by default).
// Missing files are not fatal: environment variables and defaults still apply.
func LoadConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Error reading .env file: %s\n", err)
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	if err := LoadConfigFile(path); err != nil {
		log.Printf("Error loading config file %s: %s\n", path, err)
	}
}

func LoadConfigFile(path string) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var loaded Config
	if err := yaml.Unmarshal(file, &loaded); err != nil {
		return err
	}
	config = loaded
	return nil
}

// GetConfig resolves key from the environment first, then the YAML file, then defaults.
func GetConfig(key string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	if value := fileValue(key); value != "" {
		return value
	}
	return defaults[key]
}

func GetDurationConfig(key string) time.Duration {
	value, err := time.ParseDuration(GetConfig(key))
	if err != nil || value <= 0 {
		fallback, _ := time.ParseDuration(defaults[key])
		return fallback
	}
	return value
}

func GetLocation() *time.Location {
	loc, err := time.LoadLocation(GetConfig("TIMEZONE"))
	if err != nil {
		log.Printf("Unknown timezone %q, falling back to UTC\n", GetConfig("TIMEZONE"))
		return time.UTC
	}
	return loc
}

func fileValue(key string) string {
	switch key {
	case "APP_PORT":
		return config.AppPort
	case "ALLOWED_ORIGINS":
		return config.AllowedOrigins
	case "LOG_FILE":
		return config.LogFile
	case "DB_USER":
		return config.DBUser
	case "DB_NAME":
		return config.DBName
	case "DB_PASSWORD":
		return config.DBPassword
	case "DB_PORT":
		return config.DBPort
	case "DB_HOST":
		return config.DBHost
	case "DB_SSLMODE":
		return config.DBSSLMode
	case "JWT_SECRET":
		return config.JWTSecret
	case "SERVICE_TOKEN":
		return config.ServiceToken
	case "TIMEZONE":
		return config.Timezone
	case "COUPON_CATALOG_FILE":
		return config.CouponCatalogFile
	case "CATALOG_RELOAD_INTERVAL":
		return config.CatalogReloadInterval
	default:
		return ""
	}
}
