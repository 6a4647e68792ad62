package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresHost string
	PostgresPort string
	AppPort      string
	JWTSecret    string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	AcqBaseURL  string
	AcqUsername string
	AcqPassword string
	AcqDataset  string

	NotificationIntervalHours int
	QueryMarginDegrees        float64
	HTTPTimeoutSeconds        int
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load(path)

	cfg := &Config{
		PostgresUser: getenv("POSTGRES_USER", "postgres"),
		PostgresPass: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:   getenv("POSTGRES_DB", "landsat_app"),
		PostgresHost: getenv("POSTGRES_HOST", "localhost"),
		PostgresPort: getenv("POSTGRES_PORT", "5432"),
		AppPort:      getenv("APP_PORT", "8080"),
		JWTSecret:    os.Getenv("JWT_SECRET"),

		SMTPHost:     getenv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getenv("SMTP_PORT", "587"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),

		AcqBaseURL:  getenv("ACQ_BASE_URL", "https://landsat.usgs.gov/landsat_acquisition_api/v1"),
		AcqUsername: os.Getenv("ACQ_USERNAME"),
		AcqPassword: os.Getenv("ACQ_PASSWORD"),
		AcqDataset:  getenv("ACQ_DATASET", "landsat_8_9"),

		NotificationIntervalHours: getenvInt("NOTIFICATION_INTERVAL_HOURS", 24),
		QueryMarginDegrees:        getenvFloat("QUERY_MARGIN_DEGREES", 0.1),
		HTTPTimeoutSeconds:        getenvInt("HTTP_TIMEOUT_SECONDS", 10),
	}

	return cfg, nil
}

// DSN builds the Postgres connection string from the POSTGRES_* values.
// DATABASE_URL overrides it entirely when set (Heroku style).
func (c *Config) DSN() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPass, c.PostgresDB)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
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
