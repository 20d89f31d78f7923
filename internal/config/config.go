package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Suno generation provider
	SunoAPIToken string
	SunoBaseURL  string
	SunoTimeout  time.Duration
	CallbackURL  string

	// Beats stuck in_progress longer than this are failed during a sweep.
	BeatExpiry time.Duration

	// Mail
	MailHost     string
	MailPort     int
	MailUsername string
	MailPassword string
	MailSender   string

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "beatforge_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m")),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h")),

		SunoAPIToken: getEnv("SUNO_API_TOKEN", ""),
		SunoBaseURL:  getEnv("SUNO_BASE_URL", "https://api.loveaiapi.com"),
		SunoTimeout:  parseDuration(getEnv("SUNO_TIMEOUT", "10s")),
		CallbackURL:  getEnv("CALLBACK_URL", "http://127.0.0.1:8080"),

		BeatExpiry: parseDuration(getEnv("BEAT_EXPIRY", "2h")),

		MailHost:     getEnv("MAIL_HOST", "localhost"),
		MailPort:     parseInt(getEnv("MAIL_PORT", "587")),
		MailUsername: getEnv("MAIL_USERNAME", ""),
		MailPassword: getEnv("MAIL_PASSWORD", ""),
		MailSender:   getEnv("MAIL_DEFAULT_SENDER", "no-reply@beatforge.app"),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 587
	}
	return n
}
