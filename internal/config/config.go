package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string
	Env         string
	AppURL      string
	FrontendURL string

	MySQLDSN  string
	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTAccessSecret  string
	JWTRefreshSecret string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubRedirectURL  string

	TwoFactorIssuer string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPSender   string
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory is read first when present.
func Load() *Config {
	_ = godotenv.Load()

	port := getEnv("SERVER_PORT", "5000")
	appURL := getEnv("APP_URL", "http://localhost:"+port)

	return &Config{
		ServerPort:  port,
		Env:         getEnv("APP_ENV", "development"),
		AppURL:      appURL,
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		MySQLDSN:  getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/link6ync?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getEnvInt("REDIS_DB", 0),
		RedisPass: os.Getenv("REDIS_PASSWORD"),

		JWTAccessSecret:  getEnv("JWT_ACCESS_TOKEN_SECRET", "change-me"),
		JWTRefreshSecret: getEnv("JWT_REFRESH_TOKEN_SECRET", "change-me-too"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", appURL+"/auth/google/callback"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubRedirectURL:  getEnv("GITHUB_REDIRECT_URL", appURL+"/auth/github/callback"),

		TwoFactorIssuer: getEnv("TWO_FACTOR_AUTH_ISSUER", "Link6ync"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPSender:   os.Getenv("SMTP_SENDER"),
	}
}

// IsProduction reports whether the app runs with production cookie policies.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
