package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	Env     string
	Port    string
	BaseURL string

	DBDriver string
	DBDSN    string

	JWTSecret         string
	JWTTTL            time.Duration
	AllowRegistration bool

	CORSOrigins []string
	UploadDir   string

	RedisAddr      string
	IdempotencyTTL time.Duration

	GeminiAPIKey string

	LogLevel  string
	LogFormat string
	LogDir    string

	LowStockThreshold int
	TerminalID        string // empty derives one from the host
}

// Load reads .env (if present) and then the process environment.
func Load(files ...string) (*Config, error) {
	// A missing .env is fine, the environment may be set by the container
	_ = godotenv.Load(files...)
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Env:          getenv("APP_ENV", EnvDevelopment),
		Port:         getenv("PORT", "8080"),
		DBDriver:     strings.ToLower(getenv("DB_DRIVER", "mysql")),
		DBDSN:        os.Getenv("DB_DSN"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		UploadDir:    getenv("UPLOAD_DIR", "./uploads"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFormat:    getenv("LOG_FORMAT", "text"),
		LogDir:       os.Getenv("LOG_DIR"),
		TerminalID:   strings.TrimSpace(os.Getenv("TERMINAL_ID")),
	}
	cfg.BaseURL = getenv("BASE_URL", "http://localhost:"+cfg.Port)
	cfg.AllowRegistration = os.Getenv("ALLOW_REGISTRATION") == "true"
	cfg.CORSOrigins = splitList(getenv("CORS_ORIGINS", "http://localhost:5173"))

	ttlHours, err := getInt("JWT_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}
	cfg.JWTTTL = time.Duration(ttlHours) * time.Hour

	ttlMinutes, err := getInt("IDEMPOTENCY_TTL_MINUTES", 10)
	if err != nil {
		return nil, err
	}
	cfg.IdempotencyTTL = time.Duration(ttlMinutes) * time.Minute

	if cfg.LowStockThreshold, err = getInt("LOW_STOCK_THRESHOLD", 5); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be mysql or sqlite, got %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is not set")
	}
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is not set")
		}
		c.JWTSecret = "dev_only_secret_change_me"
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL_HOURS must be positive")
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL_MINUTES must be positive")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
