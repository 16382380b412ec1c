package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// StorageConfig selects the blob backend. Backend is "minio" or "fs".
type StorageConfig struct {
	Backend string
	FSRoot  string
}

// QuotaConfig holds per-user storage limits and the accepted upload formats.
type QuotaConfig struct {
	UserCapBytes   int64
	MaxFileBytes   int64
	AllowedFormats []string
}

// PricingConfig holds the order quote parameters. Prices are in minor currency units.
type PricingConfig struct {
	PricePerPage int64
	DuplexFactor float64
}

// RetentionConfig controls the document sweeper.
type RetentionConfig struct {
	MaxAge   time.Duration
	Interval time.Duration
	Enabled  bool
}

// ConverterConfig points at the document-to-PDF conversion service.
type ConverterConfig struct {
	URL     string
	Timeout time.Duration
}

// PrinterConfig selects the print backend. Backend is "lp" or "http".
type PrinterConfig struct {
	Backend string
	Name    string
	LPPath  string
	URL     string
	Timeout time.Duration
}

// AuthConfig holds the bearer token verification settings.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level    string
	Timezone string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	Port      string
	Database  DatabaseConfig
	MinIO     MinIOConfig
	Storage   StorageConfig
	Quota     QuotaConfig
	Pricing   PricingConfig
	Retention RetentionConfig
	Converter ConverterConfig
	Printer   PrinterConfig
	Auth      AuthConfig
	Log       LogConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", "minio"),
			FSRoot:  getEnv("STORAGE_FS_ROOT", "./uploads"),
		},
		Quota: QuotaConfig{
			UserCapBytes:   getEnvInt64("QUOTA_USER_CAP_BYTES", 100<<20),
			MaxFileBytes:   getEnvInt64("QUOTA_MAX_FILE_BYTES", 10<<20),
			AllowedFormats: getEnvList("QUOTA_ALLOWED_FORMATS", []string{"pdf", "docx", "doc", "png", "jpg"}),
		},
		Pricing: PricingConfig{
			PricePerPage: getEnvInt64("PRICE_PER_PAGE", 20),
			DuplexFactor: getEnvFloat("PRICE_DUPLEX_FACTOR", 0.8),
		},
		Retention: RetentionConfig{
			MaxAge:   getEnvDuration("RETENTION_MAX_AGE", 30*24*time.Hour),
			Interval: getEnvDuration("RETENTION_SWEEP_INTERVAL", time.Hour),
			Enabled:  getEnvBool("RETENTION_ENABLED", true),
		},
		Converter: ConverterConfig{
			URL:     getEnv("CONVERTER_URL", "http://localhost:3000"),
			Timeout: getEnvDuration("CONVERTER_TIMEOUT", 60*time.Second),
		},
		Printer: PrinterConfig{
			Backend: getEnv("PRINTER_BACKEND", "lp"),
			Name:    getEnv("PRINTER_NAME", "PDF"),
			LPPath:  getEnv("PRINTER_LP_PATH", "lp"),
			URL:     getEnv("PRINTER_URL", ""),
			Timeout: getEnvDuration("PRINTER_TIMEOUT", 2*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			Issuer:    getEnv("AUTH_JWT_ISSUER", ""),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Timezone: getEnv("LOG_TZ", "UTC"),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

// getEnvList splits a comma-separated value, trimming blanks and lowercasing entries.
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
