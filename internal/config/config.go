package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort    string
	PublicBaseURL string
	FrontendURL   string
	LogLevel      string
	MaxUploadMB   int

	DBDriver    string
	DatabaseDSN string

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret string

	StorageDriver    string
	StorageLocalRoot string
	S3Bucket         string
	S3Region         string
	S3Endpoint       string
	S3Key            string
	S3Secret         string

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	PaymentCurrency   string

	MailHost     string
	MailPort     string
	MailUsername string
	MailPassword string
	MailFrom     string
	MailFromName string

	SwaggerHost string
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory, if present, is applied first
// without overriding variables that are already set.
func Load() *Config {
	_ = godotenv.Load()

	port := getEnv("SERVER_PORT", getEnv("PORT", "5000"))
	driver := strings.ToLower(getEnv("DB_DRIVER", "postgres"))

	return &Config{
		ServerPort:    port,
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),
		FrontendURL:   strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		MaxUploadMB:   getEnvInt("MAX_UPLOAD_MB", 100),

		DBDriver:    driver,
		DatabaseDSN: getEnv("DATABASE_DSN", defaultDSN(driver)),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getEnvInt("REDIS_DB", 0),
		RedisPass: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),

		StorageDriver:    strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
		StorageLocalRoot: getEnv("STORAGE_LOCAL_ROOT", "storage"),
		S3Bucket:         getEnv("S3_BUCKET", "datasets"),
		S3Region:         getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		S3Key:            os.Getenv("S3_KEY"),
		S3Secret:         os.Getenv("S3_SECRET"),

		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayBaseURL:   getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
		PaymentCurrency:   getEnv("PAYMENT_CURRENCY", "INR"),

		MailHost:     getEnv("MAIL_HOST", "smtp.gmail.com"),
		MailPort:     getEnv("MAIL_PORT", "587"),
		MailUsername: os.Getenv("MAIL_USERNAME"),
		MailPassword: os.Getenv("MAIL_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", "no-reply@datamarket.local"),
		MailFromName: getEnv("MAIL_FROM_NAME", "Data Marketplace"),

		SwaggerHost: os.Getenv("SWAGGER_HOST"),
	}
}

func defaultDSN(driver string) string {
	switch driver {
	case "mysql":
		return "user:password@tcp(localhost:3306)/datamarket?charset=utf8mb4&parseTime=True&loc=Local"
	case "sqlite":
		return "datamarket.db"
	default:
		return "host=localhost user=postgres password=postgres dbname=datamarket port=5432 sslmode=disable"
	}
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
