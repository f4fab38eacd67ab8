package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	// postgres | mongo | memory
	StoreDriver string
	DBURL       string
	MongoURI    string
	MongoDB     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret    string
	JWTAccessTTL time.Duration

	CloudinaryURL    string
	CloudinaryFolder string

	ReceiptNodeID  int64
	ReceiptIssuer  string
	ShareTTL       time.Duration
	PublicBaseURL  string
	RenderCacheTTL time.Duration
	PDFTimeout     time.Duration

	OTELEndpoint string

	MailProvider       string
	MailFrom           string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	CORSAllowedOrigins []string
}

func Load() Config {
	// a missing .env is fine outside dev
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config.dotenv_failed", "err", err)
	}

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		DBURL:       buildDBURL(),
		MongoURI:    getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:     getEnv("MONGO_DB", "clubhub"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:    getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTAccessTTL: time.Duration(getEnvInt("JWT_ACCESS_TTL_MINUTES", 15)) * time.Minute,

		CloudinaryURL:    getEnv("CLOUDINARY_URL", ""),
		CloudinaryFolder: getEnv("CLOUDINARY_FOLDER", "clubhub/receipts"),

		ReceiptNodeID:  int64(getEnvInt("RECEIPT_NODE_ID", 1)),
		ReceiptIssuer:  getEnv("RECEIPT_ISSUER", "Club Portal"),
		ShareTTL:       getEnvDuration("SHARE_TTL", 72*time.Hour),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		RenderCacheTTL: getEnvDuration("RENDER_CACHE_TTL", time.Hour),
		PDFTimeout:     getEnvDuration("PDF_TIMEOUT", 15*time.Second),

		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		MailProvider:       strings.ToLower(getEnv("MAIL_PROVIDER", "log")),
		MailFrom:           getEnv("MAIL_FROM", "no-reply@clubhub.local"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "clubhub")
	pass := getEnv("DB_PASSWORD", "clubhub")
	name := getEnv("DB_NAME", "clubhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("config.invalid_int", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

// accepts Go durations ("90s", "72h") or plain seconds
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	if d, err := time.ParseDuration(v); err == nil {
		return d
	}

	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}

	slog.Warn("config.invalid_duration", "key", key, "value", v)
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
