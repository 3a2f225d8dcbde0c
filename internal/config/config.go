package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Image store backends
const (
	ImageStoreDisk       = "disk"
	ImageStoreCloudinary = "cloudinary"
	ImageStoreMinio      = "minio"
)

type Config struct {
	Port                  string
	AppEnv                string
	LogLevel              string
	MongoURI              string
	MongoDB               string
	MongoTransactions     bool
	JWTSecret             string
	JWTExpireHours        int
	BcryptCost            int
	FrontendURL           string
	RequestTimeoutSeconds int

	MatchThreshold       float64
	MatchSymmetricReject bool

	RateLimitAuthPerMinute int
	RedisAddr              string
	RedisPassword          string
	RedisDB                int

	ImageStore string
	UploadDir  string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string
}

// Load reads the configuration once at startup. JWT_SECRET has no default.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		AppEnv:                getEnv("APP_ENV", "development"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		MongoURI:              getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:               getEnv("MONGO_DB", "lostfound"),
		MongoTransactions:     getEnvAsBool("MONGO_TRANSACTIONS", false),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		JWTExpireHours:        getEnvAsInt("JWT_EXPIRE_HOURS", 2),
		BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 10),
		FrontendURL:           getEnv("FRONTEND_URL", "http://localhost:3000"),
		RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),

		MatchThreshold:       getEnvAsFloat("MATCH_THRESHOLD", 0.6),
		MatchSymmetricReject: getEnvAsBool("MATCH_SYMMETRIC_REJECT", false),

		RateLimitAuthPerMinute: getEnvAsInt("RATE_LIMIT_AUTH_PER_MINUTE", 20),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                getEnvAsInt("REDIS_DB", 0),

		ImageStore: getEnv("IMAGE_STORE", ImageStoreDisk),
		UploadDir:  getEnv("UPLOAD_DIR", "uploads"),

		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:       os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "lostfound"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "lostfound-images"),
		MinioUseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		MinioPublicURL: os.Getenv("MINIO_PUBLIC_URL"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}

	switch cfg.ImageStore {
	case ImageStoreDisk, ImageStoreCloudinary, ImageStoreMinio:
	default:
		return nil, errors.New("IMAGE_STORE must be one of disk, cloudinary, minio")
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// RequestTimeout returns the per-request deadline, zero when disabled.
func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the lifetime of issued access tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpireHours) * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
