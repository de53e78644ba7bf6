package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	PostStorePostgres = "postgres"
	PostStoreMongo    = "mongo"
)

type Config struct {
	Port string
	Env  string

	PostgresURL   string
	PostStore     string
	MongoURI      string
	MongoDatabase string
	RedisURL      string

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	FirebaseCredentialsPath string
	FirebaseStorageBucket   string
	MediaRoot               string
	MediaURL                string

	PublishSchedule string
	RateLimit       float64
	DefaultPageSize int
	MaxPageSize     int

	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		PostgresURL:             getEnv("POSTGRES_CONN_STR", ""),
		PostStore:               getEnv("POST_STORE", PostStorePostgres),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "socialmedia"),
		RedisURL:                getEnv("REDIS_URL", ""),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		TokenTTL:                getDuration("TOKEN_TTL", 72*time.Hour),
		BcryptCost:              getInt("BCRYPT_COST", 10),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FirebaseStorageBucket:   getEnv("FIREBASE_STORAGE_BUCKET", ""),
		MediaRoot:               getEnv("MEDIA_ROOT", "./media"),
		MediaURL:                getEnv("MEDIA_URL", "/media"),
		PublishSchedule:         getEnv("PUBLISH_SCHEDULE", "@every 1m"),
		RateLimit:               getFloat("RATE_LIMIT", 20),
		DefaultPageSize:         getInt("DEFAULT_PAGE_SIZE", 10),
		MaxPageSize:             getInt("MAX_PAGE_SIZE", 50),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "text"),
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
