package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort        int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	MigrationsDir    string

	MongoURI      string
	MongoDatabase string

	RedisAddr    string
	CartCacheTTL time.Duration

	KafkaBrokers []string
	OrderTopic   string

	JWTSecret string
	JWTTTL    time.Duration

	AdminEmail    string
	AdminPassword string
}

func Load() Config {
	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPPort:        getEnvInt("HTTP_PORT", 8080),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnvInt("POSTGRES_PORT", 5432),
		PostgresUser:     getEnv("POSTGRES_USER", "yingshop"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "yingshop"),
		PostgresDB:       getEnv("POSTGRES_DB", "yingshop"),
		MigrationsDir:    getEnv("MIGRATIONS_DIR", "./migrations/postgres"),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "yingshop"),

		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		CartCacheTTL: getEnvDuration("CART_CACHE_TTL", 15*time.Minute),

		KafkaBrokers: []string{getEnv("KAFKA_BROKER", "localhost:9092")},
		OrderTopic:   getEnv("ORDER_TOPIC", "order-events"),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTTTL:    getEnvDuration("JWT_TTL", 24*time.Hour),

		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@yingshop.local"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
