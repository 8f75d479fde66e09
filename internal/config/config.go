package config

import (
	"strings"
	"time"

	"github.com/slotwise/service-scheduling/internal/platform/database"
	"github.com/spf13/viper"
)

// ServiceConfig holds all configuration for the scheduling service.
type ServiceConfig struct {
	Port   string
	AppEnv string

	DB database.PostgresConfig

	JWTSecret string

	KafkaBrokers     []string
	KafkaGroupPrefix string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StripeKey string

	// CheckoutSessionTTL bounds how long a phase-1 quote stays reservable in
	// Redis before the caller must start over.
	CheckoutSessionTTL time.Duration

	// GatewayTimeout is the default deadline for payment gateway calls when
	// the caller supplies none.
	GatewayTimeout time.Duration
}

// Load reads configuration from SCHEDULING_-prefixed environment variables
// with development defaults.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("SCHEDULING")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", ":8084")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "scheduling")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("JWT_SECRET", "dev-secret")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "slotwise.")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("STRIPE_KEY", "")
	v.SetDefault("CHECKOUT_SESSION_TTL", "30m")
	v.SetDefault("GATEWAY_TIMEOUT", "10s")

	return &ServiceConfig{
		Port:   v.GetString("PORT"),
		AppEnv: v.GetString("APP_ENV"),
		DB: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWTSecret:          v.GetString("JWT_SECRET"),
		KafkaBrokers:       strings.Split(v.GetString("KAFKA_BROKERS"), ","),
		KafkaGroupPrefix:   v.GetString("KAFKA_GROUP_PREFIX"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		StripeKey:          v.GetString("STRIPE_KEY"),
		CheckoutSessionTTL: v.GetDuration("CHECKOUT_SESSION_TTL"),
		GatewayTimeout:     v.GetDuration("GATEWAY_TIMEOUT"),
	}, nil
}
