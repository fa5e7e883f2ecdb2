package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/innhub/service-reservation/internal/domain/booking"
	"github.com/innhub/service-reservation/internal/platform/config"
)

// Event and lock driver names accepted by EVENTS_DRIVER and LOCK_DRIVER.
const (
	EventsKafka = "kafka"
	EventsAMQP  = "amqp"
	EventsNone  = "none"

	LockLocal = "local"
	LockRedis = "redis"
)

// ServiceConfig holds all configuration for the reservation service.
type ServiceConfig struct {
	Port          string
	AppEnv        string
	DBConfig      config.DatabaseConfig
	JWTConfig     config.JWTConfig
	KafkaConfig   config.KafkaConfig
	AMQPConfig    config.AMQPConfig
	RedisConfig   config.RedisConfig
	TracingConfig config.TracingConfig

	EventsDriver string
	LockDriver   string
	LockTTL      time.Duration

	BookingDefaultStatus booking.BookingStatus
	AvailabilityCacheTTL time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	RestorationRetryInterval time.Duration
	RestorationMaxAttempts   int

	MigrationsDir string
}

// Load reads configuration from environment variables prefixed with HOTEL_.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("HOTEL")
	if err != nil {
		return nil, err
	}

	v.SetDefault("DB_NAME", "hotel_reservation")
	v.SetDefault("EVENTS_DRIVER", EventsKafka)
	v.SetDefault("LOCK_DRIVER", LockLocal)
	v.SetDefault("LOCK_TTL", "10s")
	v.SetDefault("BOOKING_DEFAULT_STATUS", string(booking.StatusPending))
	v.SetDefault("AVAILABILITY_CACHE_TTL", "30s")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("RESTORATION_RETRY_INTERVAL", "30s")
	v.SetDefault("RESTORATION_MAX_ATTEMPTS", 5)
	v.SetDefault("MIGRATIONS_DIR", "migrations")

	cfg := &ServiceConfig{
		Port:          config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:        config.GetAppEnv(v),
		DBConfig:      config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:     config.LoadJWTConfig(v),
		KafkaConfig:   config.LoadKafkaConfig(v),
		AMQPConfig:    config.LoadAMQPConfig(v),
		RedisConfig:   config.LoadRedisConfig(v),
		TracingConfig: config.LoadTracingConfig(v),

		EventsDriver: strings.ToLower(v.GetString("EVENTS_DRIVER")),
		LockDriver:   strings.ToLower(v.GetString("LOCK_DRIVER")),
		LockTTL:      v.GetDuration("LOCK_TTL"),

		BookingDefaultStatus: booking.BookingStatus(v.GetString("BOOKING_DEFAULT_STATUS")),
		AvailabilityCacheTTL: v.GetDuration("AVAILABILITY_CACHE_TTL"),

		RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),

		RestorationRetryInterval: v.GetDuration("RESTORATION_RETRY_INTERVAL"),
		RestorationMaxAttempts:   v.GetInt("RESTORATION_MAX_ATTEMPTS"),

		MigrationsDir: v.GetString("MIGRATIONS_DIR"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServiceConfig) validate() error {
	if c.JWTConfig.Secret == "" {
		return fmt.Errorf("HOTEL_JWT_SECRET is required")
	}
	switch c.EventsDriver {
	case EventsKafka, EventsAMQP, EventsNone:
	default:
		return fmt.Errorf("unknown events driver %q", c.EventsDriver)
	}
	switch c.LockDriver {
	case LockLocal, LockRedis:
	default:
		return fmt.Errorf("unknown lock driver %q", c.LockDriver)
	}
	if c.BookingDefaultStatus != booking.StatusPending && c.BookingDefaultStatus != booking.StatusConfirmed {
		return fmt.Errorf("booking default status must be pending or confirmed, got %q", c.BookingDefaultStatus)
	}
	if c.RestorationMaxAttempts < 1 {
		return fmt.Errorf("restoration max attempts must be at least 1")
	}
	return nil
}
