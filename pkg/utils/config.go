package utils

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	AMQP     AMQPConfig
	Otel     OtelConfig
	Booking  BookingConfig
}

type AppConfig struct {
	Name        string
	Port        string
	Debug       bool
	LogPath     string
	StoreDriver string // postgres | memory
	CORSOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type JWTConfig struct {
	Secret string
	Issuer string
}

// AMQPConfig is optional; an empty URL routes notifications to the log.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// OtelConfig is optional; an empty endpoint disables trace export.
type OtelConfig struct {
	Endpoint    string
	ServiceName string
}

type BookingConfig struct {
	SlotStepMinutes int
	// EnforceQuotedPrice rejects options whose finalPrice is not basePrice x multiplier.
	EnforceQuotedPrice bool
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "auralumic-readings")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("STORE_DRIVER", "postgres")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("JWT_ISSUER", "auralumic")
	viper.SetDefault("AMQP_EXCHANGE", "auralumic.notifications")
	viper.SetDefault("OTEL_SERVICE_NAME", "auralumic-readings")
	viper.SetDefault("SLOT_STEP_MINUTES", 30)
	viper.SetDefault("ENFORCE_QUOTED_PRICE", false)
	viper.SetDefault("CORS_ORIGINS", "*")

	// .env boleh tidak ada, env var tetap dipakai
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:        viper.GetString("APP_NAME"),
			Port:        viper.GetString("PORT"),
			Debug:       viper.GetBool("DEBUG"),
			LogPath:     viper.GetString("LOG_PATH"),
			StoreDriver: strings.ToLower(viper.GetString("STORE_DRIVER")),
			CORSOrigins: splitList(viper.GetString("CORS_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
			Issuer: viper.GetString("JWT_ISSUER"),
		},
		AMQP: AMQPConfig{
			URL:      viper.GetString("AMQP_URL"),
			Exchange: viper.GetString("AMQP_EXCHANGE"),
		},
		Otel: OtelConfig{
			Endpoint:    viper.GetString("OTEL_ENDPOINT"),
			ServiceName: viper.GetString("OTEL_SERVICE_NAME"),
		},
		Booking: BookingConfig{
			SlotStepMinutes:    viper.GetInt("SLOT_STEP_MINUTES"),
			EnforceQuotedPrice: viper.GetBool("ENFORCE_QUOTED_PRICE"),
		},
	}

	if config.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return config, nil
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
