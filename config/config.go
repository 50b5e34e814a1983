package config

import (
	"os"
	"strconv"
)

type Config struct {
	Logger    LoggerConfig
	Database  DatabaseConfig
	Generator GeneratorConfig
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type DatabaseConfig struct {
	Driver   string // "sqlite" or "postgres"
	Path     string // sqlite file path
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // seconds
	ConnMaxIdleTime int // seconds
	ConnectTimeout  int // seconds, bounded wait before giving up on the store
	QueryTimeout    int // seconds, per-statement deadline
}

// GeneratorConfig carries the default simulation parameters. All of them can
// be overridden per run with command flags.
type GeneratorConfig struct {
	BaseRate         float64
	AnnualGrowth     float64
	UnitPrice        string
	InitialStock     int
	ReorderPoint     int
	ReorderQuantity  int
	MaxOrders        int
	MaxOrdersPerDay  int
	MaxUnitsPerOrder int
}

func LoadEnv() *Config {
	return &Config{
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "info"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Path:            getEnv("DB_PATH", "medicine.db"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			Name:            getEnv("DB_NAME", "medicine"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 1800),
			ConnMaxIdleTime: getEnvInt("DB_CONN_MAX_IDLE_TIME", 600),
			ConnectTimeout:  getEnvInt("DB_CONNECT_TIMEOUT", 30),
			QueryTimeout:    getEnvInt("DB_QUERY_TIMEOUT", 30),
		},
		Generator: GeneratorConfig{
			BaseRate:         getEnvFloat("GEN_BASE_RATE", 15),
			AnnualGrowth:     getEnvFloat("GEN_ANNUAL_GROWTH", 0.08),
			UnitPrice:        getEnv("GEN_UNIT_PRICE", "15.50"),
			InitialStock:     getEnvInt("GEN_INITIAL_STOCK", 5000),
			ReorderPoint:     getEnvInt("GEN_REORDER_POINT", 200),
			ReorderQuantity:  getEnvInt("GEN_REORDER_QUANTITY", 1000),
			MaxOrders:        getEnvInt("GEN_MAX_ORDERS", 10000),
			MaxOrdersPerDay:  getEnvInt("GEN_MAX_ORDERS_PER_DAY", 8),
			MaxUnitsPerOrder: getEnvInt("GEN_MAX_UNITS_PER_ORDER", 5),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}
