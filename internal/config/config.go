package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Log       LogConfig
	Inventory InventoryConfig
	Import    ImportConfig
	Metrics   MetricsConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type StorageConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Host             string
	Port             int
	User             string
	Password         string
	Name             string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	AutoMigrate      bool
	TxTimeout        time.Duration
	MaxRetryAttempts int
}

type LogConfig struct {
	Level  string
	Format string
}

type InventoryConfig struct {
	Location            *time.Location
	RejectExpiredIntake bool
	ReservationTTL      time.Duration
	SweepInterval       time.Duration
}

type ImportConfig struct {
	MaxRows int
}

type MetricsConfig struct {
	Enabled bool
}

// Load reads configuration from the environment, layered over the optional
// YAML file at path. Keys in the file mirror the env names in lower case.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	v.SetDefault("STORAGE_DRIVER", StorageMySQL)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "pharmastock")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "pharmastock")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("DB_TX_TIMEOUT", "5s")
	v.SetDefault("DB_MAX_RETRY_ATTEMPTS", 3)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("INVENTORY_TIMEZONE", "UTC")
	v.SetDefault("INVENTORY_REJECT_EXPIRED_INTAKE", true)
	v.SetDefault("INVENTORY_RESERVATION_TTL", "30m")
	v.SetDefault("INVENTORY_SWEEP_INTERVAL", "1m")
	v.SetDefault("IMPORT_MAX_ROWS", 5000)
	v.SetDefault("METRICS_ENABLED", true)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	readTimeout, err := duration(v, "SERVER_READ_TIMEOUT")
	if err != nil {
		return nil, err
	}
	writeTimeout, err := duration(v, "SERVER_WRITE_TIMEOUT")
	if err != nil {
		return nil, err
	}
	connMaxLifetime, err := duration(v, "DB_CONN_MAX_LIFETIME")
	if err != nil {
		return nil, err
	}
	txTimeout, err := duration(v, "DB_TX_TIMEOUT")
	if err != nil {
		return nil, err
	}
	reservationTTL, err := duration(v, "INVENTORY_RESERVATION_TTL")
	if err != nil {
		return nil, err
	}
	sweepInterval, err := duration(v, "INVENTORY_SWEEP_INTERVAL")
	if err != nil {
		return nil, err
	}

	driver := v.GetString("STORAGE_DRIVER")
	if driver != StorageMySQL && driver != StorageMemory {
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", driver)
	}

	loc, err := time.LoadLocation(v.GetString("INVENTORY_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("loading INVENTORY_TIMEZONE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetInt("SERVER_PORT"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		Storage: StorageConfig{
			Driver: driver,
		},
		Database: DatabaseConfig{
			Host:             v.GetString("DB_HOST"),
			Port:             v.GetInt("DB_PORT"),
			User:             v.GetString("DB_USER"),
			Password:         v.GetString("DB_PASSWORD"),
			Name:             v.GetString("DB_NAME"),
			MaxOpenConns:     v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:     v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime:  connMaxLifetime,
			AutoMigrate:      v.GetBool("DB_AUTO_MIGRATE"),
			TxTimeout:        txTimeout,
			MaxRetryAttempts: max(1, v.GetInt("DB_MAX_RETRY_ATTEMPTS")),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Inventory: InventoryConfig{
			Location:            loc,
			RejectExpiredIntake: v.GetBool("INVENTORY_REJECT_EXPIRED_INTAKE"),
			ReservationTTL:      reservationTTL,
			SweepInterval:       sweepInterval,
		},
		Import: ImportConfig{
			MaxRows: v.GetInt("IMPORT_MAX_ROWS"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
	}

	return cfg, nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
