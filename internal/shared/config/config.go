package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"min=1,max=65535"`
	Mode     string `mapstructure:"mode" validate:"oneof=debug release test"`
	Timezone string `mapstructure:"timezone"`
}

func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver" validate:"oneof=mysql sqlite"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database" validate:"required"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=console json"`
	OutputPath string `mapstructure:"output_path"`
}

// RedisConfig holds Redis connection configuration for the cross-instance
// event relay. Disabled means events stay in-process only.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BillingConfig holds pricing policy knobs. The tax rate may legitimately be
// zero under a no-tax policy.
type BillingConfig struct {
	Currency        string  `mapstructure:"currency" validate:"required,len=3"`
	TaxRatePercent  float64 `mapstructure:"tax_rate_percent" validate:"gte=0,lte=100"`
	RefundWindowDay int     `mapstructure:"refund_window_days" validate:"gte=0"`
	RefundUsageCap  float64 `mapstructure:"refund_usage_cap_percent" validate:"gte=0,lte=100"`
}

// UsageConfig holds usage-monitor thresholds as percentages of the plan's
// data limit.
type UsageConfig struct {
	AlertThresholds []int `mapstructure:"alert_thresholds" validate:"required,min=1,dive,gt=0,lte=100"`
}

var validate = validator.New()

// Validate checks a config section against its struct tags.
func Validate(section any) error {
	if err := validate.Struct(section); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
