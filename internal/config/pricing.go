package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// PricingConfig is read once at start and stays fixed for the process lifetime.
type PricingConfig struct {
	TaxRate           decimal.Decimal
	Currency          string
	LowStockThreshold int
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		TaxRate:           decimal.RequireFromString("0.14"),
		Currency:          "EGP",
		LowStockThreshold: 10,
	}
}

type PricingConfigHolder struct {
	current PricingConfig
}

func NewPricingConfigHolder() (*PricingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/carhouse")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CARHOUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPricingConfig()
	v.SetDefault("pricing.tax_rate", defaults.TaxRate.String())
	v.SetDefault("pricing.currency", defaults.Currency)
	v.SetDefault("pricing.low_stock_threshold", defaults.LowStockThreshold)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return newPricingConfigHolder(v)
}

func newPricingConfigHolder(v *viper.Viper) (*PricingConfigHolder, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(v.GetString("pricing.tax_rate")))
	if err != nil {
		return nil, fmt.Errorf("pricing.tax_rate: %w", err)
	}

	cfg := PricingConfig{
		TaxRate:           rate,
		Currency:          strings.TrimSpace(v.GetString("pricing.currency")),
		LowStockThreshold: v.GetInt("pricing.low_stock_threshold"),
	}
	if err := validatePricingConfig(cfg); err != nil {
		return nil, err
	}

	return &PricingConfigHolder{current: cfg}, nil
}

// NewStaticPricingConfigHolder wraps an already-built config, mostly for tests.
func NewStaticPricingConfigHolder(cfg PricingConfig) (*PricingConfigHolder, error) {
	if err := validatePricingConfig(cfg); err != nil {
		return nil, err
	}
	return &PricingConfigHolder{current: cfg}, nil
}

func (h *PricingConfigHolder) Get() PricingConfig {
	return h.current
}

func validatePricingConfig(cfg PricingConfig) error {
	if cfg.TaxRate.IsNegative() {
		return errors.New("pricing.tax_rate cannot be negative")
	}
	if cfg.Currency == "" {
		return errors.New("pricing.currency cannot be empty")
	}
	if cfg.LowStockThreshold < 0 {
		return errors.New("pricing.low_stock_threshold cannot be negative")
	}
	return nil
}
