package config

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	holder, err := NewPricingConfigHolder()
	require.NoError(t, err)

	cfg := holder.Get()
	assert.True(t, cfg.TaxRate.Equal(decimal.RequireFromString("0.14")))
	assert.Equal(t, "EGP", cfg.Currency)
	assert.Equal(t, 10, cfg.LowStockThreshold)
}

func TestPricingConfigEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CARHOUSE_PRICING_TAX_RATE", "0.2")

	holder, err := NewPricingConfigHolder()
	require.NoError(t, err)
	assert.True(t, holder.Get().TaxRate.Equal(decimal.RequireFromString("0.2")))
}

func TestPricingConfigFromYAML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(`
pricing:
  tax_rate: 0.05
  currency: USD
  low_stock_threshold: 3
`)))

	holder, err := newPricingConfigHolder(v)
	require.NoError(t, err)

	cfg := holder.Get()
	assert.True(t, cfg.TaxRate.Equal(decimal.RequireFromString("0.05")))
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, 3, cfg.LowStockThreshold)
}

func TestPricingConfigRejectsNegativeRate(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString("pricing:\n  tax_rate: -0.1\n  currency: EGP\n")))

	_, err := newPricingConfigHolder(v)
	assert.Error(t, err)
}
