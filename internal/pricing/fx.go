package pricing

import (
	"github.com/smallbiznis/carhouse/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("pricing",
	fx.Provide(provideCalculator),
	fx.Provide(NewEstimator),
	fx.Provide(provideFormatter),
)

func provideCalculator(holder *config.PricingConfigHolder) (*Calculator, error) {
	return NewCalculator(holder.Get().TaxRate)
}

func provideFormatter(holder *config.PricingConfigHolder) *Formatter {
	return NewFormatter(holder.Get().Currency)
}
