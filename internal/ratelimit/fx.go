package ratelimit

import (
	servicetypedomain "github.com/smallbiznis/carhouse/internal/servicetype/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("rate.limit",
	fx.Provide(
		fx.Annotate(
			NewAdminWriteLimiter,
			fx.As(fx.Self()),
			fx.As(new(servicetypedomain.PartsLocker)),
		),
	),
)
