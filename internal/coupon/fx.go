package coupon

import (
	"github.com/smallbiznis/carhouse/internal/coupon/repository"
	"github.com/smallbiznis/carhouse/internal/coupon/service"
	"go.uber.org/fx"
)

var Module = fx.Module("coupon.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
