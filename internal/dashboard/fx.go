package dashboard

import (
	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/carhouse/internal/cache"
	dashboarddomain "github.com/smallbiznis/carhouse/internal/dashboard/domain"
	"github.com/smallbiznis/carhouse/internal/dashboard/service"
	"go.uber.org/fx"
)

var Module = fx.Module("dashboard.service",
	fx.Provide(provideCache),
	fx.Provide(service.NewService),
)

type cacheParams struct {
	fx.In

	Redis *redis.Client `optional:"true"`
}

func provideCache(p cacheParams) cache.Cache[dashboarddomain.Statistics] {
	if p.Redis == nil {
		return cache.NewTTLCache[dashboarddomain.Statistics]()
	}
	return cache.NewRedisCache[dashboarddomain.Statistics](p.Redis, "carhouse:dashboard:")
}
