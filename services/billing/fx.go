package billing

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.module",
	fx.Provide(
		NewStripeResolver,
		provideDeduper,
		NewService,
		NewHandler,
	),
)

var ServerModule = fx.Module("billing.server",
	Module,
	fx.Invoke(registerRoutes),
)

type deduperParams struct {
	fx.In
	Redis *redis.Client `optional:"true"`
}

func provideDeduper(p deduperParams) Deduper {
	if p.Redis == nil {
		return nil
	}
	return NewRedisDeduper(p.Redis)
}

func registerRoutes(r *gin.Engine, h *Handler) {
	h.Register(r)
}
