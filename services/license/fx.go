package license

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("license.module",
	fx.Provide(
		NewService,
		NewHandler,
	),
)

var ServerModule = fx.Module("license.server",
	Module,
	fx.Invoke(
		autoMigrate,
		registerRoutes,
	),
)

func autoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&License{}); err != nil {
		zap.L().Error("failed to migrate licenses table", zap.Error(err))
		return err
	}
	return nil
}

func registerRoutes(r *gin.Engine, h *Handler) {
	h.Register(r)
}
