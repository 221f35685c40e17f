package bootstrap

import (
	"github.com/eleven-am/sight-backend/internal/capture"
	"github.com/eleven-am/sight-backend/internal/health"
	"github.com/eleven-am/sight-backend/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const version = "1.0.0"

func ProvideHealthHandler(
	db *gorm.DB,
	redis *redis.Client,
	qdrant *qdrant.Client,
	devices *capture.Devices,
	sessions *session.Manager,
	records *session.Store,
) *health.Handler {
	return health.NewHandler(db, redis, qdrant, devices, sessions, records, version)
}

func RegisterHealthRoutes(e *echo.Echo, h *health.Handler) {
	h.RegisterRoutes(e)
}

var HealthModule = fx.Options(
	fx.Provide(ProvideHealthHandler),
	fx.Invoke(RegisterHealthRoutes),
)
