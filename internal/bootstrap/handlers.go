package bootstrap

import (
	"log/slog"
	"os"

	"github.com/eleven-am/sight-backend/internal/apikey"
	"github.com/eleven-am/sight-backend/internal/capture"
	"github.com/eleven-am/sight-backend/internal/document"
	"github.com/eleven-am/sight-backend/internal/face"
	"github.com/eleven-am/sight-backend/internal/gateway"
	"github.com/eleven-am/sight-backend/internal/retrieval"
	"github.com/eleven-am/sight-backend/internal/session"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideGatewayHandler(
	sessions *session.Manager,
	ingestor *document.Ingestor,
	docStore *document.Store,
	frames *capture.FrameStore,
	engine *retrieval.Engine,
	logger *slog.Logger,
) *gateway.Handler {
	return gateway.NewHandler(sessions, ingestor, docStore, frames, engine, logger)
}

func ProvideAPIKeyHandler(store *apikey.Store, logger *slog.Logger) *apikey.Handler {
	return apikey.NewHandler(store, logger)
}

func ProvideFaceHandler(registry *face.Registry, logger *slog.Logger) *face.Handler {
	return face.NewHandler(registry, logger)
}

type HandlerParams struct {
	fx.In

	GatewayHandler *gateway.Handler
	APIKeyHandler  *apikey.Handler
	FaceHandler    *face.Handler
	APIKeyStore    *apikey.Store
}

// RegisterRoutes wires the device-facing surface. Everything except
// health runs behind device-key auth and per-key rate limiting. Key
// management itself is also key-authenticated; the seed command mints
// the first key out of band.
func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	auth := gateway.APIKeyAuth(params.APIKeyStore)
	limit := gateway.RateLimiter(gateway.DefaultRateLimiterConfig())

	api := e.Group("/api")
	api.Use(auth, limit)

	params.GatewayHandler.RegisterRoutes(api)
	params.APIKeyHandler.RegisterRoutes(api.Group("/apikeys"))
	params.FaceHandler.RegisterRoutes(api.Group("/faces"))

	params.GatewayHandler.RegisterWS(e, auth, limit)
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideGatewayHandler,
		ProvideAPIKeyHandler,
		ProvideFaceHandler,
	),
	fx.Invoke(RegisterRoutes),
)
