package bootstrap

import (
	"context"
	"log/slog"

	"github.com/eleven-am/sight-backend/internal/apikey"
	"github.com/eleven-am/sight-backend/internal/capture"
	"github.com/eleven-am/sight-backend/internal/conversation"
	"github.com/eleven-am/sight-backend/internal/document"
	"github.com/eleven-am/sight-backend/internal/embedding"
	"github.com/eleven-am/sight-backend/internal/face"
	"github.com/eleven-am/sight-backend/internal/session"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideDocumentStore(db *gorm.DB, qdrantClient *qdrant.Client) *document.Store {
	return document.NewStore(db, qdrantClient, document.DefaultCollection)
}

func ProvideFaceStore(db *gorm.DB) *face.Store {
	return face.NewStore(db)
}

func ProvideAPIKeyStore(db *gorm.DB) *apikey.Store {
	return apikey.NewStore(db)
}

func ProvideSessionStore(redisClient *redis.Client) *session.Store {
	return session.NewStore(redisClient)
}

func ProvideFrameStore(redisClient *redis.Client, cfg *Config) *capture.FrameStore {
	return capture.NewFrameStore(redisClient, cfg.FrameTTL)
}

func ProvideContextStore(cfg *Config, logger *slog.Logger) *conversation.Store {
	return conversation.NewStore(cfg.ContextTTL, logger)
}

func RunMigrations(docStore *document.Store, faceStore *face.Store, apiKeyStore *apikey.Store) error {
	if err := docStore.Migrate(); err != nil {
		return err
	}
	if err := faceStore.Migrate(); err != nil {
		return err
	}
	return apiKeyStore.Migrate()
}

func EnsureCollections(lc fx.Lifecycle, docStore *document.Store, embedder embedding.Client) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return docStore.EnsureCollection(ctx, uint64(embedder.Dimensions()))
		},
	})
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideDocumentStore,
		ProvideFaceStore,
		ProvideAPIKeyStore,
		ProvideSessionStore,
		ProvideFrameStore,
		ProvideContextStore,
	),
	fx.Invoke(RunMigrations),
	fx.Invoke(EnsureCollections),
)
