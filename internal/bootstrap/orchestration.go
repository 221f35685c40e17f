package bootstrap

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/eleven-am/sight-backend/internal/capture"
	"github.com/eleven-am/sight-backend/internal/conversation"
	"github.com/eleven-am/sight-backend/internal/document"
	"github.com/eleven-am/sight-backend/internal/embedding"
	"github.com/eleven-am/sight-backend/internal/emergency"
	"github.com/eleven-am/sight-backend/internal/face"
	"github.com/eleven-am/sight-backend/internal/intent"
	"github.com/eleven-am/sight-backend/internal/retrieval"
	"github.com/eleven-am/sight-backend/internal/session"
	"github.com/eleven-am/sight-backend/internal/video"
	"go.uber.org/fx"
)

func ProvideCaptureManager(logger *slog.Logger) *capture.Manager {
	return capture.NewManager(logger)
}

func ProvideDevices(cfg *Config, logger *slog.Logger) *capture.Devices {
	return capture.NewDevices(capture.DeviceConfig{
		CameraBaseURL: cfg.CameraBaseURL,
		ServoBaseURL:  cfg.ServoBaseURL,
	}, logger)
}

func ProvideIntentRouter(logger *slog.Logger) *intent.Router {
	return intent.NewRouter(logger)
}

func ProvideIngestor(cfg *Config, embedder embedding.Client, docStore *document.Store, logger *slog.Logger) *document.Ingestor {
	chunker := document.NewChunker(cfg.ChunkTarget, cfg.ChunkOverlap)
	return document.NewIngestor(chunker, embedder, docStore, logger)
}

func ProvideRetrievalEngine(cfg *Config, embedder embedding.Client, docStore *document.Store, synth *retrieval.GeminiSynthesizer, logger *slog.Logger) *retrieval.Engine {
	return retrieval.NewEngine(embedder, docStore, synth, retrieval.Config{
		TopK:         cfg.RetrievalTopK,
		MinScore:     cfg.RetrievalMinScore,
		HistoryTurns: cfg.QAHistoryTurns,
	}, logger)
}

func ProvideFaceRegistry(store *face.Store, cfg *Config, logger *slog.Logger) *face.Registry {
	return face.NewRegistry(store, cfg.FaceImageDir, logger)
}

func ProvideEmergencyDispatcher(cfg *Config, logger *slog.Logger) *emergency.Dispatcher {
	transport := emergency.NewSMSTransport(emergency.SMSConfig{
		AccountSID: cfg.SMSAccountSID,
		AuthToken:  cfg.SMSAuthToken,
		BaseURL:    cfg.SMSBaseURL,
		From:       cfg.EmergencySMSFrom,
		To:         cfg.EmergencySMSTo,
	})
	locator := emergency.NewIPLocator("", cfg.IPInfoToken)
	return emergency.NewDispatcher(transport, locator, logger)
}

func ProvidePubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
}

func ProvideVideoCollector() *video.Collector {
	return video.NewCollector()
}

func ProvideVideoSampler(leases *capture.Manager, devices *capture.Devices, pubsub *gochannel.GoChannel, cfg *Config, logger *slog.Logger) *video.Sampler {
	return video.NewSampler(leases, devices, pubsub, cfg.VideoSampleInterval, logger)
}

func ProvideVideoDescriber(pubsub *gochannel.GoChannel, adapters *Adapters, collector *video.Collector, logger *slog.Logger) *video.Describer {
	return video.NewDescriber(pubsub, adapters.ByKind[intent.KindScene], collector, logger)
}

// StartVideoPipeline runs the frame describer for the process lifetime
// and tears the sampling side down on shutdown.
func StartVideoPipeline(lc fx.Lifecycle, describer *video.Describer, sampler *video.Sampler, pubsub *gochannel.GoChannel) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go describer.Run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			sampler.StopAll()
			cancel()
			return pubsub.Close()
		},
	})
}

func ProvideSessionManager(
	cfg *Config,
	leases *capture.Manager,
	devices *capture.Devices,
	frames *capture.FrameStore,
	ctxStore *conversation.Store,
	router *intent.Router,
	adapters *Adapters,
	faces *face.Registry,
	engine *retrieval.Engine,
	sos *emergency.Dispatcher,
	sampler *video.Sampler,
	collector *video.Collector,
	records *session.Store,
	logger *slog.Logger,
) *session.Manager {
	deps := session.Deps{
		Leases:      leases,
		Camera:      devices,
		Frames:      frames,
		Context:     ctxStore,
		Router:      router,
		Adapters:    adapters.ByKind,
		FollowUp:    adapters.FollowUp,
		Faces:       faces,
		Engine:      engine,
		SOS:         sos,
		Video:       sampler,
		Report:      collector,
		AcquireWait: cfg.AcquireTimeout,
	}
	return session.NewManager(deps, records, logger)
}

func CloseSessionsOnShutdown(lc fx.Lifecycle, sessions *session.Manager) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sessions.CloseAll(ctx)
			return nil
		},
	})
}

var OrchestrationModule = fx.Options(
	fx.Provide(
		ProvideCaptureManager,
		ProvideDevices,
		ProvideIntentRouter,
		ProvideIngestor,
		ProvideRetrievalEngine,
		ProvideFaceRegistry,
		ProvideEmergencyDispatcher,
		ProvidePubSub,
		ProvideVideoCollector,
		ProvideVideoSampler,
		ProvideVideoDescriber,
		ProvideSessionManager,
	),
	fx.Invoke(StartVideoPipeline),
	fx.Invoke(CloseSessionsOnShutdown),
)
