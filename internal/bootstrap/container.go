package bootstrap

import (
	"log"

	"mythos-curation-be/internal/config"
	"mythos-curation-be/internal/controller"
	"mythos-curation-be/internal/handler"
	"mythos-curation-be/internal/pkg/logger"
	"mythos-curation-be/internal/repository/memory"
	"mythos-curation-be/internal/service"
	"mythos-curation-be/internal/websocket"
	"mythos-curation-be/pkg/corpus"
	"mythos-curation-be/pkg/llm/factory"

	pktNats "mythos-curation-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// CurationEventsTopic is the in-process bus topic every curation event
// flows through; the websocket hub consumes it on the other end.
const CurationEventsTopic = "CURATION_EVENTS"

type Container struct {
	// Controllers
	CurationController controller.ICurationController

	// WebSockets
	CurationEventHandler *handler.CurationEventHandler
	WebSocketHub         *websocket.Hub
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Domain Data
	gallery, err := corpus.Load()
	if err != nil {
		log.Fatalf("[FATAL] Failed to load artwork corpus: %v", err)
	}
	log.Printf("[INFO] Loaded artwork corpus: %d works (centuries %d-%d)", gallery.Len(), gallery.MinCentury(), gallery.MaxCentury())

	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.BaseURL,
		factory.Keys{
			HuggingFace:  cfg.Keys.HuggingFace,
			GoogleGemini: cfg.Keys.GoogleGemini,
		},
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Initialize In-Memory Session Storage
	sessionRepo := memory.NewSessionRepository()

	// 3.5 Infrastructure
	// NATS (optional mirror of the in-process bus; the app runs fine without it)
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/curation_events.log")
	wsHub := websocket.NewHub(pubSub, CurationEventsTopic, wsLogger)
	go wsHub.Run()

	publisherService := service.NewPublisherService(CurationEventsTopic, pubSub)

	curationService := service.NewCurationService(
		gallery,
		llmProvider,
		sessionRepo,
		publisherService,
		natsPub,
		sysLogger,
		cfg.Ai.CollaboratorTimeout,
	)

	// Handler
	eventHandler := handler.NewCurationEventHandler(curationService, publisherService, wsHub, wsLogger)

	// 4. Controllers
	return &Container{
		CurationController:   controller.NewCurationController(curationService),
		CurationEventHandler: eventHandler,
		WebSocketHub:         wsHub,
	}
}
