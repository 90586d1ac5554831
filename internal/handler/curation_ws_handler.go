package handler

import (
	"time"

	"mythos-curation-be/internal/pkg/logger"
	"mythos-curation-be/internal/service"
	internalWS "mythos-curation-be/internal/websocket"
	"mythos-curation-be/pkg/events"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// CurationEventHandler exposes the live event channel for a curation session.
// Clients connect once per session and receive every state transition,
// exhibition-ready and analysis update as the background flow progresses.
type CurationEventHandler struct {
	service   service.ICurationService
	publisher service.IPublisherService
	hub       *internalWS.Hub
	logger    logger.ILogger
}

func NewCurationEventHandler(service service.ICurationService, pub service.IPublisherService, hub *internalWS.Hub, log logger.ILogger) *CurationEventHandler {
	return &CurationEventHandler{
		service:   service,
		publisher: pub,
		hub:       hub,
		logger:    log,
	}
}

// ServeWs handles websocket requests from the peer.
func (h *CurationEventHandler) ServeWs(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing session id"})
	}

	// Reject handshakes for sessions that were never created; the socket
	// would otherwise sit idle forever waiting for events that never come.
	if _, err := h.service.GetSession(c.Context(), sessionID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown session"})
	}

	// Upgrade via Fiber WebSocket Middleware
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("CurationEventHandler", "Starting WebSocket session", map[string]interface{}{"session_id": sessionID})
			internalWS.ServeWs(h.hub, conn, sessionID)
			h.logger.Info("CurationEventHandler", "WebSocket session ended", map[string]interface{}{"session_id": sessionID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// DebugTriggerEvent pushes a synthetic event through the bus to verify the
// websocket delivery path end to end.
func (h *CurationEventHandler) DebugTriggerEvent(c *fiber.Ctx) error {
	type Request struct {
		Type      string                 `json:"type"`
		SessionID string                 `json:"session_id"`
		Payload   map[string]interface{} `json:"payload"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.Type == "" {
		req.Type = "TEST_EVENT"
	}
	if req.Payload == nil {
		req.Payload = make(map[string]interface{})
	}
	if req.SessionID != "" {
		req.Payload["session_id"] = req.SessionID
	}

	evt := events.BaseEvent{
		Type:       req.Type,
		Data:       req.Payload,
		OccurredAt: time.Now(),
	}

	if err := h.publisher.PublishEvent(c.UserContext(), evt); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"status": "Event Published", "event": evt})
}

// RegisterRoutes registers the live event routes.
func (h *CurationEventHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/curation/:sessionId", h.ServeWs)

	debug := router.Group("/debug")
	debug.Post("/trigger-event", h.DebugTriggerEvent)
}
