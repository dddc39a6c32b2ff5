package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/dto"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/middleware"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/service"
	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/utils"
)

// InterviewHandler wires the interview websocket and session inspection endpoints.
type InterviewHandler struct {
	service   service.InterviewService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewInterviewHandler creates an interview handler instance.
func NewInterviewHandler(service service.InterviewService, validator *validator.Validate, logger zerolog.Logger) *InterviewHandler {
	return &InterviewHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "interview_handler").Logger(),
	}
}

// RegisterWebsocket binds the websocket upgrade route under the provided router.
func (h *InterviewHandler) RegisterWebsocket(router fiber.Router) {
	router.Get("/:session_id", h.upgrade, websocket.New(h.handleConnection))
}

// RegisterSessions binds the session inspection routes under the provided router.
func (h *InterviewHandler) RegisterSessions(router fiber.Router) {
	router.Get("/:session_id", h.session)
	router.Get("/:session_id/history", h.history)
}

func (h *InterviewHandler) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	sessionID, err := h.sessionID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid session id")
	}

	c.Locals("request_ctx", requestContext(c))
	c.Locals("session_id", sessionID)
	return c.Next()
}

func (h *InterviewHandler) handleConnection(conn *websocket.Conn) {
	sessionID, _ := conn.Locals("session_id").(string)
	correlation, _ := conn.Locals("correlation_id").(string)
	baseCtx, _ := conn.Locals("request_ctx").(context.Context)

	opts := service.InterviewConnectionOptions{
		SessionID:     sessionID,
		CorrelationID: correlation,
		Context:       baseCtx,
	}

	h.logger.Info().Str("session_id", sessionID).Msg("interview websocket connected")
	h.service.ServeConnection(conn, opts)
	h.logger.Info().Str("session_id", sessionID).Msg("interview websocket disconnected")
}

func (h *InterviewHandler) session(c *fiber.Ctx) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid session id")
	}

	resp, err := h.service.Session(requestContext(c), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "session not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Str("session_id", sessionID).Msg("failed to load session")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load session")
	}

	return utils.SendSuccess(c, "session retrieved", resp)
}

func (h *InterviewHandler) history(c *fiber.Ctx) error {
	sessionID, err := h.sessionID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid session id")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	entries, err := h.service.History(requestContext(c), sessionID, limit)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrArchiveDisabled):
			return utils.SendError(c, fiber.StatusNotFound, "session history is not enabled")
		case errors.Is(err, service.ErrSessionNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "session not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Str("session_id", sessionID).Msg("failed to load session history")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load session history")
	}

	return utils.SendSuccess(c, "session history", entries)
}

func (h *InterviewHandler) sessionID(c *fiber.Ctx) (string, error) {
	lookup := dto.SessionLookup{SessionID: strings.TrimSpace(utils.CopyParam(c, "session_id"))}
	if err := h.validator.Struct(lookup); err != nil {
		return "", err
	}
	return lookup.SessionID, nil
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}
