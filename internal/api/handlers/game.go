package handlers

import (
	"errors"
	"log"

	"backend/internal/game"
	"backend/internal/models"
	"backend/internal/service"
	ws "backend/internal/websocket"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

// GameHandler handles HTTP requests for the game state API
type GameHandler struct {
	service   *service.GameService
	hub       *ws.Hub
	validator *validator.Validate
}

// NewGameHandler creates a new game handler
func NewGameHandler(service *service.GameService, hub *ws.Hub) *GameHandler {
	return &GameHandler{
		service:   service,
		hub:       hub,
		validator: validator.New(),
	}
}

// Purify handles POST /api/purify
// @Summary Apply a purification event
// @Description Updates city brightness, player progress, stats and leaderboard
// @Accept json
// @Produce json
// @Param request body models.PurifyRequest true "Purification event"
// @Success 200 {object} models.PurifyResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/purify [post]
func (h *GameHandler) Purify(c *fiber.Ctx) error {
	var req models.PurifyRequest

	// Parse request body
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors validator.ValidationErrors
		errors.As(err, &validationErrors)
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid request",
			Message: validationErrors.Error(),
		})
	}

	resp, err := h.service.Purify(c.Context(), &req)
	if err != nil {
		return h.gameError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// Status handles GET /api/status
// @Summary World status
// @Description Returns every city's brightness and the global average
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/status [get]
func (h *GameHandler) Status(c *fiber.Ctx) error {
	resp, err := h.service.Status(c.Context())
	if err != nil {
		return h.gameError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// Stats handles GET /api/stats
// @Summary Global statistics
// @Produce json
// @Success 200 {object} models.StatsResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/stats [get]
func (h *GameHandler) Stats(c *fiber.Ctx) error {
	resp, err := h.service.Stats(c.Context())
	if err != nil {
		return h.gameError(c, err)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=30")
	return c.Status(fiber.StatusOK).JSON(resp)
}

// Leaderboard handles GET /api/leaderboard
// @Summary Global leaderboard
// @Description Top players ranked by total energy, then cities purified
// @Produce json
// @Success 200 {object} models.LeaderboardResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/leaderboard [get]
func (h *GameHandler) Leaderboard(c *fiber.Ctx) error {
	resp, err := h.service.Leaderboard(c.Context())
	if err != nil {
		return h.gameError(c, err)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=60")
	return c.Status(fiber.StatusOK).JSON(resp)
}

// Init handles POST /api/init
// @Summary Initialize game state
// @Description Writes the initial world records; refuses to overwrite
// @Produce json
// @Success 200 {object} models.InitResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/init [post]
func (h *GameHandler) Init(c *fiber.Ctx) error {
	resp, err := h.service.Initialize(c.Context())
	if err != nil {
		return h.gameError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// Analytics handles POST /api/analytics
// @Summary Record client analytics events
// @Accept json
// @Produce json
// @Param request body models.AnalyticsRequest true "Analytics batch"
// @Success 200 {object} models.AnalyticsResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/analytics [post]
func (h *GameHandler) Analytics(c *fiber.Ctx) error {
	var req models.AnalyticsRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors validator.ValidationErrors
		errors.As(err, &validationErrors)
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid request",
			Message: validationErrors.Error(),
		})
	}

	processed, err := h.service.RecordAnalytics(c.Context(), &req)
	if err != nil {
		return h.gameError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(models.AnalyticsResponse{
		Success:         true,
		Message:         "Analytics data received",
		EventsProcessed: processed,
	})
}

// HealthCheck handles GET /api/health
// @Summary Health check
// @Description Checks the health of the service and its dependencies
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} models.ErrorResponse
// @Router /api/health [get]
func (h *GameHandler) HealthCheck(c *fiber.Ctx) error {
	if err := h.service.HealthCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error:   "Health check failed",
			Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "healthy",
		"message": "All systems operational",
	})
}

// HandleWebSocket upgrades a connection into the version-update feed
func (h *GameHandler) HandleWebSocket(conn *fiberws.Conn) {
	ws.ServeWS(h.hub, conn)
}

// gameError maps engine sentinels to HTTP statuses. Unexpected failures
// surface as a generic 500 with no internal detail leaked to the client.
func (h *GameHandler) gameError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, game.ErrNotInitialized):
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error:   "NOT_INITIALIZED",
			Message: "Game state not initialized. Call /api/init first.",
		})
	case errors.Is(err, game.ErrCityNotFound):
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error: "City not found",
		})
	default:
		log.Printf("❌ %s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error: "Internal Server Error",
		})
	}
}
