package report

import (
	"errors"
	"strconv"

	"vehicle-tracker/core/logger"
	"vehicle-tracker/feature/ingest"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for reports.
type Handler struct {
	service *Service
	ingest  *ingest.Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, ingestSvc *ingest.Service) *Handler {
	return &Handler{service: service, ingest: ingestSvc}
}

// RegisterRoutes registers the report routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/stats", h.HandleStats)
	app.Get("/players/:steam_id", h.HandlePlayer)
	app.Get("/cars/:car_id", h.HandleCar)
	app.Get("/thefts", h.HandleThefts)
	app.Get("/unused", h.HandleUnused)
	app.Post("/sync", h.HandleSync)
}

// HandleStats returns the world summary.
func (h *Handler) HandleStats(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	stats, err := h.service.Stats(c.Context())
	if err != nil {
		l.Error("Stats query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(stats)
}

// HandlePlayer returns a player profile by Steam ID.
func (h *Handler) HandlePlayer(c *fiber.Ctx) error {
	steamID := c.Params("steam_id")
	l := logger.WithRayID(h.service.logger, c)

	profile, err := h.service.Player(c.Context(), steamID, pageParam(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		l.Error("Player query failed", zap.String("steam_id", steamID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(profile)
}

// HandleCar returns a car's history by its server-assigned id.
func (h *Handler) HandleCar(c *fiber.Ctx) error {
	carID := c.Params("car_id")
	l := logger.WithRayID(h.service.logger, c)

	history, err := h.service.Car(c.Context(), carID, pageParam(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		l.Error("Car query failed", zap.String("car_id", carID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(history)
}

// HandleThefts lists lock-tampering events.
func (h *Handler) HandleThefts(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	cases, err := h.service.TheftCases(c.Context(), pageParam(c))
	if err != nil {
		l.Error("Theft query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"cases": cases})
}

// HandleUnused lists cars idle beyond the configured limit.
func (h *Handler) HandleUnused(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	cars, err := h.service.LongUnused(c.Context())
	if err != nil {
		l.Error("Unused query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"cars": cars})
}

// HandleSync runs an ingestion pass and reports its outcome.
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.ingest.Run(c.Context())
	if err != nil {
		l.Error("Sync run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(report)
	}

	l.Info("Sync run finished",
		zap.String("run_id", report.RunID),
		zap.Int("units_processed", report.UnitsProcessed))
	return c.JSON(report)
}

func pageParam(c *fiber.Ctx) int {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
