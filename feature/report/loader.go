package report

import (
	"vehicle-tracker/feature/ingest"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates a new Report feature.
func NewFeature(db *gorm.DB, logger *zap.Logger, policy ingest.Config, ingestSvc *ingest.Service) *Feature {
	svc := NewService(db, logger, policy)
	h := NewHandler(svc, ingestSvc)
	return &Feature{service: svc, handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "report"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
