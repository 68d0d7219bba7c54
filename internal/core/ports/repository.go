package ports

import (
	"context"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
)

// DriftRepository persists drift reports. GetByID returns domain.ErrNotFound
// for an unknown id.
type DriftRepository interface {
	Save(ctx context.Context, r domain.DriftReport) error
	GetByID(ctx context.Context, id string) (domain.DriftReport, error)
	List(ctx context.Context, limit int) ([]domain.DriftReport, error)
}
