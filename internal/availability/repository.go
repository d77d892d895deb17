package availability

import (
	"context"

	"github.com/google/uuid"
)

// Repository contains all DB interactions needed by the availability service.
type Repository interface {
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Availability, error)
	ListActive(ctx context.Context) ([]Availability, error)
	Upsert(ctx context.Context, doctorID uuid.UUID, dayOfWeek int, w Window) (*Availability, error)
}
