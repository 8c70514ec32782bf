package repository

import (
	"context"

	"sikap/internal/model"
)

// ActivityRepository is the append-only audit sink.
type ActivityRepository interface {
	Record(ctx context.Context, entry *model.ActivityLog) error
}
