package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"sikap/internal/model"
	"sikap/internal/repository"
)

// ActivityPostgres appends rows to activity_logs. Rows are never updated.
type ActivityPostgres struct {
	db *sql.DB
}

func NewActivityPostgres(db *sql.DB) *ActivityPostgres {
	return &ActivityPostgres{db: db}
}

var _ repository.ActivityRepository = (*ActivityPostgres)(nil)

func (r *ActivityPostgres) Record(ctx context.Context, entry *model.ActivityLog) error {
	const q = `
		INSERT INTO activity_logs (id, user_id, action, target_type, target_id, details, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9)
	`
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	details := string(entry.Details)
	if details == "" {
		details = "{}"
	}
	_, err := r.db.ExecContext(ctx, q,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.TargetType,
		entry.TargetID,
		details,
		entry.IPAddress,
		entry.UserAgent,
		entry.CreatedAt,
	)
	return err
}
