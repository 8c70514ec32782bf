package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sikap/internal/model"
)

func TestActivityPostgres_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewActivityPostgres(db)
	ctx := context.Background()

	t.Run("fills id and timestamp", func(t *testing.T) {
		entry := &model.ActivityLog{
			UserID:     "u-1",
			Action:     model.ActivityActionUpload,
			TargetType: model.ActivityTargetDocument,
			TargetID:   "doc-1",
			IPAddress:  "203.0.113.7",
			UserAgent:  "curl/8.0",
		}
		mock.ExpectExec("INSERT INTO activity_logs").
			WithArgs(sqlmock.AnyArg(), "u-1", "UPLOAD", "document", "doc-1", "{}", "203.0.113.7", "curl/8.0", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Record(ctx, entry))
		assert.NotEmpty(t, entry.ID)
		assert.False(t, entry.CreatedAt.IsZero())
	})

	t.Run("propagates errors", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO activity_logs").WillReturnError(errors.New("disk full"))

		err := repo.Record(ctx, &model.ActivityLog{Action: model.ActivityActionUpload})
		assert.EqualError(t, err, "disk full")
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}
