package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPostgres_FindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT id, email, name FROM users WHERE email = ?").
		WithArgs("system@sikap.local").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name"}).AddRow("u-1", "system@sikap.local", "System"))

	u, err := repo.FindByEmail(ctx, "system@sikap.local")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)

	mock.ExpectQuery("SELECT id, email, name FROM users").
		WithArgs("nobody@sikap.local").
		WillReturnError(sql.ErrNoRows)

	u, err = repo.FindByEmail(ctx, "nobody@sikap.local")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}
