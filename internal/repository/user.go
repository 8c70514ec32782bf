package repository

import (
	"context"

	"sikap/internal/model"
)

type UserRepository interface {
	// FindByEmail returns the user with the given email, or sql.ErrNoRows.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}
