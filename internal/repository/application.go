package repository

import (
	"context"

	"sikap/internal/model"
)

// ApplicationRepository reads cooperation applications.
type ApplicationRepository interface {
	// FindWithRequiredDocuments loads an application together with the
	// required-document list of its cooperation type. Missing rows yield sql.ErrNoRows.
	FindWithRequiredDocuments(ctx context.Context, id string) (*model.Application, error)
}
