package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"sikap/internal/model"
	"sikap/internal/repository"
)

// ApplicationPostgres reads applications joined with their cooperation type.
type ApplicationPostgres struct {
	db *sql.DB
}

func NewApplicationPostgres(db *sql.DB) *ApplicationPostgres {
	return &ApplicationPostgres{db: db}
}

var _ repository.ApplicationRepository = (*ApplicationPostgres)(nil)

// FindWithRequiredDocuments loads the application and decodes the
// cooperation type's required_documents JSON into typed records.
func (r *ApplicationPostgres) FindWithRequiredDocuments(ctx context.Context, id string) (*model.Application, error) {
	const q = `
		SELECT a.id, a.cooperation_type_id, ct.name, ct.required_documents
		FROM applications a
		JOIN cooperation_types ct ON ct.id = a.cooperation_type_id
		WHERE a.id = $1
	`
	var (
		app model.Application
		raw []byte
	)
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&app.ID,
		&app.CooperationTypeID,
		&app.CooperationTypeName,
		&raw,
	); err != nil {
		return nil, err
	}

	docs, err := ParseRequiredDocuments(raw)
	if err != nil {
		return nil, fmt.Errorf("cooperation type %s: %w", app.CooperationTypeID, err)
	}
	app.RequiredDocuments = docs
	return &app, nil
}

// ParseRequiredDocuments decodes and validates a required-documents JSON
// array. NULL or empty input yields an empty list.
func ParseRequiredDocuments(raw []byte) ([]model.RequiredDocument, error) {
	docs := make([]model.RequiredDocument, 0)
	if len(strings.TrimSpace(string(raw))) == 0 || string(raw) == "null" {
		return docs, nil
	}
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode required documents: %w", err)
	}

	seen := make(map[string]struct{}, len(docs))
	for i, d := range docs {
		if strings.TrimSpace(d.Key) == "" {
			return nil, fmt.Errorf("required document %d has an empty key", i)
		}
		if _, dup := seen[d.Key]; dup {
			return nil, fmt.Errorf("required document key %q is repeated", d.Key)
		}
		seen[d.Key] = struct{}{}
	}
	return docs, nil
}
