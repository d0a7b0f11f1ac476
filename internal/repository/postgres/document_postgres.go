package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/criszst/neopdf-sub000/internal/model"
	"github.com/criszst/neopdf-sub000/internal/repository"
)

const documentColumns = "id, name, content_fingerprint, storage_key, size_bytes, content_type, owner_id, is_starred, view_count, last_viewed_at, created_at"

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// Create inserts a new document row and returns the stored record.
// A unique violation on the fingerprint index is translated to
// repository.ErrDuplicateFingerprint so the service layer can resolve
// concurrent uploads of identical content.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, name, content_fingerprint, storage_key, size_bytes, content_type, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Name,
		doc.Fingerprint,
		doc.StorageKey,
		doc.SizeBytes,
		doc.ContentType,
		doc.OwnerID,
		doc.CreatedAt,
	)
	out, err := scanDocument(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicateFingerprint
		}
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// FindByFingerprint fetches the canonical document for a fingerprint.
// An empty ownerID performs a global lookup.
func (r *DocumentPostgres) FindByFingerprint(ctx context.Context, fingerprint, ownerID string) (*model.Document, error) {
	if ownerID == "" {
		const q = `
			SELECT ` + documentColumns + `
			FROM documents
			WHERE content_fingerprint = $1
			ORDER BY created_at ASC
			LIMIT 1
		`
		return scanDocument(r.db.QueryRowContext(ctx, q, fingerprint))
	}
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE content_fingerprint = $1 AND owner_id = $2
		LIMIT 1
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, fingerprint, ownerID))
}

// List returns an owner's documents with optional starred filter and sort,
// using LIMIT/OFFSET pagination plus a total count.
func (r *DocumentPostgres) List(ctx context.Context, f repository.ListFilter) (*repository.PageResult[model.Document], error) {
	where := "WHERE owner_id = $1"
	if f.StarredOnly {
		where += " AND is_starred"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents "+where, f.OwnerID).Scan(&total); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`
		SELECT %s
		FROM documents
		%s
		ORDER BY %s
		LIMIT $2 OFFSET $3
	`, documentColumns, where, orderClause(f.Sort))

	rows, err := r.db.QueryContext(ctx, q, f.OwnerID, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(
			&d.ID,
			&d.Name,
			&d.Fingerprint,
			&d.StorageKey,
			&d.SizeBytes,
			&d.ContentType,
			&d.OwnerID,
			&d.IsStarred,
			&d.ViewCount,
			&d.LastViewedAt,
			&d.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// orderClause maps the whitelisted sort names onto ORDER BY expressions.
// Unknown values fall back to recency.
func orderClause(sort string) string {
	switch sort {
	case repository.SortName:
		return "name ASC, id ASC"
	case repository.SortViews:
		return "view_count DESC, created_at DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

func scanDocument(row *sql.Row) (*model.Document, error) {
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Fingerprint,
		&d.StorageKey,
		&d.SizeBytes,
		&d.ContentType,
		&d.OwnerID,
		&d.IsStarred,
		&d.ViewCount,
		&d.LastViewedAt,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
