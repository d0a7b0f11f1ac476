package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/criszst/neopdf-sub000/internal/model"
	"github.com/criszst/neopdf-sub000/internal/repository"
)

const activityColumns = "id, type, document_id, owner_id, details, created_at"

// ActivityPostgres is a PostgreSQL implementation of repository.ActivityRepository.
// The activities table is append-only: this type exposes no update or delete.
type ActivityPostgres struct {
	db *sql.DB
}

// NewActivityPostgres creates a new ActivityPostgres repository.
func NewActivityPostgres(db *sql.DB) *ActivityPostgres {
	return &ActivityPostgres{db: db}
}

var _ repository.ActivityRepository = (*ActivityPostgres)(nil)

// Append inserts the activity row and applies the document side effect in one
// transaction, so no audit entry can exist for a side effect that did not
// apply, and vice versa.
func (r *ActivityPostgres) Append(ctx context.Context, ev *model.ActivityEvent, effect repository.DocumentEffect) (*model.ActivityEvent, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if effect != repository.EffectNone {
		if ev.DocumentID == nil {
			return nil, fmt.Errorf("document effect requires a document id")
		}
		if err := applyEffect(ctx, tx, effect, *ev.DocumentID, ev.CreatedAt); err != nil {
			return nil, err
		}
	}

	const q = `
		INSERT INTO activities (id, type, document_id, owner_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + activityColumns
	row := tx.QueryRowContext(ctx, q,
		ev.ID,
		ev.Type,
		ev.DocumentID,
		ev.OwnerID,
		ev.Details,
		ev.CreatedAt,
	)
	var out model.ActivityEvent
	if err := row.Scan(
		&out.ID,
		&out.Type,
		&out.DocumentID,
		&out.OwnerID,
		&out.Details,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &out, nil
}

func applyEffect(ctx context.Context, tx *sql.Tx, effect repository.DocumentEffect, documentID string, at time.Time) error {
	var q string
	args := []any{documentID}
	switch effect {
	case repository.EffectView:
		q = `UPDATE documents SET view_count = view_count + 1, last_viewed_at = $2 WHERE id = $1`
		args = append(args, at)
	case repository.EffectStar:
		q = `UPDATE documents SET is_starred = TRUE WHERE id = $1`
	case repository.EffectUnstar:
		q = `UPDATE documents SET is_starred = FALSE WHERE id = $1`
	default:
		return fmt.Errorf("unknown document effect %d", effect)
	}

	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListRecent returns an owner's activity entries, newest first.
func (r *ActivityPostgres) ListRecent(ctx context.Context, ownerID string, pq repository.PageQuery) (*repository.PageResult[model.ActivityEvent], error) {
	const qCount = `SELECT COUNT(*) FROM activities WHERE owner_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, ownerID).Scan(&total); err != nil {
		return nil, err
	}

	const q = `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, q, ownerID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ActivityEvent, 0)
	for rows.Next() {
		var ev model.ActivityEvent
		if err := rows.Scan(
			&ev.ID,
			&ev.Type,
			&ev.DocumentID,
			&ev.OwnerID,
			&ev.Details,
			&ev.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.ActivityEvent]{
		Items: items,
		Total: total,
	}, nil
}

// CountByType aggregates an owner's activity counts per type since the cutoff.
func (r *ActivityPostgres) CountByType(ctx context.Context, ownerID string, since time.Time) (map[model.ActivityType]int, error) {
	const q = `
		SELECT type, COUNT(*)
		FROM activities
		WHERE owner_id = $1 AND created_at >= $2
		GROUP BY type
	`
	rows, err := r.db.QueryContext(ctx, q, ownerID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.ActivityType]int)
	for rows.Next() {
		var typ model.ActivityType
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		counts[typ] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
