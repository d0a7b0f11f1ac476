package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/criszst/neopdf-sub000/internal/model"
	"github.com/criszst/neopdf-sub000/internal/repository"
)

var activityCols = []string{"id", "type", "document_id", "owner_id", "details", "created_at"}

func sampleEvent(typ model.ActivityType) *model.ActivityEvent {
	docID := "11111111-1111-1111-1111-111111111111"
	return &model.ActivityEvent{
		ID:         "22222222-2222-2222-2222-222222222222",
		Type:       typ,
		DocumentID: &docID,
		OwnerID:    "user-1",
		CreatedAt:  time.Now().UTC(),
	}
}

func eventRow(ev *model.ActivityEvent) *sqlmock.Rows {
	return sqlmock.NewRows(activityCols).
		AddRow(ev.ID, ev.Type, ev.DocumentID, ev.OwnerID, ev.Details, ev.CreatedAt)
}

func TestActivityPostgres_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewActivityPostgres(db)
	ctx := context.Background()

	t.Run("audit only", func(t *testing.T) {
		ev := sampleEvent(model.ActivityUpload)

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO activities").
			WithArgs(ev.ID, ev.Type, ev.DocumentID, ev.OwnerID, ev.Details, ev.CreatedAt).
			WillReturnRows(eventRow(ev))
		mock.ExpectCommit()

		got, err := repo.Append(ctx, ev, repository.EffectNone)

		assert.NoError(t, err)
		assert.Equal(t, ev.ID, got.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("view effect increments counter in same tx", func(t *testing.T) {
		ev := sampleEvent(model.ActivityView)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE documents SET view_count = view_count \\+ 1, last_viewed_at = ?").
			WithArgs(*ev.DocumentID, ev.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO activities").
			WillReturnRows(eventRow(ev))
		mock.ExpectCommit()

		got, err := repo.Append(ctx, ev, repository.EffectView)

		assert.NoError(t, err)
		assert.Equal(t, model.ActivityView, got.Type)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("star effect", func(t *testing.T) {
		ev := sampleEvent(model.ActivityStar)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE documents SET is_starred = TRUE").
			WithArgs(*ev.DocumentID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO activities").
			WillReturnRows(eventRow(ev))
		mock.ExpectCommit()

		_, err := repo.Append(ctx, ev, repository.EffectStar)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("effect on missing document rolls back", func(t *testing.T) {
		ev := sampleEvent(model.ActivityView)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE documents SET view_count").
			WithArgs(*ev.DocumentID, ev.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		got, err := repo.Append(ctx, ev, repository.EffectView)

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure rolls back the effect", func(t *testing.T) {
		ev := sampleEvent(model.ActivityUnstar)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE documents SET is_starred = FALSE").
			WithArgs(*ev.DocumentID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO activities").
			WillReturnError(errors.New("insert failed"))
		mock.ExpectRollback()

		got, err := repo.Append(ctx, ev, repository.EffectUnstar)

		assert.Error(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("effect without document id is rejected", func(t *testing.T) {
		ev := sampleEvent(model.ActivityView)
		ev.DocumentID = nil

		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := repo.Append(ctx, ev, repository.EffectView)

		assert.Error(t, err)
	})
}

func TestActivityPostgres_ListRecent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewActivityPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM activities WHERE owner_id = ?").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	older := sampleEvent(model.ActivityUpload)
	newer := sampleEvent(model.ActivityView)
	newer.ID = "33333333-3333-3333-3333-333333333333"
	newer.CreatedAt = older.CreatedAt.Add(time.Minute)

	rows := sqlmock.NewRows(activityCols).
		AddRow(newer.ID, newer.Type, newer.DocumentID, newer.OwnerID, newer.Details, newer.CreatedAt).
		AddRow(older.ID, older.Type, older.DocumentID, older.OwnerID, older.Details, older.CreatedAt)

	mock.ExpectQuery("SELECT (.+) FROM activities\\s+WHERE owner_id = (.+) ORDER BY created_at DESC").
		WithArgs("user-1", 10, 0).
		WillReturnRows(rows)

	res, err := repo.ListRecent(ctx, "user-1", repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Items, 2)
	assert.True(t, res.Items[0].CreatedAt.After(res.Items[1].CreatedAt))
}

func TestActivityPostgres_CountByType(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewActivityPostgres(db)
	ctx := context.Background()
	since := time.Now().Add(-7 * 24 * time.Hour)

	rows := sqlmock.NewRows([]string{"type", "count"}).
		AddRow("UPLOAD", 3).
		AddRow("VIEW", 12)

	mock.ExpectQuery("SELECT type, COUNT\\(\\*\\)\\s+FROM activities").
		WithArgs("user-1", since).
		WillReturnRows(rows)

	counts, err := repo.CountByType(ctx, "user-1", since)

	assert.NoError(t, err)
	assert.Equal(t, 3, counts[model.ActivityUpload])
	assert.Equal(t, 12, counts[model.ActivityView])
	_, hasShare := counts[model.ActivityShare]
	assert.False(t, hasShare)
}
