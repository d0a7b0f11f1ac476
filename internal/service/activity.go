package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/criszst/neopdf-sub000/internal/model"
	"github.com/criszst/neopdf-sub000/internal/repository"
)

var (
	ErrInvalidActivityType = errors.New("invalid activity type")
	ErrNotAuthorized       = errors.New("document is owned by another user")
)

// ActivityListResult is the service-level DTO for paginated activity entries.
type ActivityListResult struct {
	Items []model.ActivityEvent `json:"data"`
	Total int                   `json:"total"`
}

// ActivityRecorder appends immutable audit entries and applies the
// deterministic side effects tied to specific event types.
type ActivityRecorder interface {
	// Record validates the event, applies any document side effect
	// atomically with the audit insert, and returns the stored entry.
	// documentID and details may be empty.
	Record(ctx context.Context, typ model.ActivityType, ownerID, documentID, details string) (*model.ActivityEvent, error)

	// Recent returns the owner's activity in reverse chronological order.
	Recent(ctx context.Context, ownerID string, limit, offset int) (*ActivityListResult, error)

	// Stats returns per-type activity counts over the trailing window.
	Stats(ctx context.Context, ownerID string, window time.Duration) (map[model.ActivityType]int, error)
}

type activityRecorder struct {
	activities repository.ActivityRepository
	documents  repository.DocumentRepository
	now        func() time.Time
}

// NewActivityRecorder constructs an ActivityRecorder.
func NewActivityRecorder(activities repository.ActivityRepository, documents repository.DocumentRepository) ActivityRecorder {
	return &activityRecorder{
		activities: activities,
		documents:  documents,
		now:        time.Now,
	}
}

func (s *activityRecorder) Record(ctx context.Context, typ model.ActivityType, ownerID, documentID, details string) (*model.ActivityEvent, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidActivityType, typ)
	}
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}

	effect := repository.EffectNone
	var docID *string
	if documentID != "" {
		doc, err := s.documents.FindByID(ctx, documentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if doc.OwnerID != ownerID {
			return nil, ErrNotAuthorized
		}
		docID = &documentID
		effect = effectFor(typ)
	}

	var detailsPtr *string
	if details != "" {
		detailsPtr = &details
	}

	ev := &model.ActivityEvent{
		ID:         uuid.New().String(),
		Type:       typ,
		DocumentID: docID,
		OwnerID:    ownerID,
		Details:    detailsPtr,
		CreatedAt:  s.now().UTC(),
	}

	stored, err := s.activities.Append(ctx, ev, effect)
	if err != nil {
		// The document can disappear between the ownership check and the
		// side-effect update; Append surfaces that as no rows.
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return stored, nil
}

// effectFor maps event types onto their document mutation. STAR and UNSTAR
// are idempotent flag writes; VIEW bumps the monotonic counter. Everything
// else is audit-only.
func effectFor(typ model.ActivityType) repository.DocumentEffect {
	switch typ {
	case model.ActivityView:
		return repository.EffectView
	case model.ActivityStar:
		return repository.EffectStar
	case model.ActivityUnstar:
		return repository.EffectUnstar
	default:
		return repository.EffectNone
	}
}

func (s *activityRecorder) Recent(ctx context.Context, ownerID string, limit, offset int) (*ActivityListResult, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.activities.ListRecent(ctx, ownerID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ActivityListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *activityRecorder) Stats(ctx context.Context, ownerID string, window time.Duration) (map[model.ActivityType]int, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	return s.activities.CountByType(ctx, ownerID, s.now().UTC().Add(-window))
}
