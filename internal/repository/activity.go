package repository

import (
	"context"
	"time"

	"github.com/criszst/neopdf-sub000/internal/model"
)

// DocumentEffect names the document mutation applied together with an
// activity insert. The ledger itself is append-only; these are the only
// document writes that accompany it.
type DocumentEffect int

const (
	EffectNone DocumentEffect = iota
	// EffectView increments view_count and stamps last_viewed_at.
	EffectView
	// EffectStar sets is_starred true.
	EffectStar
	// EffectUnstar sets is_starred false.
	EffectUnstar
)

// ActivityRepository is the persistence side of the activity ledger.
// There are deliberately no update or delete operations: rows are immutable
// once appended.
type ActivityRepository interface {
	// Append inserts the activity row and, when effect is not EffectNone,
	// applies the document mutation in the same transaction. Either both
	// writes commit or neither does.
	Append(ctx context.Context, ev *model.ActivityEvent, effect DocumentEffect) (*model.ActivityEvent, error)

	// ListRecent returns an owner's activity entries in reverse
	// chronological order.
	ListRecent(ctx context.Context, ownerID string, pq PageQuery) (*PageResult[model.ActivityEvent], error)

	// CountByType returns per-type activity counts for an owner since the
	// given cutoff. Types with no entries are absent from the map.
	CountByType(ctx context.Context, ownerID string, since time.Time) (map[model.ActivityType]int, error)
}
