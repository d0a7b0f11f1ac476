package model

import "time"

// ActivityType enumerates the recognized kinds of activity events.
type ActivityType string

const (
	ActivityUpload   ActivityType = "UPLOAD"
	ActivityView     ActivityType = "VIEW"
	ActivityDownload ActivityType = "DOWNLOAD"
	ActivityDelete   ActivityType = "DELETE"
	ActivityStar     ActivityType = "STAR"
	ActivityUnstar   ActivityType = "UNSTAR"
	ActivityShare    ActivityType = "SHARE"
)

// ActivityTypes lists every recognized activity type, in declaration order.
var ActivityTypes = []ActivityType{
	ActivityUpload,
	ActivityView,
	ActivityDownload,
	ActivityDelete,
	ActivityStar,
	ActivityUnstar,
	ActivityShare,
}

// Valid reports whether t is a recognized activity type.
func (t ActivityType) Valid() bool {
	for _, known := range ActivityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ActivityEvent is one append-only entry in the activity ledger.
// Rows are never updated or deleted once written; DocumentID is a weak
// reference and becomes nil when the referenced document is removed.
type ActivityEvent struct {
	ID         string       `json:"id"`
	Type       ActivityType `json:"type"`
	DocumentID *string      `json:"document_id"`
	OwnerID    string       `json:"owner_id"`
	Details    *string      `json:"details"`
	CreatedAt  time.Time    `json:"created_at"`
}
