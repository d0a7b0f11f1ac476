package model

import "time"

// Document represents the metadata record for a stored PDF.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
//
// Fingerprint is the SHA-256 hex digest of the file's bytes and doubles as the
// deduplication key: at most one canonical Document exists per fingerprint
// within the configured dedup scope.
type Document struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Fingerprint  string     `json:"content_fingerprint"`
	StorageKey   string     `json:"storage_key"`
	SizeBytes    int64      `json:"size_bytes"`
	ContentType  string     `json:"content_type"`
	OwnerID      string     `json:"owner_id"`
	IsStarred    bool       `json:"is_starred"`
	ViewCount    int64      `json:"view_count"`
	LastViewedAt *time.Time `json:"last_viewed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
