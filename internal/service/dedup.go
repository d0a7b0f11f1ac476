package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/criszst/neopdf-sub000/internal/config"
	"github.com/criszst/neopdf-sub000/internal/fingerprint"
	"github.com/criszst/neopdf-sub000/internal/model"
	"github.com/criszst/neopdf-sub000/internal/repository"
	"github.com/criszst/neopdf-sub000/internal/storage"
)

var (
	// ErrStorageWrite means the object store rejected the write; nothing was recorded.
	ErrStorageWrite = errors.New("object storage write failed")
	// ErrRecordWrite means metadata persistence failed after a successful
	// storage write. The stored object is left in place: keys are
	// content-addressed, so a retry reuses the same key.
	ErrRecordWrite = errors.New("document record write failed")
)

// Resolution is the outcome of deduplicating an upload.
// When IsNewObject is false, Document is the pre-existing canonical copy and
// neither the object store nor the documents table was written.
type Resolution struct {
	Document    *model.Document
	IsNewObject bool
}

// DeduplicationService decides "new object" vs "existing object" for uploaded
// content and performs the corresponding storage/record writes exactly once.
type DeduplicationService interface {
	Resolve(ctx context.Context, content []byte, name, contentType, ownerID string) (*Resolution, error)
}

type dedupService struct {
	store storage.Storage
	repo  repository.DocumentRepository
	// perOwner scopes duplicate detection (and storage keys) to the
	// uploading user instead of sharing one copy across all users.
	perOwner bool
	now      func() time.Time
}

// NewDeduplicationService constructs a DeduplicationService with the given
// dedup scope (config.DedupScopeOwner or config.DedupScopeGlobal).
func NewDeduplicationService(store storage.Storage, repo repository.DocumentRepository, scope string) DeduplicationService {
	return &dedupService{
		store:    store,
		repo:     repo,
		perOwner: scope != config.DedupScopeGlobal,
		now:      time.Now,
	}
}

// Resolve computes the content fingerprint, looks for an existing canonical
// document, and only stores bytes plus a new record when none exists.
// The sequence fingerprint → lookup → put → create is fixed: the object-store
// write must succeed before the record write is attempted, and a record
// failure never hands a document reference back to the caller.
func (s *dedupService) Resolve(ctx context.Context, content []byte, name, contentType, ownerID string) (*Resolution, error) {
	fp := fingerprint.Bytes(content)

	lookupOwner := ""
	if s.perOwner {
		lookupOwner = ownerID
	}

	existing, err := s.repo.FindByFingerprint(ctx, fp, lookupOwner)
	if err == nil {
		return &Resolution{Document: existing, IsNewObject: false}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fingerprint lookup: %w", err)
	}

	key := s.objectKey(fp, ownerID)
	_, err = s.store.Put(ctx, key, bytes.NewReader(content), storage.PutObjectOptions{
		Size:        int64(len(content)),
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	doc := &model.Document{
		ID:          uuid.New().String(),
		Name:        name,
		Fingerprint: fp,
		StorageKey:  key,
		SizeBytes:   int64(len(content)),
		ContentType: contentType,
		OwnerID:     ownerID,
		CreatedAt:   s.now().UTC(),
	}
	stored, err := s.repo.Create(ctx, doc)
	if errors.Is(err, repository.ErrDuplicateFingerprint) {
		// Lost a race against a concurrent upload of the same bytes. The
		// winner's row is canonical; our Put targeted the same key, so no
		// orphan is left behind.
		winner, lookupErr := s.repo.FindByFingerprint(ctx, fp, lookupOwner)
		if lookupErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrRecordWrite, lookupErr)
		}
		return &Resolution{Document: winner, IsNewObject: false}, nil
	}
	if err != nil {
		// No rollback of the storage write: the orphaned object sits under a
		// content-addressed key and a retry with the same bytes reclaims it.
		return nil, fmt.Errorf("%w: %v", ErrRecordWrite, err)
	}

	return &Resolution{Document: stored, IsNewObject: true}, nil
}

// objectKey derives the content-addressed storage key. Per-owner scope
// prefixes the owner so one user deleting their copy cannot remove bytes
// another user still references.
func (s *dedupService) objectKey(fp, ownerID string) string {
	if s.perOwner {
		return "documents/" + ownerID + "/" + fp + ".pdf"
	}
	return "documents/" + fp + ".pdf"
}
