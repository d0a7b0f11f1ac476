package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/criszst/neopdf-sub000/internal/model"
	"github.com/criszst/neopdf-sub000/internal/repository"
	"github.com/criszst/neopdf-sub000/internal/storage"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("document not found")
)

// DocumentListQuery holds the filter/sort/pagination for listing documents.
type DocumentListQuery struct {
	Limit       int
	Offset      int
	StarredOnly bool
	Sort        string
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentService covers the read/serve/delete use cases for stored PDFs.
// All operations are owner-checked.
type DocumentService interface {
	// Get returns a single document by its ID.
	Get(ctx context.Context, id, ownerID string) (*model.Document, error)

	// List returns the owner's documents with filter and sort applied.
	List(ctx context.Context, ownerID string, q DocumentListQuery) (*DocumentListResult, error)

	// Open returns the document plus a content stream for inline viewing.
	// The caller owns closing the stream.
	Open(ctx context.Context, id, ownerID string) (*model.Document, io.ReadCloser, error)

	// DownloadURL returns a time-limited URL for fetching the content
	// without credentials.
	DownloadURL(ctx context.Context, id, ownerID string) (string, error)

	// Delete removes the document's object and record.
	Delete(ctx context.Context, id, ownerID string) error
}

type documentService struct {
	store         storage.Storage
	repo          repository.DocumentRepository
	recorder      ActivityRecorder
	presignExpiry time.Duration
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, recorder ActivityRecorder, presignExpiry time.Duration) DocumentService {
	return &documentService{
		store:         store,
		repo:          repo,
		recorder:      recorder,
		presignExpiry: presignExpiry,
	}
}

// ownedDocument loads a document and verifies the caller owns it.
func (s *documentService) ownedDocument(ctx context.Context, id, ownerID string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if doc.OwnerID != ownerID {
		return nil, ErrNotAuthorized
	}
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, id, ownerID string) (*model.Document, error) {
	return s.ownedDocument(ctx, id, ownerID)
}

func (s *documentService) List(ctx context.Context, ownerID string, q DocumentListQuery) (*DocumentListResult, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	res, err := s.repo.List(ctx, repository.ListFilter{
		OwnerID:     ownerID,
		StarredOnly: q.StarredOnly,
		Sort:        q.Sort,
		Limit:       q.Limit,
		Offset:      q.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) Open(ctx context.Context, id, ownerID string) (*model.Document, io.ReadCloser, error) {
	doc, err := s.ownedDocument(ctx, id, ownerID)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch object: %w", err)
	}
	return doc, rc, nil
}

func (s *documentService) DownloadURL(ctx context.Context, id, ownerID string) (string, error) {
	doc, err := s.ownedDocument(ctx, id, ownerID)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, doc.StorageKey, s.presignExpiry)
}

// Delete removes the object first, then the record. The DELETE audit entry is
// written afterwards without a document reference, since the row is gone; a
// failure to audit never fails the delete.
func (s *documentService) Delete(ctx context.Context, id, ownerID string) error {
	doc, err := s.ownedDocument(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	details := fmt.Sprintf("deleted %s (%s)", doc.Name, doc.ID)
	if _, err := s.recorder.Record(ctx, model.ActivityDelete, ownerID, "", details); err != nil {
		logAuditFailure(doc.ID, ownerID, err)
	}
	return nil
}
