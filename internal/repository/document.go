package repository

import (
	"context"
	"errors"

	"github.com/criszst/neopdf-sub000/internal/model"
)

// ErrDuplicateFingerprint is returned by DocumentRepository.Create when the
// database rejects the insert because another row already holds the same
// content fingerprint (within the scope of the unique index). Callers use it
// to resolve races between concurrent uploads of identical bytes.
var ErrDuplicateFingerprint = errors.New("document with this content fingerprint already exists")

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here — strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record. Returns ErrDuplicateFingerprint
	// when the fingerprint unique index rejects the row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindByFingerprint returns the canonical document for a content
	// fingerprint. When ownerID is empty the lookup is global; otherwise it
	// is restricted to that owner's documents.
	FindByFingerprint(ctx context.Context, fingerprint, ownerID string) (*model.Document, error)

	// List returns a page of an owner's documents plus the total row count
	// for the filter.
	List(ctx context.Context, f ListFilter) (*PageResult[model.Document], error)

	// Delete removes a document by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// Sort orders accepted by ListFilter.
const (
	SortRecent = "recent"
	SortName   = "name"
	SortViews  = "views"
)

// ListFilter holds the owner scope, filter, and pagination for listing documents.
type ListFilter struct {
	OwnerID     string
	StarredOnly bool
	Sort        string
	Limit       int
	Offset      int
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
