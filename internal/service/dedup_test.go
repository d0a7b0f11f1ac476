package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/criszst/neopdf-sub000/internal/config"
	"github.com/criszst/neopdf-sub000/internal/fingerprint"
	"github.com/criszst/neopdf-sub000/internal/model"
	"github.com/criszst/neopdf-sub000/internal/repository"
	repoMocks "github.com/criszst/neopdf-sub000/internal/repository/mocks"
	"github.com/criszst/neopdf-sub000/internal/storage"
	storeMocks "github.com/criszst/neopdf-sub000/internal/storage/mocks"
)

var pdfBytes = []byte("%PDF-1.4 hello neopdf")

func TestDedupService_Resolve_NewObject(t *testing.T) {
	ctx := context.Background()
	fp := fingerprint.Bytes(pdfBytes)

	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewDeduplicationService(mStore, mRepo, config.DedupScopeOwner)

	mRepo.On("FindByFingerprint", ctx, fp, "user-1").Return(nil, sql.ErrNoRows)

	wantKey := "documents/user-1/" + fp + ".pdf"
	mStore.On("Put", ctx, wantKey, mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, nil)

	mRepo.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
		return doc.Fingerprint == fp &&
			doc.StorageKey == wantKey &&
			doc.Name == "report.pdf" &&
			doc.OwnerID == "user-1" &&
			doc.SizeBytes == int64(len(pdfBytes))
	})).Return(&model.Document{ID: "d1", Name: "report.pdf", Fingerprint: fp}, nil)

	res, err := svc.Resolve(ctx, pdfBytes, "report.pdf", "application/pdf", "user-1")

	assert.NoError(t, err)
	assert.True(t, res.IsNewObject)
	assert.Equal(t, "d1", res.Document.ID)
	mStore.AssertExpectations(t)
	mRepo.AssertExpectations(t)
}

func TestDedupService_Resolve_ExistingObject(t *testing.T) {
	ctx := context.Background()
	fp := fingerprint.Bytes(pdfBytes)

	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewDeduplicationService(mStore, mRepo, config.DedupScopeOwner)

	existing := &model.Document{ID: "d1", Name: "report.pdf", Fingerprint: fp, OwnerID: "user-1"}
	mRepo.On("FindByFingerprint", ctx, fp, "user-1").Return(existing, nil)

	// Same bytes under a different filename must resolve to the canonical
	// copy without touching storage or creating a row.
	res, err := svc.Resolve(ctx, pdfBytes, "copy.pdf", "application/pdf", "user-1")

	assert.NoError(t, err)
	assert.False(t, res.IsNewObject)
	assert.Equal(t, "d1", res.Document.ID)
	assert.Equal(t, "report.pdf", res.Document.Name)
	mStore.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDedupService_Resolve_GlobalScope(t *testing.T) {
	ctx := context.Background()
	fp := fingerprint.Bytes(pdfBytes)

	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewDeduplicationService(mStore, mRepo, config.DedupScopeGlobal)

	// Global scope: the lookup ignores the uploader, so a second user
	// resolves to a document owned by someone else.
	existing := &model.Document{ID: "d1", Name: "report.pdf", Fingerprint: fp, OwnerID: "user-1"}
	mRepo.On("FindByFingerprint", ctx, fp, "").Return(existing, nil)

	res, err := svc.Resolve(ctx, pdfBytes, "report.pdf", "application/pdf", "user-2")

	assert.NoError(t, err)
	assert.False(t, res.IsNewObject)
	assert.Equal(t, "user-1", res.Document.OwnerID)
}

func TestDedupService_Resolve_GlobalScopeKey(t *testing.T) {
	ctx := context.Background()
	fp := fingerprint.Bytes(pdfBytes)

	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewDeduplicationService(mStore, mRepo, config.DedupScopeGlobal)

	mRepo.On("FindByFingerprint", ctx, fp, "").Return(nil, sql.ErrNoRows)
	mStore.On("Put", ctx, "documents/"+fp+".pdf", mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, nil)
	mRepo.On("Create", ctx, mock.Anything).Return(&model.Document{ID: "d1"}, nil)

	res, err := svc.Resolve(ctx, pdfBytes, "report.pdf", "application/pdf", "user-1")

	assert.NoError(t, err)
	assert.True(t, res.IsNewObject)
	mStore.AssertExpectations(t)
}

func TestDedupService_Resolve_StorageError(t *testing.T) {
	ctx := context.Background()
	fp := fingerprint.Bytes(pdfBytes)

	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewDeduplicationService(mStore, mRepo, config.DedupScopeOwner)

	mRepo.On("FindByFingerprint", ctx, fp, "user-1").Return(nil, sql.ErrNoRows)
	mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, errors.New("minio unreachable"))

	res, err := svc.Resolve(ctx, pdfBytes, "report.pdf", "application/pdf", "user-1")

	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrStorageWrite)
	mRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDedupService_Resolve_RecordError(t *testing.T) {
	ctx := context.Background()
	fp := fingerprint.Bytes(pdfBytes)

	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewDeduplicationService(mStore, mRepo, config.DedupScopeOwner)

	mRepo.On("FindByFingerprint", ctx, fp, "user-1").Return(nil, sql.ErrNoRows)
	mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, nil)
	mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db down"))

	res, err := svc.Resolve(ctx, pdfBytes, "report.pdf", "application/pdf", "user-1")

	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrRecordWrite)
	// The content-addressed object is deliberately left in place.
	mStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDedupService_Resolve_LostInsertRace(t *testing.T) {
	ctx := context.Background()
	fp := fingerprint.Bytes(pdfBytes)

	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewDeduplicationService(mStore, mRepo, config.DedupScopeOwner)

	winner := &model.Document{ID: "d-winner", Name: "report.pdf", Fingerprint: fp, OwnerID: "user-1"}

	mRepo.On("FindByFingerprint", ctx, fp, "user-1").Return(nil, sql.ErrNoRows).Once()
	mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, nil)
	mRepo.On("Create", ctx, mock.Anything).Return(nil, repository.ErrDuplicateFingerprint)
	mRepo.On("FindByFingerprint", ctx, fp, "user-1").Return(winner, nil).Once()

	res, err := svc.Resolve(ctx, pdfBytes, "report.pdf", "application/pdf", "user-1")

	assert.NoError(t, err)
	assert.False(t, res.IsNewObject)
	assert.Equal(t, "d-winner", res.Document.ID)
	mRepo.AssertExpectations(t)
}

func TestDedupService_Resolve_LookupError(t *testing.T) {
	ctx := context.Background()
	fp := fingerprint.Bytes(pdfBytes)

	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewDeduplicationService(mStore, mRepo, config.DedupScopeOwner)

	mRepo.On("FindByFingerprint", ctx, fp, "user-1").Return(nil, errors.New("db down"))

	res, err := svc.Resolve(ctx, pdfBytes, "report.pdf", "application/pdf", "user-1")

	assert.Nil(t, res)
	assert.Error(t, err)
	mStore.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
