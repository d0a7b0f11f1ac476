package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"time"

	"github.com/criszst/neopdf-sub000/internal/config"
	"github.com/criszst/neopdf-sub000/internal/model"
)

var (
	ErrOwnerRequired = errors.New("owner id is required")
	ErrEmptyFile     = errors.New("uploaded file is empty")
	ErrFileTooLarge  = errors.New("uploaded file exceeds the size limit")
	ErrNotPDF        = errors.New("only PDF files are accepted")
)

// pdfMagic is the marker every PDF file starts with.
var pdfMagic = []byte("%PDF-")

// UploadResult is what the client gets back from an upload.
// Name is always the canonical document's original filename, so a duplicate
// upload under a different name reports the name of the first upload.
type UploadResult struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	IsDuplicate bool   `json:"isDuplicate"`
}

// UploadPipeline is the single entry point a client calls to upload a file:
// validate, deduplicate, audit.
type UploadPipeline interface {
	Upload(ctx context.Context, r io.Reader, fileName, contentType string, size int64, ownerID string) (*UploadResult, error)
}

type uploadPipeline struct {
	dedup           DeduplicationService
	recorder        ActivityRecorder
	maxBytes        int64
	auditDuplicates bool
}

// NewUploadPipeline constructs the upload pipeline from the configured limits.
func NewUploadPipeline(dedup DeduplicationService, recorder ActivityRecorder, cfg config.UploadConfig) UploadPipeline {
	return &uploadPipeline{
		dedup:           dedup,
		recorder:        recorder,
		maxBytes:        cfg.MaxBytes,
		auditDuplicates: cfg.AuditDuplicates,
	}
}

func (p *uploadPipeline) Upload(ctx context.Context, r io.Reader, fileName, contentType string, size int64, ownerID string) (*UploadResult, error) {
	// Cheap checks before any hashing or I/O.
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	if r == nil {
		return nil, ErrEmptyFile
	}
	if size > p.maxBytes {
		return nil, ErrFileTooLarge
	}
	if !isPDFContentType(contentType) {
		return nil, ErrNotPDF
	}

	// The size ceiling bounds this read; +1 detects payloads that lied about
	// their declared size.
	content, err := io.ReadAll(io.LimitReader(r, p.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(content)) > p.maxBytes {
		return nil, ErrFileTooLarge
	}
	if !bytes.HasPrefix(content, pdfMagic) {
		return nil, ErrNotPDF
	}

	res, err := p.dedup.Resolve(ctx, content, fileName, "application/pdf", ownerID)
	if err != nil {
		return nil, err
	}

	if res.IsNewObject || p.auditDuplicates {
		details := fmt.Sprintf("uploaded %s (%d bytes)", fileName, len(content))
		if !res.IsNewObject {
			details += ", resolved to existing content"
		}
		if _, err := p.recorder.Record(ctx, model.ActivityUpload, ownerID, res.Document.ID, details); err != nil {
			// The upload itself succeeded; a missing audit row must never
			// turn that into a failure for the user.
			logAuditFailure(res.Document.ID, ownerID, err)
		}
	}

	return &UploadResult{
		ID:          res.Document.ID,
		Name:        res.Document.Name,
		URL:         "/pdf/" + res.Document.ID,
		IsDuplicate: !res.IsNewObject,
	}, nil
}

func isPDFContentType(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/pdf" || mt == "application/x-pdf"
}

func logAuditFailure(documentID, ownerID string, err error) {
	entry := map[string]any{
		"ts":          time.Now().UTC().Format(time.RFC3339Nano),
		"level":       "error",
		"component":   "upload",
		"event":       "audit_record_failed",
		"document_id": documentID,
		"owner_id":    ownerID,
		"error":       err.Error(),
	}
	if b, mErr := json.Marshal(entry); mErr == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
