package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"printdesk/internal/metrics"
	"printdesk/internal/model"
	"printdesk/internal/pagecount"
	"printdesk/internal/repository"
	"printdesk/internal/storage"
)

const keyTimeLayout = "20060102T150405.000000Z"

// IngestInput describes one upload. FormatHint overrides the extension of Filename
// when set. DeclaredSize is advisory; the bytes actually read are authoritative.
type IngestInput struct {
	OwnerID      string
	Filename     string
	FormatHint   string
	ContentType  string
	DeclaredSize int64
	Body         io.Reader
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
	Quota QuotaUsage       `json:"quota"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Ingest validates, stores, counts pages, stores the printable artifact and records
	// the document. On failure nothing is left in storage and no record exists.
	Ingest(ctx context.Context, in IngestInput) (*model.Document, error)

	// List returns the owner's documents using limit/offset with the quota left.
	List(ctx context.Context, ownerID string, limit, offset int) (*DocumentListResult, error)

	// Get returns a single owned document.
	Get(ctx context.Context, ownerID, id string) (*model.Document, error)

	// Open streams the stored original. The caller closes the reader.
	Open(ctx context.Context, ownerID, id string) (io.ReadCloser, *model.Document, error)

	// Rename changes the display name, keeping the original extension.
	Rename(ctx context.Context, ownerID, id, name string) (*model.Document, error)

	// Delete removes stored bytes, the artifact and the record.
	Delete(ctx context.Context, ownerID, id string) error
}

// IngestLimits are the per-file rules applied before anything is stored.
type IngestLimits struct {
	MaxFileBytes   int64
	AllowedFormats []string
}

type documentService struct {
	store   storage.Storage
	repo    repository.DocumentRepository
	quota   *QuotaLedger
	oracle  pagecount.Oracle
	limits  IngestLimits
	allowed map[string]bool
	log     logrus.FieldLogger
	metrics *metrics.Domain
	now     func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(
	store storage.Storage,
	repo repository.DocumentRepository,
	quota *QuotaLedger,
	oracle pagecount.Oracle,
	limits IngestLimits,
	log logrus.FieldLogger,
	m *metrics.Domain,
) DocumentService {
	allowed := make(map[string]bool, len(limits.AllowedFormats))
	for _, f := range limits.AllowedFormats {
		allowed[pagecount.ParseFormat(f).Name()] = true
	}
	return &documentService{
		store:   store,
		repo:    repo,
		quota:   quota,
		oracle:  oracle,
		limits:  limits,
		allowed: allowed,
		log:     log.WithField("component", "ingestion"),
		metrics: m,
		now:     time.Now,
	}
}

func (s *documentService) Ingest(ctx context.Context, in IngestInput) (*model.Document, error) {
	doc, reason, err := s.ingest(ctx, in)
	if err != nil {
		s.metrics.IngestFailed(reason)
		return nil, err
	}
	s.metrics.DocumentIngested()
	return doc, nil
}

func (s *documentService) ingest(ctx context.Context, in IngestInput) (*model.Document, string, error) {
	if in.Body == nil {
		return nil, "validation", fmt.Errorf("%w: file is required", ErrValidation)
	}
	name := SanitizeFilename(in.Filename)
	if name == "" {
		return nil, "validation", fmt.Errorf("%w: filename is required", ErrValidation)
	}

	hint := in.FormatHint
	if hint == "" {
		hint = path.Ext(name)
	}
	format := pagecount.ParseFormat(hint)
	if !format.Supported() || !s.allowed[format.Name()] {
		return nil, "validation", fmt.Errorf("%w: format %q is not accepted", ErrValidation, format.Name())
	}
	if in.DeclaredSize > s.limits.MaxFileBytes {
		return nil, "validation", fmt.Errorf("%w: file exceeds %d bytes", ErrValidation, s.limits.MaxFileBytes)
	}

	data, err := io.ReadAll(io.LimitReader(in.Body, s.limits.MaxFileBytes+1))
	if err != nil {
		return nil, "read", fmt.Errorf("read upload: %w", err)
	}
	size := int64(len(data))
	if size > s.limits.MaxFileBytes {
		return nil, "validation", fmt.Errorf("%w: file exceeds %d bytes", ErrValidation, s.limits.MaxFileBytes)
	}
	if size == 0 {
		return nil, "validation", fmt.Errorf("%w: file is empty", ErrValidation)
	}

	if err := s.quota.CheckAndReserve(ctx, in.OwnerID, size); err != nil {
		return nil, "quota", err
	}

	now := s.now().UTC()
	ownerSeg := keySegment(in.OwnerID)
	nameSeg := keySegment(name)
	stamp := now.Format(keyTimeLayout)
	storedName := stamp + "_" + nameSeg
	key := path.Join("documents", ownerSeg, storedName)
	artifactKey := path.Join("artifacts", ownerSeg, stamp+"_"+strings.TrimSuffix(nameSeg, path.Ext(nameSeg))+".pdf")

	rb := newRollback(s.store, s.log)
	defer rb.run(ctx)

	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": name,
			"owner-id":          in.OwnerID,
		},
	}); err != nil {
		return nil, "storage", fmt.Errorf("upload to storage: %w", err)
	}
	rb.add(key)

	res, err := s.oracle.Count(ctx, data, format)
	if err != nil {
		var ce *pagecount.ConversionError
		if errors.As(err, &ce) {
			return nil, "conversion", fmt.Errorf("%w: %w", ErrConversion, err)
		}
		return nil, "conversion", fmt.Errorf("count pages: %w", err)
	}

	artifact := res.Rendered
	if artifact == nil {
		artifact = data
	}
	if _, err := s.store.Put(ctx, artifactKey, bytes.NewReader(artifact), storage.PutObjectOptions{
		Size:        int64(len(artifact)),
		ContentType: "application/pdf",
	}); err != nil {
		return nil, "storage", fmt.Errorf("upload artifact: %w", err)
	}
	rb.add(artifactKey)

	pages := res.Pages
	doc := &model.Document{
		ID:           uuid.New().String(),
		OwnerID:      in.OwnerID,
		OriginalName: name,
		StoredName:   storedName,
		StoragePath:  key,
		Size:         size,
		Format:       format.Name(),
		PageCount:    &pages,
		ArtifactPath: &artifactKey,
		CreatedAt:    now,
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		return nil, "database", fmt.Errorf("db save failed: %w", err)
	}
	rb.release()

	s.log.WithFields(logrus.Fields{
		"event":       "document_ingested",
		"document_id": stored.ID,
		"owner_id":    stored.OwnerID,
		"format":      stored.Format,
		"pages":       pages,
		"size":        size,
	}).Info("document stored")
	return stored, "", nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, ownerID string, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.ListByOwner(ctx, ownerID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	usage, err := s.quota.Usage(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total, Quota: usage}, nil
}

func (s *documentService) Get(ctx context.Context, ownerID, id string) (*model.Document, error) {
	doc, err := s.repo.FindByOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Open(ctx context.Context, ownerID, id string) (io.ReadCloser, *model.Document, error) {
	doc, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("read storage: %w", err)
	}
	return rc, doc, nil
}

func (s *documentService) Rename(ctx context.Context, ownerID, id, name string) (*model.Document, error) {
	doc, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	base := SanitizeFilename(name)
	ext := path.Ext(doc.OriginalName)
	if ext == "" && doc.Format != "" {
		ext = "." + doc.Format
	}
	base = strings.TrimSuffix(base, ext)
	if strings.TrimSpace(base) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	renamed, err := s.repo.Rename(ctx, id, ownerID, base+ext)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return renamed, nil
}

// Delete removes the document's objects, then its record. A missing object is not an
// error; any other storage failure keeps the record so the delete can be retried.
func (s *documentService) Delete(ctx context.Context, ownerID, id string) error {
	doc, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	keys := []string{doc.StoragePath}
	if doc.HasArtifact() {
		keys = append(keys, *doc.ArtifactPath)
	}
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.log.WithFields(logrus.Fields{"event": "object_missing", "key": key, "document_id": id}).Warn("object already gone")
				continue
			}
			return fmt.Errorf("delete storage: %w", err)
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
