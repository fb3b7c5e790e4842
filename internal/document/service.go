package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"seva/internal/audit"
	"seva/internal/document/storage"
	"seva/internal/platform/metrics"
	dErrors "seva/pkg/domain-errors"
	"seva/pkg/platform/sentinel"
	"seva/pkg/requestcontext"
)

// Dispatcher kicks off asynchronous verification after an upload is
// persisted. Implementations must not block the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, rec Record, payload []byte)
}

// Verifier performs one synchronous verification call against the document
// validation collaborator.
type Verifier interface {
	Verify(ctx context.Context, docType DocumentType, fileName string, payload []byte) (VerificationResult, error)
}

// Service owns the document lifecycle: upload, listing, and the persistence
// side of verification outcomes.
type Service struct {
	store    Store
	blobs    storage.BlobStore
	verifier Verifier
	auditor  *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	maxBytes int64

	mu         sync.RWMutex
	dispatcher Dispatcher
}

func NewService(
	store Store,
	blobs storage.BlobStore,
	verifier Verifier,
	auditor *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	maxBytes int64,
) *Service {
	return &Service{
		store:    store,
		blobs:    blobs,
		verifier: verifier,
		auditor:  auditor,
		metrics:  m,
		logger:   logger,
		maxBytes: maxBytes,
	}
}

// SetDispatcher wires the verification dispatcher after construction. The
// dispatcher needs this service to persist outcomes, so the two are linked in
// main rather than in either constructor.
func (s *Service) SetDispatcher(d Dispatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatcher = d
}

func (s *Service) getDispatcher() Dispatcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dispatcher
}

// Upload validates, stores and registers a document, then triggers async
// verification. The size limit is enforced on the declared size before any
// bytes are read or stored, so oversized uploads never reach the blob
// backend. A re-upload for the same (user, type) supersedes the previous
// record, resets its verification state and removes the old file from blob
// storage.
func (s *Service) Upload(ctx context.Context, userID, rawType, fileName, contentType string, declaredSize int64, file io.Reader) (Record, error) {
	docType, err := ParseDocumentType(rawType)
	if err != nil {
		return Record{}, err
	}
	if declaredSize > s.maxBytes {
		return Record{}, dErrors.New(dErrors.CodePayloadTooLarge,
			fmt.Sprintf("file exceeds the %d byte upload limit", s.maxBytes))
	}

	payload, err := io.ReadAll(io.LimitReader(file, s.maxBytes+1))
	if err != nil {
		return Record{}, dErrors.Wrap(dErrors.CodeInternal, "failed to read upload", err)
	}
	if int64(len(payload)) > s.maxBytes {
		// Declared size lied; same outcome as the up-front check.
		return Record{}, dErrors.New(dErrors.CodePayloadTooLarge,
			fmt.Sprintf("file exceeds the %d byte upload limit", s.maxBytes))
	}
	if len(payload) == 0 {
		return Record{}, dErrors.New(dErrors.CodeInvalidInput, "uploaded file is empty")
	}

	prior, err := s.store.FindByUserAndType(ctx, userID, docType)
	superseding := err == nil
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return Record{}, dErrors.Wrap(dErrors.CodeInternal, "failed to load document", err)
	}

	storageKey := fmt.Sprintf("documents/%s/%s/%s", userID, docType.Slug(), uuid.NewString())
	if err := s.blobs.Put(ctx, storageKey, contentType, payload); err != nil {
		return Record{}, dErrors.Wrap(dErrors.CodeInternal, "failed to store file", err)
	}

	rec := Record{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Type:               docType,
		FileName:           fileName,
		FileSizeBytes:      int64(len(payload)),
		StorageKey:         storageKey,
		Status:             StatusPending,
		VerificationErrors: []string{},
		UploadedAt:         requestcontext.Now(ctx),
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		return Record{}, dErrors.Wrap(dErrors.CodeInternal, "failed to save document", err)
	}

	// Once the record points at the new file, the superseded one is garbage.
	// Deletion is best effort: a leaked blob is preferable to failing an
	// upload that already succeeded.
	if superseding && prior.StorageKey != "" && prior.StorageKey != storageKey {
		if err := s.blobs.Delete(ctx, prior.StorageKey); err != nil {
			s.logger.WarnContext(ctx, "failed to remove superseded file",
				"error", err,
				"storage_key", prior.StorageKey,
				"document_type", docType.String(),
			)
		}
	}

	s.metrics.IncDocumentsUploaded(docType.String())
	s.auditor.Emit(ctx, audit.ActionDocumentUploaded, docType.String(), audit.OutcomeSuccess, "")

	if d := s.getDispatcher(); d != nil {
		d.Dispatch(ctx, rec, payload)
	} else {
		s.logger.WarnContext(ctx, "no dispatcher configured, document stays pending",
			"document_type", docType.String(),
		)
	}
	return rec, nil
}

// List returns the caller's documents, newest upload first. Never nil.
func (s *Service) List(ctx context.Context, userID string) ([]Record, error) {
	recs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list documents", err)
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, nil
}

// Verify runs a one-off synchronous check without touching stored records.
// Used by the stateless validation endpoint.
func (s *Service) Verify(ctx context.Context, rawType, fileName string, declaredSize int64, file io.Reader) (VerificationResult, error) {
	docType, err := ParseDocumentType(rawType)
	if err != nil {
		return VerificationResult{}, err
	}
	if declaredSize > s.maxBytes {
		return VerificationResult{}, dErrors.New(dErrors.CodePayloadTooLarge,
			fmt.Sprintf("file exceeds the %d byte upload limit", s.maxBytes))
	}

	payload, err := io.ReadAll(io.LimitReader(file, s.maxBytes+1))
	if err != nil {
		return VerificationResult{}, dErrors.Wrap(dErrors.CodeInternal, "failed to read upload", err)
	}
	if int64(len(payload)) > s.maxBytes {
		return VerificationResult{}, dErrors.New(dErrors.CodePayloadTooLarge,
			fmt.Sprintf("file exceeds the %d byte upload limit", s.maxBytes))
	}

	result, err := s.verifier.Verify(ctx, docType, fileName, payload)
	if err != nil {
		s.metrics.IncVerifications("upstream_error")
		return VerificationResult{}, dErrors.Wrap(dErrors.CodeUpstream, "verification service unavailable", err)
	}

	outcome := "failed"
	if result.IsValid {
		outcome = "verified"
	}
	s.metrics.IncVerifications(outcome)
	return result, nil
}

// MarkVerifying moves a record into the verifying state. Called by the
// dispatcher when the verification attempt starts.
func (s *Service) MarkVerifying(ctx context.Context, userID string, docType DocumentType) error {
	if err := s.store.SetStatus(ctx, userID, docType, StatusVerifying); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to update document status", err)
	}
	return nil
}

// ApplyVerification persists a completed verification outcome and emits the
// audit trail entry.
func (s *Service) ApplyVerification(ctx context.Context, userID string, docType DocumentType, result VerificationResult) error {
	if err := s.store.ApplyResult(ctx, userID, docType, result, requestcontext.Now(ctx)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to record verification result", err)
	}

	outcome := audit.OutcomeFailure
	if result.IsValid {
		outcome = audit.OutcomeSuccess
	}
	s.auditor.Emit(ctx, audit.ActionDocumentVerified, docType.String(), outcome, "")
	return nil
}
