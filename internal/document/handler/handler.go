package handler

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"seva/internal/document"
	dErrors "seva/pkg/domain-errors"
	"seva/pkg/platform/httputil"
	"seva/pkg/requestcontext"
)

// maxMultipartMemory bounds how much of a parsed form stays in memory;
// larger parts spill to temp files.
const maxMultipartMemory = 4 << 20

type Service interface {
	Upload(ctx context.Context, userID, rawType, fileName, contentType string, declaredSize int64, file io.Reader) (document.Record, error)
	List(ctx context.Context, userID string) ([]document.Record, error)
	Verify(ctx context.Context, rawType, fileName string, declaredSize int64, file io.Reader) (document.VerificationResult, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the authenticated document routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/documents", h.handleUpload)
	r.Get("/api/documents", h.handleList)
}

// RegisterVerify mounts the stateless verification endpoint. It takes no
// identity and stores nothing, so the router keeps it outside the auth group.
func (h *Handler) RegisterVerify(r chi.Router) {
	r.Post("/verify", h.handleVerify)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	file, header, err := h.filePart(w, r)
	if err != nil {
		return
	}
	defer file.Close()

	rec, err := h.svc.Upload(ctx,
		requestcontext.UserID(ctx),
		r.FormValue("documentType"),
		header.Filename,
		header.Header.Get("Content-Type"),
		header.Size,
		file,
	)
	if err != nil {
		h.writeError(ctx, w, "document upload failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	recs, err := h.svc.List(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.writeError(ctx, w, "document list failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"documents": recs,
		"total":     len(recs),
	})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	file, header, err := h.filePart(w, r)
	if err != nil {
		return
	}
	defer file.Close()

	result, err := h.svc.Verify(ctx,
		r.FormValue("documentType"),
		header.Filename,
		header.Size,
		file,
	)
	if err != nil {
		h.writeError(ctx, w, "verification failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// filePart extracts the "file" multipart field, writing the error response
// itself so callers can just return.
func (h *Handler) filePart(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "expected multipart form data"))
		return nil, nil, err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing file field"))
		return nil, nil, err
	}
	return file, header, nil
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal || dErrors.CodeOf(err) == dErrors.CodeUpstream {
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
