package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/apperr"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/document"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/models"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/queue"
	"github.com/vanhau123w-collab/UniQuizz-sub000/pkg/textextract"
)

const maxUploadBytes = 32 << 20

// DocumentService is the document store surface the handlers need.
// Satisfied by the document package; tests substitute fakes.
type DocumentService interface {
	Create(ctx context.Context, req document.CreateRequest) (*models.Document, error)
	Update(ctx context.Context, ownerID, id string, req document.UpdateRequest) (*models.Document, error)
	Get(ctx context.Context, ownerID, id string) (*models.Document, error)
	List(ctx context.Context, ownerID string, limit, offset int) ([]models.Document, error)
	Delete(ctx context.Context, ownerID, id string) error
	RecordUsage(ctx context.Context, ownerID, id, counter string) error
}

// ReindexEnqueuer schedules background reindex jobs.
type ReindexEnqueuer interface {
	EnqueueDocumentReindex(payload queue.DocumentReindexPayload) error
}

type DocumentHandler struct {
	svc     DocumentService
	queue   ReindexEnqueuer
	suggest SuggestionInvalidator
}

func NewDocumentHandler(svc DocumentService, q ReindexEnqueuer, sg SuggestionInvalidator) *DocumentHandler {
	return &DocumentHandler{svc: svc, queue: q, suggest: sg}
}

// Ingest accepts already-extracted text as JSON and indexes it.
func (h *DocumentHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req document.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.OwnerID = owner

	doc, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidate(r.Context(), owner)
	writeJSON(w, http.StatusCreated, doc)
}

// Upload accepts a raw file, extracts its text, and indexes it.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, apperr.Validation("file", "invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperr.Validation("file", "required"))
		return
	}
	defer file.Close()

	kind := r.FormValue("source_kind")
	if kind == "" {
		kind = textextract.KindForFilename(header.Filename)
	}
	if !models.ValidSourceKind(kind) {
		writeError(w, apperr.Validationf("source_kind", "unsupported file type %q", header.Filename))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeError(w, apperr.Validation("file", "unreadable upload"))
		return
	}
	if len(data) > maxUploadBytes {
		writeError(w, apperr.Validationf("file", "exceeds %d bytes", maxUploadBytes))
		return
	}

	extracted, err := textextract.Extract(bytes.NewReader(data), int64(len(data)), kind)
	if err != nil {
		writeError(w, apperr.Validation("file", "text extraction failed: "+err.Error()))
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	doc, err := h.svc.Create(r.Context(), document.CreateRequest{
		OwnerID:    owner,
		Title:      title,
		SourceName: header.Filename,
		SourceKind: kind,
		Content:    extracted.Content,
		Language:   r.FormValue("language"),
		IsPublic:   r.FormValue("is_public") == "true",
		Tags:       splitTags(r.FormValue("tags")),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidate(r.Context(), owner)
	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := h.svc.Get(r.Context(), owner, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		writeError(w, err)
		return
	}

	limit := queryInt(r, "limit", 20)
	if limit > 100 {
		limit = 100
	}
	offset := queryInt(r, "offset", 0)

	docs, err := h.svc.List(r.Context(), owner, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": docs, "count": len(docs)})
}

func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req document.UpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	doc, err := h.svc.Update(r.Context(), owner, id, req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidate(r.Context(), owner)
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.Delete(r.Context(), owner, id); err != nil {
		writeError(w, err)
		return
	}

	h.invalidate(r.Context(), owner)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type usageRequest struct {
	Counter string `json:"counter"`
}

// Usage bumps a per-feature usage counter on the document.
func (h *DocumentHandler) Usage(w http.ResponseWriter, r *http.Request) {
	owner, id, err := ownerAndID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req usageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.RecordUsage(r.Context(), owner, id, req.Counter); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

type reindexRequest struct {
	Force bool `json:"force"`
}

// Reindex schedules a background rebuild of the owner's chunk index.
func (h *DocumentHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req reindexRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	if err := h.queue.EnqueueDocumentReindex(queue.DocumentReindexPayload{
		OwnerID: owner,
		Force:   req.Force,
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func (h *DocumentHandler) invalidate(ctx context.Context, owner string) {
	if h.suggest != nil {
		h.suggest.InvalidateOwner(ctx, owner)
	}
}

func ownerAndID(r *http.Request) (owner, id string, err error) {
	owner, err = requireOwner(r)
	if err != nil {
		return "", "", err
	}
	id = chi.URLParam(r, "id")
	if !document.ValidID(id) {
		return "", "", apperr.Validation("id", "malformed document id")
	}
	return owner, id, nil
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
