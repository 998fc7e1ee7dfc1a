package controllers

import (
	"errors"
	"io"
	"leetfresh/internal/models"
	"leetfresh/internal/providers"
	"leetfresh/internal/services"
	"net/http"

	json "github.com/goccy/go-json"
)

// PagesController exposes the live pages a host keeps annotated.
type PagesController struct {
	logger providers.Logger
	pages  services.PageRegistryInterface
}

func NewPagesController(logger providers.Logger, pages services.PageRegistryInterface) *PagesController {
	return &PagesController{logger: logger, pages: pages}
}

func (pc *PagesController) pageError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrPageNotFound) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	pc.logger.Warnf(providers.TypePost, "Page operation failed: %s", err)
	http.Error(w, "Unprocessable Entity", http.StatusUnprocessableEntity)
}

func (pc *PagesController) Open(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBodySize)
	var req models.PageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	id, err := pc.pages.Open(req.URL, req.HTML)
	if err != nil {
		pc.pageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.PageResponse{ID: id})
}

// UpdateContent replaces a page's content, or appends to its body when the
// append query parameter is set.
func (pc *PagesController) UpdateContent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBodySize)
	src, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	appendContent := q.Get("append") == "1" || q.Get("append") == "true"
	if err := pc.pages.Update(q.Get("id"), string(src), appendContent); err != nil {
		pc.pageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (pc *PagesController) Content(w http.ResponseWriter, r *http.Request) {
	out, err := pc.pages.Content(r.URL.Query().Get("id"))
	if err != nil {
		pc.pageError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, out)
}

func (pc *PagesController) Close(w http.ResponseWriter, r *http.Request) {
	if err := pc.pages.Close(r.URL.Query().Get("id")); err != nil {
		pc.pageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
