package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voisilab/voisimap/internal/api/models"
	"github.com/voisilab/voisimap/internal/api/response"
	"github.com/voisilab/voisimap/internal/ppn"
)

// PPNHandler handles PPN catalog endpoints.
type PPNHandler struct {
	service *ppn.Service
}

// NewPPNHandler creates a new PPNHandler.
func NewPPNHandler(service *ppn.Service) *PPNHandler {
	return &PPNHandler{service: service}
}

// ListPPNs handles GET /v1/ppns - list all mappable PPNs with markers.
func (h *PPNHandler) ListPPNs(w http.ResponseWriter, r *http.Request) {
	ppns, err := h.service.List(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to load the PPN catalog")
		return
	}

	items := make([]models.PPN, 0, len(ppns))
	for _, p := range ppns {
		items = append(items, models.PPNFromDomain(p))
	}
	response.JSON(w, r, http.StatusOK, models.PPNList{Items: items})
}

// GetPPN handles GET /v1/ppns/{ppnId} - get a single PPN.
func (h *PPNHandler) GetPPN(w http.ResponseWriter, r *http.Request) {
	ppnID := chi.URLParam(r, "ppnId")
	if ppnID == "" {
		response.BadRequest(w, r, "ppnId is required", nil)
		return
	}

	p, err := h.service.Get(r.Context(), ppnID)
	if err != nil {
		if errors.Is(err, ppn.ErrNotFound) {
			response.NotFound(w, r, "ppn not found")
			return
		}
		response.InternalError(w, r, "failed to load the PPN")
		return
	}

	response.JSON(w, r, http.StatusOK, models.PPNFromDomain(p))
}
