package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"twin-dashboard/internal/middleware"
	"twin-dashboard/internal/service"
	"twin-dashboard/pkg/apierror"
	"twin-dashboard/pkg/authapi"
)

type TwinHandler struct {
	service *service.TwinService
}

func NewTwinHandler(service *service.TwinService) *TwinHandler {
	return &TwinHandler{service: service}
}

func (h *TwinHandler) List(w http.ResponseWriter, r *http.Request) {
	twins, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]authapi.Twin, 0, len(twins))
	for _, t := range twins {
		out = append(out, t.Snapshot())
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *TwinHandler) Get(w http.ResponseWriter, r *http.Request) {
	twinID := chi.URLParam(r, "twin_id")
	if twinID == "" {
		writeError(w, apierror.New("VALIDATION", "Twin id is required", http.StatusBadRequest))
		return
	}

	twin, err := h.service.Get(r.Context(), twinID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, twin.Snapshot())
}

func (h *TwinHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.New("UNAUTHORIZED", "Not authenticated", http.StatusUnauthorized))
		return
	}

	var payload authapi.CreateTwinRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("VALIDATION", "Invalid JSON body", http.StatusBadRequest))
		return
	}

	twin, err := h.service.Create(r.Context(), claims.UserID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, twin.Snapshot())
}
