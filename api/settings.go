// settings.go - Shop configuration and material type handlers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/faycal-henaoui/wood-workshop/inventory"
)

// GetSettings returns the shop configuration, defaults when never saved.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Store.GetSettings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// SaveSettings upserts the shop configuration singleton.
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings inventory.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Store.SaveSettings(r.Context(), settings); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// ListMaterialTypes returns the configured material categories.
func (h *Handler) ListMaterialTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Store.ListMaterialTypes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list material types", err)
		return
	}
	if types == nil {
		types = []inventory.MaterialType{}
	}
	writeJSON(w, http.StatusOK, types)
}

// CreateMaterialType adds a category option for materials.
func (h *Handler) CreateMaterialType(w http.ResponseWriter, r *http.Request) {
	var mt inventory.MaterialType
	if err := json.NewDecoder(r.Body).Decode(&mt); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if mt.Name == "" || mt.Unit == "" {
		writeError(w, http.StatusBadRequest, "Name and unit are required", nil)
		return
	}

	created, err := h.Store.CreateMaterialType(r.Context(), inventory.MaterialType{Name: mt.Name, Unit: mt.Unit})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create material type", err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

// DeleteMaterialType removes a material category option.
func (h *Handler) DeleteMaterialType(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteMaterialType(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete material type", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Material type deleted"})
}
