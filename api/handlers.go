/*
handlers.go - HTTP API handlers for the workshop server

PURPOSE:
  Exposes stock, catalog, billing and reporting via REST. Handles HTTP
  request/response, JSON serialization, and delegates to the inventory
  engine and the store.

ENDPOINTS:
  Materials:
    GET    /api/materials              List all materials
    POST   /api/materials              Create material
    PUT    /api/materials/{id}         Update material
    DELETE /api/materials/{id}         Delete material

  Scrap:
    GET    /api/scrap                  List reusable offcuts
    DELETE /api/scrap/{id}             Discard an offcut

  Further groups live in their own files:
    catalog.go   Products, categories, clients
    invoices.go  Invoices and quotes (the stock-mutating flows)
    purchases.go Supplier purchases + WAC repricing
    reports.go   Dashboard and reports
    export.go    Monthly report export (JSON / xlsx)
    settings.go  Shop settings and material types
    auth.go      Register / login / token verification

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (all stock mutations go through Store.WithTx)
  - Metrics: Prometheus counters, nil when disabled
  - Now: clock, swappable in tests

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, stock shortages
  - 401: Bad credentials
  - 403: Missing/invalid token
  - 404: Resource not found
  - 500: Internal errors

  Stock shortages use the dedicated shape the billing UI parses:
    {"message": "Stock Validation Failed", "errors": ["...", ...]}

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/faycal-henaoui/wood-workshop/inventory"
	"github.com/faycal-henaoui/wood-workshop/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Metrics   *Metrics
	JWTSecret []byte

	// Now is the clock used by every time-dependent query.
	Now func() time.Time
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, secret []byte, metrics *Metrics) *Handler {
	return &Handler{
		Store:     store,
		Metrics:   metrics,
		JWTSecret: secret,
		Now:       time.Now,
	}
}

// =============================================================================
// MATERIAL HANDLERS
// =============================================================================

// ListMaterials returns all materials ordered by name.
func (h *Handler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := h.Store.ListMaterials(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list materials", err)
		return
	}
	if materials == nil {
		materials = []inventory.Material{}
	}
	writeJSON(w, http.StatusOK, materials)
}

// CreateMaterial adds a new raw material.
func (h *Handler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	var req MaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Material name is required", nil)
		return
	}

	mat, err := h.Store.CreateMaterial(r.Context(), req.toMaterial(""))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create material", err)
		return
	}
	writeJSON(w, http.StatusOK, mat)
}

// UpdateMaterial rewrites a material's details. Used for correcting stock
// levels manually or changing prices.
func (h *Handler) UpdateMaterial(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req MaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	mat := req.toMaterial(id)
	if err := h.Store.UpdateMaterial(r.Context(), mat); err != nil {
		if errors.Is(err, inventory.ErrMaterialNotFound) {
			writeError(w, http.StatusNotFound, "Material not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update material", err)
		return
	}
	writeJSON(w, http.StatusOK, mat)
}

// DeleteMaterial removes a material and its scrap.
func (h *Handler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteMaterial(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete material", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Material deleted"})
}

// =============================================================================
// SCRAP HANDLERS
// =============================================================================

// ListScrap returns all reusable offcuts with their material names.
func (h *Handler) ListScrap(w http.ResponseWriter, r *http.Request) {
	scrap, err := h.Store.ListScrap(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list scrap", err)
		return
	}
	if scrap == nil {
		scrap = []sqlite.ScrapRow{}
	}
	writeJSON(w, http.StatusOK, scrap)
}

// DeleteScrap discards an offcut (used up outside the system, or binned).
func (h *Handler) DeleteScrap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteScrap(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete scrap", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Scrap deleted"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeStockError maps inventory errors onto the response shapes the billing
// UI expects: shortages become the 400 validation payload, anything else is
// a plain error.
func writeStockError(w http.ResponseWriter, err error) {
	var shortage *inventory.ShortageError
	if errors.As(err, &shortage) {
		writeJSON(w, http.StatusBadRequest, StockValidationResponse{
			Message: "Stock Validation Failed",
			Errors:  shortage.Shortages,
		})
		return
	}
	if inventory.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Referenced record not found", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "Server Error", err)
}

func ceilIfSheet(qty decimal.Decimal, isSheet bool) decimal.Decimal {
	if isSheet {
		return qty.Ceil()
	}
	return qty
}
