/*
catalog.go - Product, category and client handlers

Product create/update replace the recipe wholesale inside one transaction,
so a half-written bill of materials can never be observed by the stock
resolver.
*/
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/faycal-henaoui/wood-workshop/inventory"
	"github.com/faycal-henaoui/wood-workshop/store/sqlite"
)

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// ListProducts returns all products with their recipe line counts.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Store.ListProducts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list products", err)
		return
	}
	if products == nil {
		products = []sqlite.ProductRow{}
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProduct returns one product with its bill of materials.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	product, err := h.Store.GetProduct(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get product", err)
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "Product not found", nil)
		return
	}

	recipe, err := h.Store.RecipeDetailFor(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load recipe", err)
		return
	}
	if recipe == nil {
		recipe = []sqlite.RecipeDetail{}
	}

	writeJSON(w, http.StatusOK, struct {
		inventory.Product
		Materials []sqlite.RecipeDetail `json:"materials"`
	}{Product: *product, Materials: recipe})
}

// CreateProduct adds a product together with its recipe.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Product name is required", nil)
		return
	}

	var created inventory.Product
	err := h.Store.WithTx(ctx, func(tx *sqlite.Tx) error {
		var err error
		created, err = tx.CreateProduct(ctx, inventory.Product{
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			BasePrice:   req.BasePrice,
			LaborCost:   req.LaborCost,
			CreatedAt:   h.Now().UTC(),
		}, req.recipe())
		return err
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create product", err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

// UpdateProduct rewrites a product and replaces its recipe.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	product := inventory.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		BasePrice:   req.BasePrice,
		LaborCost:   req.LaborCost,
	}
	err := h.Store.WithTx(ctx, func(tx *sqlite.Tx) error {
		return tx.UpdateProduct(ctx, product, req.recipe())
	})
	if err != nil {
		if errors.Is(err, inventory.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "Product not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update product", err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product and its recipe.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteProduct(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete product", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Product deleted"})
}

// =============================================================================
// CATEGORY HANDLERS
// =============================================================================

// ListCategories returns all product categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Store.ListProductCategories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list categories", err)
		return
	}
	if categories == nil {
		categories = []inventory.ProductCategory{}
	}
	writeJSON(w, http.StatusOK, categories)
}

// CreateCategory adds a product category.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	category, err := h.Store.CreateProductCategory(r.Context(), req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create category", err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// UpdateCategory renames a product category.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Store.UpdateProductCategory(r.Context(), id, req.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Category not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update category", err)
		return
	}
	writeJSON(w, http.StatusOK, inventory.ProductCategory{ID: id, Name: req.Name})
}

// DeleteCategory removes a product category.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteProductCategory(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete category", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Category deleted"})
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns all clients, newest first.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.ListClients(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clients", err)
		return
	}
	if clients == nil {
		clients = []inventory.Client{}
	}
	writeJSON(w, http.StatusOK, clients)
}

// CreateClient adds a client record.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Client name is required", nil)
		return
	}

	client, err := h.Store.CreateClient(r.Context(), inventory.Client{
		Name:      req.Name,
		Phone:     req.Phone,
		Address:   req.Address,
		Email:     req.Email,
		CreatedAt: h.Now().UTC(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create client", err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// UpdateClient rewrites a client's contact information.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	client := inventory.Client{
		ID:      id,
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		Email:   req.Email,
	}
	if err := h.Store.UpdateClient(r.Context(), client); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Client not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update client", err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// DeleteClient removes a client record.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteClient(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete client", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Client deleted"})
}

// ClientHistory returns a client's invoices, newest first.
func (h *Handler) ClientHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	invoices, err := h.Store.ClientInvoices(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load client history", err)
		return
	}
	if invoices == nil {
		invoices = []inventory.Invoice{}
	}
	writeJSON(w, http.StatusOK, invoices)
}
