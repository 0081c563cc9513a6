/*
invoices.go - Invoice and quote handlers

The two stock-mutating flows (create invoice, convert quote) run entirely
inside one Store.WithTx: find-or-create the client, allocate the invoice
number, persist header and lines, then verify and deduct stock through
inventory.CommitOrder against the same transaction. Any shortage or failure
rolls the whole invoice back.

Billing rule: customers pay for whole sheets, so sheet lines are billed at
ceil(quantity_used) while cutting still works from the cut dimensions.
Quotes persist the same billed quantities; conversion re-resolves them.
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/faycal-henaoui/wood-workshop/inventory"
	"github.com/faycal-henaoui/wood-workshop/store/sqlite"
)

// Flow-control sentinels for transaction callbacks.
var (
	errNotFound  = errors.New("invoice not found")
	errNotAQuote = errors.New("not a quote")
)

// CreateInvoice creates an invoice or quote. Invoices verify and deduct
// stock atomically; quotes only persist.
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req InvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ClientName == "" {
		writeError(w, http.StatusBadRequest, "Client name is required", nil)
		return
	}

	invType := inventory.InvoiceTypeInvoice
	status := inventory.StatusPending
	if req.Type == string(inventory.InvoiceTypeQuote) {
		invType = inventory.InvoiceTypeQuote
		status = inventory.StatusDraft
	}

	var created inventory.Invoice
	err := h.Store.WithTx(ctx, func(tx *sqlite.Tx) error {
		clientID, err := tx.FindOrCreateClient(ctx, req.ClientName)
		if err != nil {
			return err
		}

		number, err := tx.NextInvoiceNumber(ctx)
		if err != nil {
			return err
		}

		created, err = tx.CreateInvoice(ctx, inventory.Invoice{
			ClientID:      clientID,
			InvoiceNumber: number,
			TotalAmount:   req.TotalAmount,
			LaborCost:     req.LaborCost,
			Status:        status,
			Type:          invType,
			CreatedAt:     h.Now().UTC(),
		})
		if err != nil {
			return err
		}

		lines, err := insertItems(ctx, tx, created.ID, req.Items)
		if err != nil {
			return err
		}

		if invType == inventory.InvoiceTypeInvoice {
			if err := inventory.CommitOrder(ctx, tx, number, lines); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		h.countShortage(err)
		writeStockError(w, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.InvoicesCreated.WithLabelValues(string(invType)).Inc()
	}
	writeJSON(w, http.StatusOK, created)
}

// insertItems persists the request lines against an invoice and returns the
// matching order lines for stock deduction, in input order.
func insertItems(ctx context.Context, tx *sqlite.Tx, invoiceID string, items []InvoiceItemRequest) ([]inventory.OrderLine, error) {
	var lines []inventory.OrderLine
	for _, item := range items {
		billed := ceilIfSheet(item.QuantityUsed, item.IsSheetMaterial)

		err := tx.InsertInvoiceItem(ctx, inventory.InvoiceItem{
			InvoiceID:   invoiceID,
			ProductID:   item.ProductID,
			MaterialID:  item.MaterialID,
			Description: item.Description,
			Quantity:    billed,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  billed.Mul(item.UnitPrice),
			Width:       item.CutWidth,
			Height:      item.CutLength,
		})
		if err != nil {
			return nil, err
		}

		lines = append(lines, toOrderLine(item.ProductID, item.MaterialID, billed, item.CutLength, item.CutWidth))
	}
	return lines, nil
}

func toOrderLine(productID, materialID string, qty, cutLength, cutWidth decimal.Decimal) inventory.OrderLine {
	if productID != "" {
		return inventory.ProductLine{ProductID: productID, Quantity: qty}
	}
	return inventory.MaterialLine{
		MaterialID: materialID,
		Quantity:   qty,
		CutLength:  cutLength,
		CutWidth:   cutWidth,
	}
}

// ListInvoices returns all invoices with client names, newest first.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.Store.ListInvoices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list invoices", err)
		return
	}
	if invoices == nil {
		invoices = []sqlite.InvoiceRow{}
	}
	writeJSON(w, http.StatusOK, invoices)
}

// GetInvoice returns the printable invoice view: header, client contact,
// lines and shop settings.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	detail, err := h.Store.GetInvoice(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get invoice", err)
		return
	}
	if detail == nil {
		writeError(w, http.StatusNotFound, "Invoice not found", nil)
		return
	}

	items, err := h.Store.InvoiceItems(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load invoice items", err)
		return
	}
	if items == nil {
		items = []inventory.InvoiceItem{}
	}

	settings, err := h.Store.GetSettings(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}

	writeJSON(w, http.StatusOK, InvoiceDetailResponse{
		InvoiceDetail: *detail,
		Items:         items,
		Settings:      settings,
	})
}

// ConvertQuote turns a draft quote into a pending invoice, verifying and
// deducting stock from the persisted lines.
func (h *Handler) ConvertQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	err := h.Store.WithTx(ctx, func(tx *sqlite.Tx) error {
		detail, err := tx.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		if detail == nil {
			return errNotFound
		}
		if detail.Type != inventory.InvoiceTypeQuote {
			return errNotAQuote
		}

		items, err := tx.InvoiceItems(ctx, id)
		if err != nil {
			return err
		}

		lines := make([]inventory.OrderLine, 0, len(items))
		for _, item := range items {
			// Cut length was stored as height on the way in.
			lines = append(lines, toOrderLine(item.ProductID, item.MaterialID, item.Quantity, item.Height, item.Width))
		}

		if err := inventory.CommitOrder(ctx, tx, detail.InvoiceNumber, lines); err != nil {
			return err
		}
		return tx.ConvertQuote(ctx, id)
	})
	if err != nil {
		switch err {
		case errNotFound:
			writeError(w, http.StatusNotFound, "Invoice not found", nil)
		case errNotAQuote:
			writeError(w, http.StatusBadRequest, "Invoice is already processed (not a quote)", nil)
		default:
			h.countShortage(err)
			writeStockError(w, err)
		}
		return
	}

	if h.Metrics != nil {
		h.Metrics.QuotesConverted.Inc()
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Converted to Invoice and stock deducted"})
}

// UpdateQuote replaces a quote's header and lines. Processed invoices are
// immutable.
func (h *Handler) UpdateQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req InvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	err := h.Store.WithTx(ctx, func(tx *sqlite.Tx) error {
		detail, err := tx.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		if detail == nil {
			return errNotFound
		}
		if detail.Type != inventory.InvoiceTypeQuote {
			return errNotAQuote
		}

		clientID, err := tx.FindOrCreateClient(ctx, req.ClientName)
		if err != nil {
			return err
		}

		err = tx.UpdateInvoiceHeader(ctx, inventory.Invoice{
			ID:          id,
			ClientID:    clientID,
			TotalAmount: req.TotalAmount,
			LaborCost:   req.LaborCost,
		})
		if err != nil {
			return err
		}

		if err := tx.DeleteInvoiceItems(ctx, id); err != nil {
			return err
		}
		_, err = insertItems(ctx, tx, id, req.Items)
		return err
	})
	if err != nil {
		switch err {
		case errNotFound:
			writeError(w, http.StatusNotFound, "Invoice not found", nil)
		case errNotAQuote:
			writeError(w, http.StatusBadRequest, "Cannot update a processed invoice. Only Quotes can be edited", nil)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to update quote", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Quote Updated Successfully"})
}

// UpdateInvoiceStatus sets the payment/lifecycle status.
func (h *Handler) UpdateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	status, ok := parseStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid status", nil)
		return
	}

	if err := h.Store.SetInvoiceStatus(r.Context(), id, status); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update status", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Updated"})
}

// UpdatePaymentMethod records how the invoice was paid.
func (h *Handler) UpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req PaymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Store.SetInvoicePaymentMethod(r.Context(), id, req.PaymentMethod); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update payment method", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Updated"})
}

// DeleteInvoice removes an invoice. Stock consumed by the invoice is not
// restored.
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteInvoice(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete invoice", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Deleted"})
}

func (h *Handler) countShortage(err error) {
	if h.Metrics == nil {
		return
	}
	if inventory.IsClientError(err) {
		h.Metrics.ShortagesRejected.Inc()
	}
}

func parseStatus(s string) (inventory.InvoiceStatus, bool) {
	switch inventory.InvoiceStatus(s) {
	case inventory.StatusDraft, inventory.StatusPending, inventory.StatusPaid, inventory.StatusCancelled:
		return inventory.InvoiceStatus(s), true
	}
	return "", false
}
