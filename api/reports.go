/*
reports.go - Dashboard and reporting handlers

Thin HTTP wrappers over the aggregate queries in store/sqlite/reports.go.
Query parameters are parsed and clamped here; the status filter is mapped
onto the enumerated invoice statuses, never passed through as a string.
*/
package api

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/faycal-henaoui/wood-workshop/inventory"
	"github.com/faycal-henaoui/wood-workshop/store/sqlite"
)

// Dashboard returns the aggregated shop indicators.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.Dashboard(r.Context(), h.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// DashboardBreakdown returns per-day revenue and order counts for the
// current month.
func (h *Handler) DashboardBreakdown(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.Store.DailyBreakdown(r.Context(), h.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute breakdown", err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

// monthsParam parses ?months= with a default, clamped to a sane range.
func monthsParam(r *http.Request, def int) int {
	months, err := strconv.Atoi(r.URL.Query().Get("months"))
	if err != nil || months < 1 || months > 120 {
		return def
	}
	return months
}

// statusParam maps ?status= onto an enumerated filter. Empty means all.
func statusParam(r *http.Request) (inventory.InvoiceStatus, bool) {
	switch r.URL.Query().Get("status") {
	case "", "All":
		return "", true
	case string(inventory.StatusPaid):
		return inventory.StatusPaid, true
	case string(inventory.StatusPending):
		return inventory.StatusPending, true
	}
	return "", false
}

// RevenueReport returns per-month revenue over the lookback window.
func (h *Handler) RevenueReport(w http.ResponseWriter, r *http.Request) {
	months := monthsParam(r, 6)
	revenue, err := h.Store.MonthlyRevenue(r.Context(), months, h.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute revenue", err)
		return
	}
	if revenue == nil {
		revenue = []sqlite.MonthRevenue{}
	}
	writeJSON(w, http.StatusOK, revenue)
}

// MaterialsReport returns this month's top-selling items.
func (h *Handler) MaterialsReport(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.TopItemsThisMonth(r.Context(), h.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to rank items", err)
		return
	}
	if items == nil {
		items = []sqlite.TopItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// ClientsReport returns the top clients by revenue or invoice count.
func (h *Handler) ClientsReport(w http.ResponseWriter, r *http.Request) {
	byInvoices := r.URL.Query().Get("sortBy") == "invoices"
	clients, err := h.Store.TopClients(r.Context(), byInvoices)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to rank clients", err)
		return
	}
	if clients == nil {
		clients = []sqlite.ClientStat{}
	}
	writeJSON(w, http.StatusOK, clients)
}

// StatsReport returns high-level financial metrics: revenue, cost, profit
// (labor income) and margin over the window.
func (h *Handler) StatsReport(w http.ResponseWriter, r *http.Request) {
	months := monthsParam(r, 6)

	totals, err := h.Store.RevenueAndLabor(r.Context(), months, "", h.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute stats", err)
		return
	}

	cost := totals.Revenue.Sub(totals.Labor)
	margin := decimal.Zero
	if totals.Revenue.IsPositive() {
		margin = totals.Labor.Div(totals.Revenue).Mul(decimal.NewFromInt(100)).Round(1)
	}

	writeJSON(w, http.StatusOK, struct {
		Revenue decimal.Decimal `json:"revenue"`
		Cost    decimal.Decimal `json:"cost"`
		Profit  decimal.Decimal `json:"profit"`
		Margin  decimal.Decimal `json:"margin"`
	}{Revenue: totals.Revenue, Cost: cost, Profit: totals.Labor, Margin: margin})
}

// FinancialsReport returns the detailed financial summary and the monthly
// chart series.
func (h *Handler) FinancialsReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	months := monthsParam(r, 12)

	status, ok := statusParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid status filter", nil)
		return
	}

	now := h.Now()
	totals, err := h.Store.RevenueAndLabor(ctx, months, status, now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute financials", err)
		return
	}
	purchases, err := h.Store.PurchasesTotal(ctx, months, now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute financials", err)
		return
	}
	cogs, err := h.Store.EstimatedCOGS(ctx, months, status, now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute financials", err)
		return
	}
	chart, err := h.Store.MonthlyFinancials(ctx, months, status, now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute financials", err)
		return
	}
	if chart == nil {
		chart = []sqlite.MonthlyFinancial{}
	}

	// Goods revenue is what's left after labor; material profit is goods
	// revenue minus estimated cost of goods sold.
	goodsRevenue := totals.Revenue.Sub(totals.Labor)
	materialProfit := goodsRevenue.Sub(cogs)
	netProfit := totals.Labor.Add(materialProfit)

	writeJSON(w, http.StatusOK, FinancialsResponse{
		Summary: FinancialSummary{
			Revenue:           totals.Revenue,
			LaborIncome:       totals.Labor,
			MaterialProfit:    materialProfit,
			COGS:              cogs,
			NetProfit:         netProfit,
			PurchasesCashflow: purchases,
		},
		ChartData: chart,
	})
}

// FinancialSummary is the headline block of the financials report.
type FinancialSummary struct {
	Revenue           decimal.Decimal `json:"revenue"`
	LaborIncome       decimal.Decimal `json:"labor_income"`
	MaterialProfit    decimal.Decimal `json:"material_profit"`
	COGS              decimal.Decimal `json:"cogs"`
	NetProfit         decimal.Decimal `json:"net_profit"`
	PurchasesCashflow decimal.Decimal `json:"purchases_cashflow"`
}

// FinancialsResponse pairs the summary with the monthly chart series.
type FinancialsResponse struct {
	Summary   FinancialSummary          `json:"summary"`
	ChartData []sqlite.MonthlyFinancial `json:"chart_data"`
}
