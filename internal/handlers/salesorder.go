package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openfactory/fabriq/internal/middleware"
	"github.com/openfactory/fabriq/internal/models"
	"github.com/openfactory/fabriq/internal/services/planning"
)

// listSalesOrders returns sales orders for a company
func (r *Router) listSalesOrders(w http.ResponseWriter, req *http.Request) {
	companyID, ok := companyIDParam(w, req)
	if !ok {
		return
	}

	var orders []models.SalesOrder
	q := r.db.Preload("Customer").Where("company_id = ?", companyID)
	if status := req.URL.Query().Get("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("id DESC").Limit(200).Find(&orders).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch sales orders")
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// createSalesOrderRequest is the payload for creating a draft sales order
type createSalesOrderRequest struct {
	CompanyID   uint   `json:"company_id"`
	CustomerID  uint   `json:"customer_id"`
	OrderNumber string `json:"order_number"`
	Lines       []struct {
		SkuID      uint            `json:"sku_id"`
		OrderedQty decimal.Decimal `json:"ordered_qty"`
		UnitPrice  decimal.Decimal `json:"unit_price"`
	} `json:"lines"`
}

// createSalesOrder creates a draft sales order with its lines
func (r *Router) createSalesOrder(w http.ResponseWriter, req *http.Request) {
	var payload createSalesOrderRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if payload.CompanyID == 0 || len(payload.Lines) == 0 {
		respondError(w, http.StatusBadRequest, "company_id and at least one line are required")
		return
	}

	order := models.SalesOrder{
		CompanyID:   payload.CompanyID,
		CustomerID:  payload.CustomerID,
		OrderNumber: payload.OrderNumber,
		Status:      models.SalesOrderStatusDraft,
		OrderedAt:   time.Now().UTC(),
	}
	for i, line := range payload.Lines {
		order.Lines = append(order.Lines, models.SalesOrderLine{
			SkuID:      line.SkuID,
			Position:   i,
			OrderedQty: line.OrderedQty,
			UnitPrice:  line.UnitPrice,
		})
	}

	if err := r.db.Create(&order).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create sales order")
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

// getSalesOrder returns one sales order with its live availability projection
func (r *Router) getSalesOrder(w http.ResponseWriter, req *http.Request) {
	order, ok := r.loadOrder(w, req)
	if !ok {
		return
	}

	lines := orderLineInputs(order)
	// The order's own reservations are excluded so the projection reads the
	// same before and after confirmation.
	availability, err := r.engine.ComputeAvailability(req.Context(), order.CompanyID, lines, orderLineIDs(order))
	if err != nil {
		middleware.FromContext(req.Context()).Error("availability failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to compute availability")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"order":        order,
		"availability": availability,
	})
}

// planSalesOrder returns the procurement-plan preview for an order
func (r *Router) planSalesOrder(w http.ResponseWriter, req *http.Request) {
	order, ok := r.loadOrder(w, req)
	if !ok {
		return
	}

	plan, err := r.engine.BuildProcurementPlan(req.Context(), order.CompanyID, orderLineInputs(order), nil, orderLineIDs(order))
	if err != nil {
		middleware.FromContext(req.Context()).Error("procurement plan failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to build procurement plan")
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// confirmSalesOrder reserves raw stock and auto-drafts purchase orders for the
// order's shortages, then marks it confirmed. The whole sequence is one
// transaction: either everything commits or nothing does.
func (r *Router) confirmSalesOrder(w http.ResponseWriter, req *http.Request) {
	order, ok := r.loadOrder(w, req)
	if !ok {
		return
	}
	if order.Status != models.SalesOrderStatusDraft {
		respondError(w, http.StatusConflict, "Only draft orders can be confirmed")
		return
	}

	result, err := r.runPlanning(req, order)
	if err != nil {
		middleware.FromContext(req.Context()).Error("confirm failed",
			zap.Uint("order_id", order.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to confirm sales order")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"order_id": order.ID,
		"status":   models.SalesOrderStatusConfirmed,
		"drafted":  result,
	})
}

// replanSalesOrder re-runs reservation and auto-drafting for a confirmed
// order, refreshing held quantities against current stock and BOMs.
func (r *Router) replanSalesOrder(w http.ResponseWriter, req *http.Request) {
	order, ok := r.loadOrder(w, req)
	if !ok {
		return
	}
	if order.Status != models.SalesOrderStatusConfirmed {
		respondError(w, http.StatusConflict, "Only confirmed orders can be re-planned")
		return
	}

	result, err := r.runPlanning(req, order)
	if err != nil {
		middleware.FromContext(req.Context()).Error("replan failed",
			zap.Uint("order_id", order.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to re-plan sales order")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"order_id": order.ID,
		"drafted":  result,
	})
}

// runPlanning executes reserve + auto-draft + status update inside a single
// database transaction, with the engine bound to the transaction handle.
func (r *Router) runPlanning(req *http.Request, order *models.SalesOrder) (*planning.AutoDraftResult, error) {
	ctx := req.Context()
	lines := orderLineInputs(order)
	own := orderLineIDs(order)

	var result *planning.AutoDraftResult
	err := r.db.Transaction(func(tx *gorm.DB) error {
		engine := planning.NewEngine(planning.NewGormStore(tx))

		availability, err := engine.ComputeAvailability(ctx, order.CompanyID, lines, own)
		if err != nil {
			return err
		}
		if err := engine.ReserveRawForOrder(ctx, order.CompanyID, availability); err != nil {
			return err
		}
		result, err = engine.AutoDraftPurchaseOrders(ctx, order.CompanyID, order.ID, order.OrderNumber, lines)
		if err != nil {
			return err
		}

		if order.Status == models.SalesOrderStatusDraft {
			now := time.Now().UTC()
			order.Status = models.SalesOrderStatusConfirmed
			order.ConfirmedAt = &now
			if err := tx.Save(order).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// deliverRequest is the payload for recording a delivery against a line
type deliverRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// deliverSalesOrderLine records a delivered quantity and releases raw
// reservations the reduced production requirement no longer needs.
func (r *Router) deliverSalesOrderLine(w http.ResponseWriter, req *http.Request) {
	order, ok := r.loadOrder(w, req)
	if !ok {
		return
	}

	vars := mux.Vars(req)
	lineID, _ := strconv.ParseUint(vars["lineId"], 10, 64)

	var payload deliverRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil || !payload.Quantity.IsPositive() {
		respondError(w, http.StatusBadRequest, "quantity must be a positive number")
		return
	}

	var line *models.SalesOrderLine
	for i := range order.Lines {
		if order.Lines[i].ID == uint(lineID) {
			line = &order.Lines[i]
			break
		}
	}
	if line == nil {
		respondError(w, http.StatusNotFound, "Order line not found")
		return
	}

	ctx := req.Context()
	own := orderLineIDs(order)

	before, err := r.engine.ComputeAvailability(ctx, order.CompanyID, orderLineInputs(order), own)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to compute availability")
		return
	}

	line.DeliveredQty = line.DeliveredQty.Add(payload.Quantity)
	if err := r.db.Save(line).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update delivered quantity")
		return
	}

	after, err := r.engine.ComputeAvailability(ctx, order.CompanyID, orderLineInputs(order), own)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to compute availability")
		return
	}

	// Release the portion of each raw hold the delivery made unnecessary.
	for _, need := range lineRawNeeds(before, line.ID) {
		remaining := rawNeedIn(after, line.ID, need.RawSkuID)
		released := need.RequiredQty.Sub(remaining)
		if !released.IsPositive() {
			continue
		}
		if err := r.engine.ReleaseReservationForLine(ctx, line.ID, need.RawSkuID, released); err != nil {
			middleware.FromContext(ctx).Error("release failed",
				zap.Uint("line_id", line.ID), zap.Uint("raw_sku_id", need.RawSkuID), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "Failed to release reservations")
			return
		}
	}

	respondJSON(w, http.StatusOK, line)
}

// loadOrder fetches the order in the path with its lines in position order.
func (r *Router) loadOrder(w http.ResponseWriter, req *http.Request) (*models.SalesOrder, bool) {
	vars := mux.Vars(req)
	id, _ := strconv.ParseUint(vars["id"], 10, 64)

	var order models.SalesOrder
	err := r.db.
		Preload("Customer").
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("sales_order_lines.position ASC, sales_order_lines.id ASC")
		}).
		First(&order, uint(id)).Error
	if err != nil {
		respondError(w, http.StatusNotFound, "Sales order not found")
		return nil, false
	}
	return &order, true
}

// orderLineInputs converts persisted lines to engine input, preserving
// position order.
func orderLineInputs(order *models.SalesOrder) []planning.OrderLineInput {
	inputs := make([]planning.OrderLineInput, 0, len(order.Lines))
	for _, line := range order.Lines {
		inputs = append(inputs, planning.OrderLineInput{
			LineID:       line.ID,
			SkuID:        line.SkuID,
			OrderedQty:   line.OrderedQty,
			DeliveredQty: line.DeliveredQty,
		})
	}
	return inputs
}

func orderLineIDs(order *models.SalesOrder) []uint {
	ids := make([]uint, 0, len(order.Lines))
	for _, line := range order.Lines {
		ids = append(ids, line.ID)
	}
	return ids
}

func lineRawNeeds(summary *planning.AvailabilitySummary, lineID uint) []planning.RawNeed {
	for _, la := range summary.Lines {
		if la.LineID == lineID {
			return la.RawNeeds
		}
	}
	return nil
}

func rawNeedIn(summary *planning.AvailabilitySummary, lineID, rawSkuID uint) decimal.Decimal {
	for _, need := range lineRawNeeds(summary, lineID) {
		if need.RawSkuID == rawSkuID {
			return need.RequiredQty
		}
	}
	return decimal.Zero
}

// companyIDParam reads the mandatory company_id query parameter.
func companyIDParam(w http.ResponseWriter, req *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(req.URL.Query().Get("company_id"), 10, 64)
	if err != nil || id == 0 {
		respondError(w, http.StatusBadRequest, "company_id query parameter is required")
		return 0, false
	}
	return uint(id), true
}
