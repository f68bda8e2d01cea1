package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/openfactory/fabriq/internal/models"
)

// listPurchaseOrders returns purchase orders for a company, optionally
// filtered by status
func (r *Router) listPurchaseOrders(w http.ResponseWriter, req *http.Request) {
	companyID, ok := companyIDParam(w, req)
	if !ok {
		return
	}

	var orders []models.PurchaseOrder
	q := r.db.Preload("Vendor").Where("company_id = ?", companyID)
	if status := req.URL.Query().Get("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("id DESC").Limit(200).Find(&orders).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch purchase orders")
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// getPurchaseOrder returns one purchase order with lines and their
// sales-order allocations
func (r *Router) getPurchaseOrder(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	id, _ := strconv.ParseUint(vars["id"], 10, 64)

	var order models.PurchaseOrder
	err := r.db.
		Preload("Vendor").
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("purchase_order_lines.id ASC")
		}).
		Preload("Lines.Allocations").
		First(&order, uint(id)).Error
	if err != nil {
		respondError(w, http.StatusNotFound, "Purchase order not found")
		return
	}
	respondJSON(w, http.StatusOK, order)
}
