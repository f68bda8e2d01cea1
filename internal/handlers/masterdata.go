package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/openfactory/fabriq/internal/models"
)

// listSkus returns the SKU catalog for a company, optionally by type
func (r *Router) listSkus(w http.ResponseWriter, req *http.Request) {
	companyID, ok := companyIDParam(w, req)
	if !ok {
		return
	}

	var skus []models.Sku
	q := r.db.Where("company_id = ?", companyID)
	if skuType := req.URL.Query().Get("type"); skuType != "" {
		q = q.Where("type = ?", skuType)
	}
	if err := q.Order("code ASC").Find(&skus).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch skus")
		return
	}
	respondJSON(w, http.StatusOK, skus)
}

// getSku returns a single SKU
func (r *Router) getSku(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	id, _ := strconv.ParseUint(vars["id"], 10, 64)

	var sku models.Sku
	if err := r.db.Preload("PreferredVendor").First(&sku, uint(id)).Error; err != nil {
		respondError(w, http.StatusNotFound, "Sku not found")
		return
	}
	respondJSON(w, http.StatusOK, sku)
}

// listVendors returns vendors for a company
func (r *Router) listVendors(w http.ResponseWriter, req *http.Request) {
	companyID, ok := companyIDParam(w, req)
	if !ok {
		return
	}

	var vendors []models.Vendor
	if err := r.db.Where("company_id = ?", companyID).Order("name ASC").Find(&vendors).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch vendors")
		return
	}
	respondJSON(w, http.StatusOK, vendors)
}

// listStockBalances returns stock balances for a company, optionally filtered
// by zone type or SKU
func (r *Router) listStockBalances(w http.ResponseWriter, req *http.Request) {
	companyID, ok := companyIDParam(w, req)
	if !ok {
		return
	}

	var balances []models.StockBalance
	q := r.db.Preload("Sku").Preload("Zone").Where("stock_balances.company_id = ?", companyID)
	if zoneType := req.URL.Query().Get("zone_type"); zoneType != "" {
		q = q.Joins("JOIN stock_zones ON stock_zones.id = stock_balances.zone_id").
			Where("stock_zones.type = ?", zoneType)
	}
	if skuID := req.URL.Query().Get("sku_id"); skuID != "" {
		q = q.Where("stock_balances.sku_id = ?", skuID)
	}
	if err := q.Find(&balances).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch stock balances")
		return
	}
	respondJSON(w, http.StatusOK, balances)
}
