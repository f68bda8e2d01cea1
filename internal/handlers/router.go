package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openfactory/fabriq/internal/database"
	"github.com/openfactory/fabriq/internal/middleware"
	"github.com/openfactory/fabriq/internal/services/planning"
)

// Router wraps the mux router, the database, and the planning engine
type Router struct {
	*mux.Router
	db     *database.DB
	engine *planning.Engine
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *database.DB) *Router {
	r := &Router{
		Router: mux.NewRouter(),
		db:     db,
		engine: planning.NewEngine(planning.NewGormStore(db.DB)),
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Timing)

	// Health and metrics
	r.HandleFunc("/health", r.healthCheck).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Sales orders and the planning flows hanging off them
	so := r.PathPrefix("/api/sales-orders").Subrouter()
	so.HandleFunc("", r.listSalesOrders).Methods("GET")
	so.HandleFunc("", r.createSalesOrder).Methods("POST")
	so.HandleFunc("/{id}", r.getSalesOrder).Methods("GET")
	so.HandleFunc("/{id}/plan", r.planSalesOrder).Methods("GET")
	so.HandleFunc("/{id}/confirm", r.confirmSalesOrder).Methods("POST")
	so.HandleFunc("/{id}/replan", r.replanSalesOrder).Methods("POST")
	so.HandleFunc("/{id}/lines/{lineId}/deliver", r.deliverSalesOrderLine).Methods("POST")

	// Stateless planning previews for hypothetical line sets
	plan := r.PathPrefix("/api/planning").Subrouter()
	plan.HandleFunc("/availability", r.previewAvailability).Methods("POST")
	plan.HandleFunc("/plan", r.previewProcurementPlan).Methods("POST")

	// Purchase orders
	po := r.PathPrefix("/api/purchase-orders").Subrouter()
	po.HandleFunc("", r.listPurchaseOrders).Methods("GET")
	po.HandleFunc("/{id}", r.getPurchaseOrder).Methods("GET")

	// Master data (read-only; editing lives in the back-office app)
	r.HandleFunc("/api/skus", r.listSkus).Methods("GET")
	r.HandleFunc("/api/skus/{id}", r.getSku).Methods("GET")
	r.HandleFunc("/api/vendors", r.listVendors).Methods("GET")
	r.HandleFunc("/api/stock", r.listStockBalances).Methods("GET")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
