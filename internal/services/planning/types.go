package planning

import (
	"github.com/shopspring/decimal"
)

// OrderLineInput is one sales-order line as the engine sees it. Input order is
// significant: earlier lines get first claim on shared finished stock.
type OrderLineInput struct {
	LineID       uint            `json:"line_id"`
	SkuID        uint            `json:"sku_id"`
	OrderedQty   decimal.Decimal `json:"ordered_qty"`
	DeliveredQty decimal.Decimal `json:"delivered_qty"`
}

// StepEstimate is the what-if production time on one routing step. Steps are
// alternative machines, so estimates are reported per step, never summed.
// EstimatedMinutes is nil when the step has no positive capacity or there is
// nothing to produce.
type StepEstimate struct {
	Sequence          int              `json:"sequence"`
	MachineName       string           `json:"machine_name"`
	CapacityPerMinute decimal.Decimal  `json:"capacity_per_minute"`
	EstimatedMinutes  *decimal.Decimal `json:"estimated_minutes"`
}

// RawNeed is the exploded raw-material requirement of one order line.
type RawNeed struct {
	RawSkuID    uint            `json:"raw_sku_id"`
	SkuCode     string          `json:"sku_code"`
	SkuName     string          `json:"sku_name"`
	Unit        string          `json:"unit"`
	RequiredQty decimal.Decimal `json:"required_qty"`
}

// LineAvailability is the per-line fulfillment breakdown.
type LineAvailability struct {
	LineID             uint             `json:"line_id"`
	SkuID              uint             `json:"sku_id"`
	SkuCode            string           `json:"sku_code"`
	SkuName            string           `json:"sku_name"`
	OrderedQty         decimal.Decimal  `json:"ordered_qty"`
	DeliveredQty       decimal.Decimal  `json:"delivered_qty"`
	RemainingQty       decimal.Decimal  `json:"remaining_qty"`
	FromStockQty       decimal.Decimal  `json:"from_stock_qty"`
	ProductionQty      decimal.Decimal  `json:"production_qty"`
	BottleneckCapacity *decimal.Decimal `json:"bottleneck_capacity"`
	EstimatedMinutes   *decimal.Decimal `json:"estimated_minutes"`
	Steps              []StepEstimate   `json:"steps"`
	RawNeeds           []RawNeed        `json:"raw_needs"`
}

// RawAvailability is the rolled-up picture for one raw SKU across all lines.
type RawAvailability struct {
	RawSkuID          uint            `json:"raw_sku_id"`
	SkuCode           string          `json:"sku_code"`
	SkuName           string          `json:"sku_name"`
	Unit              string          `json:"unit"`
	PreferredVendorID *uint           `json:"preferred_vendor_id,omitempty"`
	RequiredQty       decimal.Decimal `json:"required_qty"`
	OnHandTotalQty    decimal.Decimal `json:"on_hand_total_qty"`
	ReservedQty       decimal.Decimal `json:"reserved_qty"`
	FreeQty           decimal.Decimal `json:"free_qty"`
	ShortageQty       decimal.Decimal `json:"shortage_qty"`
}

// AvailabilitySummary is the full read-time projection for one set of order
// lines. It is recomputed on every call and never persisted.
type AvailabilitySummary struct {
	CompanyID      uint                     `json:"company_id"`
	Lines          []LineAvailability       `json:"lines"`
	Raws           []RawAvailability        `json:"raws"`
	FinishedOnHand map[uint]decimal.Decimal `json:"finished_on_hand"`
}

// PlanItem is one recommended purchase within a vendor plan.
type PlanItem struct {
	RawSkuID  uint            `json:"raw_sku_id"`
	SkuCode   string          `json:"sku_code"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// VendorPlan groups recommended purchases for one preferred vendor.
type VendorPlan struct {
	VendorID   uint            `json:"vendor_id"`
	VendorName string          `json:"vendor_name"`
	Items      []PlanItem      `json:"items"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// SkippedItem records a shortage the planner could not turn into a purchase
// recommendation, with a human-readable reason for the caller to surface.
type SkippedItem struct {
	RawSkuID uint   `json:"raw_sku_id"`
	SkuCode  string `json:"sku_code"`
	Reason   string `json:"reason"`
}

// Skip reasons surfaced to callers as actionable warnings.
const (
	SkipReasonNoPreferredVendor = "Missing preferred vendor"
	SkipReasonVendorNotFound    = "Vendor not found"
)

// ProcurementPlan is the read-only purchase recommendation.
type ProcurementPlan struct {
	Vendors []VendorPlan  `json:"vendors"`
	Skipped []SkippedItem `json:"skipped"`
}

// AutoDraftResult reports what the auto-drafter persisted.
type AutoDraftResult struct {
	CreatedPOIDs []uint        `json:"created_po_ids"`
	ReusedPOIDs  []uint        `json:"reused_po_ids"`
	CreatedLines int           `json:"created_lines"`
	Skipped      []SkippedItem `json:"skipped"`
}
