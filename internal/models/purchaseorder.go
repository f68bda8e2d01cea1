package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PurchaseOrderStatus defines possible purchase-order statuses
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "DRAFT"
	PurchaseOrderStatusConfirmed PurchaseOrderStatus = "CONFIRMED"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "RECEIVED"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "CANCELLED"
)

// QcStatus tracks incoming quality control per purchase-order line.
type QcStatus string

const (
	QcStatusPending QcStatus = "pending"
	QcStatusPassed  QcStatus = "passed"
	QcStatusFailed  QcStatus = "failed"
)

// PurchaseOrder is a vendor-scoped order for raw materials. The auto-drafter
// keeps at most one open DRAFT order per vendor and consolidates new shortage
// lines into it.
type PurchaseOrder struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	CompanyID      uint                `gorm:"index;not null;uniqueIndex:idx_po_company_number" json:"company_id"`
	VendorID       uint                `gorm:"index;not null" json:"vendor_id"`
	OrderNumber    string              `gorm:"index;uniqueIndex:idx_po_company_number" json:"order_number"`
	Status         PurchaseOrderStatus `gorm:"index;default:DRAFT" json:"status"`
	IdempotencyKey string              `gorm:"index" json:"idempotency_key,omitempty"`
	Metadata       datatypes.JSON      `json:"metadata,omitempty"`
	OrderedAt      *time.Time          `json:"ordered_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	DeletedAt      gorm.DeletedAt      `gorm:"index" json:"-"`

	Vendor *Vendor             `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	Lines  []PurchaseOrderLine `gorm:"foreignKey:PurchaseOrderID" json:"lines,omitempty"`
}

func (PurchaseOrder) TableName() string { return "purchase_orders" }

// IsOpenDraft reports whether the order can still absorb auto-drafted lines.
func (po *PurchaseOrder) IsOpenDraft() bool {
	return po.Status == PurchaseOrderStatusDraft
}

// PurchaseOrderLine purchases one raw SKU at a unit price.
type PurchaseOrderLine struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	PurchaseOrderID uint            `gorm:"index;not null" json:"purchase_order_id"`
	SkuID           uint            `gorm:"index;not null" json:"sku_id"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"unit_price"`
	QcStatus        QcStatus        `gorm:"default:pending" json:"qc_status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Sku         Sku                       `gorm:"foreignKey:SkuID" json:"-"`
	Allocations []PurchaseOrderAllocation `gorm:"foreignKey:PurchaseOrderLineID" json:"allocations,omitempty"`
}

func (PurchaseOrderLine) TableName() string { return "purchase_order_lines" }

// LineTotal is quantity times unit price.
func (l *PurchaseOrderLine) LineTotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// PurchaseOrderAllocation links a purchase-order line to the sales-order line
// whose shortage it covers. Invariant: the allocations of one PO line never
// sum past that line's quantity.
type PurchaseOrderAllocation struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	PurchaseOrderLineID uint            `gorm:"index;not null" json:"purchase_order_line_id"`
	SalesOrderLineID    uint            `gorm:"index;not null" json:"sales_order_line_id"`
	Quantity            decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	CreatedAt           time.Time       `json:"created_at"`

	PurchaseOrderLine PurchaseOrderLine `gorm:"foreignKey:PurchaseOrderLineID" json:"-"`
}

func (PurchaseOrderAllocation) TableName() string { return "purchase_order_allocations" }
