package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesOrderStatus defines possible sales-order statuses
type SalesOrderStatus string

const (
	SalesOrderStatusDraft     SalesOrderStatus = "draft"
	SalesOrderStatusConfirmed SalesOrderStatus = "confirmed"
	SalesOrderStatusDelivered SalesOrderStatus = "delivered"
	SalesOrderStatusCancelled SalesOrderStatus = "cancelled"
)

// SalesOrder is a customer order for finished goods.
type SalesOrder struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	CompanyID   uint             `gorm:"index;not null;uniqueIndex:idx_so_company_number" json:"company_id"`
	OrderNumber string           `gorm:"index;uniqueIndex:idx_so_company_number" json:"order_number"`
	CustomerID  uint             `gorm:"index" json:"customer_id"`
	Status      SalesOrderStatus `gorm:"index;default:draft" json:"status"`
	OrderedAt   time.Time        `json:"ordered_at"`
	ConfirmedAt *time.Time       `json:"confirmed_at,omitempty"`
	Notes       string           `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`

	Customer *Customer        `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Lines    []SalesOrderLine `gorm:"foreignKey:SalesOrderID" json:"lines,omitempty"`
}

func (SalesOrder) TableName() string { return "sales_orders" }

// SalesOrderLine orders one finished SKU. Position preserves the order lines
// arrived in; availability processes lines in this order, so earlier lines get
// first claim on shared finished stock.
type SalesOrderLine struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	SalesOrderID uint            `gorm:"index;not null" json:"sales_order_id"`
	SkuID        uint            `gorm:"index;not null" json:"sku_id"`
	Position     int             `gorm:"not null;default:0" json:"position"`
	OrderedQty   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"ordered_qty"`
	DeliveredQty decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"delivered_qty"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	Sku Sku `gorm:"foreignKey:SkuID" json:"-"`
}

func (SalesOrderLine) TableName() string { return "sales_order_lines" }

// RemainingQty is the undelivered portion of the line, floored at zero.
func (l *SalesOrderLine) RemainingQty() decimal.Decimal {
	remaining := l.OrderedQty.Sub(l.DeliveredQty)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}
