package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ZoneType classifies stock zones. The planning engine sums balances across
// all zones of one type per SKU and never looks at individual zones.
type ZoneType string

const (
	ZoneTypeRawMaterial ZoneType = "RAW_MATERIAL"
	ZoneTypeFinished    ZoneType = "FINISHED"
	ZoneTypeWIP         ZoneType = "WIP"
	ZoneTypeShipping    ZoneType = "SHIPPING"
)

// StockZone is a typed storage area inside a company's warehouse.
type StockZone struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CompanyID uint           `gorm:"index;not null" json:"company_id"`
	Name      string         `gorm:"not null" json:"name"`
	Type      ZoneType       `gorm:"index;not null" json:"type"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (StockZone) TableName() string { return "stock_zones" }

// StockBalance is the quantity on hand for a (SKU, zone) pair. Rows are
// maintained by the stock ledger's posting logic; the planning engine only
// reads them.
type StockBalance struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	CompanyID      uint            `gorm:"index;not null" json:"company_id"`
	SkuID          uint            `gorm:"index;uniqueIndex:idx_balance_sku_zone" json:"sku_id"`
	ZoneID         uint            `gorm:"index;uniqueIndex:idx_balance_sku_zone" json:"zone_id"`
	QuantityOnHand decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"quantity_on_hand"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Sku  Sku       `gorm:"foreignKey:SkuID" json:"-"`
	Zone StockZone `gorm:"foreignKey:ZoneID" json:"-"`
}

func (StockBalance) TableName() string { return "stock_balances" }

// StockReservation is a soft hold on raw stock for one sales-order line.
// One row per (sales_order_line_id, raw_sku_id); the quantity is overwritten
// on every re-plan, never accumulated. A row with released_at set no longer
// counts against free stock.
type StockReservation struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	CompanyID        uint            `gorm:"index;not null" json:"company_id"`
	SalesOrderLineID uint            `gorm:"index;uniqueIndex:idx_reservation_line_sku" json:"sales_order_line_id"`
	RawSkuID         uint            `gorm:"index;uniqueIndex:idx_reservation_line_sku" json:"raw_sku_id"`
	Quantity         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	ReleasedAt       *time.Time      `gorm:"index" json:"released_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	RawSku Sku `gorm:"foreignKey:RawSkuID" json:"-"`
}

func (StockReservation) TableName() string { return "stock_reservations" }

// IsActive reports whether the reservation still holds stock.
func (r *StockReservation) IsActive() bool {
	return r.ReleasedAt == nil && r.Quantity.IsPositive()
}
