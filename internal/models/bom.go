package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bom is a versioned bill of materials for one finished SKU. Only the highest
// version per finished SKU is active; older versions are kept for production
// history.
type Bom struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CompanyID     uint           `gorm:"index;not null" json:"company_id"`
	FinishedSkuID uint           `gorm:"index;uniqueIndex:idx_bom_sku_version" json:"finished_sku_id"`
	Version       int            `gorm:"not null;default:1;uniqueIndex:idx_bom_sku_version" json:"version"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Lines []BomLine `gorm:"foreignKey:BomID" json:"lines,omitempty"`
}

func (Bom) TableName() string { return "boms" }

// BomLine maps one raw SKU to the quantity consumed per unit of finished
// product. ScrapPct is recorded by the BOM editor and used by production-log
// variance reporting; requirement planning does not apply it.
type BomLine struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	BomID    uint            `gorm:"index;not null" json:"bom_id"`
	RawSkuID uint            `gorm:"index;not null" json:"raw_sku_id"`
	Quantity decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	ScrapPct decimal.Decimal `gorm:"type:decimal(8,4);default:0" json:"scrap_pct"`

	RawSku Sku `gorm:"foreignKey:RawSkuID" json:"-"`
}

func (BomLine) TableName() string { return "bom_lines" }

// Routing is the set of machine steps able to produce one finished SKU.
type Routing struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CompanyID     uint           `gorm:"index;not null" json:"company_id"`
	FinishedSkuID uint           `gorm:"index" json:"finished_sku_id"`
	Name          string         `json:"name"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Steps []RoutingStep `gorm:"foreignKey:RoutingID" json:"steps,omitempty"`
}

func (Routing) TableName() string { return "routings" }

// RoutingStep is one machine option within a routing. Steps are alternatives,
// not sequential stages; the bottleneck for time estimation is the minimum
// positive capacity across steps.
type RoutingStep struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	RoutingID         uint            `gorm:"index;not null" json:"routing_id"`
	Sequence          int             `gorm:"not null;default:1" json:"sequence"`
	MachineName       string          `json:"machine_name"`
	CapacityPerMinute decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"capacity_per_minute"`
}

func (RoutingStep) TableName() string { return "routing_steps" }
