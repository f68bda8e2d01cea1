package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SkuType separates sellable finished goods from purchasable raw materials.
type SkuType string

const (
	SkuTypeFinished SkuType = "finished"
	SkuTypeRaw      SkuType = "raw"
)

// Sku is a stock-keeping unit. Purchasing fields (preferred vendor, prices)
// are only meaningful for raw SKUs.
type Sku struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	CompanyID         uint            `gorm:"index;not null;uniqueIndex:idx_sku_company_code" json:"company_id"`
	Code              string          `gorm:"index;uniqueIndex:idx_sku_company_code" json:"code"`
	Name              string          `gorm:"index;not null" json:"name"`
	Type              SkuType         `gorm:"index;not null" json:"type"` // finished | raw
	Unit              string          `gorm:"not null;default:PCS" json:"unit"`
	PreferredVendorID *uint           `gorm:"index" json:"preferred_vendor_id,omitempty"`
	LastPurchasePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"last_purchase_price"`
	StandardCost      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"standard_cost"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`

	PreferredVendor *Vendor `gorm:"foreignKey:PreferredVendorID" json:"preferred_vendor,omitempty"`
}

func (Sku) TableName() string { return "skus" }

// IsRaw returns true for raw-material SKUs.
func (s *Sku) IsRaw() bool { return s.Type == SkuTypeRaw }

// IsFinished returns true for finished-goods SKUs.
func (s *Sku) IsFinished() bool { return s.Type == SkuTypeFinished }
