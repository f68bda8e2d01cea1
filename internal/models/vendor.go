package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Vendor represents a raw-material supplier.
type Vendor struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CompanyID     uint           `gorm:"index;not null;uniqueIndex:idx_vendor_company_code" json:"company_id"`
	Code          string         `gorm:"index;uniqueIndex:idx_vendor_company_code" json:"code"`
	Name          string         `gorm:"index;not null" json:"name"`
	ContactPerson string         `json:"contact_person"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone"`
	Address       string         `gorm:"type:text" json:"address"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Vendor) TableName() string { return "vendors" }

// VendorSkuPrice records the last negotiated price for a (vendor, raw SKU)
// pair. When present it wins over the SKU's own last purchase price.
type VendorSkuPrice struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	CompanyID       uint            `gorm:"index;not null" json:"company_id"`
	VendorID        uint            `gorm:"index;uniqueIndex:idx_vendor_sku_price" json:"vendor_id"`
	SkuID           uint            `gorm:"index;uniqueIndex:idx_vendor_sku_price" json:"sku_id"`
	LastPrice       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"last_price"`
	LastPurchasedAt *time.Time      `json:"last_purchased_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Vendor Vendor `gorm:"foreignKey:VendorID" json:"-"`
	Sku    Sku    `gorm:"foreignKey:SkuID" json:"-"`
}

func (VendorSkuPrice) TableName() string { return "vendor_sku_prices" }
