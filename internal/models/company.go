package models

import (
	"time"

	"gorm.io/gorm"
)

// Company is the tenant boundary. Every planning query is scoped to one company;
// the engine never mixes rows across companies.
type Company struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Code      string         `gorm:"uniqueIndex;not null" json:"code"`
	Name      string         `gorm:"not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Company) TableName() string { return "companies" }

// Customer represents a sales-order counterparty.
type Customer struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CompanyID uint           `gorm:"index;not null;uniqueIndex:idx_customer_company_code" json:"company_id"`
	Code      string         `gorm:"index;uniqueIndex:idx_customer_company_code" json:"code"`
	Name      string         `gorm:"index;not null" json:"name"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	Address   string         `gorm:"type:text" json:"address"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Customer) TableName() string { return "customers" }
