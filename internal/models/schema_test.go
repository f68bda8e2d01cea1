package models

import (
	"reflect"
	"strings"
	"testing"
)

// Company-scoped uniqueness requires the composite uniqueIndex tag on BOTH
// columns. Tagging only the code column would make codes and order numbers
// globally unique, so two tenants could not share a SKU code or vendor code.
func TestCompanyScopedUniqueIndexes(t *testing.T) {
	tests := []struct {
		name   string
		model  interface{}
		index  string
		fields []string
	}{
		{"sku code", Sku{}, "idx_sku_company_code", []string{"CompanyID", "Code"}},
		{"vendor code", Vendor{}, "idx_vendor_company_code", []string{"CompanyID", "Code"}},
		{"customer code", Customer{}, "idx_customer_company_code", []string{"CompanyID", "Code"}},
		{"sales order number", SalesOrder{}, "idx_so_company_number", []string{"CompanyID", "OrderNumber"}},
		{"purchase order number", PurchaseOrder{}, "idx_po_company_number", []string{"CompanyID", "OrderNumber"}},
		{"balance per sku and zone", StockBalance{}, "idx_balance_sku_zone", []string{"SkuID", "ZoneID"}},
		{"vendor sku price", VendorSkuPrice{}, "idx_vendor_sku_price", []string{"VendorID", "SkuID"}},
		{"reservation per line and sku", StockReservation{}, "idx_reservation_line_sku", []string{"SalesOrderLineID", "RawSkuID"}},
		{"bom version", Bom{}, "idx_bom_sku_version", []string{"FinishedSkuID", "Version"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := reflect.TypeOf(tt.model)
			for _, fieldName := range tt.fields {
				field, ok := typ.FieldByName(fieldName)
				if !ok {
					t.Fatalf("%s has no field %s", typ.Name(), fieldName)
				}
				if !hasUniqueIndex(field.Tag.Get("gorm"), tt.index) {
					t.Errorf("%s.%s must carry uniqueIndex:%s, got tag %q",
						typ.Name(), fieldName, tt.index, field.Tag.Get("gorm"))
				}
			}
		})
	}
}

func hasUniqueIndex(tag, name string) bool {
	for _, part := range strings.Split(tag, ";") {
		if part == "uniqueIndex:"+name {
			return true
		}
	}
	return false
}
