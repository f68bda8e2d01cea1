package planning

import (
	"context"
	"testing"

	"github.com/openfactory/fabriq/internal/models"
)

func planLines() []OrderLineInput {
	return []OrderLineInput{{LineID: 1, SkuID: skuF1, OrderedQty: d("15")}}
}

func TestBuildProcurementPlanBasicScenario(t *testing.T) {
	engine := NewEngine(demoStore())

	plan, err := engine.BuildProcurementPlan(context.Background(), 1, planLines(), nil, nil)
	if err != nil {
		t.Fatalf("BuildProcurementPlan failed: %v", err)
	}

	if len(plan.Vendors) != 1 {
		t.Fatalf("expected 1 vendor plan, got %d", len(plan.Vendors))
	}
	vendor := plan.Vendors[0]
	if vendor.VendorID != vendorV1 || vendor.VendorName != "Vendor One" {
		t.Errorf("unexpected vendor: %+v", vendor)
	}
	if len(vendor.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(vendor.Items))
	}
	item := vendor.Items[0]
	if item.RawSkuID != skuR1 {
		t.Errorf("expected item for R1, got sku %d", item.RawSkuID)
	}
	mustEqual(t, "quantity", item.Quantity, d("6"))
	mustEqual(t, "unit price", item.UnitPrice, d("50"))
	mustEqual(t, "line total", item.LineTotal, d("300"))
	mustEqual(t, "vendor total", vendor.TotalValue, d("300"))
	if len(plan.Skipped) != 0 {
		t.Errorf("expected nothing skipped, got %+v", plan.Skipped)
	}
}

func TestBuildProcurementPlanSkipsMissingPreferredVendor(t *testing.T) {
	m := demoStore()
	sku := m.skus[skuR1]
	sku.PreferredVendorID = nil
	m.skus[skuR1] = sku
	engine := NewEngine(m)

	plan, err := engine.BuildProcurementPlan(context.Background(), 1, planLines(), nil, nil)
	if err != nil {
		t.Fatalf("BuildProcurementPlan failed: %v", err)
	}

	if len(plan.Vendors) != 0 {
		t.Errorf("expected no vendor plans, got %+v", plan.Vendors)
	}
	if len(plan.Skipped) != 1 {
		t.Fatalf("expected 1 skipped item, got %d", len(plan.Skipped))
	}
	skipped := plan.Skipped[0]
	if skipped.RawSkuID != skuR1 || skipped.Reason != SkipReasonNoPreferredVendor {
		t.Errorf("unexpected skipped entry: %+v", skipped)
	}
}

func TestBuildProcurementPlanSkipsDanglingVendorReference(t *testing.T) {
	m := demoStore()
	delete(m.vendors, vendorV1)
	engine := NewEngine(m)

	plan, err := engine.BuildProcurementPlan(context.Background(), 1, planLines(), nil, nil)
	if err != nil {
		t.Fatalf("BuildProcurementPlan failed: %v", err)
	}

	if len(plan.Vendors) != 0 {
		t.Errorf("expected no vendor plans, got %+v", plan.Vendors)
	}
	if len(plan.Skipped) != 1 || plan.Skipped[0].Reason != SkipReasonVendorNotFound {
		t.Errorf("expected vendor-not-found skip, got %+v", plan.Skipped)
	}
}

func TestBuildProcurementPlanPricePrecedence(t *testing.T) {
	tests := []struct {
		name        string
		vendorPrice string // "" = no vendor price link
		lastPrice   string
		stdCost     string
		want        string
	}{
		{"vendor price wins", "45", "50", "40", "45"},
		{"falls back to last purchase price", "", "50", "40", "50"},
		{"falls back to standard cost", "", "0", "40", "40"},
		{"defaults to zero", "", "0", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := demoStore()
			sku := m.skus[skuR1]
			sku.LastPurchasePrice = d(tt.lastPrice)
			sku.StandardCost = d(tt.stdCost)
			m.skus[skuR1] = sku
			if tt.vendorPrice != "" {
				m.vendorPrices[[2]uint{vendorV1, skuR1}] = d(tt.vendorPrice)
			}
			engine := NewEngine(m)

			plan, err := engine.BuildProcurementPlan(context.Background(), 1, planLines(), nil, nil)
			if err != nil {
				t.Fatalf("BuildProcurementPlan failed: %v", err)
			}
			if len(plan.Vendors) != 1 || len(plan.Vendors[0].Items) != 1 {
				t.Fatalf("expected one item, got %+v", plan.Vendors)
			}
			mustEqual(t, "unit price", plan.Vendors[0].Items[0].UnitPrice, d(tt.want))
		})
	}
}

// Existing live PO allocations reduce the net shortage.
func TestBuildProcurementPlanNetsExistingAllocations(t *testing.T) {
	m := demoStore()
	engine := NewEngine(m)

	// A previous run drafted a PO covering 2 KG of line 1's R1 need.
	po := &models.PurchaseOrder{CompanyID: 1, VendorID: vendorV1, Status: models.PurchaseOrderStatusDraft}
	m.CreatePurchaseOrder(context.Background(), po)
	poLine := &models.PurchaseOrderLine{PurchaseOrderID: po.ID, SkuID: skuR1, Quantity: d("2")}
	m.CreatePurchaseOrderLine(context.Background(), poLine)
	m.CreateAllocation(context.Background(), &models.PurchaseOrderAllocation{
		PurchaseOrderLineID: poLine.ID, SalesOrderLineID: 1, Quantity: d("2"),
	})

	plan, err := engine.BuildProcurementPlan(context.Background(), 1, planLines(), nil, nil)
	if err != nil {
		t.Fatalf("BuildProcurementPlan failed: %v", err)
	}
	mustEqual(t, "netted shortage", plan.Vendors[0].Items[0].Quantity, d("4"))

	// Cancelling the PO restores the full shortage.
	po.Status = models.PurchaseOrderStatusCancelled
	plan, err = engine.BuildProcurementPlan(context.Background(), 1, planLines(), nil, nil)
	if err != nil {
		t.Fatalf("BuildProcurementPlan failed: %v", err)
	}
	mustEqual(t, "shortage without cancelled po", plan.Vendors[0].Items[0].Quantity, d("6"))
}

// Every raw SKU with a positive shortage lands in exactly one vendor bucket or
// in skipped, never both, never twice.
func TestBuildProcurementPlanVendorGroupingCompleteness(t *testing.T) {
	m := demoStore()
	vendor2 := vendorV2
	m.addVendor(models.Vendor{ID: vendorV2, Code: "V2", Name: "Vendor Two"})
	m.addSku(models.Sku{
		ID: skuR2, Code: "R2", Name: "Paint", Type: models.SkuTypeRaw, Unit: "L",
		PreferredVendorID: &vendor2, LastPurchasePrice: d("12"),
	})
	orphanID := uint(25)
	m.addSku(models.Sku{ID: orphanID, Code: "R3", Name: "Glue", Type: models.SkuTypeRaw, Unit: "L"})

	// F2 consumes all three raws.
	m.addSku(models.Sku{ID: skuF2, Code: "F2", Name: "Gadget", Type: models.SkuTypeFinished, Unit: "PCS"})
	m.addBom(skuF2, 1,
		models.BomLine{RawSkuID: skuR1, Quantity: d("1")},
		models.BomLine{RawSkuID: skuR2, Quantity: d("3")},
		models.BomLine{RawSkuID: orphanID, Quantity: d("1")},
	)
	engine := NewEngine(m)

	plan, err := engine.BuildProcurementPlan(context.Background(), 1, []OrderLineInput{
		{LineID: 1, SkuID: skuF1, OrderedQty: d("15")},
		{LineID: 2, SkuID: skuF2, OrderedQty: d("4")},
	}, nil, nil)
	if err != nil {
		t.Fatalf("BuildProcurementPlan failed: %v", err)
	}

	seen := make(map[uint]int)
	for _, vp := range plan.Vendors {
		for _, item := range vp.Items {
			seen[item.RawSkuID]++
		}
	}
	for sku, count := range seen {
		if count != 1 {
			t.Errorf("raw sku %d appears in %d buckets, want 1", sku, count)
		}
	}
	if seen[skuR1] != 1 || seen[skuR2] != 1 {
		t.Errorf("vendored shortages must be bucketed: %v", seen)
	}
	if len(plan.Skipped) != 1 || plan.Skipped[0].RawSkuID != orphanID {
		t.Errorf("vendor-less raw must be skipped: %+v", plan.Skipped)
	}
}

func TestBuildProcurementPlanZeroShortageProducesNothing(t *testing.T) {
	m := demoStore()
	// Plenty of raw stock.
	m.addBalance(skuR1, models.ZoneTypeRawMaterial, d("100"))
	engine := NewEngine(m)

	plan, err := engine.BuildProcurementPlan(context.Background(), 1, planLines(), nil, nil)
	if err != nil {
		t.Fatalf("BuildProcurementPlan failed: %v", err)
	}
	if len(plan.Vendors) != 0 || len(plan.Skipped) != 0 {
		t.Errorf("fully covered requirement must produce an empty plan: %+v", plan)
	}
}
