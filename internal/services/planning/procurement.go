package planning

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openfactory/fabriq/internal/metrics"
	"github.com/openfactory/fabriq/internal/models"
)

// vendorBucket collects the shortage items routed to one preferred vendor.
type vendorBucket struct {
	Vendor models.Vendor
	Items  []PlanItem
}

// BuildProcurementPlan turns net raw shortages into vendor-grouped purchase
// recommendations. Shortages are netted against free stock and against
// existing purchase-order allocations for the order's lines. Read-only; safe
// for repeated preview calls.
//
// Pass avail when it is already computed, otherwise nil to compute it here
// with the given exclusion list.
func (e *Engine) BuildProcurementPlan(ctx context.Context, companyID uint, lines []OrderLineInput, avail *AvailabilitySummary, excludeLineIDs []uint) (*ProcurementPlan, error) {
	metrics.PlanningOperations.WithLabelValues("plan").Inc()

	var err error
	if avail == nil {
		avail, err = e.computeAvailability(ctx, e.store, companyID, lines, excludeLineIDs)
		if err != nil {
			return nil, err
		}
	}

	lineIDs := make([]uint, 0, len(avail.Lines))
	for _, la := range avail.Lines {
		if la.LineID != 0 {
			lineIDs = append(lineIDs, la.LineID)
		}
	}

	allocated, _, err := e.loadAllocations(ctx, e.store, lineIDs)
	if err != nil {
		return nil, err
	}

	buckets, skipped, err := e.bucketShortages(ctx, e.store, companyID, avail, allocated)
	if err != nil {
		return nil, err
	}

	plan := &ProcurementPlan{
		Vendors: make([]VendorPlan, 0, len(buckets)),
		Skipped: skipped,
	}
	for _, bucket := range buckets {
		vp := VendorPlan{
			VendorID:   bucket.Vendor.ID,
			VendorName: bucket.Vendor.Name,
			Items:      bucket.Items,
			TotalValue: decimal.Zero,
		}
		for _, item := range bucket.Items {
			vp.TotalValue = vp.TotalValue.Add(item.LineTotal)
		}
		plan.Vendors = append(plan.Vendors, vp)
	}

	countSkippedItems(plan.Skipped)

	e.log.Debug("procurement plan built",
		zap.Uint("company_id", companyID),
		zap.Int("vendors", len(plan.Vendors)),
		zap.Int("skipped", len(plan.Skipped)))

	return plan, nil
}

// countSkippedItems feeds the skip counter. Called outside transactions so a
// rolled-back draft run does not count.
func countSkippedItems(items []SkippedItem) {
	for _, item := range items {
		label := "vendor_not_found"
		if item.Reason == SkipReasonNoPreferredVendor {
			label = "missing_preferred_vendor"
		}
		metrics.PlanningItemsSkipped.WithLabelValues(label).Inc()
	}
}

// loadAllocations sums existing, still-live PO allocations for the given
// sales-order lines, both per raw SKU and per (line, raw SKU) pair.
func (e *Engine) loadAllocations(ctx context.Context, s Store, lineIDs []uint) (map[uint]decimal.Decimal, map[lineRawKey]decimal.Decimal, error) {
	byRaw := make(map[uint]decimal.Decimal)
	byLineRaw := make(map[lineRawKey]decimal.Decimal)

	if len(lineIDs) == 0 {
		return byRaw, byLineRaw, nil
	}

	records, err := s.AllocationsForLines(ctx, lineIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load allocations: %w", err)
	}
	for _, rec := range records {
		byRaw[rec.RawSkuID] = byRaw[rec.RawSkuID].Add(rec.Quantity)
		key := lineRawKey{LineID: rec.SalesOrderLineID, RawSkuID: rec.RawSkuID}
		byLineRaw[key] = byLineRaw[key].Add(rec.Quantity)
	}
	return byRaw, byLineRaw, nil
}

// lineRawKey keys allocation tracking per (sales-order line, raw SKU).
type lineRawKey struct {
	LineID   uint
	RawSkuID uint
}

// bucketShortages nets each raw SKU's requirement against free stock and
// existing allocations, prices the remainder, and groups it by preferred
// vendor. SKUs without a resolvable vendor land in skipped with a reason.
func (e *Engine) bucketShortages(ctx context.Context, s Store, companyID uint, avail *AvailabilitySummary, allocatedByRaw map[uint]decimal.Decimal) ([]vendorBucket, []SkippedItem, error) {
	type pending struct {
		raw      RawAvailability
		shortage decimal.Decimal
	}

	var shortages []pending
	var skipped []SkippedItem

	for _, raw := range avail.Raws {
		shortage := maxZero(raw.RequiredQty.Sub(raw.FreeQty).Sub(allocatedByRaw[raw.RawSkuID]))
		if !shortage.IsPositive() {
			continue
		}
		if raw.PreferredVendorID == nil {
			skipped = append(skipped, SkippedItem{
				RawSkuID: raw.RawSkuID,
				SkuCode:  raw.SkuCode,
				Reason:   SkipReasonNoPreferredVendor,
			})
			continue
		}
		shortages = append(shortages, pending{raw: raw, shortage: shortage})
	}

	if len(shortages) == 0 {
		return nil, skipped, nil
	}

	var vendorIDs []uint
	var skuIDs []uint
	vendorSeen := make(map[uint]bool)
	for _, p := range shortages {
		skuIDs = append(skuIDs, p.raw.RawSkuID)
		if !vendorSeen[*p.raw.PreferredVendorID] {
			vendorSeen[*p.raw.PreferredVendorID] = true
			vendorIDs = append(vendorIDs, *p.raw.PreferredVendorID)
		}
	}

	vendors, err := s.VendorsByIDs(ctx, companyID, vendorIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load vendors: %w", err)
	}
	rawSkus, err := s.SkusByIDs(ctx, companyID, skuIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load raw skus: %w", err)
	}

	bucketBy := make(map[uint]int)
	var buckets []vendorBucket

	for _, p := range shortages {
		vendorID := *p.raw.PreferredVendorID
		vendor, ok := vendors[vendorID]
		if !ok {
			// A dangling preferred-vendor reference drops the shortage for
			// this run; the caller sees it in skipped.
			skipped = append(skipped, SkippedItem{
				RawSkuID: p.raw.RawSkuID,
				SkuCode:  p.raw.SkuCode,
				Reason:   SkipReasonVendorNotFound,
			})
			continue
		}

		price, err := e.unitPrice(ctx, s, companyID, vendorID, p.raw.RawSkuID, rawSkus)
		if err != nil {
			return nil, nil, err
		}

		idx, ok := bucketBy[vendorID]
		if !ok {
			idx = len(buckets)
			bucketBy[vendorID] = idx
			buckets = append(buckets, vendorBucket{Vendor: vendor})
		}
		buckets[idx].Items = append(buckets[idx].Items, PlanItem{
			RawSkuID:  p.raw.RawSkuID,
			SkuCode:   p.raw.SkuCode,
			Quantity:  p.shortage,
			UnitPrice: price,
			LineTotal: p.shortage.Mul(price),
		})
	}

	return buckets, skipped, nil
}

// unitPrice resolves the recommended price for one raw SKU at one vendor:
// vendor-specific last price, then the SKU's last purchase price, then its
// standard cost, then zero.
func (e *Engine) unitPrice(ctx context.Context, s Store, companyID, vendorID, skuID uint, rawSkus map[uint]models.Sku) (decimal.Decimal, error) {
	vendorPrice, err := s.VendorPrice(ctx, companyID, vendorID, skuID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load vendor price: %w", err)
	}
	if vendorPrice != nil {
		return *vendorPrice, nil
	}

	sku, ok := rawSkus[skuID]
	if !ok {
		return decimal.Zero, nil
	}
	if sku.LastPurchasePrice.IsPositive() {
		return sku.LastPurchasePrice, nil
	}
	if sku.StandardCost.IsPositive() {
		return sku.StandardCost, nil
	}
	return decimal.Zero, nil
}
