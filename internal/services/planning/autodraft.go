package planning

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/openfactory/fabriq/internal/metrics"
	"github.com/openfactory/fabriq/internal/models"
)

// AutoDraftPurchaseOrders covers the order's net raw shortages with draft
// purchase orders: one open DRAFT order per vendor (reused when it exists),
// a new line per shortage item, and allocations linking each new line back to
// the order lines that still need the material.
//
// Availability is recomputed with the order's own lines excluded from
// "already reserved" so the order does not block itself. The whole read,
// draft, and allocate sequence runs in one transaction; any failure rolls the
// run back completely.
func (e *Engine) AutoDraftPurchaseOrders(ctx context.Context, companyID, orderID uint, orderNumber string, lines []OrderLineInput) (*AutoDraftResult, error) {
	metrics.PlanningOperations.WithLabelValues("auto_draft").Inc()

	result := &AutoDraftResult{}

	err := e.store.InTx(func(s Store) error {
		ownLineIDs := lineIDsOf(lines)

		// Lock the raw balances before reading reservation and allocation
		// totals, so two confirms racing for the same materials serialize
		// instead of both drafting against the same free stock.
		rawIDs, err := e.rawSkuIDsForLines(ctx, s, companyID, lines)
		if err != nil {
			return err
		}
		if err := s.LockRawStock(ctx, companyID, rawIDs); err != nil {
			return fmt.Errorf("failed to lock raw stock: %w", err)
		}

		avail, err := e.computeAvailability(ctx, s, companyID, lines, ownLineIDs)
		if err != nil {
			return err
		}

		allocatedByRaw, allocatedByLineRaw, err := e.loadAllocations(ctx, s, ownLineIDs)
		if err != nil {
			return err
		}

		buckets, skipped, err := e.bucketShortages(ctx, s, companyID, avail, allocatedByRaw)
		if err != nil {
			return err
		}
		result.Skipped = skipped

		for _, bucket := range buckets {
			po, err := e.openOrCreateDraft(ctx, s, companyID, orderID, orderNumber, bucket.Vendor, result)
			if err != nil {
				return err
			}

			for _, item := range bucket.Items {
				poLine := &models.PurchaseOrderLine{
					PurchaseOrderID: po.ID,
					SkuID:           item.RawSkuID,
					Quantity:        item.Quantity,
					UnitPrice:       item.UnitPrice,
					QcStatus:        models.QcStatusPending,
				}
				if err := s.CreatePurchaseOrderLine(ctx, poLine); err != nil {
					return fmt.Errorf("failed to create purchase order line: %w", err)
				}
				result.CreatedLines++

				if err := allocateLine(ctx, s, poLine, item.RawSkuID, avail, allocatedByLineRaw); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Counters reflect committed rows only, so count from the result after
	// the transaction succeeds.
	metrics.PurchaseOrdersDrafted.Add(float64(len(result.CreatedPOIDs)))
	metrics.PurchaseOrderLinesDrafted.Add(float64(result.CreatedLines))
	countSkippedItems(result.Skipped)

	e.log.Info("auto-drafted purchase orders",
		zap.Uint("company_id", companyID),
		zap.String("sales_order", orderNumber),
		zap.Int("created_pos", len(result.CreatedPOIDs)),
		zap.Int("reused_pos", len(result.ReusedPOIDs)),
		zap.Int("created_lines", result.CreatedLines),
		zap.Int("skipped", len(result.Skipped)))

	return result, nil
}

// rawSkuIDsForLines explodes the lines' BOMs just far enough to know which raw
// balances to lock.
func (e *Engine) rawSkuIDsForLines(ctx context.Context, s Store, companyID uint, lines []OrderLineInput) ([]uint, error) {
	boms, err := s.LatestBoms(ctx, companyID, dedupSkuIDs(lines))
	if err != nil {
		return nil, fmt.Errorf("failed to load boms: %w", err)
	}

	var ids []uint
	seen := make(map[uint]bool)
	for _, bom := range boms {
		for _, bl := range bom.Lines {
			if !seen[bl.RawSkuID] {
				seen[bl.RawSkuID] = true
				ids = append(ids, bl.RawSkuID)
			}
		}
	}
	return ids, nil
}

// openOrCreateDraft reuses the vendor's open draft purchase order or creates a
// new one with the next vendor-scoped sequential number.
func (e *Engine) openOrCreateDraft(ctx context.Context, s Store, companyID, orderID uint, orderNumber string, vendor models.Vendor, result *AutoDraftResult) (*models.PurchaseOrder, error) {
	po, err := s.OpenDraftPO(ctx, companyID, vendor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up draft purchase order: %w", err)
	}
	if po != nil {
		result.ReusedPOIDs = append(result.ReusedPOIDs, po.ID)
		return po, nil
	}

	number, err := s.NextPONumber(ctx, companyID, vendor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate purchase order number: %w", err)
	}

	meta, _ := json.Marshal(map[string]interface{}{
		"source":             "auto_draft",
		"sales_order_id":     orderID,
		"sales_order_number": orderNumber,
	})

	po = &models.PurchaseOrder{
		CompanyID:      companyID,
		VendorID:       vendor.ID,
		OrderNumber:    number,
		Status:         models.PurchaseOrderStatusDraft,
		IdempotencyKey: uuid.New().String(),
		Metadata:       datatypes.JSON(meta),
	}
	if err := s.CreatePurchaseOrder(ctx, po); err != nil {
		return nil, fmt.Errorf("failed to create purchase order: %w", err)
	}

	result.CreatedPOIDs = append(result.CreatedPOIDs, po.ID)
	return po, nil
}

// allocateLine spreads a new PO line's quantity across the order lines that
// still need the raw SKU, in line order: the first line with unmet need fills
// first, the remainder carries forward. allocatedByLineRaw tracks per-pair
// coverage so nothing is double-counted within or across runs.
func allocateLine(ctx context.Context, s Store, poLine *models.PurchaseOrderLine, rawSkuID uint, avail *AvailabilitySummary, allocatedByLineRaw map[lineRawKey]decimal.Decimal) error {
	remaining := poLine.Quantity

	for _, la := range avail.Lines {
		if !remaining.IsPositive() {
			break
		}
		if la.LineID == 0 {
			continue
		}

		need := rawNeedOf(la, rawSkuID)
		if !need.IsPositive() {
			continue
		}

		key := lineRawKey{LineID: la.LineID, RawSkuID: rawSkuID}
		lineShortage := maxZero(need.Sub(allocatedByLineRaw[key]))
		take := decimal.Min(lineShortage, remaining)
		if !take.IsPositive() {
			continue
		}

		if err := s.CreateAllocation(ctx, &models.PurchaseOrderAllocation{
			PurchaseOrderLineID: poLine.ID,
			SalesOrderLineID:    la.LineID,
			Quantity:            take,
		}); err != nil {
			return fmt.Errorf("failed to create allocation: %w", err)
		}

		allocatedByLineRaw[key] = allocatedByLineRaw[key].Add(take)
		remaining = remaining.Sub(take)
	}

	return nil
}

// rawNeedOf returns the line's exploded requirement for one raw SKU.
func rawNeedOf(la LineAvailability, rawSkuID uint) decimal.Decimal {
	for _, need := range la.RawNeeds {
		if need.RawSkuID == rawSkuID {
			return need.RequiredQty
		}
	}
	return decimal.Zero
}
