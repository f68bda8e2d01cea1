package planning

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openfactory/fabriq/internal/metrics"
	"github.com/openfactory/fabriq/internal/models"
)

// ComputeAvailability projects fulfillment for a set of order lines: how much
// each line can ship from finished stock, how much must be produced, the
// routing-based time estimate, and the exploded raw-material requirement
// netted against free raw stock.
//
// excludeLineIDs names sales-order lines whose reservations must not count as
// "already reserved". Pass the order's own line ids when re-planning so the
// order does not compete with itself.
//
// Pure read; safe to call repeatedly for previews.
func (e *Engine) ComputeAvailability(ctx context.Context, companyID uint, lines []OrderLineInput, excludeLineIDs []uint) (*AvailabilitySummary, error) {
	metrics.PlanningOperations.WithLabelValues("availability").Inc()
	return e.computeAvailability(ctx, e.store, companyID, lines, excludeLineIDs)
}

func (e *Engine) computeAvailability(ctx context.Context, s Store, companyID uint, lines []OrderLineInput, excludeLineIDs []uint) (*AvailabilitySummary, error) {
	finishedIDs := dedupSkuIDs(lines)

	skus, err := s.SkusByIDs(ctx, companyID, finishedIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load finished skus: %w", err)
	}

	finishedOnHand, err := s.OnHandByZoneType(ctx, companyID, finishedIDs, models.ZoneTypeFinished)
	if err != nil {
		return nil, fmt.Errorf("failed to load finished stock: %w", err)
	}

	routings, err := s.Routings(ctx, companyID, finishedIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load routings: %w", err)
	}

	boms, err := s.LatestBoms(ctx, companyID, finishedIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load boms: %w", err)
	}

	// Every raw SKU referenced by a selected BOM participates in the raw
	// summary, in first-reference order, even when its requirement ends up
	// zero.
	var rawOrder []uint
	rawSeen := make(map[uint]bool)
	for _, skuID := range finishedIDs {
		bom, ok := boms[skuID]
		if !ok {
			continue
		}
		for _, bl := range bom.Lines {
			if !rawSeen[bl.RawSkuID] {
				rawSeen[bl.RawSkuID] = true
				rawOrder = append(rawOrder, bl.RawSkuID)
			}
		}
	}

	rawSkus, err := s.SkusByIDs(ctx, companyID, rawOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to load raw skus: %w", err)
	}

	rawOnHand, err := s.OnHandByZoneType(ctx, companyID, rawOrder, models.ZoneTypeRawMaterial)
	if err != nil {
		return nil, fmt.Errorf("failed to load raw stock: %w", err)
	}

	reservedBySku, err := s.ReservedByRawSku(ctx, companyID, rawOrder, excludeLineIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations: %w", err)
	}

	// Shared finished-stock pool, drawn down line by line in input order.
	// First line in the list wins on shared stock.
	availableFinished := make(map[uint]decimal.Decimal, len(finishedOnHand))
	for id, qty := range finishedOnHand {
		availableFinished[id] = qty
	}

	requiredByRaw := make(map[uint]decimal.Decimal)

	summary := &AvailabilitySummary{
		CompanyID:      companyID,
		Lines:          make([]LineAvailability, 0, len(lines)),
		FinishedOnHand: finishedOnHand,
	}

	for _, input := range lines {
		sku := skuOrPlaceholder(skus, input.SkuID)

		remaining := maxZero(input.OrderedQty.Sub(input.DeliveredQty))

		fromStock := decimal.Min(availableFinished[input.SkuID], remaining)
		fromStock = maxZero(fromStock)
		availableFinished[input.SkuID] = availableFinished[input.SkuID].Sub(fromStock)

		production := remaining.Sub(fromStock)

		la := LineAvailability{
			LineID:        input.LineID,
			SkuID:         input.SkuID,
			SkuCode:       sku.Code,
			SkuName:       sku.Name,
			OrderedQty:    input.OrderedQty,
			DeliveredQty:  input.DeliveredQty,
			RemainingQty:  remaining,
			FromStockQty:  fromStock,
			ProductionQty: production,
		}

		if routing, ok := routings[input.SkuID]; ok {
			la.Steps = stepEstimates(routing.Steps, production)
			la.BottleneckCapacity = bottleneckCapacity(routing.Steps)
		}
		if la.BottleneckCapacity != nil && production.IsPositive() {
			minutes := production.Div(*la.BottleneckCapacity)
			la.EstimatedMinutes = &minutes
		}

		if bom, ok := boms[input.SkuID]; ok {
			la.RawNeeds = make([]RawNeed, 0, len(bom.Lines))
			for _, bl := range bom.Lines {
				raw := skuOrPlaceholder(rawSkus, bl.RawSkuID)
				required := production.Mul(bl.Quantity)
				la.RawNeeds = append(la.RawNeeds, RawNeed{
					RawSkuID:    bl.RawSkuID,
					SkuCode:     raw.Code,
					SkuName:     raw.Name,
					Unit:        raw.Unit,
					RequiredQty: required,
				})
				requiredByRaw[bl.RawSkuID] = requiredByRaw[bl.RawSkuID].Add(required)
			}
		}

		summary.Lines = append(summary.Lines, la)
	}

	summary.Raws = make([]RawAvailability, 0, len(rawOrder))
	for _, rawID := range rawOrder {
		raw := skuOrPlaceholder(rawSkus, rawID)
		onHand := rawOnHand[rawID]
		reserved := reservedBySku[rawID]
		free := maxZero(onHand.Sub(reserved))
		required := requiredByRaw[rawID]

		summary.Raws = append(summary.Raws, RawAvailability{
			RawSkuID:          rawID,
			SkuCode:           raw.Code,
			SkuName:           raw.Name,
			Unit:              raw.Unit,
			PreferredVendorID: raw.PreferredVendorID,
			RequiredQty:       required,
			OnHandTotalQty:    onHand,
			ReservedQty:       reserved,
			FreeQty:           free,
			ShortageQty:       maxZero(required.Sub(free)),
		})
	}

	e.log.Debug("availability computed",
		zap.Uint("company_id", companyID),
		zap.Int("lines", len(summary.Lines)),
		zap.Int("raw_skus", len(summary.Raws)))

	return summary, nil
}

// bottleneckCapacity is the minimum positive capacity across routing steps,
// nil when no step has positive capacity.
func bottleneckCapacity(steps []models.RoutingStep) *decimal.Decimal {
	var bottleneck *decimal.Decimal
	for _, step := range steps {
		if !step.CapacityPerMinute.IsPositive() {
			continue
		}
		if bottleneck == nil || step.CapacityPerMinute.LessThan(*bottleneck) {
			capacity := step.CapacityPerMinute
			bottleneck = &capacity
		}
	}
	return bottleneck
}

// stepEstimates yields the per-step what-if minutes for the production
// quantity. Each step is an alternative machine; figures are independent.
func stepEstimates(steps []models.RoutingStep, production decimal.Decimal) []StepEstimate {
	out := make([]StepEstimate, 0, len(steps))
	for _, step := range steps {
		est := StepEstimate{
			Sequence:          step.Sequence,
			MachineName:       step.MachineName,
			CapacityPerMinute: step.CapacityPerMinute,
		}
		if step.CapacityPerMinute.IsPositive() && production.IsPositive() {
			minutes := production.Div(step.CapacityPerMinute)
			est.EstimatedMinutes = &minutes
		}
		out = append(out, est)
	}
	return out
}

// dedupSkuIDs collects distinct SKU ids in first-appearance order.
func dedupSkuIDs(lines []OrderLineInput) []uint {
	seen := make(map[uint]bool, len(lines))
	var ids []uint
	for _, l := range lines {
		if !seen[l.SkuID] {
			seen[l.SkuID] = true
			ids = append(ids, l.SkuID)
		}
	}
	return ids
}
