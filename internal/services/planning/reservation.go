package planning

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openfactory/fabriq/internal/metrics"
	"github.com/openfactory/fabriq/internal/models"
)

// ReserveRawForOrder upserts raw-stock reservations for every positive raw
// need in the availability summary. Rows are keyed (line, raw SKU); the
// quantity is set to the current computed need and released_at is cleared, so
// calling this twice with the same availability is a no-op the second time.
// Runs in a single transaction.
func (e *Engine) ReserveRawForOrder(ctx context.Context, companyID uint, avail *AvailabilitySummary) error {
	metrics.PlanningOperations.WithLabelValues("reserve").Inc()

	upserted := 0
	err := e.store.InTx(func(s Store) error {
		if err := s.LockRawStock(ctx, companyID, rawSkuIDsOf(avail)); err != nil {
			return fmt.Errorf("failed to lock raw stock: %w", err)
		}

		for _, line := range avail.Lines {
			if line.LineID == 0 {
				continue
			}
			for _, need := range line.RawNeeds {
				if !need.RequiredQty.IsPositive() {
					continue
				}

				res, err := s.ReservationFor(ctx, line.LineID, need.RawSkuID)
				if err != nil {
					return fmt.Errorf("failed to look up reservation: %w", err)
				}
				if res == nil {
					res = &models.StockReservation{
						CompanyID:        companyID,
						SalesOrderLineID: line.LineID,
						RawSkuID:         need.RawSkuID,
					}
				}

				res.Quantity = need.RequiredQty
				res.ReleasedAt = nil

				if err := s.SaveReservation(ctx, res); err != nil {
					return fmt.Errorf("failed to save reservation for line %d sku %d: %w", line.LineID, need.RawSkuID, err)
				}
				upserted++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Count only committed work; a rolled-back run wrote nothing.
	metrics.ReservationsUpserted.Add(float64(upserted))
	return nil
}

// ReleaseReservationForLine reduces the active reservation for one
// (sales-order line, raw SKU) pair by quantity. A missing or already released
// reservation is a no-op. When the remainder reaches zero the reservation is
// zeroed and stamped released; otherwise the reduced quantity stays held.
func (e *Engine) ReleaseReservationForLine(ctx context.Context, lineID, rawSkuID uint, quantity decimal.Decimal) error {
	metrics.PlanningOperations.WithLabelValues("release").Inc()

	fullyReleased := false
	err := e.store.InTx(func(s Store) error {
		res, err := s.ReservationFor(ctx, lineID, rawSkuID)
		if err != nil {
			return fmt.Errorf("failed to look up reservation: %w", err)
		}
		if res == nil || res.ReleasedAt != nil {
			return nil
		}

		if err := s.LockRawStock(ctx, res.CompanyID, []uint{rawSkuID}); err != nil {
			return fmt.Errorf("failed to lock raw stock: %w", err)
		}

		res.Quantity = res.Quantity.Sub(quantity)
		if !res.Quantity.IsPositive() {
			res.Quantity = decimal.Zero
			now := time.Now().UTC()
			res.ReleasedAt = &now
			fullyReleased = true
			e.log.Debug("reservation fully released",
				zap.Uint("line_id", lineID), zap.Uint("raw_sku_id", rawSkuID))
		}

		if err := s.SaveReservation(ctx, res); err != nil {
			return fmt.Errorf("failed to save reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if fullyReleased {
		metrics.ReservationsReleased.Inc()
	}
	return nil
}
