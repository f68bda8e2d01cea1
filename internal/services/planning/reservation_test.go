package planning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/openfactory/fabriq/internal/metrics"
	"github.com/openfactory/fabriq/internal/models"
)

func computeForReservation(t *testing.T, engine *Engine) *AvailabilitySummary {
	t.Helper()
	summary, err := engine.ComputeAvailability(context.Background(), 1, []OrderLineInput{
		{LineID: 1, SkuID: skuF1, OrderedQty: d("15")},
	}, []uint{1})
	if err != nil {
		t.Fatalf("ComputeAvailability failed: %v", err)
	}
	return summary
}

func TestReserveRawForOrderCreatesReservation(t *testing.T) {
	m := demoStore()
	engine := NewEngine(m)

	summary := computeForReservation(t, engine)
	if err := engine.ReserveRawForOrder(context.Background(), 1, summary); err != nil {
		t.Fatalf("ReserveRawForOrder failed: %v", err)
	}

	if len(m.reservations) != 1 {
		t.Fatalf("expected 1 reservation, got %d", len(m.reservations))
	}
	res := m.reservations[0]
	if res.SalesOrderLineID != 1 || res.RawSkuID != skuR1 {
		t.Errorf("reservation keyed wrong: line=%d sku=%d", res.SalesOrderLineID, res.RawSkuID)
	}
	mustEqual(t, "reserved quantity", res.Quantity, d("10"))
	if res.ReleasedAt != nil {
		t.Error("fresh reservation must not be released")
	}
}

func TestReserveRawForOrderIsIdempotent(t *testing.T) {
	m := demoStore()
	engine := NewEngine(m)

	summary := computeForReservation(t, engine)
	if err := engine.ReserveRawForOrder(context.Background(), 1, summary); err != nil {
		t.Fatalf("first reserve failed: %v", err)
	}
	if err := engine.ReserveRawForOrder(context.Background(), 1, summary); err != nil {
		t.Fatalf("second reserve failed: %v", err)
	}

	if len(m.reservations) != 1 {
		t.Fatalf("second reserve must not add rows, got %d", len(m.reservations))
	}
	mustEqual(t, "quantity unchanged", m.reservations[0].Quantity, d("10"))
}

// Re-planning overwrites the held quantity with the current need instead of
// accumulating.
func TestReserveRawForOrderOverwritesQuantity(t *testing.T) {
	m := demoStore()
	engine := NewEngine(m)

	summary := computeForReservation(t, engine)
	if err := engine.ReserveRawForOrder(context.Background(), 1, summary); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	// The order shrinks: only 12 ordered now, production 2, need 4 KG.
	smaller, err := engine.ComputeAvailability(context.Background(), 1, []OrderLineInput{
		{LineID: 1, SkuID: skuF1, OrderedQty: d("12")},
	}, []uint{1})
	if err != nil {
		t.Fatalf("ComputeAvailability failed: %v", err)
	}
	if err := engine.ReserveRawForOrder(context.Background(), 1, smaller); err != nil {
		t.Fatalf("re-reserve failed: %v", err)
	}

	if len(m.reservations) != 1 {
		t.Fatalf("expected reservation upsert, got %d rows", len(m.reservations))
	}
	mustEqual(t, "recomputed quantity", m.reservations[0].Quantity, d("4"))
}

func TestReserveRawForOrderRevivesReleasedRow(t *testing.T) {
	m := demoStore()
	engine := NewEngine(m)

	released := time.Now().UTC()
	m.addReservation(1, skuR1, d("0"))
	m.reservations[0].ReleasedAt = &released

	summary := computeForReservation(t, engine)
	if err := engine.ReserveRawForOrder(context.Background(), 1, summary); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	if len(m.reservations) != 1 {
		t.Fatalf("expected the released row to be reused, got %d rows", len(m.reservations))
	}
	if m.reservations[0].ReleasedAt != nil {
		t.Error("re-reserve must clear released_at")
	}
	mustEqual(t, "revived quantity", m.reservations[0].Quantity, d("10"))
}

func TestReleaseReservationPartial(t *testing.T) {
	m := demoStore()
	engine := NewEngine(m)
	m.addReservation(1, skuR1, d("10"))

	if err := engine.ReleaseReservationForLine(context.Background(), 1, skuR1, d("4")); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	res := m.reservations[0]
	mustEqual(t, "remaining held", res.Quantity, d("6"))
	if res.ReleasedAt != nil {
		t.Error("partial release must keep the reservation active")
	}
}

func TestReleaseReservationFull(t *testing.T) {
	m := demoStore()
	engine := NewEngine(m)
	m.addReservation(1, skuR1, d("10"))

	if err := engine.ReleaseReservationForLine(context.Background(), 1, skuR1, d("12")); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	res := m.reservations[0]
	mustEqual(t, "zeroed quantity", res.Quantity, d("0"))
	if res.ReleasedAt == nil {
		t.Error("full release must stamp released_at")
	}
}

// failingSaveStore rejects every reservation write, standing in for a
// transaction that rolls back.
type failingSaveStore struct {
	*memStore
}

func (f *failingSaveStore) SaveReservation(_ context.Context, _ *models.StockReservation) error {
	return errors.New("save rejected")
}

func (f *failingSaveStore) InTx(fn func(Store) error) error { return fn(f) }

// The upsert counter must reflect committed rows only: a run whose
// transaction fails moves nothing, a successful run counts its rows.
func TestReserveRawForOrderCountsCommittedWorkOnly(t *testing.T) {
	m := demoStore()

	before := testutil.ToFloat64(metrics.ReservationsUpserted)

	failing := NewEngine(&failingSaveStore{memStore: m})
	summary := computeForReservation(t, failing)
	if err := failing.ReserveRawForOrder(context.Background(), 1, summary); err == nil {
		t.Fatal("expected the reservation write to fail")
	}
	if got := testutil.ToFloat64(metrics.ReservationsUpserted); got != before {
		t.Errorf("failed run moved the upsert counter: before %v, after %v", before, got)
	}

	engine := NewEngine(m)
	if err := engine.ReserveRawForOrder(context.Background(), 1, summary); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if got := testutil.ToFloat64(metrics.ReservationsUpserted); got != before+1 {
		t.Errorf("successful run must count its row: before %v, after %v", before, got)
	}
}

func TestReleaseReservationNoOpCases(t *testing.T) {
	m := demoStore()
	engine := NewEngine(m)

	// No reservation at all.
	if err := engine.ReleaseReservationForLine(context.Background(), 1, skuR1, d("5")); err != nil {
		t.Fatalf("release of absent reservation must no-op: %v", err)
	}

	// Already released.
	released := time.Now().UTC()
	m.addReservation(1, skuR1, d("3"))
	m.reservations[0].ReleasedAt = &released

	if err := engine.ReleaseReservationForLine(context.Background(), 1, skuR1, d("5")); err != nil {
		t.Fatalf("release of released reservation must no-op: %v", err)
	}
	mustEqual(t, "quantity untouched", m.reservations[0].Quantity, d("3"))
}
