package planning

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openfactory/fabriq/internal/logger"
	"github.com/openfactory/fabriq/internal/models"
)

// Engine implements sales-order fulfillment and procurement planning:
// availability projection, raw-stock reservation, and draft purchase-order
// generation. All state lives in the Store; the engine itself is stateless and
// safe for concurrent use.
type Engine struct {
	store Store
	log   *zap.Logger
}

// NewEngine creates a planning engine over the given store.
func NewEngine(store Store) *Engine {
	return &Engine{
		store: store,
		log:   logger.Get().Named("planning"),
	}
}

// maxZero floors a quantity at zero.
func maxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// placeholderSku stands in for a SKU id missing from the catalog. Lookups
// degrade to a placeholder label instead of failing the whole projection.
func placeholderSku(id uint) models.Sku {
	return models.Sku{
		ID:   id,
		Code: fmt.Sprintf("SKU-%d", id),
		Name: "Unknown SKU",
		Unit: "PCS",
	}
}

// skuOrPlaceholder resolves a SKU from a lookup map, degrading to a
// placeholder when absent.
func skuOrPlaceholder(skus map[uint]models.Sku, id uint) models.Sku {
	if sku, ok := skus[id]; ok {
		return sku
	}
	return placeholderSku(id)
}

// rawSkuIDsOf collects the distinct raw SKU ids an availability summary
// touches, in summary order.
func rawSkuIDsOf(avail *AvailabilitySummary) []uint {
	ids := make([]uint, 0, len(avail.Raws))
	for _, raw := range avail.Raws {
		ids = append(ids, raw.RawSkuID)
	}
	return ids
}

// lineIDsOf extracts the sales-order line ids from engine input, skipping
// unsaved (zero-id) preview lines.
func lineIDsOf(lines []OrderLineInput) []uint {
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		if l.LineID != 0 {
			ids = append(ids, l.LineID)
		}
	}
	return ids
}
