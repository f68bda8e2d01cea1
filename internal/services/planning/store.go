package planning

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/openfactory/fabriq/internal/models"
)

// AllocationRecord is an existing purchase-order allocation projected onto the
// (sales-order line, raw SKU) pair it covers.
type AllocationRecord struct {
	SalesOrderLineID uint
	RawSkuID         uint
	Quantity         decimal.Decimal
}

// Store is the engine's view of the relational schema. The production
// implementation wraps GORM; tests substitute an in-memory fake. All reads are
// company-scoped. InTx runs a function against a transactional copy of the
// store; every mutating engine operation goes through it so reads and writes
// commit or roll back together.
type Store interface {
	// Catalog
	SkusByIDs(ctx context.Context, companyID uint, ids []uint) (map[uint]models.Sku, error)
	VendorsByIDs(ctx context.Context, companyID uint, ids []uint) (map[uint]models.Vendor, error)
	// VendorPrice returns the vendor-specific last price for a SKU, or nil
	// when no price link exists.
	VendorPrice(ctx context.Context, companyID, vendorID, skuID uint) (*decimal.Decimal, error)

	// Stock
	// OnHandByZoneType sums quantity on hand per SKU across all zones of the
	// given type.
	OnHandByZoneType(ctx context.Context, companyID uint, skuIDs []uint, zoneType models.ZoneType) (map[uint]decimal.Decimal, error)
	// LockRawStock takes row locks on the stock balances of the given raw
	// SKUs, serializing concurrent planners on the same (company, SKU) pairs.
	// Must be called inside InTx, before reading reservation or allocation
	// totals that a concurrent writer could change.
	LockRawStock(ctx context.Context, companyID uint, rawSkuIDs []uint) error

	// BOM and routing
	// LatestBoms returns the highest-version non-deleted BOM per finished SKU,
	// lines included.
	LatestBoms(ctx context.Context, companyID uint, finishedSkuIDs []uint) (map[uint]models.Bom, error)
	Routings(ctx context.Context, companyID uint, finishedSkuIDs []uint) (map[uint]models.Routing, error)

	// Reservations
	// ReservedByRawSku sums unreleased reservation quantities per raw SKU,
	// skipping reservations held by the excluded sales-order lines.
	ReservedByRawSku(ctx context.Context, companyID uint, rawSkuIDs []uint, excludeLineIDs []uint) (map[uint]decimal.Decimal, error)
	// ReservationFor returns the reservation row for a (line, raw SKU) pair
	// whether released or not, or nil when none exists.
	ReservationFor(ctx context.Context, lineID, rawSkuID uint) (*models.StockReservation, error)
	SaveReservation(ctx context.Context, res *models.StockReservation) error

	// Purchase orders
	// AllocationsForLines returns allocations against the given sales-order
	// lines whose purchase order is neither deleted nor cancelled.
	AllocationsForLines(ctx context.Context, lineIDs []uint) ([]AllocationRecord, error)
	// OpenDraftPO returns the oldest non-deleted DRAFT purchase order for the
	// vendor, or nil when none exists.
	OpenDraftPO(ctx context.Context, companyID, vendorID uint) (*models.PurchaseOrder, error)
	// NextPONumber allocates the next vendor-scoped sequential order number.
	NextPONumber(ctx context.Context, companyID, vendorID uint) (string, error)
	CreatePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error
	CreatePurchaseOrderLine(ctx context.Context, line *models.PurchaseOrderLine) error
	CreateAllocation(ctx context.Context, alloc *models.PurchaseOrderAllocation) error

	// InTx executes fn inside a single database transaction.
	InTx(fn func(Store) error) error
}
