package planning

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openfactory/fabriq/internal/models"
)

// gormStore implements Store over a GORM connection. InTx re-binds the store
// to the transaction handle so every call inside the closure shares one
// database transaction.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a GORM connection as a planning Store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (g *gormStore) InTx(fn func(Store) error) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func (g *gormStore) SkusByIDs(ctx context.Context, companyID uint, ids []uint) (map[uint]models.Sku, error) {
	out := make(map[uint]models.Sku, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var skus []models.Sku
	if err := g.db.WithContext(ctx).
		Where("company_id = ? AND id IN ?", companyID, ids).
		Find(&skus).Error; err != nil {
		return nil, err
	}
	for _, sku := range skus {
		out[sku.ID] = sku
	}
	return out, nil
}

func (g *gormStore) VendorsByIDs(ctx context.Context, companyID uint, ids []uint) (map[uint]models.Vendor, error) {
	out := make(map[uint]models.Vendor, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var vendors []models.Vendor
	if err := g.db.WithContext(ctx).
		Where("company_id = ? AND id IN ?", companyID, ids).
		Find(&vendors).Error; err != nil {
		return nil, err
	}
	for _, vendor := range vendors {
		out[vendor.ID] = vendor
	}
	return out, nil
}

func (g *gormStore) VendorPrice(ctx context.Context, companyID, vendorID, skuID uint) (*decimal.Decimal, error) {
	var price models.VendorSkuPrice
	err := g.db.WithContext(ctx).
		Where("company_id = ? AND vendor_id = ? AND sku_id = ?", companyID, vendorID, skuID).
		First(&price).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &price.LastPrice, nil
}

func (g *gormStore) OnHandByZoneType(ctx context.Context, companyID uint, skuIDs []uint, zoneType models.ZoneType) (map[uint]decimal.Decimal, error) {
	out := make(map[uint]decimal.Decimal, len(skuIDs))
	if len(skuIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		SkuID uint
		Total decimal.Decimal
	}
	if err := g.db.WithContext(ctx).
		Model(&models.StockBalance{}).
		Select("stock_balances.sku_id AS sku_id, COALESCE(SUM(stock_balances.quantity_on_hand), 0) AS total").
		Joins("JOIN stock_zones ON stock_zones.id = stock_balances.zone_id AND stock_zones.deleted_at IS NULL").
		Where("stock_balances.company_id = ? AND stock_zones.type = ? AND stock_balances.sku_id IN ?", companyID, zoneType, skuIDs).
		Group("stock_balances.sku_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.SkuID] = row.Total
	}
	return out, nil
}

func (g *gormStore) LockRawStock(ctx context.Context, companyID uint, rawSkuIDs []uint) error {
	if len(rawSkuIDs) == 0 {
		return nil
	}

	// SELECT ... FOR UPDATE on the balance rows. Two confirms racing for the
	// same raw stock serialize here instead of both reading the same "free"
	// quantity before either commits.
	var ids []uint
	return g.db.WithContext(ctx).
		Model(&models.StockBalance{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND sku_id IN ?", companyID, rawSkuIDs).
		Order("id ASC").
		Pluck("id", &ids).Error
}

func (g *gormStore) LatestBoms(ctx context.Context, companyID uint, finishedSkuIDs []uint) (map[uint]models.Bom, error) {
	out := make(map[uint]models.Bom, len(finishedSkuIDs))
	if len(finishedSkuIDs) == 0 {
		return out, nil
	}

	var boms []models.Bom
	if err := g.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("bom_lines.id ASC")
		}).
		Where("company_id = ? AND finished_sku_id IN ?", companyID, finishedSkuIDs).
		Order("finished_sku_id ASC, version DESC").
		Find(&boms).Error; err != nil {
		return nil, err
	}

	// Highest version per finished SKU wins; rows arrive version-descending.
	for _, bom := range boms {
		if _, ok := out[bom.FinishedSkuID]; !ok {
			out[bom.FinishedSkuID] = bom
		}
	}
	return out, nil
}

func (g *gormStore) Routings(ctx context.Context, companyID uint, finishedSkuIDs []uint) (map[uint]models.Routing, error) {
	out := make(map[uint]models.Routing, len(finishedSkuIDs))
	if len(finishedSkuIDs) == 0 {
		return out, nil
	}

	var routings []models.Routing
	if err := g.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("routing_steps.sequence ASC")
		}).
		Where("company_id = ? AND finished_sku_id IN ?", companyID, finishedSkuIDs).
		Order("finished_sku_id ASC, id ASC").
		Find(&routings).Error; err != nil {
		return nil, err
	}
	for _, routing := range routings {
		if _, ok := out[routing.FinishedSkuID]; !ok {
			out[routing.FinishedSkuID] = routing
		}
	}
	return out, nil
}

func (g *gormStore) ReservedByRawSku(ctx context.Context, companyID uint, rawSkuIDs []uint, excludeLineIDs []uint) (map[uint]decimal.Decimal, error) {
	out := make(map[uint]decimal.Decimal, len(rawSkuIDs))
	if len(rawSkuIDs) == 0 {
		return out, nil
	}

	q := g.db.WithContext(ctx).
		Model(&models.StockReservation{}).
		Select("raw_sku_id, COALESCE(SUM(quantity), 0) AS total").
		Where("company_id = ? AND raw_sku_id IN ? AND released_at IS NULL", companyID, rawSkuIDs)
	if len(excludeLineIDs) > 0 {
		q = q.Where("sales_order_line_id NOT IN ?", excludeLineIDs)
	}

	var rows []struct {
		RawSkuID uint
		Total    decimal.Decimal
	}
	if err := q.Group("raw_sku_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.RawSkuID] = row.Total
	}
	return out, nil
}

func (g *gormStore) ReservationFor(ctx context.Context, lineID, rawSkuID uint) (*models.StockReservation, error) {
	var res models.StockReservation
	err := g.db.WithContext(ctx).
		Where("sales_order_line_id = ? AND raw_sku_id = ?", lineID, rawSkuID).
		First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (g *gormStore) SaveReservation(ctx context.Context, res *models.StockReservation) error {
	return g.db.WithContext(ctx).Save(res).Error
}

func (g *gormStore) AllocationsForLines(ctx context.Context, lineIDs []uint) ([]AllocationRecord, error) {
	if len(lineIDs) == 0 {
		return nil, nil
	}

	var records []AllocationRecord
	if err := g.db.WithContext(ctx).
		Model(&models.PurchaseOrderAllocation{}).
		Select("purchase_order_allocations.sales_order_line_id AS sales_order_line_id, purchase_order_lines.sku_id AS raw_sku_id, purchase_order_allocations.quantity AS quantity").
		Joins("JOIN purchase_order_lines ON purchase_order_lines.id = purchase_order_allocations.purchase_order_line_id").
		Joins("JOIN purchase_orders ON purchase_orders.id = purchase_order_lines.purchase_order_id").
		Where("purchase_order_allocations.sales_order_line_id IN ?", lineIDs).
		Where("purchase_orders.deleted_at IS NULL AND purchase_orders.status <> ?", models.PurchaseOrderStatusCancelled).
		Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (g *gormStore) OpenDraftPO(ctx context.Context, companyID, vendorID uint) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := g.db.WithContext(ctx).
		Where("company_id = ? AND vendor_id = ? AND status = ?", companyID, vendorID, models.PurchaseOrderStatusDraft).
		Order("id ASC").
		First(&po).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (g *gormStore) NextPONumber(ctx context.Context, companyID, vendorID uint) (string, error) {
	var vendor models.Vendor
	if err := g.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		First(&vendor, vendorID).Error; err != nil {
		return "", err
	}

	// Soft-deleted orders keep their number, so count unscoped.
	var count int64
	if err := g.db.WithContext(ctx).
		Unscoped().
		Model(&models.PurchaseOrder{}).
		Where("company_id = ? AND vendor_id = ?", companyID, vendorID).
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("PO-%s-%04d", vendor.Code, count+1), nil
}

func (g *gormStore) CreatePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error {
	return g.db.WithContext(ctx).Create(po).Error
}

func (g *gormStore) CreatePurchaseOrderLine(ctx context.Context, line *models.PurchaseOrderLine) error {
	return g.db.WithContext(ctx).Create(line).Error
}

func (g *gormStore) CreateAllocation(ctx context.Context, alloc *models.PurchaseOrderAllocation) error {
	return g.db.WithContext(ctx).Create(alloc).Error
}
