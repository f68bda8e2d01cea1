package planning

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/openfactory/fabriq/internal/models"
)

// memStore is an in-memory Store for engine tests. It mirrors the relational
// semantics the GORM store provides: company scoping, latest-BOM selection,
// unreleased-reservation sums, and live-PO allocation joins.
type memStore struct {
	companyID uint

	skus         map[uint]models.Sku
	vendors      map[uint]models.Vendor
	vendorPrices map[[2]uint]decimal.Decimal // (vendorID, skuID)
	balances     []memBalance
	boms         []models.Bom
	routings     map[uint]models.Routing
	reservations []*models.StockReservation

	pos     map[uint]*models.PurchaseOrder
	poLines map[uint]*models.PurchaseOrderLine
	allocs  []*models.PurchaseOrderAllocation

	nextID uint
}

type memBalance struct {
	SkuID    uint
	ZoneType models.ZoneType
	Qty      decimal.Decimal
}

func newMemStore() *memStore {
	return &memStore{
		companyID:    1,
		skus:         make(map[uint]models.Sku),
		vendors:      make(map[uint]models.Vendor),
		vendorPrices: make(map[[2]uint]decimal.Decimal),
		routings:     make(map[uint]models.Routing),
		pos:          make(map[uint]*models.PurchaseOrder),
		poLines:      make(map[uint]*models.PurchaseOrderLine),
	}
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memStore) addSku(sku models.Sku) {
	if sku.CompanyID == 0 {
		sku.CompanyID = m.companyID
	}
	m.skus[sku.ID] = sku
}

func (m *memStore) addVendor(v models.Vendor) {
	if v.CompanyID == 0 {
		v.CompanyID = m.companyID
	}
	m.vendors[v.ID] = v
}

func (m *memStore) addBalance(skuID uint, zoneType models.ZoneType, qty decimal.Decimal) {
	m.balances = append(m.balances, memBalance{SkuID: skuID, ZoneType: zoneType, Qty: qty})
}

func (m *memStore) addBom(finishedSkuID uint, version int, lines ...models.BomLine) {
	m.boms = append(m.boms, models.Bom{
		ID:            m.id(),
		CompanyID:     m.companyID,
		FinishedSkuID: finishedSkuID,
		Version:       version,
		Lines:         lines,
	})
}

func (m *memStore) addRouting(finishedSkuID uint, steps ...models.RoutingStep) {
	m.routings[finishedSkuID] = models.Routing{
		ID:            m.id(),
		CompanyID:     m.companyID,
		FinishedSkuID: finishedSkuID,
		Steps:         steps,
	}
}

func (m *memStore) addReservation(lineID, rawSkuID uint, qty decimal.Decimal) {
	m.reservations = append(m.reservations, &models.StockReservation{
		ID:               m.id(),
		CompanyID:        m.companyID,
		SalesOrderLineID: lineID,
		RawSkuID:         rawSkuID,
		Quantity:         qty,
	})
}

func (m *memStore) SkusByIDs(_ context.Context, companyID uint, ids []uint) (map[uint]models.Sku, error) {
	out := make(map[uint]models.Sku)
	for _, id := range ids {
		if sku, ok := m.skus[id]; ok && sku.CompanyID == companyID {
			out[id] = sku
		}
	}
	return out, nil
}

func (m *memStore) VendorsByIDs(_ context.Context, companyID uint, ids []uint) (map[uint]models.Vendor, error) {
	out := make(map[uint]models.Vendor)
	for _, id := range ids {
		if v, ok := m.vendors[id]; ok && v.CompanyID == companyID {
			out[id] = v
		}
	}
	return out, nil
}

func (m *memStore) VendorPrice(_ context.Context, _, vendorID, skuID uint) (*decimal.Decimal, error) {
	if price, ok := m.vendorPrices[[2]uint{vendorID, skuID}]; ok {
		p := price
		return &p, nil
	}
	return nil, nil
}

func (m *memStore) OnHandByZoneType(_ context.Context, _ uint, skuIDs []uint, zoneType models.ZoneType) (map[uint]decimal.Decimal, error) {
	wanted := make(map[uint]bool)
	for _, id := range skuIDs {
		wanted[id] = true
	}
	out := make(map[uint]decimal.Decimal)
	for _, b := range m.balances {
		if b.ZoneType == zoneType && wanted[b.SkuID] {
			out[b.SkuID] = out[b.SkuID].Add(b.Qty)
		}
	}
	return out, nil
}

func (m *memStore) LockRawStock(_ context.Context, _ uint, _ []uint) error {
	// Engine tests run single-threaded; nothing to serialize.
	return nil
}

func (m *memStore) LatestBoms(_ context.Context, companyID uint, finishedSkuIDs []uint) (map[uint]models.Bom, error) {
	out := make(map[uint]models.Bom)
	for _, skuID := range finishedSkuIDs {
		for _, bom := range m.boms {
			if bom.CompanyID != companyID || bom.FinishedSkuID != skuID {
				continue
			}
			if current, ok := out[skuID]; !ok || bom.Version > current.Version {
				out[skuID] = bom
			}
		}
	}
	return out, nil
}

func (m *memStore) Routings(_ context.Context, companyID uint, finishedSkuIDs []uint) (map[uint]models.Routing, error) {
	out := make(map[uint]models.Routing)
	for _, skuID := range finishedSkuIDs {
		if routing, ok := m.routings[skuID]; ok && routing.CompanyID == companyID {
			out[skuID] = routing
		}
	}
	return out, nil
}

func (m *memStore) ReservedByRawSku(_ context.Context, _ uint, rawSkuIDs []uint, excludeLineIDs []uint) (map[uint]decimal.Decimal, error) {
	wanted := make(map[uint]bool)
	for _, id := range rawSkuIDs {
		wanted[id] = true
	}
	excluded := make(map[uint]bool)
	for _, id := range excludeLineIDs {
		excluded[id] = true
	}
	out := make(map[uint]decimal.Decimal)
	for _, res := range m.reservations {
		if res.ReleasedAt != nil || !wanted[res.RawSkuID] || excluded[res.SalesOrderLineID] {
			continue
		}
		out[res.RawSkuID] = out[res.RawSkuID].Add(res.Quantity)
	}
	return out, nil
}

func (m *memStore) ReservationFor(_ context.Context, lineID, rawSkuID uint) (*models.StockReservation, error) {
	for _, res := range m.reservations {
		if res.SalesOrderLineID == lineID && res.RawSkuID == rawSkuID {
			return res, nil
		}
	}
	return nil, nil
}

func (m *memStore) SaveReservation(_ context.Context, res *models.StockReservation) error {
	if res.ID == 0 {
		res.ID = m.id()
		m.reservations = append(m.reservations, res)
		return nil
	}
	for i, existing := range m.reservations {
		if existing.ID == res.ID {
			m.reservations[i] = res
			return nil
		}
	}
	m.reservations = append(m.reservations, res)
	return nil
}

func (m *memStore) AllocationsForLines(_ context.Context, lineIDs []uint) ([]AllocationRecord, error) {
	wanted := make(map[uint]bool)
	for _, id := range lineIDs {
		wanted[id] = true
	}
	var out []AllocationRecord
	for _, alloc := range m.allocs {
		if !wanted[alloc.SalesOrderLineID] {
			continue
		}
		poLine, ok := m.poLines[alloc.PurchaseOrderLineID]
		if !ok {
			continue
		}
		po, ok := m.pos[poLine.PurchaseOrderID]
		if !ok || po.Status == models.PurchaseOrderStatusCancelled {
			continue
		}
		out = append(out, AllocationRecord{
			SalesOrderLineID: alloc.SalesOrderLineID,
			RawSkuID:         poLine.SkuID,
			Quantity:         alloc.Quantity,
		})
	}
	return out, nil
}

func (m *memStore) OpenDraftPO(_ context.Context, companyID, vendorID uint) (*models.PurchaseOrder, error) {
	var ids []uint
	for id := range m.pos {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		po := m.pos[id]
		if po.CompanyID == companyID && po.VendorID == vendorID && po.Status == models.PurchaseOrderStatusDraft {
			return po, nil
		}
	}
	return nil, nil
}

func (m *memStore) NextPONumber(_ context.Context, _ uint, vendorID uint) (string, error) {
	count := 0
	for _, po := range m.pos {
		if po.VendorID == vendorID {
			count++
		}
	}
	vendor := m.vendors[vendorID]
	return fmt.Sprintf("PO-%s-%04d", vendor.Code, count+1), nil
}

func (m *memStore) CreatePurchaseOrder(_ context.Context, po *models.PurchaseOrder) error {
	po.ID = m.id()
	m.pos[po.ID] = po
	return nil
}

func (m *memStore) CreatePurchaseOrderLine(_ context.Context, line *models.PurchaseOrderLine) error {
	line.ID = m.id()
	m.poLines[line.ID] = line
	return nil
}

func (m *memStore) CreateAllocation(_ context.Context, alloc *models.PurchaseOrderAllocation) error {
	alloc.ID = m.id()
	m.allocs = append(m.allocs, alloc)
	return nil
}

func (m *memStore) InTx(fn func(Store) error) error {
	return fn(m)
}

// d parses a decimal literal for test fixtures.
func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}
