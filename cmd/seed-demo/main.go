package main

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openfactory/fabriq/internal/config"
	"github.com/openfactory/fabriq/internal/database"
	"github.com/openfactory/fabriq/internal/models"
)

func main() {
	fmt.Println("🌱 Fabriq Demo Data Seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")

	fmt.Println("🔨 Running database migrations...")
	err = db.AutoMigrate(
		&models.Company{},
		&models.Customer{},
		&models.Vendor{},
		&models.VendorSkuPrice{},
		&models.Sku{},
		&models.StockZone{},
		&models.StockBalance{},
		&models.StockReservation{},
		&models.Bom{},
		&models.BomLine{},
		&models.Routing{},
		&models.RoutingStep{},
		&models.SalesOrder{},
		&models.SalesOrderLine{},
		&models.PurchaseOrder{},
		&models.PurchaseOrderLine{},
		&models.PurchaseOrderAllocation{},
	)
	if err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")

	var companyCount int64
	db.Model(&models.Company{}).Count(&companyCount)
	if companyCount > 0 {
		fmt.Printf("⚠️  Database already has %d companies. Clear it first? (y/N): ", companyCount)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("❌ Aborted. Database not modified.")
			return
		}

		fmt.Println("🗑️  Clearing existing data...")
		db.Exec("TRUNCATE TABLE purchase_order_allocations CASCADE")
		db.Exec("TRUNCATE TABLE purchase_order_lines CASCADE")
		db.Exec("TRUNCATE TABLE purchase_orders CASCADE")
		db.Exec("TRUNCATE TABLE sales_order_lines CASCADE")
		db.Exec("TRUNCATE TABLE sales_orders CASCADE")
		db.Exec("TRUNCATE TABLE stock_reservations CASCADE")
		db.Exec("TRUNCATE TABLE stock_balances CASCADE")
		db.Exec("TRUNCATE TABLE stock_zones CASCADE")
		db.Exec("TRUNCATE TABLE routing_steps CASCADE")
		db.Exec("TRUNCATE TABLE routings CASCADE")
		db.Exec("TRUNCATE TABLE bom_lines CASCADE")
		db.Exec("TRUNCATE TABLE boms CASCADE")
		db.Exec("TRUNCATE TABLE vendor_sku_prices CASCADE")
		db.Exec("TRUNCATE TABLE skus CASCADE")
		db.Exec("TRUNCATE TABLE vendors CASCADE")
		db.Exec("TRUNCATE TABLE customers CASCADE")
		db.Exec("TRUNCATE TABLE companies CASCADE")
		fmt.Println("✅ Data cleared")
	}

	fmt.Println("📦 Creating demo data...")

	company := models.Company{Code: "ACME", Name: "Acme Fabrication GmbH"}
	mustCreate(db, &company)
	fmt.Printf("🏢 Company: %s (id=%d)\n", company.Name, company.ID)

	customer := models.Customer{
		CompanyID: company.ID,
		Code:      "CUST-001",
		Name:      "Nordbau Retail AG",
		Email:     "purchasing@nordbau.example",
	}
	mustCreate(db, &customer)

	fmt.Println("🏭 Creating vendors...")
	steelco := models.Vendor{
		CompanyID:     company.ID,
		Code:          "STEELCO",
		Name:          "SteelCo Rohstoffe",
		ContactPerson: "M. Weber",
		Email:         "orders@steelco.example",
		IsActive:      true,
	}
	mustCreate(db, &steelco)
	polychem := models.Vendor{
		CompanyID: company.ID,
		Code:      "POLYCHEM",
		Name:      "PolyChem Supplies",
		IsActive:  true,
	}
	mustCreate(db, &polychem)

	fmt.Println("🏷️  Creating SKUs...")
	table := models.Sku{
		CompanyID: company.ID,
		Code:      "TBL-OAK-120",
		Name:      "Oak Table 120cm",
		Type:      models.SkuTypeFinished,
		Unit:      "PCS",
	}
	mustCreate(db, &table)
	chair := models.Sku{
		CompanyID: company.ID,
		Code:      "CHR-OAK-STD",
		Name:      "Oak Chair Standard",
		Type:      models.SkuTypeFinished,
		Unit:      "PCS",
	}
	mustCreate(db, &chair)

	steel := models.Sku{
		CompanyID:         company.ID,
		Code:              "RAW-STEEL-S235",
		Name:              "Steel Profile S235",
		Type:              models.SkuTypeRaw,
		Unit:              "KG",
		PreferredVendorID: &steelco.ID,
		LastPurchasePrice: decimal.RequireFromString("2.35"),
		StandardCost:      decimal.RequireFromString("2.10"),
	}
	mustCreate(db, &steel)
	lacquer := models.Sku{
		CompanyID:         company.ID,
		Code:              "RAW-LACQUER-CL",
		Name:              "Clear Lacquer",
		Type:              models.SkuTypeRaw,
		Unit:              "L",
		PreferredVendorID: &polychem.ID,
		StandardCost:      decimal.RequireFromString("12.50"),
	}
	mustCreate(db, &lacquer)
	oakBoard := models.Sku{
		CompanyID:         company.ID,
		Code:              "RAW-OAK-BOARD",
		Name:              "Oak Board 25mm",
		Type:              models.SkuTypeRaw,
		Unit:              "M2",
		PreferredVendorID: &steelco.ID,
		LastPurchasePrice: decimal.RequireFromString("48.00"),
	}
	mustCreate(db, &oakBoard)

	now := time.Now().UTC()
	mustCreate(db, &models.VendorSkuPrice{
		CompanyID:       company.ID,
		VendorID:        steelco.ID,
		SkuID:           steel.ID,
		LastPrice:       decimal.RequireFromString("2.28"),
		LastPurchasedAt: &now,
	})

	fmt.Println("🧾 Creating BOMs and routings...")
	tableBom := models.Bom{CompanyID: company.ID, FinishedSkuID: table.ID, Version: 1}
	mustCreate(db, &tableBom)
	mustCreate(db, &models.BomLine{BomID: tableBom.ID, RawSkuID: oakBoard.ID, Quantity: decimal.RequireFromString("1.8")})
	mustCreate(db, &models.BomLine{BomID: tableBom.ID, RawSkuID: steel.ID, Quantity: decimal.RequireFromString("6.5")})
	mustCreate(db, &models.BomLine{BomID: tableBom.ID, RawSkuID: lacquer.ID, Quantity: decimal.RequireFromString("0.4"), ScrapPct: decimal.RequireFromString("5")})

	chairBom := models.Bom{CompanyID: company.ID, FinishedSkuID: chair.ID, Version: 2}
	mustCreate(db, &chairBom)
	mustCreate(db, &models.BomLine{BomID: chairBom.ID, RawSkuID: oakBoard.ID, Quantity: decimal.RequireFromString("0.6")})
	mustCreate(db, &models.BomLine{BomID: chairBom.ID, RawSkuID: lacquer.ID, Quantity: decimal.RequireFromString("0.15")})

	tableRouting := models.Routing{CompanyID: company.ID, FinishedSkuID: table.ID, Name: "Table line"}
	mustCreate(db, &tableRouting)
	mustCreate(db, &models.RoutingStep{RoutingID: tableRouting.ID, Sequence: 1, MachineName: "CNC Router A", CapacityPerMinute: decimal.RequireFromString("0.5")})
	mustCreate(db, &models.RoutingStep{RoutingID: tableRouting.ID, Sequence: 2, MachineName: "CNC Router B", CapacityPerMinute: decimal.RequireFromString("0.25")})

	chairRouting := models.Routing{CompanyID: company.ID, FinishedSkuID: chair.ID, Name: "Chair line"}
	mustCreate(db, &chairRouting)
	mustCreate(db, &models.RoutingStep{RoutingID: chairRouting.ID, Sequence: 1, MachineName: "Assembly bench", CapacityPerMinute: decimal.RequireFromString("2")})

	fmt.Println("📍 Creating stock zones and balances...")
	rawZone := models.StockZone{CompanyID: company.ID, Name: "Raw Material Store", Type: models.ZoneTypeRawMaterial}
	mustCreate(db, &rawZone)
	finishedZone := models.StockZone{CompanyID: company.ID, Name: "Finished Goods", Type: models.ZoneTypeFinished}
	mustCreate(db, &finishedZone)
	mustCreate(db, &models.StockZone{CompanyID: company.ID, Name: "Production Floor", Type: models.ZoneTypeWIP})

	mustCreate(db, &models.StockBalance{CompanyID: company.ID, SkuID: table.ID, ZoneID: finishedZone.ID, QuantityOnHand: decimal.RequireFromString("4")})
	mustCreate(db, &models.StockBalance{CompanyID: company.ID, SkuID: chair.ID, ZoneID: finishedZone.ID, QuantityOnHand: decimal.RequireFromString("10")})
	mustCreate(db, &models.StockBalance{CompanyID: company.ID, SkuID: steel.ID, ZoneID: rawZone.ID, QuantityOnHand: decimal.RequireFromString("40")})
	mustCreate(db, &models.StockBalance{CompanyID: company.ID, SkuID: oakBoard.ID, ZoneID: rawZone.ID, QuantityOnHand: decimal.RequireFromString("12")})
	mustCreate(db, &models.StockBalance{CompanyID: company.ID, SkuID: lacquer.ID, ZoneID: rawZone.ID, QuantityOnHand: decimal.RequireFromString("3")})

	fmt.Println("🛒 Creating a draft sales order...")
	order := models.SalesOrder{
		CompanyID:   company.ID,
		OrderNumber: "SO-ACME-0001",
		CustomerID:  customer.ID,
		Status:      models.SalesOrderStatusDraft,
		OrderedAt:   now,
		Notes:       "Demo order: tables and chairs for showroom",
	}
	mustCreate(db, &order)
	mustCreate(db, &models.SalesOrderLine{
		SalesOrderID: order.ID,
		SkuID:        table.ID,
		Position:     0,
		OrderedQty:   decimal.RequireFromString("8"),
		UnitPrice:    decimal.RequireFromString("420"),
	})
	mustCreate(db, &models.SalesOrderLine{
		SalesOrderID: order.ID,
		SkuID:        chair.ID,
		Position:     1,
		OrderedQty:   decimal.RequireFromString("24"),
		UnitPrice:    decimal.RequireFromString("95"),
	})

	fmt.Println()
	fmt.Println("✅ Demo data created")
	fmt.Printf("   company_id=%d  sales_order_id=%d\n", company.ID, order.ID)
	fmt.Println()
	fmt.Println("Try:")
	fmt.Printf("   curl 'localhost:%s/api/sales-orders/%d?company_id=%d'\n", cfg.Port, order.ID, company.ID)
	fmt.Printf("   curl 'localhost:%s/api/sales-orders/%d/plan?company_id=%d'\n", cfg.Port, order.ID, company.ID)
	fmt.Printf("   curl -X POST 'localhost:%s/api/sales-orders/%d/confirm?company_id=%d'\n", cfg.Port, order.ID, company.ID)
}

func mustCreate(db *database.DB, value interface{}) {
	if err := db.Create(value).Error; err != nil {
		log.Fatalf("❌ Seed failed: %v", err)
	}
}
