// Package testutil provides an in-memory database and seeded fixtures for tests.
package testutil

import (
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/washwala/laundry-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory sqlite database that lives for the test.
// The pool holds a single connection, so transactions serialize.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger: logger.NewSlogLogger(slog.New(slog.NewTextHandler(testWriter{t}, nil)), logger.Config{
			IgnoreRecordNotFoundError: true,
			LogLevel:                  logger.Error,
		}),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// testWriter routes log output to t.Log so it only shows for failing or verbose runs.
type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

// Fixture is a small marketplace: two customers, two laundries and a
// washing service priced per piece (shirt, 50) and per kg (mixed load, 40)
type Fixture struct {
	DB *gorm.DB

	Customer      models.User
	OtherCustomer models.User
	Owner         models.User
	OtherOwner    models.User
	Admin         models.User

	Laundry      models.Laundry
	OtherLaundry models.Laundry

	Washing   models.ServiceCategory
	Shirt     models.ClothingItem
	MixedLoad models.ClothingItem

	WashService  models.LaundryService
	ShirtPrice   models.ServicePricing
	MixedLoadKg  models.ServicePricing
	OtherService models.LaundryService
}

// Seed fills db with the standard fixture
func Seed(t *testing.T, db *gorm.DB) *Fixture {
	t.Helper()
	f := &Fixture{DB: db}

	f.Customer = mustCreate(t, db, models.User{Phone: "+923000000001", Name: "Ayesha", Role: models.RoleCustomer, IsActive: true})
	f.OtherCustomer = mustCreate(t, db, models.User{Phone: "+923000000002", Name: "Bilal", Role: models.RoleCustomer, IsActive: true})
	f.Owner = mustCreate(t, db, models.User{Phone: "+923000000003", Name: "Sparkle Owner", Role: models.RoleLaundry, IsActive: true})
	f.OtherOwner = mustCreate(t, db, models.User{Phone: "+923000000004", Name: "Fresh Owner", Role: models.RoleLaundry, IsActive: true})
	f.Admin = mustCreate(t, db, models.User{Phone: "+923000000005", Name: "Admin", Role: models.RoleAdmin, IsActive: true})

	f.Laundry = mustCreate(t, db, models.Laundry{OwnerID: f.Owner.ID, Name: "Sparkle Laundry", Address: "Gulberg III, Lahore", City: "Lahore", IsActive: true})
	f.OtherLaundry = mustCreate(t, db, models.Laundry{OwnerID: f.OtherOwner.ID, Name: "Fresh Wash", Address: "DHA Phase 5, Karachi", City: "Karachi", IsActive: true})

	f.Washing = mustCreate(t, db, models.ServiceCategory{Name: "Washing", Icon: "wash", SortOrder: 1})
	f.Shirt = mustCreate(t, db, models.ClothingItem{Name: "Shirt", Category: "MEN"})
	f.MixedLoad = mustCreate(t, db, models.ClothingItem{Name: "Mixed Load", Category: "HOUSEHOLD"})

	f.WashService = mustCreate(t, db, models.LaundryService{LaundryID: f.Laundry.ID, CategoryID: f.Washing.ID, Name: "Wash & Fold", EstimatedHours: 48, IsAvailable: true})
	express := decimal.NewFromInt(80)
	f.ShirtPrice = mustCreate(t, db, models.ServicePricing{ServiceID: f.WashService.ID, ClothingItemID: f.Shirt.ID, Price: decimal.NewFromInt(50), ExpressPrice: &express, PriceUnit: models.PricePerPiece, IsAvailable: true})
	f.MixedLoadKg = mustCreate(t, db, models.ServicePricing{ServiceID: f.WashService.ID, ClothingItemID: f.MixedLoad.ID, Price: decimal.NewFromInt(40), PriceUnit: models.PricePerKg, IsAvailable: true})

	f.OtherService = mustCreate(t, db, models.LaundryService{LaundryID: f.OtherLaundry.ID, CategoryID: f.Washing.ID, Name: "Quick Wash", EstimatedHours: 24, IsAvailable: true})
	mustCreate(t, db, models.ServicePricing{ServiceID: f.OtherService.ID, ClothingItemID: f.Shirt.ID, Price: decimal.NewFromInt(60), PriceUnit: models.PricePerPiece, IsAvailable: true})

	return f
}

// CreatePromo stores promo, defaulting an open validity window around now
func (f *Fixture) CreatePromo(t *testing.T, promo models.PromoCode) models.PromoCode {
	t.Helper()
	if promo.ValidFrom.IsZero() {
		promo.ValidFrom = time.Now().Add(-24 * time.Hour)
	}
	if promo.ValidUntil.IsZero() {
		promo.ValidUntil = time.Now().Add(24 * time.Hour)
	}
	promo.IsActive = true
	return mustCreate(t, f.DB, promo)
}

// Welcome50 is 50% off capped at 200, min order 300, first order only
func (f *Fixture) Welcome50(t *testing.T) models.PromoCode {
	t.Helper()
	maxDiscount := decimal.NewFromInt(200)
	return f.CreatePromo(t, models.PromoCode{
		Code:           "WELCOME50",
		DiscountType:   models.DiscountPercentage,
		DiscountValue:  decimal.NewFromInt(50),
		MaxDiscount:    &maxDiscount,
		MinOrderAmount: decimal.NewFromInt(300),
		FirstOrderOnly: true,
	})
}

// PickupDate is a valid pickup date two days ahead
func PickupDate() time.Time {
	return time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}

func mustCreate[T any](t *testing.T, db *gorm.DB, v T) T {
	t.Helper()
	if err := db.Create(&v).Error; err != nil {
		t.Fatalf("Failed to create fixture %T: %v", v, err)
	}
	return v
}
