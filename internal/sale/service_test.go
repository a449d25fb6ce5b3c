package sale

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"lojinha/models"
	"lojinha/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: price, Stock: &stock, IsActive: true}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestFinalizeSnapshotsSale(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, logger.NewNop())
	shirt := seedProduct(t, db, "Shirt", 30, 10)

	cart := NewCart()
	cart.Add(shirt)
	cart.UpdateQuantity(shirt.ID, 1)

	record, err := svc.Finalize(cart)
	require.NoError(t, err)
	assert.NotEmpty(t, record.Number)
	assert.Equal(t, models.SaleStatusCompleted, record.Status)
	assert.Equal(t, 60.0, record.Subtotal)
	assert.Equal(t, 60.0, record.Total)
	require.Len(t, record.Items, 1)
	assert.Equal(t, "Shirt", record.Items[0].ProductName)
	assert.Equal(t, 30.0, record.Items[0].UnitPrice)
	assert.Equal(t, 2, record.Items[0].Quantity)

	// Stock decremented by the finalize transaction.
	var after models.Product
	require.NoError(t, db.First(&after, shirt.ID).Error)
	require.NotNil(t, after.Stock)
	assert.Equal(t, 8, *after.Stock)
}

func TestFinalizeEmptyCart(t *testing.T) {
	svc := NewService(newTestDB(t), logger.NewNop())
	_, err := svc.Finalize(NewCart())
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestFinalizeSnapshotSurvivesProductEdit(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, logger.NewNop())
	shirt := seedProduct(t, db, "Shirt", 30, 10)

	cart := NewCart()
	cart.Add(shirt)
	record, err := svc.Finalize(cart)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", shirt.ID).
		Updates(map[string]any{"name": "Renamed", "price": 99}).Error)

	reloaded, err := svc.Get(record.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shirt", reloaded.Items[0].ProductName)
	assert.Equal(t, 30.0, reloaded.Items[0].UnitPrice)
}

func TestFinalizeIncrementsCouponUses(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, logger.NewNop())
	shirt := seedProduct(t, db, "Shirt", 100, 10)

	coupon := models.Coupon{
		Code:          "SAVE10",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 10,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&coupon).Error)

	cart := NewCart()
	cart.Add(shirt)
	require.NoError(t, cart.ApplyCoupon(&coupon, time.Now(), false))

	record, err := svc.Finalize(cart)
	require.NoError(t, err)
	assert.Equal(t, 10.0, record.CouponDiscount)
	assert.Equal(t, 90.0, record.Total)

	var after models.Coupon
	require.NoError(t, db.First(&after, coupon.ID).Error)
	assert.Equal(t, 1, after.CurrentUses)
}

func TestDeleteRestoresStock(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, logger.NewNop())
	shirt := seedProduct(t, db, "Shirt", 30, 10)
	pants := seedProduct(t, db, "Pants", 50, 5)

	cart := NewCart()
	cart.Add(shirt)
	cart.UpdateQuantity(shirt.ID, 2) // qty 3
	cart.Add(pants) // qty 1
	record, err := svc.Finalize(cart)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(record.ID))

	var afterShirt, afterPants models.Product
	require.NoError(t, db.First(&afterShirt, shirt.ID).Error)
	require.NoError(t, db.First(&afterPants, pants.ID).Error)
	// Pre-sale stock 10 and 5, sold 3 and 1, deleted: back to 10 and 5 —
	// restoration only, no double-counting against the pre-sale values.
	assert.Equal(t, 10, *afterShirt.Stock)
	assert.Equal(t, 5, *afterPants.Stock)

	_, err = svc.Get(record.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var itemCount int64
	require.NoError(t, db.Model(&models.SaleItem{}).Where("sale_id = ?", record.ID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)
}

func TestDeleteSkipsMissingProduct(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, logger.NewNop())
	shirt := seedProduct(t, db, "Shirt", 30, 10)
	pants := seedProduct(t, db, "Pants", 50, 5)

	cart := NewCart()
	cart.Add(shirt)
	cart.Add(pants)
	record, err := svc.Finalize(cart)
	require.NoError(t, err)

	// The shirt disappears before the sale is deleted.
	require.NoError(t, db.Unscoped().Delete(&models.Product{}, shirt.ID).Error)

	require.NoError(t, svc.Delete(record.ID), "missing product is skipped, not fatal")

	var afterPants models.Product
	require.NoError(t, db.First(&afterPants, pants.ID).Error)
	assert.Equal(t, 5, *afterPants.Stock)
}

// Deleting a sale does not hand the coupon back: current_uses stays
// incremented.
func TestDeleteKeepsCouponUses(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, logger.NewNop())
	shirt := seedProduct(t, db, "Shirt", 100, 10)

	coupon := models.Coupon{
		Code:          "ONCE",
		DiscountType:  models.DiscountFixed,
		DiscountValue: 5,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&coupon).Error)

	cart := NewCart()
	cart.Add(shirt)
	require.NoError(t, cart.ApplyCoupon(&coupon, time.Now(), false))
	record, err := svc.Finalize(cart)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(record.ID))

	var after models.Coupon
	require.NoError(t, db.First(&after, coupon.ID).Error)
	assert.Equal(t, 1, after.CurrentUses)
}

func TestDeleteMissingSale(t *testing.T) {
	svc := NewService(newTestDB(t), logger.NewNop())
	require.ErrorIs(t, svc.Delete(42), ErrNotFound)
}

func TestLookupCoupon(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, logger.NewNop())

	require.NoError(t, db.Create(&models.Coupon{
		Code: "HELLO", DiscountType: models.DiscountFixed, DiscountValue: 1, IsActive: true,
	}).Error)

	coupon, err := svc.LookupCoupon("HELLO")
	require.NoError(t, err)
	assert.Equal(t, "HELLO", coupon.Code)

	_, err = svc.LookupCoupon("NOPE")
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestCustomerCoupons(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, logger.NewNop())

	coupon := models.Coupon{Code: "VIP", DiscountType: models.DiscountFixed, DiscountValue: 5, IsActive: true}
	require.NoError(t, db.Create(&coupon).Error)
	customer := models.Customer{Name: "Ana", Coupons: []models.Coupon{coupon}}
	require.NoError(t, db.Create(&customer).Error)

	coupons, err := svc.CustomerCoupons(customer.ID)
	require.NoError(t, err)
	require.Len(t, coupons, 1)

	found, err := svc.CustomerCouponByID(customer.ID, coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, "VIP", found.Code)

	_, err = svc.CustomerCouponByID(customer.ID, 999)
	assert.ErrorIs(t, err, ErrCouponNotFound)
}
