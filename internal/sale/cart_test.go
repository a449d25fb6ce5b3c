package sale

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lojinha/models"
)

func product(id uint, name string, price float64) models.Product {
	return models.Product{Model: gorm.Model{ID: id}, Name: name, Price: price, IsActive: true}
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func percentCoupon(code string, value, minPurchase float64) *models.Coupon {
	return &models.Coupon{
		Code:          code,
		DiscountType:  models.DiscountPercentage,
		DiscountValue: value,
		MinPurchase:   minPurchase,
		IsActive:      true,
	}
}

func TestAddIncrementsExistingLine(t *testing.T) {
	cart := NewCart()
	p := product(1, "Shirt", 30)

	cart.Add(p)
	cart.Add(p)
	cart.Add(product(2, "Pants", 50))

	require.Len(t, cart.Lines(), 2)
	assert.Equal(t, 2, cart.Lines()[0].Quantity)
	assert.Equal(t, 1, cart.Lines()[1].Quantity)
}

func TestUpdateQuantityRemovesAtZero(t *testing.T) {
	cart := NewCart()
	cart.Add(product(1, "Shirt", 30))
	cart.UpdateQuantity(1, 2)
	assert.Equal(t, 3, cart.Lines()[0].Quantity)

	cart.UpdateQuantity(1, -3)
	assert.Empty(t, cart.Lines(), "quantity <= 0 removes the line, not a displayed zero")
}

func TestPromotionalPriceWins(t *testing.T) {
	cart := NewCart()
	p := product(1, "Shirt", 30)
	p.PromotionalPrice = floatPtr(25)
	cart.Add(p)

	assert.Equal(t, 25.0, cart.Lines()[0].UnitPrice)
	assert.Equal(t, 25.0, cart.Subtotal())
}

func TestPromotionalPriceIgnoredWhenHigher(t *testing.T) {
	cart := NewCart()
	p := product(1, "Shirt", 30)
	p.PromotionalPrice = floatPtr(35)
	cart.Add(p)

	assert.Equal(t, 30.0, cart.Lines()[0].UnitPrice)
}

func TestSubtotalIsExact(t *testing.T) {
	cart := NewCart()
	cart.Add(product(1, "A", 19.99))
	cart.UpdateQuantity(1, 2)
	cart.Add(product(2, "B", 0.01))

	assert.InDelta(t, 59.98, cart.Subtotal(), 1e-9)
}

func TestPercentageCoupon(t *testing.T) {
	cart := NewCart()
	cart.Add(product(1, "A", 100))

	require.NoError(t, cart.ApplyCoupon(percentCoupon("SAVE10", 10, 0), time.Now(), false))
	assert.Equal(t, 10.0, cart.CouponDiscount())
	assert.Equal(t, 90.0, cart.Total())
}

func TestFixedCouponClampsTotal(t *testing.T) {
	cart := NewCart()
	cart.Add(product(1, "A", 30))

	coupon := &models.Coupon{
		Code:          "FIXED50",
		DiscountType:  models.DiscountFixed,
		DiscountValue: 50,
		IsActive:      true,
	}
	require.NoError(t, cart.ApplyCoupon(coupon, time.Now(), false))
	assert.Equal(t, 50.0, cart.CouponDiscount(), "the discount itself is not clamped")
	assert.Equal(t, 0.0, cart.Total(), "the total is")
}

func TestManualDiscountStacksWithCoupon(t *testing.T) {
	cart := NewCart()
	cart.Add(product(1, "A", 100))
	require.NoError(t, cart.ApplyCoupon(percentCoupon("SAVE10", 10, 0), time.Now(), false))
	require.NoError(t, cart.SetManualDiscount(15))

	assert.Equal(t, 75.0, cart.Total())
}

func TestManualDiscountRejectsNegative(t *testing.T) {
	cart := NewCart()
	assert.ErrorIs(t, cart.SetManualDiscount(-1), ErrNegativeDiscount)
}

func TestSecondCouponRejected(t *testing.T) {
	cart := NewCart()
	cart.Add(product(1, "A", 100))
	require.NoError(t, cart.ApplyCoupon(percentCoupon("FIRST", 10, 0), time.Now(), false))

	err := cart.ApplyCoupon(percentCoupon("SECOND", 20, 0), time.Now(), false)
	assert.ErrorIs(t, err, ErrCouponAlreadySet)

	cart.RemoveCoupon()
	require.NoError(t, cart.ApplyCoupon(percentCoupon("SECOND", 20, 0), time.Now(), false))
	assert.Equal(t, 20.0, cart.CouponDiscount())
}

func TestCouponGateOrder(t *testing.T) {
	now := time.Now()
	expired := now.Add(-time.Hour)
	maxUses := 5

	tests := []struct {
		name    string
		coupon  *models.Coupon
		wantErr error
	}{
		{"missing", nil, ErrCouponNotFound},
		{"inactive", &models.Coupon{IsActive: false}, ErrCouponInactive},
		{"expired", &models.Coupon{IsActive: true, ValidUntil: &expired}, ErrCouponExpired},
		{"exhausted", &models.Coupon{IsActive: true, MaxUses: &maxUses, CurrentUses: 5}, ErrCouponExhausted},
		{"below minimum", &models.Coupon{IsActive: true, MinPurchase: 200}, ErrMinPurchase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoupon(tt.coupon, 100, now, false)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// An inactive, expired and exhausted coupon fails on the first gate check
// (inactive), not a later one.
func TestCouponGateFirstFailureWins(t *testing.T) {
	now := time.Now()
	expired := now.Add(-time.Hour)
	maxUses := 1
	coupon := &models.Coupon{
		IsActive:    false,
		ValidUntil:  &expired,
		MaxUses:     &maxUses,
		CurrentUses: 1,
	}
	assert.ErrorIs(t, ValidateCoupon(coupon, 100, now, false), ErrCouponInactive)
}

// A customer-linked coupon skips existence/active/expiry/usage checks but
// still enforces the minimum purchase.
func TestCustomerLinkedCouponOnlyChecksMinimum(t *testing.T) {
	now := time.Now()
	expired := now.Add(-time.Hour)
	coupon := &models.Coupon{IsActive: false, ValidUntil: &expired, MinPurchase: 50}

	assert.NoError(t, ValidateCoupon(coupon, 100, now, true))
	assert.ErrorIs(t, ValidateCoupon(coupon, 30, now, true), ErrMinPurchase)
}

func TestCouponUsageNotExhaustedBelowLimit(t *testing.T) {
	coupon := &models.Coupon{IsActive: true, MaxUses: intPtr(5), CurrentUses: 4}
	assert.NoError(t, ValidateCoupon(coupon, 100, time.Now(), false))
}

func TestApplyCouponRejectsUnknownType(t *testing.T) {
	cart := NewCart()
	cart.Add(product(1, "A", 100))
	coupon := &models.Coupon{Code: "WAT", DiscountType: "bogus", IsActive: true}
	assert.ErrorIs(t, cart.ApplyCoupon(coupon, time.Now(), false), ErrInvalidDiscountType)
}
