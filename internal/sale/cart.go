package sale

import (
	"errors"
	"math"
	"time"

	"lojinha/models"
)

var (
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrCouponInactive      = errors.New("coupon is not active")
	ErrCouponExpired       = errors.New("coupon has expired")
	ErrCouponExhausted     = errors.New("coupon usage limit reached")
	ErrMinPurchase         = errors.New("cart subtotal below coupon minimum purchase")
	ErrCouponAlreadySet    = errors.New("a coupon is already applied; remove it first")
	ErrEmptyCart           = errors.New("cart has no items")
	ErrNegativeDiscount    = errors.New("manual discount cannot be negative")
	ErrInvalidDiscountType = errors.New("coupon discount type must be percentage or fixed")
)

// Line is one cart entry. UnitPrice is fixed when the product is added:
// promotional price when present and lower, regular price otherwise.
type Line struct {
	ProductID uint
	Name      string
	UnitPrice float64
	Quantity  int
}

// Cart accumulates a sale-in-progress: line items, an optional customer,
// at most one coupon and a manual discount. It holds no database state;
// Service.Finalize persists the outcome.
type Cart struct {
	lines          []Line
	customerID     *uint
	coupon         *models.Coupon
	manualDiscount float64
}

func NewCart() *Cart {
	return &Cart{}
}

// Add puts a product in the cart, incrementing the quantity when the
// product is already present.
func (c *Cart) Add(p models.Product) {
	for i := range c.lines {
		if c.lines[i].ProductID == p.ID {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.EffectivePrice(),
		Quantity:  1,
	})
}

// UpdateQuantity adjusts a line by delta. A resulting quantity of zero or
// less removes the line entirely.
func (c *Cart) UpdateQuantity(productID uint, delta int) {
	for i := range c.lines {
		if c.lines[i].ProductID != productID {
			continue
		}
		c.lines[i].Quantity += delta
		if c.lines[i].Quantity <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		}
		return
	}
}

func (c *Cart) Lines() []Line {
	return c.lines
}

func (c *Cart) SetCustomer(id *uint) {
	c.customerID = id
}

func (c *Cart) CustomerID() *uint {
	return c.customerID
}

func (c *Cart) Subtotal() float64 {
	var subtotal float64
	for _, l := range c.lines {
		subtotal += l.UnitPrice * float64(l.Quantity)
	}
	return subtotal
}

// ValidateCoupon runs the gate checks in order, first failure wins:
// active, not expired, usage not exhausted, minimum purchase. Existence
// (the lookup itself) is the caller's step one. Coupons picked from a
// customer's own linked list skip everything except the minimum purchase.
func ValidateCoupon(coupon *models.Coupon, subtotal float64, now time.Time, customerLinked bool) error {
	if coupon == nil {
		return ErrCouponNotFound
	}
	if !customerLinked {
		if !coupon.IsActive {
			return ErrCouponInactive
		}
		if coupon.ValidUntil != nil && coupon.ValidUntil.Before(now) {
			return ErrCouponExpired
		}
		if coupon.MaxUses != nil && coupon.CurrentUses >= *coupon.MaxUses {
			return ErrCouponExhausted
		}
	}
	if subtotal < coupon.MinPurchase {
		return ErrMinPurchase
	}
	return nil
}

// ApplyCoupon validates and attaches the coupon. Only one coupon may be
// active; the previous one must be removed explicitly first.
func (c *Cart) ApplyCoupon(coupon *models.Coupon, now time.Time, customerLinked bool) error {
	if c.coupon != nil {
		return ErrCouponAlreadySet
	}
	if coupon != nil && coupon.DiscountType != models.DiscountPercentage && coupon.DiscountType != models.DiscountFixed {
		return ErrInvalidDiscountType
	}
	if err := ValidateCoupon(coupon, c.Subtotal(), now, customerLinked); err != nil {
		return err
	}
	c.coupon = coupon
	return nil
}

func (c *Cart) RemoveCoupon() {
	c.coupon = nil
}

func (c *Cart) Coupon() *models.Coupon {
	return c.coupon
}

func (c *Cart) SetManualDiscount(value float64) error {
	if value < 0 {
		return ErrNegativeDiscount
	}
	c.manualDiscount = value
	return nil
}

func (c *Cart) ManualDiscount() float64 {
	return c.manualDiscount
}

// CouponDiscount is subtotal*value/100 for percentage coupons (rounded to
// cents) or the fixed value. A fixed discount may exceed the subtotal;
// Total clamps the result, not this.
func (c *Cart) CouponDiscount() float64 {
	if c.coupon == nil {
		return 0
	}
	if c.coupon.DiscountType == models.DiscountPercentage {
		return math.Round(c.Subtotal()*c.coupon.DiscountValue) / 100
	}
	return c.coupon.DiscountValue
}

// Total is max(0, subtotal - couponDiscount - manualDiscount). Discounts
// never drive the total negative.
func (c *Cart) Total() float64 {
	total := c.Subtotal() - c.CouponDiscount() - c.manualDiscount
	if total < 0 {
		return 0
	}
	return total
}
