package models

import (
	"time"

	"gorm.io/gorm"
)

// Category is a node in the store's self-referencing category tree.
// Deleting a category with children is rejected at the service layer;
// there is no cascading delete and no automatic reparenting.
type Category struct {
	gorm.Model
	Name      string     `json:"name" binding:"required"`
	ParentID  *uint      `json:"parent_id"`
	SortOrder int        `json:"sort_order"`
	Children  []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Products  []Product  `json:"-"`
}

type Product struct {
	gorm.Model
	Name             string           `json:"name" binding:"required"`
	Description      string           `json:"description"`
	Price            float64          `json:"price"`
	PromotionalPrice *float64         `json:"promotional_price"`
	Stock            *int             `json:"stock"`
	CategoryID       *uint            `json:"category_id"`
	Images           []string         `gorm:"serializer:json" json:"images"`
	IsActive         bool             `json:"is_active"`
	Variants         []ProductVariant `json:"variants,omitempty"`
}

// EffectivePrice is the price a simple (variant-less) product sells at:
// the promotional price when present and lower than the regular price.
func (p Product) EffectivePrice() float64 {
	if p.PromotionalPrice != nil && *p.PromotionalPrice < p.Price {
		return *p.PromotionalPrice
	}
	return p.Price
}

// Attribute is an axis of product variation, e.g. Size or Color.
type Attribute struct {
	gorm.Model
	Name      string            `json:"name" binding:"required"`
	SortOrder int               `json:"sort_order"`
	IsActive  bool              `json:"is_active"`
	Options   []AttributeOption `json:"options,omitempty"`
}

// AttributeOption is one concrete value of an attribute, e.g. "Red".
type AttributeOption struct {
	gorm.Model
	AttributeID uint   `json:"attribute_id"`
	Label       string `json:"label" binding:"required"`
	ImageURL    string `json:"image_url"`
	SortOrder   int    `json:"sort_order"`
}

// ProductVariant is one purchasable combination point: exactly one option
// per attribute axis the product varies on, with its own price adjustment
// and stock that supersede the product-level fields.
type ProductVariant struct {
	gorm.Model
	ProductID       uint              `json:"product_id"`
	SKU             string            `json:"sku"`
	PriceAdjustment float64           `json:"price_adjustment"`
	Stock           int               `json:"stock"`
	IsActive        bool              `json:"is_active"`
	Options         []AttributeOption `gorm:"many2many:variant_options;" json:"options,omitempty"`
}

type Customer struct {
	gorm.Model
	Name    string   `json:"name" binding:"required"`
	Phone   string   `json:"phone"`
	Address string   `json:"address"`
	Notes   string   `json:"notes"`
	Coupons []Coupon `gorm:"many2many:customer_coupons;" json:"coupons,omitempty"`
}

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Coupon is either globally redeemable by code or linked to specific
// customers through the customer_coupons join table.
type Coupon struct {
	gorm.Model
	Code          string     `gorm:"uniqueIndex" json:"code" binding:"required"`
	DiscountType  string     `json:"discount_type"`
	DiscountValue float64    `json:"discount_value"`
	MinPurchase   float64    `json:"min_purchase"`
	MaxUses       *int       `json:"max_uses"`
	CurrentUses   int        `json:"current_uses"`
	ValidFrom     time.Time  `json:"valid_from"`
	ValidUntil    *time.Time `json:"valid_until"`
	IsActive      bool       `json:"is_active"`
}

const (
	SaleStatusCompleted = "completed"
	SaleStatusCancelled = "cancelled"
)

// Sale is an immutable record of a finalized checkout. Items snapshot the
// product name and unit price at sale time, so later product edits never
// rewrite history.
type Sale struct {
	gorm.Model
	Number         string     `gorm:"uniqueIndex" json:"number"`
	CustomerID     *uint      `json:"customer_id"`
	Customer       *Customer  `json:"customer,omitempty"`
	Subtotal       float64    `json:"subtotal"`
	CouponID       *uint      `json:"coupon_id"`
	CouponDiscount float64    `json:"coupon_discount"`
	ManualDiscount float64    `json:"manual_discount"`
	Total          float64    `json:"total"`
	Status         string     `json:"status"`
	Items          []SaleItem `gorm:"constraint:OnDelete:CASCADE;" json:"items,omitempty"`
}

type SaleItem struct {
	gorm.Model
	SaleID      uint    `json:"sale_id"`
	ProductID   *uint   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

// StoreSettings holds the store branding shown on the public catalog.
// A single row is kept; updates overwrite it.
type StoreSettings struct {
	gorm.Model
	StoreName      string `json:"store_name"`
	LogoURL        string `json:"logo_url"`
	WhatsAppNumber string `json:"whatsapp_number"`
	PrimaryColor   string `json:"primary_color"`
}

// AdminUser backs the admin role check. Subject is the OIDC token subject.
type AdminUser struct {
	gorm.Model
	Subject string `gorm:"uniqueIndex" json:"subject"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

// All lists every entity for AutoMigrate.
func All() []any {
	return []any{
		&Category{},
		&Product{},
		&Attribute{},
		&AttributeOption{},
		&ProductVariant{},
		&Customer{},
		&Coupon{},
		&Sale{},
		&SaleItem{},
		&StoreSettings{},
		&AdminUser{},
	}
}
