package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lojinha/internal/sale"
	"lojinha/models"
)

type saleItemPayload struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// createSalePayload is one finalize request: the cart lines, an optional
// customer, at most one coupon (by code, or picked from the customer's
// linked list by id) and a manual discount.
type createSalePayload struct {
	CustomerID       *uint             `json:"customer_id"`
	Items            []saleItemPayload `json:"items" binding:"required,min=1"`
	CouponCode       string            `json:"coupon_code"`
	CustomerCouponID *uint             `json:"customer_coupon_id"`
	ManualDiscount   float64           `json:"manual_discount"`
}

func (s *Server) createSale(c *gin.Context) {
	var payload createSalePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if payload.CouponCode != "" && payload.CustomerCouponID != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at most one coupon per sale"})
		return
	}
	if payload.CustomerCouponID != nil && payload.CustomerID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_coupon_id requires customer_id"})
		return
	}

	cart := sale.NewCart()
	cart.SetCustomer(payload.CustomerID)
	for _, item := range payload.Items {
		var product models.Product
		if err := s.db.First(&product, item.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		cart.Add(product)
		if item.Quantity > 1 {
			cart.UpdateQuantity(product.ID, item.Quantity-1)
		}
	}
	if err := cart.SetManualDiscount(payload.ManualDiscount); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch {
	case payload.CouponCode != "":
		coupon, err := s.sales.LookupCoupon(payload.CouponCode)
		if err != nil {
			s.couponError(c, err)
			return
		}
		if err := cart.ApplyCoupon(coupon, time.Now(), false); err != nil {
			s.couponError(c, err)
			return
		}
	case payload.CustomerCouponID != nil:
		coupon, err := s.sales.CustomerCouponByID(*payload.CustomerID, *payload.CustomerCouponID)
		if err != nil {
			s.couponError(c, err)
			return
		}
		if err := cart.ApplyCoupon(coupon, time.Now(), true); err != nil {
			s.couponError(c, err)
			return
		}
	}

	record, err := s.sales.Finalize(cart)
	if err != nil {
		if errors.Is(err, sale.ErrEmptyCart) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, record)
}

// couponError maps gate failures to 400/404 and everything else to 500.
func (s *Server) couponError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sale.ErrCouponNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, sale.ErrCouponInactive),
		errors.Is(err, sale.ErrCouponExpired),
		errors.Is(err, sale.ErrCouponExhausted),
		errors.Is(err, sale.ErrMinPurchase),
		errors.Is(err, sale.ErrCouponAlreadySet),
		errors.Is(err, sale.ErrInvalidDiscountType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) listSales(c *gin.Context) {
	records, err := s.sales.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) getSale(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	record, err := s.sales.Get(id)
	if err != nil {
		if errors.Is(err, sale.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) deleteSale(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := s.sales.Delete(id); err != nil {
		if errors.Is(err, sale.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
