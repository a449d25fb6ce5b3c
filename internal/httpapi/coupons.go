package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lojinha/models"
)

func (s *Server) listCoupons(c *gin.Context) {
	var coupons []models.Coupon
	if err := s.db.Order("code").Find(&coupons).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, coupons)
}

func (s *Server) createCoupon(c *gin.Context) {
	var coupon models.Coupon
	if err := c.ShouldBindJSON(&coupon); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	if coupon.DiscountType != models.DiscountPercentage && coupon.DiscountType != models.DiscountFixed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "discount_type must be percentage or fixed"})
		return
	}
	if err := s.db.Create(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "coupon code already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, coupon)
}

func (s *Server) updateCoupon(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var coupon models.Coupon
	if err := s.db.First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "coupon not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	var payload models.Coupon
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if payload.DiscountType != models.DiscountPercentage && payload.DiscountType != models.DiscountFixed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "discount_type must be percentage or fixed"})
		return
	}
	coupon.Code = strings.ToUpper(strings.TrimSpace(payload.Code))
	coupon.DiscountType = payload.DiscountType
	coupon.DiscountValue = payload.DiscountValue
	coupon.MinPurchase = payload.MinPurchase
	coupon.MaxUses = payload.MaxUses
	coupon.ValidFrom = payload.ValidFrom
	coupon.ValidUntil = payload.ValidUntil
	coupon.IsActive = payload.IsActive
	if err := s.db.Save(&coupon).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, coupon)
}

func (s *Server) deleteCoupon(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res := s.db.Delete(&models.Coupon{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "coupon not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
