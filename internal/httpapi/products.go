package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lojinha/models"
)

func (s *Server) listProducts(c *gin.Context) {
	var products []models.Product
	query := s.db.Preload("Variants.Options").Order("name")
	if c.Query("category_id") != "" {
		query = query.Where("category_id = ?", c.Query("category_id"))
	}
	if err := query.Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (s *Server) getProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var product models.Product
	if err := s.db.Preload("Variants.Options").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) createProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.db.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (s *Server) updateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	var payload models.Product
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	product.Name = payload.Name
	product.Description = payload.Description
	product.Price = payload.Price
	product.PromotionalPrice = payload.PromotionalPrice
	product.Stock = payload.Stock
	product.CategoryID = payload.CategoryID
	product.Images = payload.Images
	product.IsActive = payload.IsActive
	if err := s.db.Save(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res := s.db.Delete(&models.Product{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// variantPayload carries variant fields plus the option IDs (one per
// attribute axis) the combination represents.
type variantPayload struct {
	SKU             string  `json:"sku"`
	PriceAdjustment float64 `json:"price_adjustment"`
	Stock           int     `json:"stock"`
	IsActive        bool    `json:"is_active"`
	OptionIDs       []uint  `json:"option_ids" binding:"required"`
}

func (s *Server) createVariant(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var payload variantPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var product models.Product
	if err := s.db.First(&product, productID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	options, ok := s.resolveVariantOptions(c, payload.OptionIDs)
	if !ok {
		return
	}
	variant := models.ProductVariant{
		ProductID:       productID,
		SKU:             payload.SKU,
		PriceAdjustment: payload.PriceAdjustment,
		Stock:           payload.Stock,
		IsActive:        payload.IsActive,
		Options:         options,
	}
	if err := s.db.Create(&variant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, variant)
}

func (s *Server) updateVariant(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var variant models.ProductVariant
	if err := s.db.First(&variant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "variant not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	var payload variantPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var options []models.AttributeOption
	if len(payload.OptionIDs) > 0 {
		options, ok = s.resolveVariantOptions(c, payload.OptionIDs)
		if !ok {
			return
		}
	}
	variant.SKU = payload.SKU
	variant.PriceAdjustment = payload.PriceAdjustment
	variant.Stock = payload.Stock
	variant.IsActive = payload.IsActive
	if err := s.db.Save(&variant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(options) > 0 {
		if err := s.db.Model(&variant).Association("Options").Replace(options); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, variant)
}

// resolveVariantOptions loads the requested options and enforces the
// combination shape: every ID must exist and no two options may belong
// to the same attribute. Writes the error response itself on failure.
func (s *Server) resolveVariantOptions(c *gin.Context, optionIDs []uint) ([]models.AttributeOption, bool) {
	var options []models.AttributeOption
	if err := s.db.Where("id IN ?", optionIDs).Find(&options).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if len(options) != len(optionIDs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "one or more options not found"})
		return nil, false
	}
	seen := map[uint]bool{}
	for _, opt := range options {
		if seen[opt.AttributeID] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "variant must have at most one option per attribute"})
			return nil, false
		}
		seen[opt.AttributeID] = true
	}
	return options, true
}

func (s *Server) deleteVariant(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res := s.db.Select("Options").Delete(&models.ProductVariant{Model: gorm.Model{ID: id}})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "variant not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
