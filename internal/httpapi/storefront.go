package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lojinha/internal/ai"
	"lojinha/internal/catalog"
	"lojinha/internal/variant"
	"lojinha/models"
)

// listCatalog serves the public product grid: active products only, with
// search, price/name sorting and category filtering expanded to the
// category's whole descendant set.
func (s *Server) listCatalog(c *gin.Context) {
	query := s.db.Where("is_active = ?", true)

	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	if categoryParam := c.Query("category"); categoryParam != "" {
		categoryID, err := strconv.ParseUint(categoryParam, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
			return
		}
		categories, err := s.categories.List()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		query = query.Where("category_id IN ?", catalog.DescendantIDs(categories, uint(categoryID)))
	}

	switch c.Query("sort") {
	case "price_asc":
		query = query.Order("price")
	case "price_desc":
		query = query.Order("price DESC")
	default:
		query = query.Order("name")
	}

	var products []models.Product
	if err := query.Preload("Variants.Options").Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, products)
}

// getCatalogProduct serves the product detail page payload: the product,
// the attribute axes its variants span (with their options, so the
// selectors can be rendered), per-option availability, plus the price
// range and the auto-selected combination when only one variant exists.
func (s *Server) getCatalogProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var product models.Product
	err := s.db.Where("is_active = ?", true).Preload("Variants.Options").First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	active := make([]models.ProductVariant, 0, len(product.Variants))
	attrIDs := make(map[uint]bool)
	for _, v := range product.Variants {
		if !v.IsActive {
			continue
		}
		active = append(active, v)
		for _, o := range v.Options {
			attrIDs[o.AttributeID] = true
		}
	}
	matrix := variant.NewMatrix(product.Price, active)

	payload := gin.H{"product": product}
	if matrix.HasVariants() {
		attributes, availability, err := s.variantAxes(attrIDs, matrix)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		payload["attributes"] = attributes
		payload["option_availability"] = availability

		min, max, _ := matrix.PriceRange()
		payload["price_range"] = gin.H{"min": min, "max": max}
		if sel := matrix.AutoSelect(); len(sel) > 0 {
			payload["auto_selection"] = sel
			payload["effective_price"] = matrix.EffectivePrice(sel)
			payload["effective_stock"] = matrix.EffectiveStock(sel)
		}
	} else {
		payload["effective_price"] = product.EffectivePrice()
		if product.Stock != nil {
			payload["effective_stock"] = *product.Stock
		}
	}
	c.JSON(http.StatusOK, payload)
}

// variantAxes loads the attributes the product's variants span, options
// included, and computes initial availability per option (no selection
// yet: does any active, stocked variant carry it).
func (s *Server) variantAxes(attrIDs map[uint]bool, matrix *variant.Matrix) ([]models.Attribute, map[uint]bool, error) {
	ids := make([]uint, 0, len(attrIDs))
	for id := range attrIDs {
		ids = append(ids, id)
	}
	var attributes []models.Attribute
	err := s.db.Where("id IN ?", ids).Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order, label")
	}).Order("sort_order, name").Find(&attributes).Error
	if err != nil {
		return nil, nil, err
	}
	availability := make(map[uint]bool)
	for _, attr := range attributes {
		for _, opt := range attr.Options {
			availability[opt.ID] = matrix.OptionAvailable(variant.Selection{}, attr.ID, opt.ID)
		}
	}
	return attributes, availability, nil
}

func (s *Server) getSettings(c *gin.Context) {
	var settings models.StoreSettings
	if err := s.db.First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, models.StoreSettings{})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) updateSettings(c *gin.Context) {
	var payload models.StoreSettings
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var settings models.StoreSettings
	err := s.db.First(&settings).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		settings = payload
		if err := s.db.Create(&settings).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	default:
		settings.StoreName = payload.StoreName
		settings.LogoURL = payload.LogoURL
		settings.WhatsAppNumber = payload.WhatsAppNumber
		settings.PrimaryColor = payload.PrimaryColor
		if err := s.db.Save(&settings).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, settings)
}

type extractItemsPayload struct {
	Image string `json:"image" binding:"required"`
}

// extractItems proxies the image-understanding endpoint and fuzzy-matches
// each guess against the existing products.
func (s *Server) extractItems(c *gin.Context) {
	if s.ai == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ai features are not configured"})
		return
	}
	var payload extractItemsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	guesses, err := s.ai.ExtractItems(c.Request.Context(), payload.Image)
	if err != nil {
		s.aiError(c, err)
		return
	}
	var products []models.Product
	if err := s.db.Where("is_active = ?", true).Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	type guessWithMatches struct {
		ai.ItemGuess
		Matches []ai.ProductMatch `json:"matches"`
	}
	results := make([]guessWithMatches, 0, len(guesses))
	for _, g := range guesses {
		results = append(results, guessWithMatches{
			ItemGuess: g,
			Matches:   ai.MatchProducts(g.Name, products),
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": results})
}

type tryOnPayload struct {
	UserImage    string `json:"user_image" binding:"required"`
	ProductImage string `json:"product_image" binding:"required"`
	Prompt       string `json:"prompt"`
}

func (s *Server) tryOn(c *gin.Context) {
	if s.ai == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ai features are not configured"})
		return
	}
	var payload tryOnPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	image, err := s.ai.TryOn(c.Request.Context(), payload.UserImage, payload.ProductImage, payload.Prompt)
	if err != nil {
		s.aiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": image})
}

// aiError keeps the rate-limit and quota cases distinct from generic
// failures, matching the storefront's user-facing messages.
func (s *Server) aiError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ai.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again in a few seconds"})
	case errors.Is(err, ai.ErrQuotaExceeded):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "ai quota exceeded"})
	case errors.Is(err, ai.ErrNoMatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no items recognized in image"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "ai request failed"})
	}
}
