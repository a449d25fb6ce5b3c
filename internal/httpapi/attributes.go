package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lojinha/models"
)

func (s *Server) listAttributes(c *gin.Context) {
	var attributes []models.Attribute
	if err := s.db.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order, label")
	}).Order("sort_order, name").Find(&attributes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, attributes)
}

func (s *Server) createAttribute(c *gin.Context) {
	var attribute models.Attribute
	if err := c.ShouldBindJSON(&attribute); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.db.Create(&attribute).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, attribute)
}

func (s *Server) updateAttribute(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var attribute models.Attribute
	if err := s.db.First(&attribute, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "attribute not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	var payload models.Attribute
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	attribute.Name = payload.Name
	attribute.SortOrder = payload.SortOrder
	attribute.IsActive = payload.IsActive
	if err := s.db.Save(&attribute).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, attribute)
}

func (s *Server) deleteAttribute(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res := s.db.Delete(&models.Attribute{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "attribute not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (s *Server) createAttributeOption(c *gin.Context) {
	attributeID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := s.db.First(&models.Attribute{}, attributeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "attribute not found"})
		return
	}
	var option models.AttributeOption
	if err := c.ShouldBindJSON(&option); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	option.AttributeID = attributeID
	if err := s.db.Create(&option).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, option)
}

func (s *Server) deleteAttributeOption(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res := s.db.Delete(&models.AttributeOption{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "option not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
