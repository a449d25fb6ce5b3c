package catalog

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lojinha/models"
)

var (
	ErrSelfParent     = errors.New("category cannot be its own parent")
	ErrCyclicParent   = errors.New("category cannot be moved under one of its descendants")
	ErrParentNotFound = errors.New("parent category not found")
	ErrHasChildren    = errors.New("category has children and cannot be deleted")
	ErrNotFound       = errors.New("category not found")
)

// Service owns category persistence and the edit-time tree rules.
type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

func (s *Service) List() ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Order("sort_order, name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Tree returns the full category hierarchy. expanded may be nil.
func (s *Service) Tree(expanded map[uint]bool) ([]*Node, error) {
	categories, err := s.List()
	if err != nil {
		return nil, err
	}
	return BuildTree(categories, expanded), nil
}

func (s *Service) Get(id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &category, nil
}

func (s *Service) Create(category *models.Category) error {
	if category.ParentID != nil {
		if _, err := s.Get(*category.ParentID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrParentNotFound
			}
			return err
		}
	}
	if err := s.db.Create(category).Error; err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	s.log.Info("category created", zap.Uint("id", category.ID), zap.String("name", category.Name))
	return nil
}

// Update validates the new parent before persisting: a category may not be
// its own parent nor be moved under one of its descendants.
func (s *Service) Update(id uint, updated models.Category) (*models.Category, error) {
	category, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if updated.ParentID != nil {
		if *updated.ParentID == id {
			return nil, ErrSelfParent
		}
		all, err := s.List()
		if err != nil {
			return nil, err
		}
		for _, descID := range DescendantIDs(all, id) {
			if descID == *updated.ParentID {
				return nil, ErrCyclicParent
			}
		}
		if _, err := s.Get(*updated.ParentID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, err
		}
	}

	category.Name = updated.Name
	category.ParentID = updated.ParentID
	category.SortOrder = updated.SortOrder
	if err := s.db.Save(category).Error; err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

// Delete refuses to remove a category that still has children. The caller
// must delete or reparent the children first.
func (s *Service) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	var childCount int64
	if err := s.db.Model(&models.Category{}).Where("parent_id = ?", id).Count(&childCount).Error; err != nil {
		return fmt.Errorf("count children: %w", err)
	}
	if childCount > 0 {
		return ErrHasChildren
	}
	if err := s.db.Delete(&models.Category{}, id).Error; err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.log.Info("category deleted", zap.Uint("id", id))
	return nil
}

// ParentOptions lists the categories id may adopt as a parent, excluding
// its own subtree.
func (s *Service) ParentOptions(id uint) ([]models.Category, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	return ValidParents(all, id), nil
}
