package sale

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lojinha/models"
)

var ErrNotFound = errors.New("sale not found")

// Service finalizes carts into sale records and reverses their inventory
// effects on deletion. Multi-step writes run inside one transaction, so a
// failure mid-sequence cannot leave an orphaned sale or half-restored
// stock.
type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// Finalize writes the sale snapshot: one Sale row, one SaleItem per cart
// line with the product name and unit price copied at this instant, a
// stock decrement per item, and a coupon usage increment when a coupon
// was applied.
func (s *Service) Finalize(cart *Cart) (*models.Sale, error) {
	if len(cart.Lines()) == 0 {
		return nil, ErrEmptyCart
	}

	record := &models.Sale{
		Number:         uuid.New().String(),
		CustomerID:     cart.CustomerID(),
		Subtotal:       cart.Subtotal(),
		CouponDiscount: cart.CouponDiscount(),
		ManualDiscount: cart.ManualDiscount(),
		Total:          cart.Total(),
		Status:         models.SaleStatusCompleted,
	}
	if coupon := cart.Coupon(); coupon != nil {
		record.CouponID = &coupon.ID
	}
	for _, line := range cart.Lines() {
		productID := line.ProductID
		record.Items = append(record.Items, models.SaleItem{
			ProductID:   &productID,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			TotalPrice:  line.UnitPrice * float64(line.Quantity),
		})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		for _, line := range cart.Lines() {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock IS NOT NULL", line.ProductID).
				Update("stock", gorm.Expr("stock - ?", line.Quantity))
			if res.Error != nil {
				return fmt.Errorf("decrement stock for product %d: %w", line.ProductID, res.Error)
			}
		}
		if record.CouponID != nil {
			res := tx.Model(&models.Coupon{}).
				Where("id = ?", *record.CouponID).
				Update("current_uses", gorm.Expr("current_uses + 1"))
			if res.Error != nil {
				return fmt.Errorf("increment coupon uses: %w", res.Error)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("sale finalized",
		zap.Uint("id", record.ID),
		zap.String("number", record.Number),
		zap.Float64("total", record.Total),
		zap.Int("items", len(record.Items)))
	return record, nil
}

// Delete restores stock for every item whose product still exists, then
// removes the items, then the sale. Items referencing a deleted product
// are skipped without failing the rest. Coupon usage is intentionally not
// decremented: a deleted sale does not hand the coupon back.
func (s *Service) Delete(id uint) error {
	var record models.Sale
	if err := s.db.Preload("Items").First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load sale: %w", err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range record.Items {
			if item.ProductID == nil {
				continue
			}
			var product models.Product
			if err := tx.First(&product, *item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return fmt.Errorf("load product %d: %w", *item.ProductID, err)
			}
			if product.Stock == nil {
				continue
			}
			restored := *product.Stock + item.Quantity
			if err := tx.Model(&product).Update("stock", restored).Error; err != nil {
				return fmt.Errorf("restore stock for product %d: %w", product.ID, err)
			}
		}
		if err := tx.Where("sale_id = ?", record.ID).Delete(&models.SaleItem{}).Error; err != nil {
			return fmt.Errorf("delete sale items: %w", err)
		}
		if err := tx.Delete(&models.Sale{}, record.ID).Error; err != nil {
			return fmt.Errorf("delete sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("sale deleted, stock restored", zap.Uint("id", id), zap.Int("items", len(record.Items)))
	return nil
}

func (s *Service) Get(id uint) (*models.Sale, error) {
	var record models.Sale
	if err := s.db.Preload("Items").Preload("Customer").First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return &record, nil
}

func (s *Service) List() ([]models.Sale, error) {
	var records []models.Sale
	if err := s.db.Preload("Items").Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return records, nil
}

// LookupCoupon fetches a coupon by code for the code-entry path of the
// gate. gorm.ErrRecordNotFound maps to ErrCouponNotFound, the gate's
// first check.
func (s *Service) LookupCoupon(code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := s.db.Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("lookup coupon: %w", err)
	}
	return &coupon, nil
}

// CustomerCoupons lists the coupons explicitly linked to a customer, the
// pre-fetched list the admin picks from instead of typing a code.
func (s *Service) CustomerCoupons(customerID uint) ([]models.Coupon, error) {
	var customer models.Customer
	if err := s.db.Preload("Coupons").First(&customer, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer %d not found", customerID)
		}
		return nil, fmt.Errorf("load customer coupons: %w", err)
	}
	return customer.Coupons, nil
}

// CustomerCouponByID resolves one coupon from the customer's linked list.
// Selection from this list marks the coupon customerLinked for the gate.
func (s *Service) CustomerCouponByID(customerID, couponID uint) (*models.Coupon, error) {
	coupons, err := s.CustomerCoupons(customerID)
	if err != nil {
		return nil, err
	}
	for i := range coupons {
		if coupons[i].ID == couponID {
			return &coupons[i], nil
		}
	}
	return nil, ErrCouponNotFound
}
