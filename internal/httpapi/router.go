package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lojinha/internal/ai"
	"lojinha/internal/auth"
	"lojinha/internal/catalog"
	"lojinha/internal/sale"
)

// Server bundles the dependencies the handlers need.
type Server struct {
	db         *gorm.DB
	log        *zap.Logger
	categories *catalog.Service
	sales      *sale.Service
	ai         *ai.Client
}

// Options configures SetupRouter. A nil Verifier leaves the admin routes
// open, which only tests and local development should do.
type Options struct {
	Verifier  auth.TokenVerifier
	RoleStore auth.RoleStore
}

// SetupRouter wires every route. Public storefront routes are open; admin
// routes sit behind token verification plus the admin role check.
func SetupRouter(db *gorm.DB, log *zap.Logger, aiClient *ai.Client, opts Options) *gin.Engine {
	s := &Server{
		db:         db,
		log:        log,
		categories: catalog.NewService(db, log),
		sales:      sale.NewService(db, log),
		ai:         aiClient,
	}

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public storefront
	r.GET("/catalogo", s.listCatalog)
	r.GET("/catalogo/produto/:id", s.getCatalogProduct)
	r.GET("/settings", s.getSettings)
	r.POST("/ai/extract-items", s.extractItems)
	r.POST("/ai/try-on", s.tryOn)

	admin := r.Group("/admin")
	if opts.Verifier != nil {
		roleStore := opts.RoleStore
		if roleStore == nil {
			roleStore = auth.GormRoleStore{DB: db}
		}
		admin.Use(auth.Middleware(opts.Verifier), auth.RequireAdmin(roleStore, log))
	} else {
		log.Warn("admin routes are not protected: no token verifier configured")
	}

	admin.GET("/categories", s.listCategories)
	admin.GET("/categories/tree", s.categoryTree)
	admin.GET("/categories/:id/parent-options", s.categoryParentOptions)
	admin.POST("/categories", s.createCategory)
	admin.PUT("/categories/:id", s.updateCategory)
	admin.DELETE("/categories/:id", s.deleteCategory)

	admin.GET("/products", s.listProducts)
	admin.GET("/products/:id", s.getProduct)
	admin.POST("/products", s.createProduct)
	admin.PUT("/products/:id", s.updateProduct)
	admin.DELETE("/products/:id", s.deleteProduct)
	admin.POST("/products/:id/variants", s.createVariant)
	admin.PUT("/variants/:id", s.updateVariant)
	admin.DELETE("/variants/:id", s.deleteVariant)

	admin.GET("/attributes", s.listAttributes)
	admin.POST("/attributes", s.createAttribute)
	admin.PUT("/attributes/:id", s.updateAttribute)
	admin.DELETE("/attributes/:id", s.deleteAttribute)
	admin.POST("/attributes/:id/options", s.createAttributeOption)
	admin.DELETE("/options/:id", s.deleteAttributeOption)

	admin.GET("/customers", s.listCustomers)
	admin.GET("/customers/:id", s.getCustomer)
	admin.POST("/customers", s.createCustomer)
	admin.PUT("/customers/:id", s.updateCustomer)
	admin.DELETE("/customers/:id", s.deleteCustomer)
	admin.GET("/customers/:id/coupons", s.listCustomerCoupons)
	admin.POST("/customers/:id/coupons/:couponId", s.linkCustomerCoupon)

	admin.GET("/coupons", s.listCoupons)
	admin.POST("/coupons", s.createCoupon)
	admin.PUT("/coupons/:id", s.updateCoupon)
	admin.DELETE("/coupons/:id", s.deleteCoupon)

	admin.GET("/sales", s.listSales)
	admin.GET("/sales/:id", s.getSale)
	admin.POST("/sales", s.createSale)
	admin.DELETE("/sales/:id", s.deleteSale)

	admin.PUT("/settings", s.updateSettings)

	return r
}

// idParam parses the :id (or other named) path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}
