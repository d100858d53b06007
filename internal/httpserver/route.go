package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/boutique/pkg/middleware/auth"
)

type Deps struct {
	Catalog   *CatalogHTTP
	Manage    *ManageHTTP
	Inventory *InventoryHTTP
	Purchase  *PurchaseHTTP
	Orders    *OrderHTTP
	Admin     *AdminHTTP

	JWTSecret       []byte
	InsecureCookies bool
	Ready           func(ctx context.Context) error
}

func Register(e *echo.Echo, d Deps) {
	e.Validator = NewValidator()

	authMW := authmw.NewCapabilityMiddleware(d.JWTSecret)
	authMW.InsecureCookies = d.InsecureCookies

	e.GET("/health/live", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.String(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.String(http.StatusOK, "ready")
	})

	admin := e.Group("/admin")
	admin.POST("/login", d.Admin.Login)
	admin.POST("/logout", d.Admin.Logout)

	catalog := e.Group("/catalog", authMW.Identify)
	catalog.GET("", d.Catalog.GetCatalog)
	catalog.GET("/categories", d.Catalog.ListCategories)
	catalog.GET("/products", d.Catalog.ListProducts)
	catalog.GET("/products/search", d.Catalog.SearchProducts)
	catalog.GET("/products/:id", d.Catalog.GetProduct)

	e.POST("/api/purchase", d.Purchase.Purchase, authMW.Identify)

	inventory := e.Group("/inventory", authMW.Identify)
	inventory.GET("", d.Inventory.View)
	{
		g := inventory.Group("", authMW.RequireAdmin)
		g.POST("/receive", d.Inventory.Receive)
		g.POST("/positions", d.Inventory.Positions)
	}

	manage := e.Group("/manage", authMW.RequireAdmin)
	manage.GET("", d.Catalog.GetCatalog)
	manage.POST("/categories", d.Manage.CreateCategory)
	manage.POST("/categories/reorder", d.Manage.ReorderCategories)
	manage.PATCH("/categories/:id", d.Manage.RenameCategory)
	manage.DELETE("/categories/:id", d.Manage.DeleteCategory)
	manage.POST("/categories/:id/products/reorder", d.Manage.ReorderProducts)
	manage.POST("/products", d.Manage.CreateProduct)
	manage.POST("/products/bulk", d.Manage.BulkUpdateProducts)
	manage.PATCH("/products/:id", d.Manage.PatchProduct)
	manage.DELETE("/products/:id", d.Manage.DeleteProduct)

	orders := e.Group("/orders", authMW.Identify)
	orders.GET("", d.Orders.List)
	orders.GET("/:id", d.Orders.Get)
	{
		g := orders.Group("", authMW.RequireAdmin)
		g.DELETE("/:id", d.Orders.Delete)
	}
}
