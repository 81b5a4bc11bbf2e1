package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_backend/metrics"
	"github.com/mmdatafocus/pos_backend/middlewares"
	"github.com/mmdatafocus/pos_backend/models"
)

var (
	staffRoles   = []models.UserRole{models.UserRoleAdmin, models.UserRoleShiftLead, models.UserRoleCashier}
	managerRoles = []models.UserRole{models.UserRoleAdmin, models.UserRoleShiftLead}
)

func rootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"name":   "pos-api",
		"docs":   []string{"/products", "/health"},
	})
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// registerRoutes mounts the REST surface on r. loginLimiter may be nil.
func registerRoutes(r *gin.Engine, loginLimiter *middlewares.LoginLimiter) {
	r.GET("/", rootHandler)
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	admin := middlewares.RequireRoles(models.UserRoleAdmin)
	managers := middlewares.RequireRoles(managerRoles...)
	staff := middlewares.RequireRoles(staffRoles...)

	auth := r.Group("/auth")
	{
		auth.POST("/register", registerHandler())
		if loginLimiter != nil {
			auth.POST("/login", loginLimiter.Middleware(), loginHandler())
		} else {
			auth.POST("/login", loginHandler())
		}
		auth.POST("/logout", middlewares.RequireAuth(), logoutHandler())
		auth.GET("/me", middlewares.RequireAuth(), meHandler())
	}

	users := r.Group("/users", admin)
	{
		users.GET("", listUsersHandler())
		users.POST("", createUserHandler())
		users.PATCH("/:id", updateUserHandler())
		users.DELETE("/:id", deleteUserHandler())
	}

	r.GET("/categories", listCategoriesHandler())
	r.POST("/categories", managers, createCategoryHandler())
	r.PATCH("/categories/:id", managers, updateCategoryHandler())
	r.DELETE("/categories/:id", managers, deleteCategoryHandler())

	r.GET("/product-types", listProductTypesHandler())
	r.POST("/product-types", managers, createProductTypeHandler())
	r.PATCH("/product-types/:id", managers, updateProductTypeHandler())
	r.DELETE("/product-types/:id", managers, deleteProductTypeHandler())

	r.GET("/products", listProductsHandler())
	r.GET("/products/:id", getProductHandler())
	r.GET("/products/:id/image", productImageHandler())
	r.POST("/products", managers, createProductHandler())
	r.PATCH("/products/:id", managers, updateProductHandler())
	r.DELETE("/products/:id", managers, deleteProductHandler())
	r.GET("/products/:id/variants", listVariantsHandler())
	r.POST("/products/:id/variants", managers, createVariantHandler())
	r.PATCH("/variants/:id", managers, updateVariantHandler())
	r.POST("/variants/:id/stock", managers, adjustStockHandler())

	orders := r.Group("/orders", staff)
	{
		orders.POST("", createOrderHandler())
		orders.GET("", listOrdersHandler())
		orders.GET("/:id", getOrderHandler())
		orders.POST("/:id/payments", createPaymentHandler())
	}

	invoices := r.Group("/invoices", managers)
	{
		invoices.POST("", createInvoiceHandler())
		invoices.GET("", listInvoicesHandler())
		invoices.GET("/:id/file", invoiceFileHandler())
	}

	expenses := r.Group("/expenses", managers)
	{
		expenses.GET("", listExpensesHandler())
		expenses.POST("", createExpenseHandler())
		expenses.DELETE("/:id", deleteExpenseHandler())
	}

	r.GET("/settings", getSettingsHandler())
	r.GET("/settings/logo", settingsLogoHandler())
	r.PUT("/settings", admin, updateSettingsHandler())

	reportRoutes := r.Group("/reports", managers)
	{
		reportRoutes.GET("/top-products", topProductsHandler())
		reportRoutes.GET("/sales-by-hour", salesByHourHandler())
		reportRoutes.GET("/inventory-valuation", inventoryValuationHandler())
		reportRoutes.GET("/low-rotation", lowRotationHandler())
		reportRoutes.GET("/employees-sales", employeesSalesHandler())
		reportRoutes.GET("/financial-summary", financialSummaryHandler())
		reportRoutes.GET("/daily-summary", dailySummaryHandler())
		reportRoutes.GET("/:name/export", exportReportHandler())
	}

	ops := r.Group("/internal/ops/outbox", admin)
	{
		ops.GET("", listOutboxHandler())
		ops.GET("/:eventType/:referenceId", outboxStatusHandler())
		ops.POST("/replay", replayOutboxHandler())
	}

	r.NoRoute(customNotFoundHandler)
}
