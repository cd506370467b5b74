// internal/app/router.go
package app

import (
	"net/http"

	accountHandler "subdesk-service/internal/handlers/account"
	activityHandler "subdesk-service/internal/handlers/activity"
	authHandler "subdesk-service/internal/handlers/auth"
	customerHandler "subdesk-service/internal/handlers/customer"
	packHandler "subdesk-service/internal/handlers/pack"
	reportHandler "subdesk-service/internal/handlers/report"
	userHandler "subdesk-service/internal/handlers/user"
	"subdesk-service/internal/middleware"
	"subdesk-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	AuthHandler     *authHandler.AuthHandler
	AccountHandler  *accountHandler.AccountHandler
	PackageHandler  *packHandler.PackageHandler
	CustomerHandler *customerHandler.CustomerHandler
	UserHandler     *userHandler.UserHandler
	ActivityHandler *activityHandler.ActivityHandler
	ReportHandler   *reportHandler.ReportHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		response.Error(c, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== Public Auth Routes ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/login", h.AuthHandler.Login)
	}

	// ==================== Authenticated Auth Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.GET("/me", h.AuthHandler.Me)
	}

	// ==================== Accounts ====================
	accounts := api.Group("/accounts")
	accounts.Use(h.AuthMiddleware.Auth())
	{
		accounts.GET("", h.AccountHandler.ListAccounts)
		accounts.POST("", h.AccountHandler.CreateAccount)
		accounts.GET("/:id", h.AccountHandler.GetAccount)
		accounts.GET("/:id/packages", h.AccountHandler.ListAccountPackages)
		accounts.PUT("/:id", h.AccountHandler.UpdateAccount)
		accounts.DELETE("/:id", h.AuthMiddleware.RequireAdmin(), h.AccountHandler.DeleteAccount)
	}

	// ==================== Packages ====================
	packages := api.Group("/packages")
	packages.Use(h.AuthMiddleware.Auth())
	{
		packages.GET("", h.PackageHandler.ListPackages)
		packages.POST("", h.PackageHandler.CreatePackage)
		packages.GET("/:id", h.PackageHandler.GetPackage)
		packages.PUT("/:id", h.PackageHandler.UpdatePackage)
		packages.DELETE("/:id", h.PackageHandler.DeletePackage)
	}

	// ==================== Customers ====================
	customers := api.Group("/customers")
	customers.Use(h.AuthMiddleware.Auth())
	{
		customers.GET("", h.CustomerHandler.ListCustomers)
		customers.POST("", h.CustomerHandler.CreateCustomer)
		customers.GET("/:id", h.CustomerHandler.GetCustomer)
		customers.PUT("/:id", h.CustomerHandler.UpdateCustomer)
		customers.DELETE("/:id", h.CustomerHandler.DeleteCustomer)
	}

	// ==================== Users (admin only) ====================
	users := api.Group("/users")
	users.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.RequireAdmin())
	{
		users.GET("", h.UserHandler.ListUsers)
		users.POST("", h.UserHandler.CreateUser)
		users.GET("/:id", h.UserHandler.GetUser)
		users.PUT("/:id", h.UserHandler.UpdateUser)
		users.DELETE("/:id", h.UserHandler.DeleteUser)
	}

	// ==================== Activity Log (admin only) ====================
	activity := api.Group("/activity")
	activity.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.RequireAdmin())
	{
		activity.GET("", h.ActivityHandler.ListActivity)
	}

	// ==================== Notifications & Reports ====================
	notifications := api.Group("/notifications")
	notifications.Use(h.AuthMiddleware.Auth())
	{
		notifications.GET("/expiring", h.ReportHandler.Expiring)
	}

	reports := api.Group("/reports")
	reports.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.RequireAdmin())
	{
		reports.GET("/revenue", h.ReportHandler.Revenue)
		reports.GET("/dashboard", h.ReportHandler.Dashboard)
	}
}
