package handler

import (
	"github.com/dafibh/walletwise/walletwise-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Handlers groups the API handlers registered by RegisterRoutes
type Handlers struct {
	Auth        *AuthHandler
	Wallet      *WalletHandler
	Transaction *TransactionHandler
	Stats       *StatsHandler
	WebSocket   *WebSocketHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	// API version 1
	api := e.Group("/api/v1")

	// WebSocket authenticates through the token query parameter
	if h.WebSocket != nil {
		api.GET("/ws", h.WebSocket.HandleWS)
	}

	// Auth routes (protected, subject need not be registered yet)
	auth := api.Group("/auth")
	auth.Use(authMiddleware.Authenticate(), middleware.RateLimitMiddleware(rateLimiter))
	auth.POST("/callback", h.Auth.Callback)
	auth.GET("/me", h.Auth.Me)
	auth.POST("/logout", h.Auth.Logout)

	protected := []echo.MiddlewareFunc{
		authMiddleware.Authenticate(),
		middleware.RequireUser(),
		middleware.RateLimitMiddleware(rateLimiter),
	}

	// Wallet routes
	wallets := api.Group("/wallets", protected...)
	wallets.POST("", h.Wallet.CreateWallet)
	wallets.GET("", h.Wallet.GetWallets)
	wallets.GET("/:id", h.Wallet.GetWallet)
	wallets.PUT("/:id", h.Wallet.UpdateWallet)
	wallets.DELETE("/:id", h.Wallet.DeleteWallet)

	// Expense/income routes. Static paths are registered before /:id.
	expenses := api.Group("/expenses", protected...)
	expenses.GET("", h.Transaction.GetTransactions)
	expenses.POST("", h.Transaction.CreateTransaction)
	expenses.POST("/import-bulk", h.Transaction.ImportBulk)
	expenses.DELETE("/reset-expenses", h.Transaction.ResetExpenses)
	expenses.DELETE("/reset-incomes", h.Transaction.ResetIncomes)
	expenses.GET("/:id", h.Transaction.GetTransaction)
	expenses.PUT("/:id", h.Transaction.UpdateTransaction)
	expenses.DELETE("/:id", h.Transaction.DeleteTransaction)

	transactions := api.Group("/transactions", protected...)
	transactions.DELETE("/reset-all", h.Transaction.ResetAll)
	transactions.DELETE("/:id", h.Transaction.DeleteTransaction)

	// Stats routes
	stats := api.Group("/stats", protected...)
	stats.GET("/summary", h.Stats.GetSummary)
}
