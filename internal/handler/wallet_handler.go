package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dafibh/walletwise/walletwise-backend/internal/domain"
	"github.com/dafibh/walletwise/walletwise-backend/internal/middleware"
	"github.com/dafibh/walletwise/walletwise-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// WalletHandler handles wallet-related HTTP requests
type WalletHandler struct {
	walletService *service.WalletService
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// CreateWalletRequest represents the create wallet request body
type CreateWalletRequest struct {
	Name           string           `json:"name"`
	InitialBalance *decimal.Decimal `json:"initialBalance,omitempty"`
	Currency       string           `json:"currency,omitempty"`
	Description    *string          `json:"description,omitempty"`
}

// UpdateWalletRequest represents the update wallet request body.
// Balance is accepted only so that a request carrying it can be rejected.
type UpdateWalletRequest struct {
	Name        string           `json:"name"`
	Currency    string           `json:"currency,omitempty"`
	Description *string          `json:"description,omitempty"`
	Balance     *decimal.Decimal `json:"balance,omitempty"`
}

// WalletResponse represents a wallet in API responses
type WalletResponse struct {
	ID          int32   `json:"id"`
	Name        string  `json:"name"`
	Balance     string  `json:"balance"`
	Currency    string  `json:"currency"`
	Description *string `json:"description,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// CreateWallet godoc
// @Summary Create a wallet
// @Description Create a wallet with an optional initial balance
// @Tags wallets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateWalletRequest true "Wallet creation request"
// @Success 201 {object} WalletResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /wallets [post]
func (h *WalletHandler) CreateWallet(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateWalletRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.CreateWalletInput{
		Name:           req.Name,
		InitialBalance: decimal.Zero,
		Currency:       req.Currency,
		Description:    req.Description,
	}
	if req.InitialBalance != nil {
		input.InitialBalance = *req.InitialBalance
	}

	wallet, err := h.walletService.CreateWallet(c.Request().Context(), userID, input)
	if err != nil {
		if resp := walletErrorResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create wallet")
		return NewInternalError(c, "Failed to create wallet")
	}

	return c.JSON(http.StatusCreated, toWalletResponse(wallet))
}

// GetWallets handles GET /api/v1/wallets
func (h *WalletHandler) GetWallets(c echo.Context) error {
	userID := middleware.GetUserID(c)

	wallets, err := h.walletService.GetWallets(c.Request().Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get wallets")
		return NewInternalError(c, "Failed to get wallets")
	}

	response := make([]WalletResponse, len(wallets))
	for i, wallet := range wallets {
		response[i] = toWalletResponse(wallet)
	}
	return c.JSON(http.StatusOK, response)
}

// GetWallet handles GET /api/v1/wallets/:id
func (h *WalletHandler) GetWallet(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return NewValidationError(c, "Invalid wallet ID", nil)
	}

	wallet, err := h.walletService.GetWalletByID(c.Request().Context(), userID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrWalletNotFound) {
			return NewNotFoundError(c, "Wallet not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int64("wallet_id", id).Msg("Failed to get wallet")
		return NewInternalError(c, "Failed to get wallet")
	}
	return c.JSON(http.StatusOK, toWalletResponse(wallet))
}

// UpdateWallet godoc
// @Summary Update a wallet
// @Description Update name, currency or description. The balance is not editable.
// @Tags wallets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Wallet ID"
// @Param request body UpdateWalletRequest true "Wallet update request"
// @Success 200 {object} WalletResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /wallets/{id} [put]
func (h *WalletHandler) UpdateWallet(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return NewValidationError(c, "Invalid wallet ID", nil)
	}

	var req UpdateWalletRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	wallet, err := h.walletService.UpdateWallet(c.Request().Context(), userID, int32(id), service.UpdateWalletInput{
		Name:        req.Name,
		Currency:    req.Currency,
		Description: req.Description,
		Balance:     req.Balance,
	})
	if err != nil {
		if resp := walletErrorResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int64("wallet_id", id).Msg("Failed to update wallet")
		return NewInternalError(c, "Failed to update wallet")
	}

	log.Info().Str("user_id", userID.String()).Int32("wallet_id", wallet.ID).Str("name", wallet.Name).Msg("Wallet updated")
	return c.JSON(http.StatusOK, toWalletResponse(wallet))
}

// DeleteWallet godoc
// @Summary Delete a wallet
// @Description Delete a wallet. Its transactions are kept.
// @Tags wallets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Wallet ID"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /wallets/{id} [delete]
func (h *WalletHandler) DeleteWallet(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return NewValidationError(c, "Invalid wallet ID", nil)
	}

	if err := h.walletService.DeleteWallet(c.Request().Context(), userID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrWalletNotFound) {
			return NewNotFoundError(c, "Wallet not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int64("wallet_id", id).Msg("Failed to delete wallet")
		return NewInternalError(c, "Failed to delete wallet")
	}
	return c.NoContent(http.StatusNoContent)
}

// walletErrorResponse maps known wallet errors to problem responses. It returns nil for unknown errors.
func walletErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrWalletNotFound):
		return NewNotFoundError(c, "Wallet not found")
	case errors.Is(err, domain.ErrWalletNameExists):
		return NewConflictError(c, "A wallet with this name already exists")
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 100 characters or less"},
		})
	case errors.Is(err, domain.ErrInvalidCurrency):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "currency", Message: "Currency must be a 3-letter ISO code"},
		})
	case errors.Is(err, domain.ErrDescriptionTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description must be 500 characters or less"},
		})
	case errors.Is(err, domain.ErrInvalidBalance):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "initialBalance", Message: "Initial balance must have at most 2 decimal places"},
		})
	case errors.Is(err, domain.ErrBalanceNotEditable):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "balance", Message: "Balance cannot be edited directly; it changes only through transactions"},
		})
	}
	return nil
}

func toWalletResponse(wallet *domain.Wallet) WalletResponse {
	return WalletResponse{
		ID:          wallet.ID,
		Name:        wallet.Name,
		Balance:     wallet.Balance.StringFixed(2),
		Currency:    wallet.Currency,
		Description: wallet.Description,
		CreatedAt:   wallet.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   wallet.UpdatedAt.Format(time.RFC3339),
	}
}
