package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/walletwise/walletwise-backend/internal/domain"
	"github.com/dafibh/walletwise/walletwise-backend/internal/middleware"
	"github.com/dafibh/walletwise/walletwise-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the create transaction request body
type CreateTransactionRequest struct {
	WalletID    int32           `json:"walletId"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
	Date        *string         `json:"date,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
}

// UpdateTransactionRequest represents the update transaction request body.
// Omitted fields keep their current value.
type UpdateTransactionRequest struct {
	WalletID    *int32           `json:"walletId,omitempty"`
	Description *string          `json:"description,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Type        *string          `json:"type,omitempty"`
	Date        *string          `json:"date,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

// TransactionResponse represents a transaction joined with its wallet snapshot
type TransactionResponse struct {
	ID          int32           `json:"id"`
	WalletID    int32           `json:"walletId"`
	Description string          `json:"description"`
	Amount      string          `json:"amount"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
	Date        string          `json:"date"`
	Notes       *string         `json:"notes,omitempty"`
	Wallet      *WalletResponse `json:"wallet"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

// ResetResponse is returned by the reset endpoints
type ResetResponse struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
	WalletsReset *int64 `json:"walletsReset,omitempty"`
}

// ImportRequest is the bulk import body
type ImportRequest struct {
	Transactions []ImportRowRequest `json:"transactions"`
}

// ImportRowRequest accepts any scalar JSON value per field so that one
// malformed row is reported on its own instead of failing the whole body.
type ImportRowRequest struct {
	Description looseString `json:"description"`
	Amount      looseString `json:"amount"`
	Category    looseString `json:"category"`
	Date        looseString `json:"date"`
	Type        looseString `json:"type"`
	WalletID    looseString `json:"walletId"`
	Notes       looseString `json:"notes"`
}

// ImportResponse is the bulk import result
type ImportResponse struct {
	Message       string                   `json:"message"`
	ImportedCount int                      `json:"importedCount"`
	FailedCount   int                      `json:"failedCount"`
	Errors        []service.ImportRowError `json:"errors"`
	Transactions  []TransactionResponse    `json:"transactions"`
}

// looseString decodes strings, numbers and booleans into their textual form; null becomes empty
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = looseString(str)
		return nil
	}
	*s = looseString(raw)
	return nil
}

// CreateTransaction godoc
// @Summary Create a transaction
// @Description Create an income or expense and apply it to the wallet balance
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTransactionRequest true "Transaction creation request"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /expenses [post]
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	if req.WalletID <= 0 {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "walletId", Message: "Wallet ID is required"},
		})
	}

	transactionDate, err := parseOptionalDate(req.Date)
	if err != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "date", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	tx, err := h.transactionService.CreateTransaction(c.Request().Context(), userID, service.CreateTransactionInput{
		WalletID:        req.WalletID,
		Description:     req.Description,
		Amount:          req.Amount,
		Category:        req.Category,
		Type:            req.Type,
		TransactionDate: transactionDate,
		Notes:           req.Notes,
	})
	if err != nil {
		if resp := transactionErrorResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create transaction")
		return NewInternalError(c, "Failed to create transaction")
	}

	return c.JSON(http.StatusCreated, toTransactionResponse(tx))
}

// GetTransactions godoc
// @Summary List transactions
// @Description List the caller's transactions joined with their wallets
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param type query string false "Transaction type (income or expense)"
// @Param walletId query int false "Filter by wallet ID"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {array} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /expenses [get]
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	userID := middleware.GetUserID(c)

	filters := &domain.TransactionFilters{}

	if raw := c.QueryParam("type"); raw != "" {
		txType, err := domain.ParseTransactionType(raw, false)
		if err != nil {
			return NewValidationError(c, "Invalid type", []ValidationError{
				{Field: "type", Message: "Type must be income or expense"},
			})
		}
		filters.Type = &txType
	}

	if raw := c.QueryParam("walletId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return NewValidationError(c, "Invalid wallet ID", []ValidationError{
				{Field: "walletId", Message: "Must be a number"},
			})
		}
		walletID := int32(id)
		filters.WalletID = &walletID
	}

	for _, q := range []struct {
		name   string
		target **time.Time
	}{
		{"from", &filters.StartDate},
		{"to", &filters.EndDate},
	} {
		raw := c.QueryParam(q.name)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			return NewValidationError(c, "Invalid date", []ValidationError{
				{Field: q.name, Message: "Must be in YYYY-MM-DD format"},
			})
		}
		*q.target = &parsed
	}

	transactions, err := h.transactionService.GetTransactions(c.Request().Context(), userID, filters)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get transactions")
		return NewInternalError(c, "Failed to get transactions")
	}

	response := make([]TransactionResponse, len(transactions))
	for i, tx := range transactions {
		response[i] = toTransactionResponse(tx)
	}
	return c.JSON(http.StatusOK, response)
}

// GetTransaction godoc
// @Summary Get a transaction
// @Description Get one transaction joined with its wallet
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 200 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /expenses/{id} [get]
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseTransactionID(c)
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	tx, err := h.transactionService.GetTransactionByID(c.Request().Context(), userID, id)
	if err != nil {
		if resp := transactionErrorResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int32("transaction_id", id).Msg("Failed to get transaction")
		return NewInternalError(c, "Failed to get transaction")
	}
	return c.JSON(http.StatusOK, toTransactionResponse(tx))
}

// UpdateTransaction godoc
// @Summary Update a transaction
// @Description Partially update a transaction, moving its effect between wallets when needed
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Param request body UpdateTransactionRequest true "Fields to update"
// @Success 200 {object} TransactionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /expenses/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseTransactionID(c)
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	var req UpdateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	transactionDate, err := parseOptionalDate(req.Date)
	if err != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "date", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	tx, err := h.transactionService.UpdateTransaction(c.Request().Context(), userID, id, service.UpdateTransactionInput{
		WalletID:        req.WalletID,
		Description:     req.Description,
		Amount:          req.Amount,
		Category:        req.Category,
		Type:            req.Type,
		TransactionDate: transactionDate,
		Notes:           req.Notes,
	})
	if err != nil {
		if resp := transactionErrorResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int32("transaction_id", id).Msg("Failed to update transaction")
		return NewInternalError(c, "Failed to update transaction")
	}

	return c.JSON(http.StatusOK, toTransactionResponse(tx))
}

// DeleteTransaction handles DELETE /api/v1/expenses/:id and DELETE /api/v1/transactions/:id
// @Summary Delete a transaction
// @Description Delete a transaction and revert its wallet effect
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /expenses/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)

	id, err := parseTransactionID(c)
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if err := h.transactionService.DeleteTransaction(c.Request().Context(), userID, id); err != nil {
		if resp := transactionErrorResponse(c, err); resp != nil {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID.String()).Int32("transaction_id", id).Msg("Failed to delete transaction")
		return NewInternalError(c, "Failed to delete transaction")
	}

	return c.NoContent(http.StatusNoContent)
}

// ResetExpenses godoc
// @Summary Reset expenses
// @Description Revert and delete every expense of the caller
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ResetResponse
// @Failure 401 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /expenses/reset-expenses [delete]
func (h *TransactionHandler) ResetExpenses(c echo.Context) error {
	return h.resetByType(c, domain.TransactionTypeExpense, "All expenses have been reset")
}

// ResetIncomes godoc
// @Summary Reset incomes
// @Description Revert and delete every income of the caller
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ResetResponse
// @Failure 401 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /expenses/reset-incomes [delete]
func (h *TransactionHandler) ResetIncomes(c echo.Context) error {
	return h.resetByType(c, domain.TransactionTypeIncome, "All incomes have been reset")
}

func (h *TransactionHandler) resetByType(c echo.Context, txType domain.TransactionType, message string) error {
	userID := middleware.GetUserID(c)

	result, err := h.transactionService.ResetByType(c.Request().Context(), userID, txType)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Str("type", string(txType)).Msg("Failed to reset transactions")
		return NewInternalError(c, "Failed to reset transactions")
	}

	return c.JSON(http.StatusOK, ResetResponse{
		Message:      message,
		DeletedCount: result.DeletedCount,
	})
}

// ResetAll godoc
// @Summary Reset all transactions
// @Description Delete every transaction of the caller and set every wallet balance to zero
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ResetResponse
// @Failure 401 {object} ProblemDetails
// @Failure 500 {object} ProblemDetails
// @Router /transactions/reset-all [delete]
func (h *TransactionHandler) ResetAll(c echo.Context) error {
	userID := middleware.GetUserID(c)

	result, err := h.transactionService.ResetAll(c.Request().Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to reset all transactions")
		return NewInternalError(c, "Failed to reset all transactions")
	}

	walletsReset := result.WalletsReset
	return c.JSON(http.StatusOK, ResetResponse{
		Message:      "All transactions deleted and wallet balances reset",
		DeletedCount: result.DeletedCount,
		WalletsReset: &walletsReset,
	})
}

// ImportBulk godoc
// @Summary Bulk import transactions
// @Description Import up to 1000 rows. Any well-formed request gets 200 with per-row outcomes.
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ImportRequest true "Rows to import"
// @Success 200 {object} ImportResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /expenses/import-bulk [post]
func (h *TransactionHandler) ImportBulk(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req ImportRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	rows := make([]service.ImportRow, len(req.Transactions))
	for i, r := range req.Transactions {
		rows[i] = service.ImportRow{
			Description: string(r.Description),
			Amount:      string(r.Amount),
			Category:    string(r.Category),
			Date:        string(r.Date),
			Type:        string(r.Type),
			WalletID:    string(r.WalletID),
		}
		if notes := string(r.Notes); notes != "" {
			rows[i].Notes = &notes
		}
	}

	result, err := h.transactionService.ImportTransactions(c.Request().Context(), userID, rows)
	if err != nil {
		if errors.Is(err, domain.ErrImportEmpty) {
			return NewValidationError(c, "Transactions array is required", []ValidationError{
				{Field: "transactions", Message: "At least one transaction is required"},
			})
		}
		if errors.Is(err, domain.ErrImportTooLarge) {
			return NewValidationError(c, "Too many transactions", []ValidationError{
				{Field: "transactions", Message: fmt.Sprintf("At most %d transactions per import", domain.MaxImportRows)},
			})
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to import transactions")
		return NewInternalError(c, "Failed to import transactions")
	}

	transactions := make([]TransactionResponse, len(result.Transactions))
	for i, tx := range result.Transactions {
		transactions[i] = toTransactionResponse(tx)
	}

	return c.JSON(http.StatusOK, ImportResponse{
		Message:       fmt.Sprintf("Imported %d of %d transactions", result.ImportedCount, len(rows)),
		ImportedCount: result.ImportedCount,
		FailedCount:   result.FailedCount,
		Errors:        result.Errors,
		Transactions:  transactions,
	})
}

// transactionErrorResponse maps known transaction errors to problem responses. It returns nil for unknown errors.
func transactionErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return NewForbiddenError(c, "Not authorized to access this transaction")
	case errors.Is(err, domain.ErrTransactionNotFound):
		return NewNotFoundError(c, "Transaction not found")
	case errors.Is(err, domain.ErrWalletNotFound):
		return NewNotFoundError(c, "Wallet not found or not authorized")
	case errors.Is(err, domain.ErrWalletRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "walletId", Message: "Wallet ID is required"},
		})
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be greater than zero with at most 2 decimal places"},
		})
	case errors.Is(err, domain.ErrInvalidType):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "type", Message: "Type must be income or expense"},
		})
	case errors.Is(err, domain.ErrDescriptionRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description is required"},
		})
	case errors.Is(err, domain.ErrDescriptionTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: fmt.Sprintf("Description must be %d characters or less", domain.MaxTransactionDescriptionLength)},
		})
	case errors.Is(err, domain.ErrCategoryRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "category", Message: "Category is required"},
		})
	case errors.Is(err, domain.ErrNotesTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "notes", Message: fmt.Sprintf("Notes must be %d characters or less", domain.MaxTransactionNotesLength)},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Validation failed", nil)
	}
	return nil
}

func parseTransactionID(c echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(id), nil
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, *raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func toTransactionResponse(tx *domain.TransactionWithWallet) TransactionResponse {
	resp := TransactionResponse{
		ID:          tx.ID,
		WalletID:    tx.WalletID,
		Description: tx.Description,
		Amount:      tx.Amount.StringFixed(2),
		Category:    tx.Category,
		Type:        string(tx.Type),
		Date:        tx.TransactionDate.Format(dateLayout),
		Notes:       tx.Notes,
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   tx.UpdatedAt.Format(time.RFC3339),
	}
	if tx.Wallet != nil {
		wallet := toWalletResponse(tx.Wallet)
		resp.Wallet = &wallet
	}
	return resp
}
