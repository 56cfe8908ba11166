package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/walletwise/walletwise-backend/internal/domain"
	"github.com/dafibh/walletwise/walletwise-backend/internal/metrics"
	"github.com/dafibh/walletwise/walletwise-backend/internal/websocket"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Row-level import messages
const (
	importMsgWalletNotFound = "Wallet not found or not authorized for this transaction"
	importMsgInvalidAmount  = "Amount must be a positive number with at most 2 decimal places"
	importMsgInvalidType    = "Type must be income, expense, credit or debit"
	importMsgInvalidDate    = "Date must be in YYYY-MM-DD format"
	importMsgInvalidWallet  = "Wallet ID must be a number"
	importMsgStorageFailure = "Failed to save transaction"
)

// importDateLayouts are tried in order when parsing an import row date
var importDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// ImportRow is one raw row of a bulk import. Values arrive as strings so a
// malformed row fails on its own instead of rejecting the whole request.
type ImportRow struct {
	Description string  `json:"description" validate:"required"`
	Amount      string  `json:"amount" validate:"required"`
	Category    string  `json:"category" validate:"required"`
	Date        string  `json:"date" validate:"required"`
	Type        string  `json:"type" validate:"required"`
	WalletID    string  `json:"walletId" validate:"required"`
	Notes       *string `json:"notes,omitempty"`
}

// ImportRowError describes why one row was not imported. Row is 1-based.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult aggregates the outcome of a bulk import
type ImportResult struct {
	ImportedCount int                             `json:"importedCount"`
	FailedCount   int                             `json:"failedCount"`
	Errors        []ImportRowError                `json:"errors"`
	Transactions  []*domain.TransactionWithWallet `json:"transactions"`
}

// ImportTransactions creates one transaction per valid row. Rows are processed
// sequentially and a failing row never aborts the batch.
func (s *TransactionService) ImportTransactions(ctx context.Context, userID uuid.UUID, rows []ImportRow) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, domain.ErrImportEmpty
	}
	if len(rows) > domain.MaxImportRows {
		return nil, domain.ErrImportTooLarge
	}

	start := time.Now()
	defer func() { s.metrics.ObserveOperation("import", time.Since(start)) }()

	batchID := uuid.New()
	result := &ImportResult{
		Errors:       make([]ImportRowError, 0),
		Transactions: make([]*domain.TransactionWithWallet, 0, len(rows)),
	}

	for i, row := range rows {
		rowNum := i + 1

		tx, msg := s.parseImportRow(userID, row)
		if msg == "" {
			created, err := s.createForWallet(ctx, tx)
			if err == nil {
				result.ImportedCount++
				result.Transactions = append(result.Transactions, created)
				s.metrics.IncrImportRow(metrics.RowImported)
				continue
			}
			msg = importErrorMessage(err)
			if msg == importMsgStorageFailure {
				log.Error().
					Err(err).
					Str("user_id", userID.String()).
					Str("batch_id", batchID.String()).
					Int("row", rowNum).
					Msg("Failed to import transaction row")
			}
		}

		result.FailedCount++
		result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: msg})
		s.metrics.IncrImportRow(metrics.RowFailed)
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("batch_id", batchID.String()).
		Int("rows", len(rows)).
		Int("imported", result.ImportedCount).
		Int("failed", result.FailedCount).
		Msg("Bulk import finished")

	if result.ImportedCount > 0 {
		s.publishEvent(userID, websocket.TransactionsImported(map[string]interface{}{
			"batchId":       batchID,
			"importedCount": result.ImportedCount,
			"failedCount":   result.FailedCount,
		}))
	}
	return result, nil
}

// parseImportRow validates a row and builds the transaction it describes.
// On failure it returns a user-facing message instead of an error.
func (s *TransactionService) parseImportRow(userID uuid.UUID, row ImportRow) (*domain.Transaction, string) {
	row = trimImportRow(row)

	if err := s.validate.Struct(row); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			missing := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				missing = append(missing, importFieldName(fe.Field()))
			}
			return nil, "Missing required fields: " + strings.Join(missing, ", ")
		}
		return nil, err.Error()
	}

	txType, err := domain.ParseTransactionType(row.Type, true)
	if err != nil {
		return nil, importMsgInvalidType
	}

	amount, err := decimal.NewFromString(row.Amount)
	if err != nil || domain.ValidateAmount(amount) != nil {
		return nil, importMsgInvalidAmount
	}

	date, ok := parseImportDate(row.Date)
	if !ok {
		return nil, importMsgInvalidDate
	}

	walletID, err := strconv.ParseInt(row.WalletID, 10, 32)
	if err != nil || walletID <= 0 {
		return nil, importMsgInvalidWallet
	}

	if len(row.Description) > domain.MaxTransactionDescriptionLength {
		return nil, domain.ErrDescriptionTooLong.Error()
	}
	if len(row.Category) > domain.MaxCategoryLength {
		return nil, fmt.Sprintf("Category must be at most %d characters", domain.MaxCategoryLength)
	}
	notes, err := normalizeNotes(row.Notes)
	if err != nil {
		return nil, err.Error()
	}

	return &domain.Transaction{
		UserID:          userID,
		WalletID:        int32(walletID),
		Description:     row.Description,
		Amount:          amount,
		Category:        row.Category,
		TransactionDate: date,
		Notes:           notes,
		Type:            txType,
	}, ""
}

func trimImportRow(row ImportRow) ImportRow {
	row.Description = strings.TrimSpace(row.Description)
	row.Amount = strings.TrimSpace(row.Amount)
	row.Category = strings.TrimSpace(row.Category)
	row.Date = strings.TrimSpace(row.Date)
	row.Type = strings.TrimSpace(row.Type)
	row.WalletID = strings.TrimSpace(row.WalletID)
	return row
}

func parseImportDate(raw string) (time.Time, bool) {
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func importFieldName(field string) string {
	switch field {
	case "WalletID":
		return "walletId"
	default:
		return strings.ToLower(field)
	}
}

func importErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrWalletNotFound):
		return importMsgWalletNotFound
	default:
		return importMsgStorageFailure
	}
}
