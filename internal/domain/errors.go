package domain

import "errors"

// Domain errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrAlreadyExists       = errors.New("resource already exists")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInternalError       = errors.New("internal error")
	ErrUserNotFound        = errors.New("user not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrWalletNameExists    = errors.New("wallet with this name already exists")
	ErrNameRequired        = errors.New("name is required")
	ErrNameTooLong         = errors.New("name exceeds maximum length")
	ErrInvalidCurrency     = errors.New("invalid currency code")
	ErrBalanceNotEditable  = errors.New("wallet balance cannot be edited directly")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDescriptionRequired = errors.New("description is required")
	ErrDescriptionTooLong  = errors.New("description exceeds maximum length")
	ErrCategoryRequired    = errors.New("category is required")
	ErrWalletRequired      = errors.New("wallet is required")
	ErrInvalidAmount       = errors.New("amount must be positive with at most 2 decimal places")
	ErrInvalidBalance      = errors.New("balance must have at most 2 decimal places")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrNotesTooLong        = errors.New("notes exceed maximum length")
	ErrImportEmpty         = errors.New("transactions array is required")
	ErrImportTooLarge      = errors.New("too many transactions in one import")
)

// Validation constants
const (
	MaxWalletNameLength             = 100
	MaxWalletDescriptionLength      = 500
	MaxTransactionDescriptionLength = 255
	MaxTransactionNotesLength       = 1000
	MaxCategoryLength               = 100
	MaxImportRows                   = 1000
)
