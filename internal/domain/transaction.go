package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Import-only synonyms for the canonical transaction types
const (
	transactionTypeCredit = "credit"
	transactionTypeDebit  = "debit"
)

// IsValid reports whether t is one of the canonical transaction types
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// ParseTransactionType normalizes a raw type token.
// When allowSynonyms is set, "credit" maps to income and "debit" to expense.
func ParseTransactionType(raw string, allowSynonyms bool) (TransactionType, error) {
	token := strings.ToLower(strings.TrimSpace(raw))
	switch token {
	case string(TransactionTypeIncome):
		return TransactionTypeIncome, nil
	case string(TransactionTypeExpense):
		return TransactionTypeExpense, nil
	case transactionTypeCredit:
		if allowSynonyms {
			return TransactionTypeIncome, nil
		}
	case transactionTypeDebit:
		if allowSynonyms {
			return TransactionTypeExpense, nil
		}
	}
	return "", ErrInvalidType
}

// MoneyScale is the number of decimal places stored for amounts and balances
const MoneyScale = 2

// HasMoneyScale reports whether d is stored without rounding
func HasMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// ValidateAmount rejects non-positive amounts and amounts finer than a cent.
// Storage rounds to MoneyScale, so a finer amount would apply one value and revert another.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) || !HasMoneyScale(amount) {
		return ErrInvalidAmount
	}
	return nil
}

// SignedEffect returns the delta a transaction contributes to its wallet balance:
// -amount for expenses, +amount for income.
func SignedEffect(txType TransactionType, amount decimal.Decimal) decimal.Decimal {
	if txType == TransactionTypeExpense {
		return amount.Neg()
	}
	return amount
}

// Transaction is a single income or expense event against exactly one wallet
type Transaction struct {
	ID              int32           `json:"id"`
	UserID          uuid.UUID       `json:"userId"`
	WalletID        int32           `json:"walletId"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category"`
	TransactionDate time.Time       `json:"date"`
	Notes           *string         `json:"notes,omitempty"`
	Type            TransactionType `json:"type"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// SignedEffect returns the transaction's contribution to its wallet balance
func (t *Transaction) SignedEffect() decimal.Decimal {
	return SignedEffect(t.Type, t.Amount)
}

// TransactionWithWallet joins a transaction with a snapshot of its wallet.
// Wallet is nil when the referenced wallet no longer exists.
type TransactionWithWallet struct {
	*Transaction
	Wallet *Wallet `json:"wallet,omitempty"`
}

type TransactionFilters struct {
	WalletID  *int32
	Type      *TransactionType
	StartDate *time.Time
	EndDate   *time.Time
}

type TransactionRepository interface {
	Create(ctx context.Context, transaction *Transaction) (*Transaction, error)
	// GetByID is not scoped to an owner; callers verify ownership
	GetByID(ctx context.Context, id int32) (*Transaction, error)
	GetByOwner(ctx context.Context, userID uuid.UUID, filters *TransactionFilters) ([]*Transaction, error)
	Save(ctx context.Context, transaction *Transaction) (*Transaction, error)
	Delete(ctx context.Context, id int32) error
	// DeleteByIDs removes the listed transactions of userID and returns how many were removed
	DeleteByIDs(ctx context.Context, userID uuid.UUID, ids []int32) (int64, error)
	// ResetAll deletes every transaction of userID and zeroes every wallet of userID atomically
	ResetAll(ctx context.Context, userID uuid.UUID) (deleted int64, walletsReset int64, err error)
}
