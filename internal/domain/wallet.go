package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is applied when a wallet is created without a currency
const DefaultCurrency = "INR"

// Wallet is an owned account-like record holding a running balance in a fixed currency.
// Balance is only changed through AdjustBalance and TransactionRepository.ResetAll after creation.
type Wallet struct {
	ID          int32           `json:"id"`
	UserID      uuid.UUID       `json:"userId"`
	Name        string          `json:"name"`
	Balance     decimal.Decimal `json:"balance"`
	Currency    string          `json:"currency"`
	Description *string         `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// OwnedBy reports whether the wallet belongs to the given user
func (w *Wallet) OwnedBy(userID uuid.UUID) bool {
	return w != nil && w.UserID == userID
}

// UpdateWalletData holds the editable wallet fields
type UpdateWalletData struct {
	Name        string
	Currency    string
	Description *string
}

type WalletRepository interface {
	Create(ctx context.Context, wallet *Wallet) (*Wallet, error)
	GetByID(ctx context.Context, id int32) (*Wallet, error)
	GetByOwnerAndName(ctx context.Context, userID uuid.UUID, name string) (*Wallet, error)
	GetAllByOwner(ctx context.Context, userID uuid.UUID) ([]*Wallet, error)
	Update(ctx context.Context, userID uuid.UUID, id int32, data *UpdateWalletData) (*Wallet, error)
	Delete(ctx context.Context, userID uuid.UUID, id int32) error
	// AdjustBalance atomically adds delta to the wallet balance and returns the updated wallet.
	// Returns ErrWalletNotFound when no wallet has the given id.
	AdjustBalance(ctx context.Context, id int32, delta decimal.Decimal) (*Wallet, error)
}
