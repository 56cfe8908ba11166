package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/walletwise/walletwise-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const walletColumns = `id, user_id, name, balance, currency, description, created_at, updated_at`

// WalletRepository implements domain.WalletRepository using PostgreSQL
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new WalletRepository
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// Create creates a new wallet with its initial balance
func (r *WalletRepository) Create(ctx context.Context, wallet *domain.Wallet) (*domain.Wallet, error) {
	balance, err := decimalToPgNumeric(wallet.Balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO wallets (user_id, name, balance, currency, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+walletColumns,
		uuidToPg(wallet.UserID), wallet.Name, balance, wallet.Currency, stringPtrToPgText(wallet.Description))
	created, err := scanWallet(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrWalletNameExists
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a wallet by ID. Not scoped to an owner.
func (r *WalletRepository) GetByID(ctx context.Context, id int32) (*domain.Wallet, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id)
	return scanWallet(row)
}

// GetByOwnerAndName retrieves a wallet by owner and exact name
func (r *WalletRepository) GetByOwnerAndName(ctx context.Context, userID uuid.UUID, name string) (*domain.Wallet, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 AND name = $2`, uuidToPg(userID), name)
	return scanWallet(row)
}

// GetAllByOwner retrieves all wallets for an owner in creation order
func (r *WalletRepository) GetAllByOwner(ctx context.Context, userID uuid.UUID) ([]*domain.Wallet, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 ORDER BY created_at, id`, uuidToPg(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Wallet, 0)
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, wallet)
	}
	return result, rows.Err()
}

// Update updates name, currency and description of an owned wallet
func (r *WalletRepository) Update(ctx context.Context, userID uuid.UUID, id int32, data *domain.UpdateWalletData) (*domain.Wallet, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE wallets
		SET name = $3, currency = $4, description = $5, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+walletColumns,
		id, uuidToPg(userID), data.Name, data.Currency, stringPtrToPgText(data.Description))
	wallet, err := scanWallet(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrWalletNameExists
		}
		return nil, err
	}
	return wallet, nil
}

// Delete removes an owned wallet
func (r *WalletRepository) Delete(ctx context.Context, userID uuid.UUID, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM wallets WHERE id = $1 AND user_id = $2`, id, uuidToPg(userID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWalletNotFound
	}
	return nil
}

// AdjustBalance adds delta to the balance in a single statement so concurrent
// adjustments on the same wallet serialize on the row lock.
func (r *WalletRepository) AdjustBalance(ctx context.Context, id int32, delta decimal.Decimal) (*domain.Wallet, error) {
	pgDelta, err := decimalToPgNumeric(delta)
	if err != nil {
		return nil, fmt.Errorf("invalid delta: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE wallets
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+walletColumns,
		id, pgDelta)
	wallet, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, domain.ErrWalletNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("adjust wallet %d balance: %w", id, err)
	}
	return wallet, nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var (
		userID      pgtype.UUID
		balance     pgtype.Numeric
		description pgtype.Text
		wallet      domain.Wallet
	)
	err := row.Scan(&wallet.ID, &userID, &wallet.Name, &balance, &wallet.Currency, &description, &wallet.CreatedAt, &wallet.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}
	wallet.UserID = pgToUUID(userID)
	wallet.Balance = pgNumericToDecimal(balance)
	wallet.Description = pgTextToStringPtr(description)
	return &wallet, nil
}
