package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dafibh/walletwise/walletwise-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = `id, user_id, wallet_id, description, amount, category, transaction_date, notes, type, created_at, updated_at`

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create creates a new transaction
func (r *TransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO transactions (user_id, wallet_id, description, amount, category, transaction_date, notes, type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+transactionColumns,
		uuidToPg(transaction.UserID),
		transaction.WalletID,
		transaction.Description,
		amount,
		transaction.Category,
		timeToPgDate(transaction.TransactionDate),
		stringPtrToPgText(transaction.Notes),
		string(transaction.Type),
	)
	created, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return created, nil
}

// GetByID retrieves a transaction by ID. Callers check ownership.
func (r *TransactionRepository) GetByID(ctx context.Context, id int32) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

// GetByOwner retrieves an owner's transactions newest first, applying optional filters
func (r *TransactionRepository) GetByOwner(ctx context.Context, userID uuid.UUID, filters *domain.TransactionFilters) ([]*domain.Transaction, error) {
	conditions := []string{"user_id = $1"}
	args := []any{uuidToPg(userID)}

	if filters != nil {
		if filters.WalletID != nil {
			args = append(args, *filters.WalletID)
			conditions = append(conditions, fmt.Sprintf("wallet_id = $%d", len(args)))
		}
		if filters.Type != nil {
			args = append(args, string(*filters.Type))
			conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
		}
		if filters.StartDate != nil {
			args = append(args, timeToPgDate(*filters.StartDate))
			conditions = append(conditions, fmt.Sprintf("transaction_date >= $%d", len(args)))
		}
		if filters.EndDate != nil {
			args = append(args, timeToPgDate(*filters.EndDate))
			conditions = append(conditions, fmt.Sprintf("transaction_date <= $%d", len(args)))
		}
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` +
		strings.Join(conditions, " AND ") +
		` ORDER BY transaction_date DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, tx)
	}
	return result, rows.Err()
}

// Save writes every mutable field of an existing transaction
func (r *TransactionRepository) Save(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE transactions
		SET wallet_id = $2, description = $3, amount = $4, category = $5,
		    transaction_date = $6, notes = $7, type = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING `+transactionColumns,
		transaction.ID,
		transaction.WalletID,
		transaction.Description,
		amount,
		transaction.Category,
		timeToPgDate(transaction.TransactionDate),
		stringPtrToPgText(transaction.Notes),
		string(transaction.Type),
	)
	return scanTransaction(row)
}

// Delete removes a transaction
func (r *TransactionRepository) Delete(ctx context.Context, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// DeleteByIDs removes the listed transactions of userID. Ids owned by someone else are ignored.
func (r *TransactionRepository) DeleteByIDs(ctx context.Context, userID uuid.UUID, ids []int32) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1 AND id = ANY($2)`, uuidToPg(userID), ids)
	if err != nil {
		return 0, fmt.Errorf("delete transactions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ResetAll deletes the owner's transactions and zeroes the owner's wallets in one
// database transaction. Wallet rows are locked first, so a concurrent AdjustBalance
// lands either before the delete or after the zeroing.
func (r *TransactionRepository) ResetAll(ctx context.Context, userID uuid.UUID) (deleted int64, walletsReset int64, err error) {
	owner := uuidToPg(userID)
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT id FROM wallets WHERE user_id = $1 FOR UPDATE`, owner); err != nil {
			return fmt.Errorf("lock wallets: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1`, owner)
		if err != nil {
			return fmt.Errorf("delete transactions: %w", err)
		}
		deleted = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `UPDATE wallets SET balance = 0, updated_at = NOW() WHERE user_id = $1`, owner)
		if err != nil {
			return fmt.Errorf("reset wallet balances: %w", err)
		}
		walletsReset = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return deleted, walletsReset, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		userID pgtype.UUID
		amount pgtype.Numeric
		date   pgtype.Date
		notes  pgtype.Text
		txType string
		tx     domain.Transaction
	)
	err := row.Scan(
		&tx.ID,
		&userID,
		&tx.WalletID,
		&tx.Description,
		&amount,
		&tx.Category,
		&date,
		&notes,
		&txType,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	tx.UserID = pgToUUID(userID)
	tx.Amount = pgNumericToDecimal(amount)
	tx.TransactionDate = pgDateToTime(date)
	tx.Notes = pgTextToStringPtr(notes)
	tx.Type = domain.TransactionType(txType)
	return &tx, nil
}
