package service

import (
	"context"
	"errors"
	"fmt"
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

// TransactionService orchestrates the transaction lifecycle and keeps every
// wallet balance in step with the transactions that reference it.
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	walletRepo      domain.WalletRepository
	mutator         *BalanceMutator
	metrics         *metrics.Metrics
	validate        *validator.Validate
	eventPublisher  websocket.EventPublisher
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(transactionRepo domain.TransactionRepository, walletRepo domain.WalletRepository, mutator *BalanceMutator, m *metrics.Metrics) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		walletRepo:      walletRepo,
		mutator:         mutator,
		metrics:         m,
		validate:        validator.New(),
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *TransactionService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *TransactionService) publishEvent(userID uuid.UUID, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// CreateTransactionInput holds the input for creating a transaction.
// Type is the raw token from the request; only the canonical tokens are accepted.
type CreateTransactionInput struct {
	WalletID        int32
	Description     string
	Amount          decimal.Decimal
	Category        string
	Type            string
	TransactionDate *time.Time
	Notes           *string
}

// UpdateTransactionInput holds a partial update. Nil fields keep their stored value.
type UpdateTransactionInput struct {
	WalletID        *int32
	Description     *string
	Amount          *decimal.Decimal
	Category        *string
	Type            *string
	TransactionDate *time.Time
	Notes           *string
}

// ResetResult summarizes a reset operation
type ResetResult struct {
	DeletedCount  int64 `json:"deletedCount"`
	RevertedCount int   `json:"revertedCount"`
	SkippedCount  int   `json:"skippedCount"`
	WalletsReset  int64 `json:"walletsReset,omitempty"`
}

// CreateTransaction validates the input, applies its effect to the owner's wallet
// and stores the transaction.
func (s *TransactionService) CreateTransaction(ctx context.Context, userID uuid.UUID, input CreateTransactionInput) (*domain.TransactionWithWallet, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("create", time.Since(start)) }()

	txType, err := domain.ParseTransactionType(input.Type, false)
	if err != nil {
		return nil, err
	}
	description, err := normalizeDescription(input.Description)
	if err != nil {
		return nil, err
	}
	category, err := normalizeCategory(input.Category)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if input.WalletID == 0 {
		return nil, domain.ErrWalletRequired
	}
	notes, err := normalizeNotes(input.Notes)
	if err != nil {
		return nil, err
	}

	transactionDate := time.Now().UTC().Truncate(24 * time.Hour)
	if input.TransactionDate != nil {
		transactionDate = *input.TransactionDate
	}

	return s.createForWallet(ctx, &domain.Transaction{
		UserID:          userID,
		WalletID:        input.WalletID,
		Description:     description,
		Amount:          input.Amount,
		Category:        category,
		TransactionDate: transactionDate,
		Notes:           notes,
		Type:            txType,
	})
}

// createForWallet resolves the wallet, applies the effect and persists tx.
// Shared by single create and bulk import.
func (s *TransactionService) createForWallet(ctx context.Context, tx *domain.Transaction) (*domain.TransactionWithWallet, error) {
	if _, err := s.resolveWallet(ctx, tx.UserID, tx.WalletID); err != nil {
		return nil, err
	}

	wallet, err := s.mutator.Apply(ctx, tx.WalletID, tx.Type, tx.Amount)
	if err != nil {
		return nil, err
	}

	created, err := s.transactionRepo.Create(ctx, tx)
	if err != nil {
		s.compensate(ctx, tx.WalletID, func() (*domain.Wallet, error) {
			return s.mutator.Revert(ctx, tx.WalletID, tx.Type, tx.Amount)
		})
		return nil, err
	}

	log.Info().
		Str("user_id", tx.UserID.String()).
		Int32("transaction_id", created.ID).
		Int32("wallet_id", created.WalletID).
		Str("type", string(created.Type)).
		Str("amount", created.Amount.String()).
		Msg("Transaction created")

	result := &domain.TransactionWithWallet{Transaction: created, Wallet: wallet}
	s.publishEvent(tx.UserID, websocket.TransactionCreated(result))
	s.publishEvent(tx.UserID, websocket.WalletBalanceChanged(wallet))
	return result, nil
}

// GetTransactions lists the owner's transactions, each joined with its wallet
func (s *TransactionService) GetTransactions(ctx context.Context, userID uuid.UUID, filters *domain.TransactionFilters) ([]*domain.TransactionWithWallet, error) {
	transactions, err := s.transactionRepo.GetByOwner(ctx, userID, filters)
	if err != nil {
		return nil, err
	}
	wallets, err := s.walletRepo.GetAllByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int32]*domain.Wallet, len(wallets))
	for _, w := range wallets {
		byID[w.ID] = w
	}

	result := make([]*domain.TransactionWithWallet, 0, len(transactions))
	for _, tx := range transactions {
		result = append(result, &domain.TransactionWithWallet{Transaction: tx, Wallet: byID[tx.WalletID]})
	}
	return result, nil
}

// GetTransactionByID retrieves an owned transaction joined with its wallet
func (s *TransactionService) GetTransactionByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.TransactionWithWallet, error) {
	tx, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return &domain.TransactionWithWallet{Transaction: tx, Wallet: s.walletSnapshot(ctx, userID, tx.WalletID)}, nil
}

// UpdateTransaction merges the input over the stored transaction, moves its
// effect from the old (wallet, type, amount) to the new one and saves it.
// The new wallet is resolved before any balance is touched.
func (s *TransactionService) UpdateTransaction(ctx context.Context, userID uuid.UUID, id int32, input UpdateTransactionInput) (*domain.TransactionWithWallet, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("update", time.Since(start)) }()

	existing, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	old := *existing

	updated, err := mergeUpdate(existing, input)
	if err != nil {
		return nil, err
	}

	if _, err := s.resolveWallet(ctx, userID, updated.WalletID); err != nil {
		return nil, err
	}

	_, oldSkipped, err := s.mutator.RevertTolerant(ctx, &old)
	if err != nil {
		return nil, err
	}
	restoreOld := func() {
		if oldSkipped {
			return
		}
		s.compensate(ctx, old.WalletID, func() (*domain.Wallet, error) {
			return s.mutator.Apply(ctx, old.WalletID, old.Type, old.Amount)
		})
	}

	wallet, err := s.mutator.Apply(ctx, updated.WalletID, updated.Type, updated.Amount)
	if err != nil {
		restoreOld()
		return nil, err
	}

	saved, err := s.transactionRepo.Save(ctx, updated)
	if err != nil {
		s.compensate(ctx, updated.WalletID, func() (*domain.Wallet, error) {
			return s.mutator.Revert(ctx, updated.WalletID, updated.Type, updated.Amount)
		})
		restoreOld()
		return nil, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("transaction_id", id).
		Int32("old_wallet_id", old.WalletID).
		Int32("wallet_id", saved.WalletID).
		Str("old_amount", old.Amount.String()).
		Str("amount", saved.Amount.String()).
		Msg("Transaction updated")

	result := &domain.TransactionWithWallet{Transaction: saved, Wallet: wallet}
	s.publishEvent(userID, websocket.TransactionUpdated(result))
	if old.WalletID != saved.WalletID {
		if oldWallet := s.walletSnapshot(ctx, userID, old.WalletID); oldWallet != nil {
			s.publishEvent(userID, websocket.WalletBalanceChanged(oldWallet))
		}
	}
	s.publishEvent(userID, websocket.WalletBalanceChanged(wallet))
	return result, nil
}

// DeleteTransaction reverts the transaction's effect and removes it.
// A wallet that no longer exists does not block the delete.
func (s *TransactionService) DeleteTransaction(ctx context.Context, userID uuid.UUID, id int32) error {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("delete", time.Since(start)) }()

	tx, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	wallet, skipped, err := s.mutator.RevertTolerant(ctx, tx)
	if err != nil {
		return err
	}

	if err := s.transactionRepo.Delete(ctx, id); err != nil {
		if !skipped {
			s.compensate(ctx, tx.WalletID, func() (*domain.Wallet, error) {
				return s.mutator.Apply(ctx, tx.WalletID, tx.Type, tx.Amount)
			})
		}
		return err
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("transaction_id", id).
		Int32("wallet_id", tx.WalletID).
		Bool("wallet_missing", skipped).
		Msg("Transaction deleted")

	s.publishEvent(userID, websocket.TransactionDeleted(map[string]interface{}{"id": id}))
	if wallet != nil {
		s.publishEvent(userID, websocket.WalletBalanceChanged(wallet))
	}
	return nil
}

// ResetByType reverts and deletes every owned transaction of txType.
// All reverts finish before the delete, which removes exactly the reverted set;
// a row created in between keeps both its record and its effect. If the delete fails
// the reverted effects are applied again. A revert failure partway through leaves the
// wallets reverted so far adjusted; nothing is deleted in that case.
func (s *TransactionService) ResetByType(ctx context.Context, userID uuid.UUID, txType domain.TransactionType) (*ResetResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("reset", time.Since(start)) }()

	if !txType.IsValid() {
		return nil, domain.ErrInvalidType
	}

	transactions, err := s.transactionRepo.GetByOwner(ctx, userID, &domain.TransactionFilters{Type: &txType})
	if err != nil {
		return nil, err
	}

	result := &ResetResult{}
	touched := make(map[int32]*domain.Wallet)
	ids := make([]int32, 0, len(transactions))
	reverted := make([]*domain.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		wallet, skipped, err := s.mutator.RevertTolerant(ctx, tx)
		if err != nil {
			log.Error().
				Err(err).
				Str("user_id", userID.String()).
				Int32("transaction_id", tx.ID).
				Int("reverted", result.RevertedCount).
				Msg("Reset aborted after partial revert")
			return nil, err
		}
		ids = append(ids, tx.ID)
		if skipped {
			result.SkippedCount++
			continue
		}
		result.RevertedCount++
		reverted = append(reverted, tx)
		touched[wallet.ID] = wallet
	}

	deleted, err := s.transactionRepo.DeleteByIDs(ctx, userID, ids)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID.String()).
			Int("reverted", result.RevertedCount).
			Msg("Reset delete failed after revert")
		for _, tx := range reverted {
			s.compensate(ctx, tx.WalletID, func() (*domain.Wallet, error) {
				return s.mutator.Apply(ctx, tx.WalletID, tx.Type, tx.Amount)
			})
		}
		return nil, err
	}
	result.DeletedCount = deleted

	log.Info().
		Str("user_id", userID.String()).
		Str("type", string(txType)).
		Int64("deleted", deleted).
		Int("skipped", result.SkippedCount).
		Msg("Transactions reset by type")

	s.publishEvent(userID, websocket.TransactionsReset(map[string]interface{}{
		"type":         txType,
		"deletedCount": deleted,
	}))
	for _, wallet := range touched {
		s.publishEvent(userID, websocket.WalletBalanceChanged(wallet))
	}
	return result, nil
}

// ResetAll deletes every owned transaction and forces every owned wallet
// balance to zero. Initial balances are not restored.
func (s *TransactionService) ResetAll(ctx context.Context, userID uuid.UUID) (*ResetResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation("reset_all", time.Since(start)) }()

	deleted, walletsReset, err := s.transactionRepo.ResetAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.metrics.AddWalletResets(walletsReset)

	log.Info().
		Str("user_id", userID.String()).
		Int64("deleted", deleted).
		Int64("wallets_reset", walletsReset).
		Msg("All transactions reset")

	s.publishEvent(userID, websocket.TransactionsReset(map[string]interface{}{
		"type":         "all",
		"deletedCount": deleted,
		"walletsReset": walletsReset,
	}))
	return &ResetResult{DeletedCount: deleted, WalletsReset: walletsReset}, nil
}

// resolveWallet returns the wallet when it exists and belongs to userID.
// A foreign wallet is reported as not found.
func (s *TransactionService) resolveWallet(ctx context.Context, userID uuid.UUID, walletID int32) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, domain.ErrWalletNotFound) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}
	if !wallet.OwnedBy(userID) {
		return nil, domain.ErrWalletNotFound
	}
	return wallet, nil
}

// loadOwned loads a transaction and checks it belongs to userID
func (s *TransactionService) loadOwned(ctx context.Context, userID uuid.UUID, id int32) (*domain.Transaction, error) {
	tx, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.UserID != userID {
		log.Warn().
			Str("user_id", userID.String()).
			Int32("transaction_id", id).
			Msg("Cross-owner transaction access denied")
		return nil, domain.ErrForbidden
	}
	return tx, nil
}

func (s *TransactionService) walletSnapshot(ctx context.Context, userID uuid.UUID, walletID int32) *domain.Wallet {
	wallet, err := s.resolveWallet(ctx, userID, walletID)
	if err != nil {
		return nil
	}
	return wallet
}

// compensate undoes a balance adjustment after a later step failed
func (s *TransactionService) compensate(ctx context.Context, walletID int32, undo func() (*domain.Wallet, error)) {
	if _, err := undo(); err != nil {
		log.Error().
			Err(err).
			Int32("wallet_id", walletID).
			Msg("Failed to roll back wallet balance")
	}
}

func mergeUpdate(existing *domain.Transaction, input UpdateTransactionInput) (*domain.Transaction, error) {
	updated := *existing

	if input.WalletID != nil {
		if *input.WalletID == 0 {
			return nil, domain.ErrWalletRequired
		}
		updated.WalletID = *input.WalletID
	}
	if input.Description != nil {
		description, err := normalizeDescription(*input.Description)
		if err != nil {
			return nil, err
		}
		updated.Description = description
	}
	if input.Amount != nil {
		if err := domain.ValidateAmount(*input.Amount); err != nil {
			return nil, err
		}
		updated.Amount = *input.Amount
	}
	if input.Category != nil {
		category, err := normalizeCategory(*input.Category)
		if err != nil {
			return nil, err
		}
		updated.Category = category
	}
	if input.Type != nil {
		txType, err := domain.ParseTransactionType(*input.Type, false)
		if err != nil {
			return nil, err
		}
		updated.Type = txType
	}
	if input.TransactionDate != nil {
		updated.TransactionDate = *input.TransactionDate
	}
	if input.Notes != nil {
		notes, err := normalizeNotes(input.Notes)
		if err != nil {
			return nil, err
		}
		updated.Notes = notes
	}
	return &updated, nil
}

func normalizeDescription(raw string) (string, error) {
	description := strings.TrimSpace(raw)
	if description == "" {
		return "", domain.ErrDescriptionRequired
	}
	if len(description) > domain.MaxTransactionDescriptionLength {
		return "", domain.ErrDescriptionTooLong
	}
	return description, nil
}

func normalizeCategory(raw string) (string, error) {
	category := strings.TrimSpace(raw)
	if category == "" {
		return "", domain.ErrCategoryRequired
	}
	if len(category) > domain.MaxCategoryLength {
		return "", fmt.Errorf("%w: category too long", domain.ErrInvalidInput)
	}
	return category, nil
}

// normalizeNotes trims notes; blank notes are stored as nil
func normalizeNotes(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) > domain.MaxTransactionNotesLength {
		return nil, domain.ErrNotesTooLong
	}
	return &trimmed, nil
}
