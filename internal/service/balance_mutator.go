package service

import (
	"context"
	"errors"

	"github.com/dafibh/walletwise/walletwise-backend/internal/domain"
	"github.com/dafibh/walletwise/walletwise-backend/internal/metrics"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// BalanceMutator applies and reverts a transaction's signed effect on its wallet.
// Every lifecycle path goes through Apply and Revert so the sign rules live in one place.
// Ownership is checked by callers before a wallet id reaches the mutator.
type BalanceMutator struct {
	walletRepo domain.WalletRepository
	metrics    *metrics.Metrics
}

// NewBalanceMutator creates a new BalanceMutator
func NewBalanceMutator(walletRepo domain.WalletRepository, m *metrics.Metrics) *BalanceMutator {
	return &BalanceMutator{
		walletRepo: walletRepo,
		metrics:    m,
	}
}

// Apply adds the signed effect of (txType, amount) to the wallet balance.
// Returns domain.ErrWalletNotFound when the wallet does not exist.
func (m *BalanceMutator) Apply(ctx context.Context, walletID int32, txType domain.TransactionType, amount decimal.Decimal) (*domain.Wallet, error) {
	wallet, err := m.adjust(ctx, walletID, domain.SignedEffect(txType, amount))
	if err != nil {
		return nil, err
	}
	m.metrics.IncrMutation(metrics.OpApply)
	return wallet, nil
}

// Revert removes the signed effect of (txType, amount) from the wallet balance.
// Revert(Apply(w, t, a)) leaves w's balance unchanged.
func (m *BalanceMutator) Revert(ctx context.Context, walletID int32, txType domain.TransactionType, amount decimal.Decimal) (*domain.Wallet, error) {
	wallet, err := m.adjust(ctx, walletID, domain.SignedEffect(txType, amount).Neg())
	if err != nil {
		return nil, err
	}
	m.metrics.IncrMutation(metrics.OpRevert)
	return wallet, nil
}

// RevertTolerant reverts like Revert but treats a missing wallet as a dangling
// reference: it logs, counts the skip and reports skipped=true instead of failing.
// Any other error is returned unchanged.
func (m *BalanceMutator) RevertTolerant(ctx context.Context, tx *domain.Transaction) (wallet *domain.Wallet, skipped bool, err error) {
	wallet, err = m.Revert(ctx, tx.WalletID, tx.Type, tx.Amount)
	if err == nil {
		return wallet, false, nil
	}
	if errors.Is(err, domain.ErrWalletNotFound) {
		m.metrics.IncrDanglingRevert()
		log.Warn().
			Int32("transaction_id", tx.ID).
			Int32("wallet_id", tx.WalletID).
			Str("user_id", tx.UserID.String()).
			Msg("Wallet not found for transaction, balance not reverted")
		return nil, true, nil
	}
	return nil, false, err
}

func (m *BalanceMutator) adjust(ctx context.Context, walletID int32, delta decimal.Decimal) (*domain.Wallet, error) {
	wallet, err := m.walletRepo.AdjustBalance(ctx, walletID, delta)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Int32("wallet_id", walletID).
		Str("delta", delta.String()).
		Str("balance", wallet.Balance.String()).
		Msg("Wallet balance adjusted")
	return wallet, nil
}
