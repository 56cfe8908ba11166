package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dafibh/walletwise/walletwise-backend/internal/domain"
	"github.com/dafibh/walletwise/walletwise-backend/internal/metrics"
	"github.com/dafibh/walletwise/walletwise-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMutatorFixture(t *testing.T, balance string) (*BalanceMutator, *testutil.MockWalletRepository, *metrics.Metrics) {
	t.Helper()
	walletRepo := testutil.NewMockWalletRepository()
	walletRepo.AddWallet(&domain.Wallet{
		ID:      1,
		UserID:  uuid.New(),
		Name:    "Cash",
		Balance: decimal.RequireFromString(balance),
	})
	m := metrics.NewMetrics()
	return NewBalanceMutator(walletRepo, m), walletRepo, m
}

func TestBalanceMutator_Apply(t *testing.T) {
	tests := []struct {
		name     string
		txType   domain.TransactionType
		amount   string
		expected string
	}{
		{"expense subtracts", domain.TransactionTypeExpense, "30", "70"},
		{"income adds", domain.TransactionTypeIncome, "50", "150"},
		{"expense can go negative", domain.TransactionTypeExpense, "250.75", "-150.75"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mutator, walletRepo, m := newMutatorFixture(t, "100")

			wallet, err := mutator.Apply(context.Background(), 1, tt.txType, decimal.RequireFromString(tt.amount))
			require.NoError(t, err)

			expected := decimal.RequireFromString(tt.expected)
			assert.True(t, expected.Equal(wallet.Balance), "got %s", wallet.Balance)
			assert.True(t, expected.Equal(walletRepo.Balance(1)))
			assert.Equal(t, float64(1), m.MutationCount(metrics.OpApply))
		})
	}
}

func TestBalanceMutator_ApplyRevertInverse(t *testing.T) {
	amounts := []string{"0.01", "30", "45.50", "99999.99"}
	types := []domain.TransactionType{domain.TransactionTypeExpense, domain.TransactionTypeIncome}

	for _, txType := range types {
		for _, raw := range amounts {
			mutator, walletRepo, _ := newMutatorFixture(t, "123.45")
			amount := decimal.RequireFromString(raw)

			_, err := mutator.Apply(context.Background(), 1, txType, amount)
			require.NoError(t, err)
			_, err = mutator.Revert(context.Background(), 1, txType, amount)
			require.NoError(t, err)

			assert.True(t, decimal.RequireFromString("123.45").Equal(walletRepo.Balance(1)),
				"%s %s: balance %s", txType, raw, walletRepo.Balance(1))
		}
	}
}

func TestBalanceMutator_MissingWallet(t *testing.T) {
	mutator, _, _ := newMutatorFixture(t, "100")

	_, err := mutator.Apply(context.Background(), 99, domain.TransactionTypeExpense, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, domain.ErrWalletNotFound)

	_, err = mutator.Revert(context.Background(), 99, domain.TransactionTypeExpense, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, domain.ErrWalletNotFound)
}

func TestBalanceMutator_RevertTolerant_DanglingWallet(t *testing.T) {
	mutator, _, m := newMutatorFixture(t, "100")

	tx := &domain.Transaction{ID: 5, UserID: uuid.New(), WalletID: 42, Type: domain.TransactionTypeExpense, Amount: decimal.NewFromInt(10)}
	wallet, skipped, err := mutator.RevertTolerant(context.Background(), tx)

	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Nil(t, wallet)
	assert.Equal(t, float64(1), m.DanglingRevertCount())
	assert.Equal(t, float64(0), m.MutationCount(metrics.OpRevert))
}

func TestBalanceMutator_RevertTolerant_Reverts(t *testing.T) {
	mutator, walletRepo, m := newMutatorFixture(t, "100")

	tx := &domain.Transaction{ID: 5, WalletID: 1, Type: domain.TransactionTypeIncome, Amount: decimal.NewFromInt(40)}
	wallet, skipped, err := mutator.RevertTolerant(context.Background(), tx)

	require.NoError(t, err)
	assert.False(t, skipped)
	assert.True(t, decimal.NewFromInt(60).Equal(wallet.Balance))
	assert.True(t, decimal.NewFromInt(60).Equal(walletRepo.Balance(1)))
	assert.Equal(t, float64(0), m.DanglingRevertCount())
}

func TestBalanceMutator_RevertTolerant_StorageError(t *testing.T) {
	mutator, walletRepo, m := newMutatorFixture(t, "100")
	storageErr := errors.New("connection reset")
	walletRepo.AdjustBalanceFn = func(id int32, delta decimal.Decimal) (*domain.Wallet, error) {
		return nil, storageErr
	}

	tx := &domain.Transaction{ID: 5, WalletID: 1, Type: domain.TransactionTypeExpense, Amount: decimal.NewFromInt(10)}
	_, skipped, err := mutator.RevertTolerant(context.Background(), tx)

	assert.ErrorIs(t, err, storageErr)
	assert.False(t, skipped)
	assert.Equal(t, float64(0), m.DanglingRevertCount())
}

func TestBalanceMutator_NilMetrics(t *testing.T) {
	walletRepo := testutil.NewMockWalletRepository()
	walletRepo.AddWallet(&domain.Wallet{ID: 1, Balance: decimal.Zero})
	mutator := NewBalanceMutator(walletRepo, nil)

	assert.NotPanics(t, func() {
		_, _ = mutator.Apply(context.Background(), 1, domain.TransactionTypeIncome, decimal.NewFromInt(1))
		_, _, _ = mutator.RevertTolerant(context.Background(), &domain.Transaction{WalletID: 7, Amount: decimal.NewFromInt(1)})
	})
}

func TestBalanceMutator_ConcurrentApplyLosesNothing(t *testing.T) {
	mutator, walletRepo, m := newMutatorFixture(t, "0")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := mutator.Apply(context.Background(), 1, domain.TransactionTypeIncome, decimal.NewFromInt(3))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := mutator.Apply(context.Background(), 1, domain.TransactionTypeExpense, decimal.NewFromInt(1))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, decimal.NewFromInt(100).Equal(walletRepo.Balance(1)), "got %s", walletRepo.Balance(1))
	assert.Equal(t, float64(100), m.MutationCount(metrics.OpApply))
}
