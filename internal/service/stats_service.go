package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dafibh/walletwise/walletwise-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// StatsService aggregates wallet balances and transaction totals for an owner
type StatsService struct {
	walletRepo      domain.WalletRepository
	transactionRepo domain.TransactionRepository
}

// NewStatsService creates a new StatsService
func NewStatsService(walletRepo domain.WalletRepository, transactionRepo domain.TransactionRepository) *StatsService {
	return &StatsService{
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
	}
}

// GetSummary returns totals for the owner. from and to bound the transaction
// dates when set; the total balance always covers every wallet.
func (s *StatsService) GetSummary(ctx context.Context, userID uuid.UUID, from, to *time.Time) (*domain.StatsSummary, error) {
	var (
		wallets      []*domain.Wallet
		transactions []*domain.Transaction
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		w, err := s.walletRepo.GetAllByOwner(gCtx, userID)
		if err != nil {
			return fmt.Errorf("wallets fetch: %w", err)
		}
		wallets = w
		return nil
	})

	g.Go(func() error {
		t, err := s.transactionRepo.GetByOwner(gCtx, userID, &domain.TransactionFilters{
			StartDate: from,
			EndDate:   to,
		})
		if err != nil {
			return fmt.Errorf("transactions fetch: %w", err)
		}
		transactions = t
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &domain.StatsSummary{
		TotalBalance:     decimal.Zero,
		TotalIncome:      decimal.Zero,
		TotalExpense:     decimal.Zero,
		WalletCount:      len(wallets),
		TransactionCount: len(transactions),
	}
	for _, w := range wallets {
		summary.TotalBalance = summary.TotalBalance.Add(w.Balance)
	}

	expenses := make(map[string]*domain.CategoryTotal)
	incomes := make(map[string]*domain.CategoryTotal)
	for _, tx := range transactions {
		byCategory := expenses
		if tx.Type == domain.TransactionTypeIncome {
			summary.TotalIncome = summary.TotalIncome.Add(tx.Amount)
			byCategory = incomes
		} else {
			summary.TotalExpense = summary.TotalExpense.Add(tx.Amount)
		}
		total, ok := byCategory[tx.Category]
		if !ok {
			total = &domain.CategoryTotal{Category: tx.Category, Total: decimal.Zero}
			byCategory[tx.Category] = total
		}
		total.Total = total.Total.Add(tx.Amount)
		total.Count++
	}

	summary.Net = summary.TotalIncome.Sub(summary.TotalExpense)
	summary.ExpenseByCategory = sortedCategoryTotals(expenses)
	summary.IncomeByCategory = sortedCategoryTotals(incomes)
	return summary, nil
}

// sortedCategoryTotals orders by total descending, then by category name
func sortedCategoryTotals(totals map[string]*domain.CategoryTotal) []*domain.CategoryTotal {
	result := make([]*domain.CategoryTotal, 0, len(totals))
	for _, t := range totals {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		if cmp := result[i].Total.Cmp(result[j].Total); cmp != 0 {
			return cmp > 0
		}
		return result[i].Category < result[j].Category
	})
	return result
}
