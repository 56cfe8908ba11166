package domain

import "github.com/shopspring/decimal"

// CategoryTotal holds the summed amount for one category
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// StatsSummary aggregates an owner's wallets and transactions
type StatsSummary struct {
	TotalBalance      decimal.Decimal  `json:"totalBalance"`
	TotalIncome       decimal.Decimal  `json:"totalIncome"`
	TotalExpense      decimal.Decimal  `json:"totalExpense"`
	Net               decimal.Decimal  `json:"net"`
	WalletCount       int              `json:"walletCount"`
	TransactionCount  int              `json:"transactionCount"`
	ExpenseByCategory []*CategoryTotal `json:"expenseByCategory"`
	IncomeByCategory  []*CategoryTotal `json:"incomeByCategory"`
}
