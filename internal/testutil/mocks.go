package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dafibh/walletwise/walletwise-backend/internal/domain"
	"github.com/dafibh/walletwise/walletwise-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users    map[string]*domain.User
	ByID     map[uuid.UUID]*domain.User
	CreateFn func(auth0ID, email string, name, pictureURL *string) (*domain.User, error)
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
		ByID:  make(map[uuid.UUID]*domain.User),
	}
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByAuth0ID retrieves a user by Auth0 ID
func (m *MockUserRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*domain.User, error) {
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// CreateOrGetByAuth0ID creates or retrieves a user by Auth0 ID
func (m *MockUserRepository) CreateOrGetByAuth0ID(ctx context.Context, auth0ID, email string, name, pictureURL *string) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(auth0ID, email, name, pictureURL)
	}
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	user := &domain.User{
		ID:         uuid.New(),
		Auth0ID:    auth0ID,
		Email:      email,
		Name:       name,
		PictureURL: pictureURL,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	m.Users[auth0ID] = user
	m.ByID[user.ID] = user
	return user, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
}

// MockWalletRepository is a mock implementation of domain.WalletRepository.
// AdjustBalance holds the mutex for the whole read-modify-write, mirroring the
// single UPDATE statement of the Postgres repository.
type MockWalletRepository struct {
	mu      sync.Mutex
	Wallets map[int32]*domain.Wallet
	NextID  int32

	CreateFn        func(wallet *domain.Wallet) (*domain.Wallet, error)
	GetByIDFn       func(id int32) (*domain.Wallet, error)
	GetAllByOwnerFn func(userID uuid.UUID) ([]*domain.Wallet, error)
	AdjustBalanceFn func(id int32, delta decimal.Decimal) (*domain.Wallet, error)
}

// NewMockWalletRepository creates a new MockWalletRepository
func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{
		Wallets: make(map[int32]*domain.Wallet),
		NextID:  1,
	}
}

func copyWallet(w *domain.Wallet) *domain.Wallet {
	c := *w
	return &c
}

// Create creates a new wallet
func (m *MockWalletRepository) Create(ctx context.Context, wallet *domain.Wallet) (*domain.Wallet, error) {
	if m.CreateFn != nil {
		return m.CreateFn(wallet)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Wallets {
		if existing.UserID == wallet.UserID && existing.Name == wallet.Name {
			return nil, domain.ErrWalletNameExists
		}
	}
	stored := copyWallet(wallet)
	stored.ID = m.NextID
	m.NextID++
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = time.Now()
	m.Wallets[stored.ID] = stored
	return copyWallet(stored), nil
}

// GetByID retrieves a wallet by ID regardless of owner
func (m *MockWalletRepository) GetByID(ctx context.Context, id int32) (*domain.Wallet, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.Wallets[id]; ok {
		return copyWallet(w), nil
	}
	return nil, domain.ErrWalletNotFound
}

// GetByOwnerAndName retrieves a wallet by owner and exact name
func (m *MockWalletRepository) GetByOwnerAndName(ctx context.Context, userID uuid.UUID, name string) (*domain.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.Wallets {
		if w.UserID == userID && w.Name == name {
			return copyWallet(w), nil
		}
	}
	return nil, domain.ErrWalletNotFound
}

// GetAllByOwner retrieves all wallets for an owner in creation order
func (m *MockWalletRepository) GetAllByOwner(ctx context.Context, userID uuid.UUID) ([]*domain.Wallet, error) {
	if m.GetAllByOwnerFn != nil {
		return m.GetAllByOwnerFn(userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Wallet
	for _, w := range m.Wallets {
		if w.UserID == userID {
			result = append(result, copyWallet(w))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Update updates the editable fields of an owned wallet
func (m *MockWalletRepository) Update(ctx context.Context, userID uuid.UUID, id int32, data *domain.UpdateWalletData) (*domain.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.Wallets[id]
	if !ok || w.UserID != userID {
		return nil, domain.ErrWalletNotFound
	}
	for _, other := range m.Wallets {
		if other.ID != id && other.UserID == userID && other.Name == data.Name {
			return nil, domain.ErrWalletNameExists
		}
	}
	w.Name = data.Name
	w.Currency = data.Currency
	w.Description = data.Description
	w.UpdatedAt = time.Now()
	return copyWallet(w), nil
}

// Delete removes an owned wallet
func (m *MockWalletRepository) Delete(ctx context.Context, userID uuid.UUID, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.Wallets[id]
	if !ok || w.UserID != userID {
		return domain.ErrWalletNotFound
	}
	delete(m.Wallets, id)
	return nil
}

// AdjustBalance adds delta to the wallet balance
func (m *MockWalletRepository) AdjustBalance(ctx context.Context, id int32, delta decimal.Decimal) (*domain.Wallet, error) {
	if m.AdjustBalanceFn != nil {
		return m.AdjustBalanceFn(id, delta)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.Wallets[id]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	w.Balance = w.Balance.Add(delta)
	w.UpdatedAt = time.Now()
	return copyWallet(w), nil
}

// zeroOwner zeroes every wallet balance owned by userID
func (m *MockWalletRepository) zeroOwner(userID uuid.UUID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, w := range m.Wallets {
		if w.UserID == userID {
			w.Balance = decimal.Zero
			w.UpdatedAt = time.Now()
			count++
		}
	}
	return count
}

// AddWallet adds a wallet to the mock repository (helper for tests)
func (m *MockWalletRepository) AddWallet(wallet *domain.Wallet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if wallet.ID == 0 {
		wallet.ID = m.NextID
	}
	if wallet.ID >= m.NextID {
		m.NextID = wallet.ID + 1
	}
	if wallet.Currency == "" {
		wallet.Currency = domain.DefaultCurrency
	}
	m.Wallets[wallet.ID] = copyWallet(wallet)
}

// Balance returns the stored balance of a wallet (helper for tests)
func (m *MockWalletRepository) Balance(id int32) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.Wallets[id]; ok {
		return w.Balance
	}
	panic(fmt.Sprintf("testutil: wallet %d not found", id))
}

// RemoveWallet deletes a wallet without touching its transactions (helper for tests)
func (m *MockWalletRepository) RemoveWallet(id int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Wallets, id)
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository.
// When Wallets is set, ResetAll also zeroes the owner's wallets there.
type MockTransactionRepository struct {
	mu           sync.Mutex
	Transactions map[int32]*domain.Transaction
	NextID       int32
	Wallets      *MockWalletRepository

	CreateFn      func(tx *domain.Transaction) (*domain.Transaction, error)
	GetByOwnerFn  func(userID uuid.UUID, filters *domain.TransactionFilters) ([]*domain.Transaction, error)
	SaveFn        func(tx *domain.Transaction) (*domain.Transaction, error)
	DeleteFn      func(id int32) error
	DeleteByIDsFn func(userID uuid.UUID, ids []int32) (int64, error)
	ResetAllFn    func(userID uuid.UUID) (int64, int64, error)
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[int32]*domain.Transaction),
		NextID:       1,
	}
}

func copyTransaction(tx *domain.Transaction) *domain.Transaction {
	c := *tx
	return &c
}

// Create creates a new transaction
func (m *MockTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if m.CreateFn != nil {
		return m.CreateFn(tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := copyTransaction(tx)
	stored.ID = m.NextID
	m.NextID++
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = time.Now()
	m.Transactions[stored.ID] = stored
	return copyTransaction(stored), nil
}

// GetByID retrieves a transaction by ID regardless of owner
func (m *MockTransactionRepository) GetByID(ctx context.Context, id int32) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx, ok := m.Transactions[id]; ok {
		return copyTransaction(tx), nil
	}
	return nil, domain.ErrTransactionNotFound
}

// GetByOwner retrieves an owner's transactions, newest first, applying filters
func (m *MockTransactionRepository) GetByOwner(ctx context.Context, userID uuid.UUID, filters *domain.TransactionFilters) ([]*domain.Transaction, error) {
	if m.GetByOwnerFn != nil {
		return m.GetByOwnerFn(userID, filters)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Transaction, 0)
	for _, tx := range m.Transactions {
		if tx.UserID != userID {
			continue
		}
		if filters != nil {
			if filters.WalletID != nil && tx.WalletID != *filters.WalletID {
				continue
			}
			if filters.Type != nil && tx.Type != *filters.Type {
				continue
			}
			if filters.StartDate != nil && tx.TransactionDate.Before(*filters.StartDate) {
				continue
			}
			if filters.EndDate != nil && tx.TransactionDate.After(*filters.EndDate) {
				continue
			}
		}
		result = append(result, copyTransaction(tx))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TransactionDate.Equal(result[j].TransactionDate) {
			return result[i].ID > result[j].ID
		}
		return result[i].TransactionDate.After(result[j].TransactionDate)
	})
	return result, nil
}

// Save replaces a stored transaction
func (m *MockTransactionRepository) Save(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	if m.SaveFn != nil {
		return m.SaveFn(tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Transactions[tx.ID]; !ok {
		return nil, domain.ErrTransactionNotFound
	}
	stored := copyTransaction(tx)
	stored.UpdatedAt = time.Now()
	m.Transactions[tx.ID] = stored
	return copyTransaction(stored), nil
}

// Delete removes a transaction
func (m *MockTransactionRepository) Delete(ctx context.Context, id int32) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Transactions[id]; !ok {
		return domain.ErrTransactionNotFound
	}
	delete(m.Transactions, id)
	return nil
}

// DeleteByIDs removes the listed transactions that belong to userID
func (m *MockTransactionRepository) DeleteByIDs(ctx context.Context, userID uuid.UUID, ids []int32) (int64, error) {
	if m.DeleteByIDsFn != nil {
		return m.DeleteByIDsFn(userID, ids)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, id := range ids {
		if tx, ok := m.Transactions[id]; ok && tx.UserID == userID {
			delete(m.Transactions, id)
			count++
		}
	}
	return count, nil
}

// ResetAll deletes an owner's transactions and zeroes the linked wallets under one lock
func (m *MockTransactionRepository) ResetAll(ctx context.Context, userID uuid.UUID) (int64, int64, error) {
	if m.ResetAllFn != nil {
		return m.ResetAllFn(userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, tx := range m.Transactions {
		if tx.UserID == userID {
			delete(m.Transactions, id)
			deleted++
		}
	}
	var walletsReset int64
	if m.Wallets != nil {
		walletsReset = m.Wallets.zeroOwner(userID)
	}
	return deleted, walletsReset, nil
}

// AddTransaction adds a transaction to the mock repository (helper for tests)
func (m *MockTransactionRepository) AddTransaction(tx *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.ID == 0 {
		tx.ID = m.NextID
	}
	if tx.ID >= m.NextID {
		m.NextID = tx.ID + 1
	}
	m.Transactions[tx.ID] = copyTransaction(tx)
}

// Count returns the number of stored transactions (helper for tests)
func (m *MockTransactionRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Transactions)
}

// MockEventPublisher records published events per user
type MockEventPublisher struct {
	mu     sync.Mutex
	Events map[uuid.UUID][]string
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{Events: make(map[uuid.UUID][]string)}
}

// Publish records the event type
func (p *MockEventPublisher) Publish(userID uuid.UUID, event websocket.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events[userID] = append(p.Events[userID], event.Type)
}

// EventTypes returns the event types published for a user in order
func (p *MockEventPublisher) EventTypes(userID uuid.UUID) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Events[userID]...)
}
