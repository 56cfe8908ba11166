package service

import (
	"context"
	"errors"
	"strings"

	"github.com/dafibh/walletwise/walletwise-backend/internal/domain"
	"github.com/dafibh/walletwise/walletwise-backend/internal/websocket"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// WalletService handles wallet-related business logic
type WalletService struct {
	walletRepo      domain.WalletRepository
	defaultCurrency string
	eventPublisher  websocket.EventPublisher
	validate        *validator.Validate
}

// NewWalletService creates a new WalletService. An empty defaultCurrency falls back to domain.DefaultCurrency.
func NewWalletService(walletRepo domain.WalletRepository, defaultCurrency string) *WalletService {
	if defaultCurrency == "" {
		defaultCurrency = domain.DefaultCurrency
	}
	return &WalletService{
		walletRepo:      walletRepo,
		defaultCurrency: strings.ToUpper(defaultCurrency),
		validate:        validator.New(),
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *WalletService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *WalletService) publishEvent(userID uuid.UUID, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// CreateWalletInput holds the input for creating a wallet
type CreateWalletInput struct {
	Name           string
	InitialBalance decimal.Decimal
	Currency       string
	Description    *string
}

// UpdateWalletInput holds the input for updating a wallet.
// Balance is only present to reject requests that try to set it.
type UpdateWalletInput struct {
	Name        string
	Currency    string
	Description *string
	Balance     *decimal.Decimal
}

// CreateWallet creates a wallet with an optional initial balance of any sign
func (s *WalletService) CreateWallet(ctx context.Context, userID uuid.UUID, input CreateWalletInput) (*domain.Wallet, error) {
	name, err := normalizeWalletName(input.Name)
	if err != nil {
		return nil, err
	}
	currency, err := s.normalizeCurrency(input.Currency)
	if err != nil {
		return nil, err
	}
	description, err := normalizeWalletDescription(input.Description)
	if err != nil {
		return nil, err
	}
	if !domain.HasMoneyScale(input.InitialBalance) {
		return nil, domain.ErrInvalidBalance
	}

	if _, err := s.walletRepo.GetByOwnerAndName(ctx, userID, name); err == nil {
		return nil, domain.ErrWalletNameExists
	} else if !errors.Is(err, domain.ErrWalletNotFound) {
		return nil, err
	}

	wallet, err := s.walletRepo.Create(ctx, &domain.Wallet{
		UserID:      userID,
		Name:        name,
		Balance:     input.InitialBalance,
		Currency:    currency,
		Description: description,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Int32("wallet_id", wallet.ID).
		Str("balance", wallet.Balance.String()).
		Msg("Wallet created")
	s.publishEvent(userID, websocket.WalletCreated(wallet))
	return wallet, nil
}

// GetWallets retrieves all wallets for an owner
func (s *WalletService) GetWallets(ctx context.Context, userID uuid.UUID) ([]*domain.Wallet, error) {
	return s.walletRepo.GetAllByOwner(ctx, userID)
}

// GetWalletByID retrieves an owned wallet
func (s *WalletService) GetWalletByID(ctx context.Context, userID uuid.UUID, id int32) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !wallet.OwnedBy(userID) {
		return nil, domain.ErrWalletNotFound
	}
	return wallet, nil
}

// UpdateWallet updates name, currency and description. The balance is never editable here.
func (s *WalletService) UpdateWallet(ctx context.Context, userID uuid.UUID, id int32, input UpdateWalletInput) (*domain.Wallet, error) {
	if input.Balance != nil {
		return nil, domain.ErrBalanceNotEditable
	}
	current, err := s.GetWalletByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	name, err := normalizeWalletName(input.Name)
	if err != nil {
		return nil, err
	}
	// An omitted currency keeps the current one
	currency := current.Currency
	if strings.TrimSpace(input.Currency) != "" {
		if currency, err = s.normalizeCurrency(input.Currency); err != nil {
			return nil, err
		}
	}
	description, err := normalizeWalletDescription(input.Description)
	if err != nil {
		return nil, err
	}

	if existing, err := s.walletRepo.GetByOwnerAndName(ctx, userID, name); err == nil && existing.ID != id {
		return nil, domain.ErrWalletNameExists
	} else if err != nil && !errors.Is(err, domain.ErrWalletNotFound) {
		return nil, err
	}

	wallet, err := s.walletRepo.Update(ctx, userID, id, &domain.UpdateWalletData{
		Name:        name,
		Currency:    currency,
		Description: description,
	})
	if err != nil {
		return nil, err
	}
	s.publishEvent(userID, websocket.WalletUpdated(wallet))
	return wallet, nil
}

// DeleteWallet removes an owned wallet. Transactions referencing it are kept;
// later reverts against them are skipped as dangling.
func (s *WalletService) DeleteWallet(ctx context.Context, userID uuid.UUID, id int32) error {
	if err := s.walletRepo.Delete(ctx, userID, id); err != nil {
		return err
	}
	log.Info().Str("user_id", userID.String()).Int32("wallet_id", id).Msg("Wallet deleted")
	s.publishEvent(userID, websocket.WalletDeleted(map[string]interface{}{"id": id}))
	return nil
}

func (s *WalletService) normalizeCurrency(raw string) (string, error) {
	currency := strings.ToUpper(strings.TrimSpace(raw))
	if currency == "" {
		return s.defaultCurrency, nil
	}
	if err := s.validate.Var(currency, "iso4217"); err != nil {
		return "", domain.ErrInvalidCurrency
	}
	return currency, nil
}

func normalizeWalletName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if len(name) > domain.MaxWalletNameLength {
		return "", domain.ErrNameTooLong
	}
	return name, nil
}

func normalizeWalletDescription(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) > domain.MaxWalletDescriptionLength {
		return nil, domain.ErrDescriptionTooLong
	}
	return &trimmed, nil
}
