package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dafibh/walletwise/walletwise-backend/internal/domain"
	"github.com/dafibh/walletwise/walletwise-backend/internal/service"
	"github.com/dafibh/walletwise/walletwise-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWalletTestContext(e *echo.Echo, method, target, body string, userID uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithUser(c, "auth0|wallet", "wallet@example.com", "Wallet User", "", userID)
	return c, rec
}

func TestCreateWallet_Success(t *testing.T) {
	e := echo.New()
	walletRepo := testutil.NewMockWalletRepository()
	h := NewWalletHandler(service.NewWalletService(walletRepo, "INR"))
	userID := uuid.New()

	c, rec := newWalletTestContext(e, http.MethodPost, "/api/v1/wallets", `{"name": "  Cash  ", "initialBalance": "-25.50", "currency": "usd"}`, userID)
	require.NoError(t, h.CreateWallet(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var response WalletResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "Cash", response.Name)
	assert.Equal(t, "-25.50", response.Balance)
	assert.Equal(t, "USD", response.Currency)
}

func TestCreateWallet_DefaultsCurrencyAndBalance(t *testing.T) {
	e := echo.New()
	walletRepo := testutil.NewMockWalletRepository()
	h := NewWalletHandler(service.NewWalletService(walletRepo, "INR"))

	c, rec := newWalletTestContext(e, http.MethodPost, "/api/v1/wallets", `{"name": "Bank"}`, uuid.New())
	require.NoError(t, h.CreateWallet(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var response WalletResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "0.00", response.Balance)
	assert.Equal(t, "INR", response.Currency)
}

func TestCreateWallet_Errors(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"missing name", `{"name": "   "}`, http.StatusBadRequest},
		{"bad currency", `{"name": "Trip", "currency": "EURO"}`, http.StatusBadRequest},
		{"unknown currency", `{"name": "Trip", "currency": "QQQ"}`, http.StatusBadRequest},
		{"sub-cent initial balance", `{"name": "Trip", "initialBalance": "1.999"}`, http.StatusBadRequest},
		{"duplicate name", `{"name": "Cash"}`, http.StatusConflict},
		{"malformed body", `{"name": `, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			walletRepo := testutil.NewMockWalletRepository()
			walletRepo.AddWallet(&domain.Wallet{ID: 1, UserID: userID, Name: "Cash"})
			h := NewWalletHandler(service.NewWalletService(walletRepo, "INR"))

			c, rec := newWalletTestContext(e, http.MethodPost, "/api/v1/wallets", tt.body, userID)
			require.NoError(t, h.CreateWallet(c))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestGetWallets_OwnerOnly(t *testing.T) {
	e := echo.New()
	walletRepo := testutil.NewMockWalletRepository()
	userID := uuid.New()
	walletRepo.AddWallet(&domain.Wallet{ID: 1, UserID: userID, Name: "Cash", Balance: decimal.NewFromInt(10)})
	walletRepo.AddWallet(&domain.Wallet{ID: 2, UserID: uuid.New(), Name: "Other"})
	walletRepo.AddWallet(&domain.Wallet{ID: 3, UserID: userID, Name: "Bank"})
	h := NewWalletHandler(service.NewWalletService(walletRepo, "INR"))

	c, rec := newWalletTestContext(e, http.MethodGet, "/api/v1/wallets", "", userID)
	require.NoError(t, h.GetWallets(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var response []WalletResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 2)
	assert.Equal(t, int32(1), response[0].ID)
	assert.Equal(t, int32(3), response[1].ID)
	assert.Equal(t, "10.00", response[0].Balance)
}

func TestUpdateWallet_RejectsBalance(t *testing.T) {
	e := echo.New()
	walletRepo := testutil.NewMockWalletRepository()
	userID := uuid.New()
	walletRepo.AddWallet(&domain.Wallet{ID: 1, UserID: userID, Name: "Cash", Balance: decimal.NewFromInt(10)})
	h := NewWalletHandler(service.NewWalletService(walletRepo, "INR"))

	c, rec := newWalletTestContext(e, http.MethodPut, "/api/v1/wallets/1", `{"name": "Cash", "balance": 500}`, userID)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.UpdateWallet(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var problem ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "balance", problem.Errors[0].Field)
	assert.True(t, walletRepo.Balance(1).Equal(decimal.NewFromInt(10)))
}

func TestUpdateWallet_Success(t *testing.T) {
	e := echo.New()
	walletRepo := testutil.NewMockWalletRepository()
	userID := uuid.New()
	walletRepo.AddWallet(&domain.Wallet{ID: 1, UserID: userID, Name: "Cash", Balance: decimal.NewFromInt(10)})
	h := NewWalletHandler(service.NewWalletService(walletRepo, "INR"))

	c, rec := newWalletTestContext(e, http.MethodPut, "/api/v1/wallets/1", `{"name": "Pocket", "currency": "eur"}`, userID)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.UpdateWallet(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response WalletResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "Pocket", response.Name)
	assert.Equal(t, "EUR", response.Currency)
	assert.Equal(t, "10.00", response.Balance)
}

func TestDeleteWallet(t *testing.T) {
	e := echo.New()
	walletRepo := testutil.NewMockWalletRepository()
	userID := uuid.New()
	walletRepo.AddWallet(&domain.Wallet{ID: 1, UserID: userID, Name: "Cash"})
	walletRepo.AddWallet(&domain.Wallet{ID: 2, UserID: uuid.New(), Name: "Other"})
	h := NewWalletHandler(service.NewWalletService(walletRepo, "INR"))

	c, rec := newWalletTestContext(e, http.MethodDelete, "/api/v1/wallets/1", "", userID)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.DeleteWallet(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c, rec = newWalletTestContext(e, http.MethodDelete, "/api/v1/wallets/2", "", userID)
	c.SetParamNames("id")
	c.SetParamValues("2")
	require.NoError(t, h.DeleteWallet(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
