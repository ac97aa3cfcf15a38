package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletd/internal/model"
	"walletd/internal/repository"
)

// mockService scripts the engine's outcomes per test.
type mockService struct {
	transactPayload []byte
	transactErr     error
	lastCmd         model.TransactCommand
	balance         *model.BalanceResponse
	balanceErr      error
	transactions    *model.TransactionsResponse
	transactionsErr error
}

func (m *mockService) Transact(ctx context.Context, cmd model.TransactCommand) ([]byte, error) {
	m.lastCmd = cmd
	return m.transactPayload, m.transactErr
}

func (m *mockService) Balance(ctx context.Context, userID, assetCode string) (*model.BalanceResponse, error) {
	return m.balance, m.balanceErr
}

func (m *mockService) Transactions(ctx context.Context, userID, assetCode string) (*model.TransactionsResponse, error) {
	return m.transactions, m.transactionsErr
}

func newTestMux(svc *mockService) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(svc).Register(mux)
	return mux
}

func doTransact(t *testing.T, mux *http.ServeMux, body string, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/transact", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

const validBody = `{"user_id":"user_123","amount":50,"transaction_type":"TOPUP","asset_code":"gold_coin"}`

func TestTransact_Success(t *testing.T) {
	payload := []byte(`{"tx_id":"abc","user_id":"user_123","transaction_type":"TOPUP","amount":50,"new_balance":150,"asset_type_id":1,"asset_code":"GOLD_COIN"}`)
	svc := &mockService{transactPayload: payload}
	mux := newTestMux(svc)

	rec := doTransact(t, mux, validBody, "K1")

	require.Equal(t, http.StatusOK, rec.Code)
	// The stored payload must pass through byte for byte.
	assert.Equal(t, payload, rec.Body.Bytes())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	// The handler normalized before calling the service.
	assert.Equal(t, "GOLD_COIN", svc.lastCmd.AssetCode)
	assert.Equal(t, model.TransactionTopup, svc.lastCmd.Type)
	assert.Equal(t, "K1", svc.lastCmd.IdempotencyKey)
	assert.Equal(t, model.RequestHash("user_123", 50, model.TransactionTopup, "GOLD_COIN"), svc.lastCmd.RequestHash)
}

func TestTransact_MissingIdempotencyKey(t *testing.T) {
	mux := newTestMux(&mockService{})
	rec := doTransact(t, mux, validBody, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransact_ReservedUser(t *testing.T) {
	mux := newTestMux(&mockService{})
	body := `{"user_id":"SYSTEM_TREASURY","amount":50,"transaction_type":"TOPUP","asset_code":"GOLD_COIN"}`
	rec := doTransact(t, mux, body, "K1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransact_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"user_id":`},
		{"non-integer amount", `{"user_id":"u","amount":1.5,"transaction_type":"TOPUP","asset_code":"X"}`},
		{"zero amount", `{"user_id":"u","amount":0,"transaction_type":"TOPUP","asset_code":"X"}`},
		{"negative amount", `{"user_id":"u","amount":-3,"transaction_type":"SPEND","asset_code":"X"}`},
		{"missing user_id", `{"amount":5,"transaction_type":"TOPUP","asset_code":"X"}`},
		{"bad enum", `{"user_id":"u","amount":5,"transaction_type":"TRANSFER","asset_code":"X"}`},
		{"blank asset_code", `{"user_id":"u","amount":5,"transaction_type":"TOPUP","asset_code":"  "}`},
	}

	mux := newTestMux(&mockService{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doTransact(t, mux, tt.body, "K1")
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestTransact_ServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"asset not found", repository.ErrAssetNotFound, http.StatusNotFound},
		{"wallet not found", repository.ErrWalletNotFound, http.StatusNotFound},
		{"insufficient funds", repository.ErrInsufficientFunds, http.StatusBadRequest},
		{"idempotency conflict", repository.ErrIdempotencyConflict, http.StatusConflict},
		{"lock timeout", repository.ErrLockTimeout, http.StatusServiceUnavailable},
		{"broken idempotency invariant", repository.ErrIdempotencyRaceLost, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(&mockService{transactErr: tt.err})
			rec := doTransact(t, mux, validBody, "K1")
			assert.Equal(t, tt.want, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestBalance(t *testing.T) {
	svc := &mockService{balance: &model.BalanceResponse{
		UserID:      "user_123",
		Balance:     150,
		AssetTypeID: 1,
		AssetCode:   "GOLD_COIN",
	}}
	mux := newTestMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/balance/user_123?asset_code=gold_coin", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got model.BalanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(150), got.Balance)
	assert.Equal(t, "GOLD_COIN", got.AssetCode)
}

func TestBalance_MissingAssetCode(t *testing.T) {
	mux := newTestMux(&mockService{})
	req := httptest.NewRequest(http.MethodGet, "/balance/user_123", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBalance_NotFound(t *testing.T) {
	mux := newTestMux(&mockService{balanceErr: repository.ErrWalletNotFound})
	req := httptest.NewRequest(http.MethodGet, "/balance/user_999?asset_code=GOLD_COIN", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactions(t *testing.T) {
	svc := &mockService{transactions: &model.TransactionsResponse{
		UserID:         "user_123",
		AssetCode:      "GOLD_COIN",
		AssetTypeID:    1,
		CurrentBalance: 150,
		Transactions: []model.TransactionView{
			{TransactionID: "tx-2", Amount: 50, Type: "TOPUP"},
			{TransactionID: "tx-1", Amount: -30, Type: "SPEND"},
		},
	}}
	mux := newTestMux(svc)

	req := httptest.NewRequest(http.MethodGet, "/transactions/user_123?asset_code=GOLD_COIN", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got model.TransactionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Transactions, 2)
	assert.Equal(t, "tx-2", got.Transactions[0].TransactionID)
	assert.Equal(t, int64(150), got.CurrentBalance)
}

func TestHealth(t *testing.T) {
	mux := newTestMux(&mockService{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRoot(t *testing.T) {
	mux := newTestMux(&mockService{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "walletd", body["service"])
}
