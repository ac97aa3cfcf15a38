package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletd/internal/model"
)

type fakeSource struct {
	balances map[int64]int64
	sums     map[int64]int64
}

func (f *fakeSource) BalanceAndSum(ctx context.Context, walletID int64) (int64, int64, error) {
	return f.balances[walletID], f.sums[walletID], nil
}

func TestAuditor_CleanLedger(t *testing.T) {
	src := &fakeSource{
		balances: map[int64]int64{1: 150, 2: 999_950},
		sums:     map[int64]int64{1: 150, 2: 999_950},
	}
	a := NewAuditor(src, nil)

	err := a.Audit(context.Background(), model.TransactionEvent{
		TxID:             "tx-1",
		UserWalletID:     1,
		TreasuryWalletID: 2,
	})
	assert.NoError(t, err)
}

func TestAuditor_DetectsDrift(t *testing.T) {
	src := &fakeSource{
		balances: map[int64]int64{1: 150, 2: 999_950},
		sums:     map[int64]int64{1: 140, 2: 999_950},
	}
	a := NewAuditor(src, nil)

	err := a.Audit(context.Background(), model.TransactionEvent{
		TxID:             "tx-1",
		UserWalletID:     1,
		TreasuryWalletID: 2,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drifted")
}

func TestAuditor_TreasuryMayGoNegative(t *testing.T) {
	// A negative treasury balance is not drift as long as it matches the sum.
	src := &fakeSource{
		balances: map[int64]int64{1: 500, 2: -500},
		sums:     map[int64]int64{1: 500, 2: -500},
	}
	a := NewAuditor(src, nil)

	err := a.Audit(context.Background(), model.TransactionEvent{
		TxID:             "tx-1",
		UserWalletID:     1,
		TreasuryWalletID: 2,
	})
	assert.NoError(t, err)
}

func TestTransactionEvent_RoundTrip(t *testing.T) {
	event := model.TransactionEvent{
		TxID:             "3f1d6f2e-90ab-4bcd-9e21-000000000001",
		UserID:           "user_123",
		AssetCode:        "GOLD_COIN",
		UserWalletID:     4,
		TreasuryWalletID: 1,
		Amount:           50,
		TransactionType:  "TOPUP",
		CreatedAt:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var got model.TransactionEvent
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, event, got)
}
