package model

import "fmt"

// TransactionType is the tagged variant that decides which way credits flow.
// The sign logic lives here, in exactly one place; the wallet and ledger
// stores only ever see signed deltas.
type TransactionType string

const (
	TransactionTopup TransactionType = "TOPUP"
	TransactionBonus TransactionType = "BONUS"
	TransactionSpend TransactionType = "SPEND"
)

// ParseTransactionType accepts the exact enum values and nothing else.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(s) {
	case TransactionTopup, TransactionBonus, TransactionSpend:
		return TransactionType(s), nil
	}
	return "", fmt.Errorf("unknown transaction_type %q", s)
}

// Deltas returns the signed (user, treasury) balance deltas for a positive
// amount. TOPUP and BONUS credit the user from the treasury; SPEND debits
// the user back into it. The two deltas always sum to zero.
func (t TransactionType) Deltas(amount int64) (userDelta, treasuryDelta int64) {
	if t == TransactionSpend {
		return -amount, amount
	}
	return amount, -amount
}

func (t TransactionType) String() string { return string(t) }
