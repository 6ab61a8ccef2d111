package modules

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger(t *testing.T) {
	ledger := NewLedger(nil)
	bond := LedgerKey("query", PurposeBond, bondAsset)
	reward := LedgerKey("query", PurposeReward, rewardAsset)

	require.NoError(t, ledger.Deposit(bond, 100))
	require.NoError(t, ledger.Deposit(bond, 50))
	require.NoError(t, ledger.Deposit(reward, 7))
	assert.Equal(t, ErrInvalidAmount, ledger.Deposit(bond, 0))
	assert.Equal(t, int64(150), ledger.Balance(bond))

	assert.Equal(t, ErrInsufficientFunds, ledger.Split(bond, 151))
	require.NoError(t, ledger.Split(bond, 30))
	assert.Equal(t, int64(120), ledger.Balance(bond))
	require.NoError(t, ledger.Split(bond, 120))
	assert.NotContains(t, ledger.Entries, bond)

	assert.Equal(t, int64(7), ledger.WithdrawAll(reward))
	assert.Equal(t, int64(0), ledger.WithdrawAll(reward))
	assert.Empty(t, ledger.Entries)
}

func TestLedgerOverflow(t *testing.T) {
	ledger := NewLedger(nil)
	key := LedgerKey("query", PurposeBond, bondAsset)
	require.NoError(t, ledger.Deposit(key, math.MaxInt64-1))
	require.NoError(t, ledger.Deposit(key, 1))
	assert.Equal(t, ErrBalanceOverflow, ledger.Deposit(key, 1))
	assert.Equal(t, int64(math.MaxInt64), ledger.Balance(key))
}

func TestLedgerCopy(t *testing.T) {
	ledger := NewLedger(nil)
	key := LedgerKey("query", PurposeBond, bondAsset)
	require.NoError(t, ledger.Deposit(key, 10))

	copied := NewLedger(ledger)
	copied.WithdrawAll(key)
	assert.Equal(t, int64(10), ledger.Balance(key))
	assert.Equal(t, int64(10), ledger.Total(bondAsset))
	assert.Equal(t, int64(0), ledger.Total(rewardAsset))
}
