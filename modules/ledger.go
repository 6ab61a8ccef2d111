package modules

import (
	"math"
	"math/big"
	"strings"
)

const BpsDenominator = 10000

// Coin is an amount of a single asset.
type Coin struct {
	Asset  string
	Amount int64
}

// MulBps returns amount * bps / 10000 rounded down.
func MulBps(amount, bps int64) int64 {
	product := new(big.Int).Mul(big.NewInt(amount), big.NewInt(bps))
	return product.Quo(product, big.NewInt(BpsDenominator)).Int64()
}

type Purpose string

const (
	PurposeBond   Purpose = "bond"
	PurposeReward Purpose = "reward"
	PurposeFee    Purpose = "fee"
)

// LedgerKey scopes a balance cell: the owner is a query id for bonds and
// rewards and a resolver identity for collected fees.
func LedgerKey(owner string, purpose Purpose, asset string) string {
	return strings.Join([]string{owner, string(purpose), asset}, "|")
}

// Ledger holds the value custodied by the oracle. A cell exists only while
// its balance is positive.
type Ledger struct {
	Entries map[string]int64
}

func NewLedger(old *Ledger) *Ledger {
	ledger := &Ledger{Entries: make(map[string]int64)}
	if old == nil {
		return ledger
	}
	for key, amount := range old.Entries {
		ledger.Entries[key] = amount
	}
	return ledger
}

func (ledger *Ledger) Balance(key string) int64 {
	return ledger.Entries[key]
}

func (ledger *Ledger) Deposit(key string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if ledger.Entries[key] > math.MaxInt64-amount {
		return ErrBalanceOverflow
	}
	ledger.Entries[key] += amount
	return nil
}

// WithdrawAll drains the cell and removes it.
func (ledger *Ledger) WithdrawAll(key string) int64 {
	amount := ledger.Entries[key]
	delete(ledger.Entries, key)
	return amount
}

// Split removes exactly amount from the cell, leaving the remainder.
func (ledger *Ledger) Split(key string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	balance := ledger.Entries[key]
	if amount > balance {
		return ErrInsufficientFunds
	}
	if amount == balance {
		delete(ledger.Entries, key)
		return nil
	}
	ledger.Entries[key] = balance - amount
	return nil
}

// Total sums every cell holding asset.
func (ledger *Ledger) Total(asset string) int64 {
	var total int64
	suffix := "|" + asset
	for key, amount := range ledger.Entries {
		if strings.HasSuffix(key, suffix) {
			total += amount
		}
	}
	return total
}
