package modules

import "math"

// Bank keeps the spendable balances of every address, per asset, and the
// transaction nonce of every address.
type Bank struct {
	Accounts map[string]map[string]int64
	Nonces   map[string]uint64
}

func NewBank(oldBank *Bank) *Bank {
	bank := &Bank{
		Accounts: make(map[string]map[string]int64),
		Nonces:   make(map[string]uint64),
	}
	if oldBank == nil {
		return bank
	}
	for address, coins := range oldBank.Accounts {
		account := make(map[string]int64, len(coins))
		for asset, amount := range coins {
			account[asset] = amount
		}
		bank.Accounts[address] = account
	}
	for address, nonce := range oldBank.Nonces {
		bank.Nonces[address] = nonce
	}
	return bank
}

func (bank *Bank) Balance(address, asset string) int64 {
	return bank.Accounts[address][asset]
}

// Account returns a copy of every balance held by address.
func (bank *Bank) Account(address string) map[string]int64 {
	account := make(map[string]int64)
	for asset, amount := range bank.Accounts[address] {
		account[asset] = amount
	}
	return account
}

func (bank *Bank) Credit(address string, coin Coin) error {
	if address == "" {
		return ErrInvalidAddress
	}
	if coin.Amount < 0 {
		return ErrInvalidAmount
	}
	if coin.Amount == 0 {
		return nil
	}
	account, ok := bank.Accounts[address]
	if !ok {
		account = make(map[string]int64)
		bank.Accounts[address] = account
	}
	if account[coin.Asset] > math.MaxInt64-coin.Amount {
		return ErrBalanceOverflow
	}
	account[coin.Asset] += coin.Amount
	return nil
}

func (bank *Bank) Debit(address string, coin Coin) error {
	if coin.Amount <= 0 {
		return ErrInvalidAmount
	}
	account := bank.Accounts[address]
	if account[coin.Asset] < coin.Amount {
		return ErrInsufficientFunds
	}
	account[coin.Asset] -= coin.Amount
	if account[coin.Asset] == 0 {
		delete(account, coin.Asset)
	}
	if len(account) == 0 {
		delete(bank.Accounts, address)
	}
	return nil
}

func (bank *Bank) Transfer(sender, receiver string, coin Coin) error {
	if receiver == "" {
		return ErrInvalidAddress
	}
	if err := bank.Debit(sender, coin); err != nil {
		return err
	}
	return bank.Credit(receiver, coin)
}

func (bank *Bank) Nonce(address string) uint64 {
	return bank.Nonces[address]
}

func (bank *Bank) IncrementNonce(address string) {
	bank.Nonces[address]++
}

// Total sums the balances of asset across every account.
func (bank *Bank) Total(asset string) int64 {
	var total int64
	for _, account := range bank.Accounts {
		total += account[asset]
	}
	return total
}
