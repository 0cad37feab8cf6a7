// Package token provides in-process reference implementations of the external
// contract surfaces the marketplace settles against: a fungible payment
// ledger, a non-fungible ownership ledger, and the rentable variants with a
// usable-holder role. The marketplace only ever sees them through the domain
// interfaces.
package token

import (
	"math/big"

	"nftmarket/internal/domain"

	"github.com/ethereum/go-ethereum/common"
)

// Fungible is an ERC-20 shaped balance ledger with delegated transfers.
type Fungible struct {
	address  common.Address
	symbol   string
	decimals int

	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
}

// NewFungible creates an empty fungible ledger at the given address.
func NewFungible(address common.Address, symbol string, decimals int) *Fungible {
	return &Fungible{
		address:    address,
		symbol:     symbol,
		decimals:   decimals,
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

func (f *Fungible) Address() common.Address { return f.address }
func (f *Fungible) Symbol() string          { return f.symbol }
func (f *Fungible) Decimals() int           { return f.decimals }

// Mint credits freshly created units to `to`.
func (f *Fungible) Mint(to common.Address, amount *big.Int) {
	f.balances[to] = new(big.Int).Add(f.balanceOf(to), amount)
}

// BalanceOf returns a copy of the current balance.
func (f *Fungible) BalanceOf(owner common.Address) *big.Int {
	return new(big.Int).Set(f.balanceOf(owner))
}

func (f *Fungible) balanceOf(owner common.Address) *big.Int {
	if b, ok := f.balances[owner]; ok {
		return b
	}
	return big.NewInt(0)
}

// Approve lets spender move up to amount on behalf of owner.
func (f *Fungible) Approve(owner, spender common.Address, amount *big.Int) {
	book, ok := f.allowances[owner]
	if !ok {
		book = make(map[common.Address]*big.Int)
		f.allowances[owner] = book
	}
	book[spender] = new(big.Int).Set(amount)
}

// Allowance returns a copy of what spender may still move on behalf of owner.
func (f *Fungible) Allowance(owner, spender common.Address) *big.Int {
	return new(big.Int).Set(f.allowance(owner, spender))
}

func (f *Fungible) allowance(owner, spender common.Address) *big.Int {
	if book, ok := f.allowances[owner]; ok {
		if a, ok := book[spender]; ok {
			return a
		}
	}
	return big.NewInt(0)
}

// TransferFrom implements the delegated transfer: caller spends its allowance
// from `from`. Balance and allowance are both checked before anything moves.
func (f *Fungible) TransferFrom(caller, from, to common.Address, amount *big.Int) error {
	if f.balanceOf(from).Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}
	if caller != from && f.allowance(from, caller).Cmp(amount) < 0 {
		return domain.ErrInsufficientAllowance
	}

	if caller != from {
		f.allowances[from][caller] = new(big.Int).Sub(f.allowance(from, caller), amount)
	}
	f.balances[from] = new(big.Int).Sub(f.balanceOf(from), amount)
	f.balances[to] = new(big.Int).Add(f.balanceOf(to), amount)
	return nil
}

var _ domain.FungibleToken = (*Fungible)(nil)
