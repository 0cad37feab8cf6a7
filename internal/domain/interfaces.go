package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// The marketplace holds no custody. It moves balances and ownership only
// through these delegated-transfer surfaces, and only inside a purchase.
// The caller argument on every mutating method is the account executing the
// delegated transfer (normally the marketplace's own address); ledgers check
// it against their approval books.

// FungibleToken is the payment-token surface (ERC-20 shaped).
type FungibleToken interface {
	BalanceOf(owner common.Address) *big.Int
	Allowance(owner, spender common.Address) *big.Int
	// TransferFrom moves amount from `from` to `to`, spending caller's
	// allowance. Fails with ErrInsufficientBalance or ErrInsufficientAllowance.
	TransferFrom(caller, from, to common.Address, amount *big.Int) error
}

// AssetLedger is the ownership surface of a listable contract (ERC-721 shaped).
type AssetLedger interface {
	// OwnerOf returns the current owner, or ErrUnknownToken.
	OwnerOf(tokenID uint64) (common.Address, error)
	// TransferFrom moves ownership from `from` to `to`. The caller must be the
	// owner, the per-token approvee, or an approved operator; otherwise
	// ErrNotApproved.
	TransferFrom(caller, from, to common.Address, tokenID uint64) error
}

// RentableLedger is an AssetLedger with a usable-holder role distinct from
// ownership (ERC-4907 / ERC-5006 shaped). Amount is 1 for plain rentable NFTs
// and a unit count for semi-fungible assets.
type RentableLedger interface {
	AssetLedger
	// GrantUse installs a usage grant for user on tokenID until expires (unix
	// seconds). Same caller authorization rules as TransferFrom.
	GrantUse(caller, from, user common.Address, tokenID uint64, expires int64, amount uint64) error
	// UserOf returns the active grant for tokenID at the given time, if any.
	// Expired grants are simply not returned; nothing erases them eagerly.
	UserOf(tokenID uint64, now int64) (UsageGrant, bool)
}

// MetadataProvider is implemented by ledgers that expose a token image URL.
// Purely decorative; the protocol never depends on it.
type MetadataProvider interface {
	TokenImageURL(tokenID uint64) (string, bool)
}

// TokenResolver maps on-ledger addresses to registered contract instances.
type TokenResolver interface {
	Fungible(addr common.Address) (FungibleToken, error)
	Asset(addr common.Address) (AssetLedger, error)
}
