package token

import (
	"nftmarket/internal/domain"

	"github.com/ethereum/go-ethereum/common"
)

// Rentable is an ERC-4907 shaped ledger: a NonFungible plus a single
// time-bounded user per token. The user role carries no transfer rights and
// expires by timestamp comparison alone; nothing runs at expiry.
type Rentable struct {
	*NonFungible
	users map[uint64]domain.UsageGrant
}

// NewRentable creates an empty rentable NFT ledger at the given address.
func NewRentable(address common.Address, name, symbol string) *Rentable {
	return &Rentable{
		NonFungible: NewNonFungible(address, name, symbol),
		users:       make(map[uint64]domain.UsageGrant),
	}
}

// GrantUse installs user as the usable holder of tokenID until expires.
// A new grant overwrites any previous one, expired or not. The caller needs
// the same authorization as for a transfer. Amount must be 1: a plain
// rentable NFT has exactly one usable holder.
func (r *Rentable) GrantUse(caller, from, user common.Address, tokenID uint64, expires int64, amount uint64) error {
	if amount != 1 {
		return domain.ErrNotApproved
	}
	owner, ok := r.owners[tokenID]
	if !ok {
		return domain.ErrUnknownToken
	}
	if owner != from {
		return domain.ErrNotApproved
	}
	if !r.canMove(caller, owner, tokenID) {
		return domain.ErrNotApproved
	}

	r.users[tokenID] = domain.UsageGrant{User: user, Expires: expires, Amount: 1}
	return nil
}

// UserOf returns the active grant at the given unix time. Expired grants stay
// in the map but are never reported.
func (r *Rentable) UserOf(tokenID uint64, now int64) (domain.UsageGrant, bool) {
	grant, ok := r.users[tokenID]
	if !ok || grant.Expired(now) {
		return domain.UsageGrant{}, false
	}
	return grant, true
}

// TransferFrom moves ownership and clears the usage grant, matching the
// reference behavior where a sale resets the user role.
func (r *Rentable) TransferFrom(caller, from, to common.Address, tokenID uint64) error {
	if err := r.NonFungible.TransferFrom(caller, from, to, tokenID); err != nil {
		return err
	}
	delete(r.users, tokenID)
	return nil
}

var _ domain.RentableLedger = (*Rentable)(nil)
