package token

import (
	"nftmarket/internal/domain"

	"github.com/ethereum/go-ethereum/common"
)

// userRecord is one quantity-bounded rental. Records are never erased on
// expiry; every read re-derives what is active from the clock.
type userRecord struct {
	owner common.Address
	grant domain.UsageGrant
}

// RentableMulti is an ERC-5006 shaped semi-fungible ledger: per-id unit
// balances, an owner of record per id, and any number of simultaneous
// quantity-bounded user records. Units covered by an active record are frozen
// out of the owner's transferable balance and flow back lazily at expiry.
type RentableMulti struct {
	address common.Address
	name    string

	owners    map[uint64]common.Address
	supply    map[uint64]uint64
	balances  map[uint64]map[common.Address]uint64
	records   map[uint64][]userRecord
	operators map[common.Address]map[common.Address]bool
}

// NewRentableMulti creates an empty semi-fungible rentable ledger.
func NewRentableMulti(address common.Address, name string) *RentableMulti {
	return &RentableMulti{
		address:   address,
		name:      name,
		owners:    make(map[uint64]common.Address),
		supply:    make(map[uint64]uint64),
		balances:  make(map[uint64]map[common.Address]uint64),
		records:   make(map[uint64][]userRecord),
		operators: make(map[common.Address]map[common.Address]bool),
	}
}

func (m *RentableMulti) Address() common.Address { return m.address }
func (m *RentableMulti) Name() string            { return m.name }

// Mint issues `supply` units of a new token id to `to`, who becomes the owner
// of record for that id.
func (m *RentableMulti) Mint(to common.Address, tokenID, supply uint64) error {
	if _, exists := m.owners[tokenID]; exists {
		return domain.ErrTokenExists
	}
	m.owners[tokenID] = to
	m.supply[tokenID] = supply
	m.balances[tokenID] = map[common.Address]uint64{to: supply}
	return nil
}

// OwnerOf returns the owner of record for tokenID.
func (m *RentableMulti) OwnerOf(tokenID uint64) (common.Address, error) {
	owner, ok := m.owners[tokenID]
	if !ok {
		return common.Address{}, domain.ErrUnknownToken
	}
	return owner, nil
}

// BalanceOf returns the raw unit balance, frozen units included.
func (m *RentableMulti) BalanceOf(owner common.Address, tokenID uint64) uint64 {
	if book, ok := m.balances[tokenID]; ok {
		return book[owner]
	}
	return 0
}

// FrozenOf returns the units of owner currently locked under active records.
func (m *RentableMulti) FrozenOf(owner common.Address, tokenID uint64, now int64) uint64 {
	var frozen uint64
	for _, rec := range m.records[tokenID] {
		if rec.owner == owner && !rec.grant.Expired(now) {
			frozen += rec.grant.Amount
		}
	}
	return frozen
}

// FreeBalanceOf returns the units owner can still transfer or rent out.
func (m *RentableMulti) FreeBalanceOf(owner common.Address, tokenID uint64, now int64) uint64 {
	balance := m.BalanceOf(owner, tokenID)
	frozen := m.FrozenOf(owner, tokenID, now)
	if frozen >= balance {
		return 0
	}
	return balance - frozen
}

// UsableBalanceOf returns the units user may currently use across all active
// records for tokenID.
func (m *RentableMulti) UsableBalanceOf(user common.Address, tokenID uint64, now int64) uint64 {
	var usable uint64
	for _, rec := range m.records[tokenID] {
		if rec.grant.User == user && !rec.grant.Expired(now) {
			usable += rec.grant.Amount
		}
	}
	return usable
}

// UserRecords returns all active grants for tokenID.
func (m *RentableMulti) UserRecords(tokenID uint64, now int64) []domain.UsageGrant {
	var active []domain.UsageGrant
	for _, rec := range m.records[tokenID] {
		if !rec.grant.Expired(now) {
			active = append(active, rec.grant)
		}
	}
	return active
}

// SetApprovalForAll authorizes (or revokes) operator over every id of owner.
func (m *RentableMulti) SetApprovalForAll(owner, operator common.Address, approved bool) {
	book, ok := m.operators[owner]
	if !ok {
		book = make(map[common.Address]bool)
		m.operators[owner] = book
	}
	book[operator] = approved
}

func (m *RentableMulti) isOperator(owner, operator common.Address) bool {
	if book, ok := m.operators[owner]; ok {
		return book[operator]
	}
	return false
}

// GrantUse freezes `amount` units of `from` into a new user record for user,
// active until expires. Frozen units cannot be re-rented until the record
// lapses; an ownership transfer carries them along still frozen.
func (m *RentableMulti) GrantUse(caller, from, user common.Address, tokenID uint64, expires int64, amount uint64) error {
	if _, ok := m.owners[tokenID]; !ok {
		return domain.ErrUnknownToken
	}
	if caller != from && !m.isOperator(from, caller) {
		return domain.ErrNotApproved
	}
	// The ledger has no clock; count every existing record as frozen
	// (now = 0 expires nothing), which can only under-report free balance.
	if amount == 0 || m.FreeBalanceOf(from, tokenID, 0) < amount {
		return domain.ErrInsufficientBalance
	}

	m.records[tokenID] = append(m.records[tokenID], userRecord{
		owner: from,
		grant: domain.UsageGrant{User: user, Expires: expires, Amount: amount},
	})
	return nil
}

// UserOf returns the most recently created active grant, satisfying the
// single-user surface. Semi-fungible callers use UserRecords instead.
func (m *RentableMulti) UserOf(tokenID uint64, now int64) (domain.UsageGrant, bool) {
	recs := m.records[tokenID]
	for i := len(recs) - 1; i >= 0; i-- {
		if !recs[i].grant.Expired(now) {
			return recs[i].grant, true
		}
	}
	return domain.UsageGrant{}, false
}

// TransferFrom hands the owner-of-record role and the owner's raw balance to
// `to`. Active records move with the balance that backs them, so their units
// stay frozen under the new owner; the receiver inherits the outstanding
// grants and can only rent out what is actually free.
func (m *RentableMulti) TransferFrom(caller, from, to common.Address, tokenID uint64) error {
	owner, ok := m.owners[tokenID]
	if !ok {
		return domain.ErrUnknownToken
	}
	if owner != from {
		return domain.ErrNotApproved
	}
	if caller != from && !m.isOperator(from, caller) {
		return domain.ErrNotApproved
	}

	book := m.balances[tokenID]
	book[to] += book[from]
	delete(book, from)
	m.owners[tokenID] = to

	recs := m.records[tokenID]
	for i := range recs {
		if recs[i].owner == from {
			recs[i].owner = to
		}
	}
	return nil
}

var _ domain.RentableLedger = (*RentableMulti)(nil)
