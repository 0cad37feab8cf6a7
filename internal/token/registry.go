package token

import (
	"nftmarket/internal/domain"

	"github.com/ethereum/go-ethereum/common"
)

// Registry resolves on-ledger addresses to the registered contract instances.
// Registration happens once at bootstrap; lookups are the hot side.
type Registry struct {
	fungibles map[common.Address]domain.FungibleToken
	assets    map[common.Address]domain.AssetLedger
}

// NewRegistry creates an empty contract registry.
func NewRegistry() *Registry {
	return &Registry{
		fungibles: make(map[common.Address]domain.FungibleToken),
		assets:    make(map[common.Address]domain.AssetLedger),
	}
}

// RegisterFungible makes a payment token resolvable at addr.
func (r *Registry) RegisterFungible(addr common.Address, t domain.FungibleToken) {
	r.fungibles[addr] = t
}

// RegisterAsset makes an asset contract resolvable at addr. Rentable ledgers
// register here too; the protocol type-asserts the usable-holder surface.
func (r *Registry) RegisterAsset(addr common.Address, a domain.AssetLedger) {
	r.assets[addr] = a
}

// Fungible implements domain.TokenResolver.
func (r *Registry) Fungible(addr common.Address) (domain.FungibleToken, error) {
	t, ok := r.fungibles[addr]
	if !ok {
		return nil, domain.ErrUnknownContract
	}
	return t, nil
}

// Asset implements domain.TokenResolver.
func (r *Registry) Asset(addr common.Address) (domain.AssetLedger, error) {
	a, ok := r.assets[addr]
	if !ok {
		return nil, domain.ErrUnknownContract
	}
	return a, nil
}

var _ domain.TokenResolver = (*Registry)(nil)
