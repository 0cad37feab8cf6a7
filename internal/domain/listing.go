// Package domain holds the marketplace's core types, its rejection taxonomy
// and the external contract surfaces it settles against. Nothing here does
// I/O; the engine serializes all access.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ListingKey identifies one listable asset: the contract it lives on and its
// token id. At most one active listing exists per key.
type ListingKey struct {
	Contract common.Address `json:"contract"`
	TokenID  uint64         `json:"token_id"`
}

// Listing is the record of an active sale offer. The asset itself never moves
// into the listing; the seller keeps custody until settlement.
type Listing struct {
	Seller       common.Address `json:"seller"`
	PaymentToken common.Address `json:"payment_token"`
	Price        *big.Int       `json:"price"`
	Active       bool           `json:"active"`
}

// Snapshot returns a copy whose Price cannot alias the registry's record.
func (l Listing) Snapshot() Listing {
	out := l
	if l.Price != nil {
		out.Price = new(big.Int).Set(l.Price)
	}
	return out
}

// UsageGrant is a time-bounded usage right on a rentable asset. Amount is 1
// for plain rentable NFTs and a unit count for semi-fungible ones.
type UsageGrant struct {
	User    common.Address `json:"user"`
	Expires int64          `json:"expires"` // unix seconds, exclusive
	Amount  uint64         `json:"amount"`
}

// Expired reports whether the grant has lapsed at the given unix time.
func (g UsageGrant) Expired(now int64) bool {
	return now >= g.Expires
}
