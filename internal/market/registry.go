// Package market implements the marketplace core: the keyed listing registry
// with its UNLISTED -> LISTED -> UNLISTED state machine, and the protocol
// that orchestrates listing, purchase, rental and delisting against the
// external token surfaces. Everything here is single-threaded; the engine
// serializes all calls.
package market

import (
	"sort"

	"nftmarket/internal/domain"
)

// ListingRegistry owns the Listing records, keyed by (contract, token id).
// It enforces the per-key state machine and nothing else: at most one active
// listing per key, created only when none exists, cleared exactly once.
type ListingRegistry struct {
	listings map[domain.ListingKey]domain.Listing
}

// NewListingRegistry creates an empty registry.
func NewListingRegistry() *ListingRegistry {
	return &ListingRegistry{listings: make(map[domain.ListingKey]domain.Listing)}
}

// Create transitions key from UNLISTED to LISTED.
func (r *ListingRegistry) Create(key domain.ListingKey, l domain.Listing) error {
	if existing, ok := r.listings[key]; ok && existing.Active {
		return domain.ErrAlreadyListed
	}
	l.Active = true
	r.listings[key] = l
	return nil
}

// Get returns a snapshot of the active listing for key, if any. Cleared
// listings are unreadable; the active flag is the only discriminant.
func (r *ListingRegistry) Get(key domain.ListingKey) (domain.Listing, bool) {
	l, ok := r.listings[key]
	if !ok || !l.Active {
		return domain.Listing{}, false
	}
	return l.Snapshot(), true
}

// Clear transitions key from LISTED back to UNLISTED, erasing the record.
func (r *ListingRegistry) Clear(key domain.ListingKey) error {
	l, ok := r.listings[key]
	if !ok || !l.Active {
		return domain.ErrNotListed
	}
	delete(r.listings, key)
	return nil
}

// ActiveEntry pairs a key with its listing snapshot for read-side listings.
type ActiveEntry struct {
	Key     domain.ListingKey
	Listing domain.Listing
}

// Active returns snapshots of every active listing, ordered by contract then
// token id for deterministic output.
func (r *ListingRegistry) Active() []ActiveEntry {
	entries := make([]ActiveEntry, 0, len(r.listings))
	for key, l := range r.listings {
		if !l.Active {
			continue
		}
		entries = append(entries, ActiveEntry{Key: key, Listing: l.Snapshot()})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Key, entries[j].Key
		if a.Contract != b.Contract {
			return a.Contract.Hex() < b.Contract.Hex()
		}
		return a.TokenID < b.TokenID
	})
	return entries
}

// Len returns the number of active listings.
func (r *ListingRegistry) Len() int {
	n := 0
	for _, l := range r.listings {
		if l.Active {
			n++
		}
	}
	return n
}
