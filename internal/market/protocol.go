package market

import (
	"fmt"
	"math/big"
	"time"

	"nftmarket/internal/authority"
	"nftmarket/internal/domain"

	"github.com/ethereum/go-ethereum/common"
)

// Marketplace orchestrates the listing/purchase protocol. It holds no
// custody: assets stay with sellers until settlement, funds move directly
// buyer to seller, and only the native listing fee accumulates here.
//
// All methods mutate a single serialized state; the engine guarantees no two
// calls ever interleave.
type Marketplace struct {
	address  common.Address // spender identity for delegated transfers
	owner    common.Address
	fee      *big.Int // fixed listing fee in native base units
	verifier *authority.Verifier
	tokens   domain.TokenResolver
	listings *ListingRegistry
	sink     *FeeSink

	// Now supplies the ledger clock for rental expiry. Tests override it.
	Now func() int64
}

// NewMarketplace wires a marketplace with its fixed configuration: its own
// ledger address, the fee-withdrawing owner, the listing fee constant, the
// trusted-authority verifier and the contract resolver.
func NewMarketplace(address, owner common.Address, listingFee *big.Int, verifier *authority.Verifier, tokens domain.TokenResolver) *Marketplace {
	return &Marketplace{
		address:  address,
		owner:    owner,
		fee:      new(big.Int).Set(listingFee),
		verifier: verifier,
		tokens:   tokens,
		listings: NewListingRegistry(),
		sink:     NewFeeSink(),
		Now:      func() int64 { return time.Now().Unix() },
	}
}

func (m *Marketplace) Address() common.Address { return m.address }
func (m *Marketplace) ListingFee() *big.Int    { return new(big.Int).Set(m.fee) }

// ListRequest carries the terms of a list call. Value is the attached native
// amount paying the listing fee.
type ListRequest struct {
	Contract     common.Address
	TokenID      uint64
	PaymentToken common.Address
	Price        *big.Int
	Signature    []byte
	Value        *big.Int
}

// List publishes an asset for sale. Precondition order is fixed and each
// failure is its own reason: fee, ownership, price, authorization, state.
// The whole attached value is retained; overpayment is not refunded.
func (m *Marketplace) List(caller common.Address, req ListRequest) error {
	if req.Value == nil || req.Value.Cmp(m.fee) < 0 {
		return domain.ErrInsufficientListingFee
	}

	asset, err := m.tokens.Asset(req.Contract)
	if err != nil {
		return err
	}
	owner, err := asset.OwnerOf(req.TokenID)
	if err != nil || owner != caller {
		return domain.ErrNotAssetOwner
	}

	if req.Price == nil || req.Price.Sign() <= 0 {
		return domain.ErrZeroPrice
	}

	if !m.verifier.Verify(caller, req.Contract, req.TokenID, req.Signature) {
		return domain.ErrInvalidAuthorization
	}

	if _, err := m.tokens.Fungible(req.PaymentToken); err != nil {
		return err
	}

	key := domain.ListingKey{Contract: req.Contract, TokenID: req.TokenID}
	if err := m.listings.Create(key, domain.Listing{
		Seller:       caller,
		PaymentToken: req.PaymentToken,
		Price:        new(big.Int).Set(req.Price),
	}); err != nil {
		return err
	}

	m.sink.Credit(req.Value)
	return nil
}

// Sale is the committed effect of a successful purchase.
type Sale struct {
	Key          domain.ListingKey
	Seller       common.Address
	Buyer        common.Address
	PaymentToken common.Address
	Price        *big.Int
}

// Buy settles a purchase atomically: payment buyer->seller, asset
// seller->buyer, listing cleared. If the asset leg fails after the payment
// leg, the payment is compensated back before the error returns, so no
// partial state is ever observable.
func (m *Marketplace) Buy(caller common.Address, contract common.Address, tokenID uint64) (*Sale, error) {
	key := domain.ListingKey{Contract: contract, TokenID: tokenID}
	listing, ok := m.listings.Get(key)
	if !ok {
		return nil, domain.ErrNotListed
	}
	if caller == listing.Seller {
		return nil, domain.ErrSelfPurchase
	}

	asset, err := m.tokens.Asset(contract)
	if err != nil {
		return nil, err
	}

	if err := m.settle(caller, listing, func() error {
		return asset.TransferFrom(m.address, listing.Seller, caller, tokenID)
	}); err != nil {
		return nil, err
	}

	// Cannot fail: the listing was read active above and nothing interleaves.
	if err := m.listings.Clear(key); err != nil {
		return nil, fmt.Errorf("clearing sold listing: %w", err)
	}

	return &Sale{
		Key:          key,
		Seller:       listing.Seller,
		Buyer:        caller,
		PaymentToken: listing.PaymentToken,
		Price:        listing.Price,
	}, nil
}

// Rental is the committed effect of a successful rental purchase.
type Rental struct {
	Key          domain.ListingKey
	Seller       common.Address
	Renter       common.Address
	PaymentToken common.Address
	Price        *big.Int
	Expires      int64
	Amount       uint64
}

// Rent settles a rental purchase: same preconditions, payment leg and state
// transition as Buy, but the asset leg grants time-bounded usage rights
// instead of transferring ownership. The listing clears like any purchase;
// the seller re-lists to take further renters, and on semi-fungible assets
// the resulting records accumulate. Amount is 1 for plain rentable NFTs, a
// unit count for semi-fungible ones.
func (m *Marketplace) Rent(caller common.Address, contract common.Address, tokenID uint64, duration time.Duration, amount uint64) (*Rental, error) {
	key := domain.ListingKey{Contract: contract, TokenID: tokenID}
	listing, ok := m.listings.Get(key)
	if !ok {
		return nil, domain.ErrNotListed
	}
	if caller == listing.Seller {
		return nil, domain.ErrSelfPurchase
	}
	// Expiry is second-granular; anything shorter would be born expired.
	if duration < time.Second || amount == 0 {
		return nil, domain.ErrInvalidRental
	}

	asset, err := m.tokens.Asset(contract)
	if err != nil {
		return nil, err
	}
	rentable, ok := asset.(domain.RentableLedger)
	if !ok {
		return nil, domain.ErrNotRentable
	}

	expires := m.Now() + int64(duration/time.Second)
	if err := m.settle(caller, listing, func() error {
		return rentable.GrantUse(m.address, listing.Seller, caller, tokenID, expires, amount)
	}); err != nil {
		return nil, err
	}

	if err := m.listings.Clear(key); err != nil {
		return nil, fmt.Errorf("clearing rented listing: %w", err)
	}

	return &Rental{
		Key:          key,
		Seller:       listing.Seller,
		Renter:       caller,
		PaymentToken: listing.PaymentToken,
		Price:        listing.Price,
		Expires:      expires,
		Amount:       amount,
	}, nil
}

// settle runs the two transfer legs as one all-or-nothing unit. The payment
// moves first; if the asset leg then rejects, the payment is returned by a
// compensating transfer issued on the recipient's behalf (the host executes
// both legs inside one serialized call, so the compensation cannot race).
func (m *Marketplace) settle(buyer common.Address, listing domain.Listing, assetLeg func() error) error {
	payment, err := m.tokens.Fungible(listing.PaymentToken)
	if err != nil {
		return err
	}

	if err := payment.TransferFrom(m.address, buyer, listing.Seller, listing.Price); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPaymentTransferFailed, err)
	}

	if err := assetLeg(); err != nil {
		if compErr := payment.TransferFrom(listing.Seller, listing.Seller, buyer, listing.Price); compErr != nil {
			// The seller just received exactly this amount; a failing
			// compensation means the ledger itself is broken.
			panic(fmt.Sprintf("SETTLEMENT_COMPENSATION_FAILED: %v", compErr))
		}
		return fmt.Errorf("%w: %w", domain.ErrAssetTransferFailed, err)
	}
	return nil
}

// Delist cancels an active listing. Only the recorded seller may do so.
func (m *Marketplace) Delist(caller common.Address, contract common.Address, tokenID uint64) error {
	key := domain.ListingKey{Contract: contract, TokenID: tokenID}
	listing, ok := m.listings.Get(key)
	if !ok {
		return domain.ErrNotListed
	}
	if caller != listing.Seller {
		return domain.ErrNotSeller
	}
	return m.listings.Clear(key)
}

// WithdrawFees drains the fee sink to the owner. Returns the drained amount.
func (m *Marketplace) WithdrawFees(caller common.Address) (*big.Int, error) {
	if caller != m.owner {
		return nil, domain.ErrNotOwner
	}
	return m.sink.Drain(), nil
}

// GetListing returns the active listing snapshot for (contract, tokenID).
func (m *Marketplace) GetListing(contract common.Address, tokenID uint64) (domain.Listing, bool) {
	return m.listings.Get(domain.ListingKey{Contract: contract, TokenID: tokenID})
}

// ActiveListings returns every active listing, deterministically ordered.
func (m *Marketplace) ActiveListings() []ActiveEntry {
	return m.listings.Active()
}

// FeeBalance returns the native currency held by the fee sink.
func (m *Marketplace) FeeBalance() *big.Int {
	return m.sink.Balance()
}
