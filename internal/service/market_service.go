package service

import (
	"math/big"

	"nftmarket/internal/domain"
	"nftmarket/internal/engine"
	"nftmarket/internal/infra/storage"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// MarketService is the read side: listing snapshots from the live engine,
// settlement history from the journal, and human-scale display prices.
// It never mutates anything.
type MarketService struct {
	seq      *engine.Sequencer
	journal  *storage.Journal
	decimals map[common.Address]int // payment token display precision
}

// NewMarketService creates a read service over the engine and journal.
// journal may be nil; history queries then return empty results.
func NewMarketService(seq *engine.Sequencer, journal *storage.Journal) *MarketService {
	return &MarketService{
		seq:      seq,
		journal:  journal,
		decimals: make(map[common.Address]int),
	}
}

// RegisterDecimals records the display precision of a payment token.
func (s *MarketService) RegisterDecimals(token common.Address, decimals int) {
	s.decimals[token] = decimals
}

// ListingView is a listing snapshot with its display price attached.
type ListingView struct {
	Contract     common.Address  `json:"contract"`
	TokenID      uint64          `json:"token_id"`
	Seller       common.Address  `json:"seller"`
	PaymentToken common.Address  `json:"payment_token"`
	Price        *big.Int        `json:"price"`
	DisplayPrice decimal.Decimal `json:"display_price"`
}

// GetListing returns the active listing for one key, if any.
func (s *MarketService) GetListing(contract common.Address, tokenID uint64) (ListingView, bool) {
	l, ok := s.seq.GetListing(contract, tokenID)
	if !ok {
		return ListingView{}, false
	}
	return s.view(contract, tokenID, l), true
}

// ActiveListings returns every active listing, ordered by contract and token.
func (s *MarketService) ActiveListings() []ListingView {
	entries := s.seq.ActiveListings()
	views := make([]ListingView, 0, len(entries))
	for _, e := range entries {
		views = append(views, s.view(e.Key.Contract, e.Key.TokenID, e.Listing))
	}
	return views
}

func (s *MarketService) view(contract common.Address, tokenID uint64, l domain.Listing) ListingView {
	return ListingView{
		Contract:     contract,
		TokenID:      tokenID,
		Seller:       l.Seller,
		PaymentToken: l.PaymentToken,
		Price:        l.Price,
		DisplayPrice: s.displayPrice(l.PaymentToken, l.Price),
	}
}

// displayPrice converts base units into token units using the registered
// precision. Unregistered tokens display at base-unit scale.
func (s *MarketService) displayPrice(token common.Address, price *big.Int) decimal.Decimal {
	exp := s.decimals[token]
	return decimal.NewFromBigInt(price, -int32(exp))
}

// FeeBalance returns the native currency held by the fee sink.
func (s *MarketService) FeeBalance() *big.Int {
	return s.seq.FeeBalance()
}

// SalesFor returns the journaled settlement history of one key, newest first.
func (s *MarketService) SalesFor(contract common.Address, tokenID uint64) ([]storage.SaleRecord, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.SalesFor(contract.Hex(), tokenID)
}

// RecentSales returns the latest journaled settlements across all keys.
func (s *MarketService) RecentSales(limit int) ([]storage.SaleRecord, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.RecentSales(limit)
}
