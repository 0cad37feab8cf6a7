package service

import (
	"context"
	"math/big"
	"testing"

	"nftmarket/internal/authority"
	"nftmarket/internal/engine"
	"nftmarket/internal/event"
	"nftmarket/internal/market"
	"nftmarket/internal/token"

	"github.com/ethereum/go-ethereum/common"
)

var (
	mktAddr   = common.HexToAddress("0x0000000000000000000000000000000000008000")
	ownerAddr = common.HexToAddress("0x0000000000000000000000000000000000008001")
	payAddr   = common.HexToAddress("0x0000000000000000000000000000000000008002")
	nftAddr   = common.HexToAddress("0x0000000000000000000000000000000000008003")
	seller    = common.HexToAddress("0x0000000000000000000000000000000000000501")
)

// oneEther is 1e18 base units.
var oneEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func newServiceFixture(t *testing.T) (*MarketService, func(price *big.Int)) {
	t.Helper()

	signer, err := authority.GenerateSigner()
	if err != nil {
		t.Fatalf("GenerateSigner failed: %v", err)
	}

	pay := token.NewFungible(payAddr, "PAY", 18)
	nft := token.NewNonFungible(nftAddr, "Sample Collection", "SMPL")
	reg := token.NewRegistry()
	reg.RegisterFungible(payAddr, pay)
	reg.RegisterAsset(nftAddr, nft)

	mkt := market.NewMarketplace(mktAddr, ownerAddr, oneEther, authority.NewVerifier(signer.Address()), reg)
	seq := engine.NewSequencer(16, mkt, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go seq.Run(ctx)

	svc := NewMarketService(seq, nil)
	svc.RegisterDecimals(payAddr, 18)

	var nextToken uint64
	list := func(price *big.Int) {
		t.Helper()
		id := nextToken
		nextToken++
		if err := nft.Mint(seller, id); err != nil {
			t.Fatalf("Mint failed: %v", err)
		}
		sig, err := signer.Sign(seller, nftAddr, id)
		if err != nil {
			t.Fatalf("Sign failed: %v", err)
		}
		err = seq.Submit(ctx, &event.ListCommand{
			BaseCommand:  event.NewBaseCommand(seller),
			Contract:     nftAddr,
			TokenID:      id,
			PaymentToken: payAddr,
			Price:        price,
			Signature:    sig,
			Value:        new(big.Int).Set(oneEther),
		})
		if err != nil {
			t.Fatalf("list submit failed: %v", err)
		}
	}
	return svc, list
}

func TestMarketService_DisplayPrice(t *testing.T) {
	svc, list := newServiceFixture(t)

	// 20 ether in base units displays as "20" at 18 decimals.
	list(new(big.Int).Mul(big.NewInt(20), oneEther))

	view, ok := svc.GetListing(nftAddr, 0)
	if !ok {
		t.Fatal("expected active listing")
	}
	if view.DisplayPrice.String() != "20" {
		t.Errorf("expected display price 20, got %s", view.DisplayPrice)
	}
	if view.Seller != seller {
		t.Errorf("expected seller %s, got %s", seller.Hex(), view.Seller.Hex())
	}
}

func TestMarketService_UnregisteredTokenDisplaysBaseUnits(t *testing.T) {
	svc, list := newServiceFixture(t)
	svc.decimals = map[common.Address]int{} // drop the registration

	list(big.NewInt(20))
	view, ok := svc.GetListing(nftAddr, 0)
	if !ok {
		t.Fatal("expected active listing")
	}
	if view.DisplayPrice.String() != "20" {
		t.Errorf("expected base-unit display 20, got %s", view.DisplayPrice)
	}
}

func TestMarketService_ActiveListingsAndFees(t *testing.T) {
	svc, list := newServiceFixture(t)
	list(big.NewInt(20))
	list(big.NewInt(30))

	views := svc.ActiveListings()
	if len(views) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(views))
	}
	if views[0].TokenID != 0 || views[1].TokenID != 1 {
		t.Errorf("expected token order [0 1], got [%d %d]", views[0].TokenID, views[1].TokenID)
	}

	wantFees := new(big.Int).Mul(big.NewInt(2), oneEther)
	if got := svc.FeeBalance(); got.Cmp(wantFees) != 0 {
		t.Errorf("expected fee balance %s, got %s", wantFees, got)
	}
}

func TestMarketService_NilJournal(t *testing.T) {
	svc, _ := newServiceFixture(t)

	sales, err := svc.SalesFor(nftAddr, 0)
	if err != nil || sales != nil {
		t.Errorf("expected empty history without a journal, got %v (err %v)", sales, err)
	}
	recent, err := svc.RecentSales(10)
	if err != nil || recent != nil {
		t.Errorf("expected empty recent sales without a journal, got %v (err %v)", recent, err)
	}
}
