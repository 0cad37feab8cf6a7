package token

import (
	"errors"
	"testing"

	"nftmarket/internal/domain"
)

func TestRentable_GrantAndExpiry(t *testing.T) {
	r := NewRentable(ledgerAddr, "League of Legends Token", "LLT")
	r.Mint(alice, 0)

	if err := r.GrantUse(alice, alice, bob, 0, 1000, 1); err != nil {
		t.Fatalf("GrantUse failed: %v", err)
	}

	grant, ok := r.UserOf(0, 999)
	if !ok || grant.User != bob {
		t.Errorf("expected active grant for bob, got %+v (ok=%v)", grant, ok)
	}
	if _, ok := r.UserOf(0, 1000); ok {
		t.Error("grant must lapse at the expiry timestamp")
	}
	if owner, _ := r.OwnerOf(0); owner != alice {
		t.Error("granting use must not move ownership")
	}
}

func TestRentable_GrantOverwrites(t *testing.T) {
	r := NewRentable(ledgerAddr, "League of Legends Token", "LLT")
	r.Mint(alice, 0)

	r.GrantUse(alice, alice, bob, 0, 1000, 1)
	if err := r.GrantUse(alice, alice, carol, 0, 2000, 1); err != nil {
		t.Fatalf("second GrantUse failed: %v", err)
	}
	grant, ok := r.UserOf(0, 500)
	if !ok || grant.User != carol || grant.Expires != 2000 {
		t.Errorf("expected carol's grant to replace bob's, got %+v", grant)
	}
}

func TestRentable_Authorization(t *testing.T) {
	r := NewRentable(ledgerAddr, "League of Legends Token", "LLT")
	r.Mint(alice, 0)

	if err := r.GrantUse(carol, alice, bob, 0, 1000, 1); !errors.Is(err, domain.ErrNotApproved) {
		t.Errorf("expected ErrNotApproved for stranger, got %v", err)
	}
	if err := r.GrantUse(alice, alice, bob, 0, 1000, 2); !errors.Is(err, domain.ErrNotApproved) {
		t.Errorf("expected rejection for amount != 1, got %v", err)
	}
	if err := r.GrantUse(alice, alice, bob, 99, 1000, 1); !errors.Is(err, domain.ErrUnknownToken) {
		t.Errorf("expected ErrUnknownToken, got %v", err)
	}

	// A per-token approvee can grant, same as it can transfer.
	r.Approve(alice, carol, 0)
	if err := r.GrantUse(carol, alice, bob, 0, 1000, 1); err != nil {
		t.Errorf("approvee grant failed: %v", err)
	}
}

func TestRentable_TransferClearsGrant(t *testing.T) {
	r := NewRentable(ledgerAddr, "League of Legends Token", "LLT")
	r.Mint(alice, 0)
	r.GrantUse(alice, alice, bob, 0, 1_000_000, 1)

	if err := r.TransferFrom(alice, alice, carol, 0); err != nil {
		t.Fatalf("TransferFrom failed: %v", err)
	}
	if _, ok := r.UserOf(0, 0); ok {
		t.Error("sale must reset the user role")
	}
}
