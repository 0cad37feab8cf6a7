package domain

import "errors"

// Every rejection below is terminal for the call that triggered it: the
// marketplace never retries on its own, and a rejected call leaves no state
// behind. Callers resubmit once they have fixed the triggering condition.
var (
	// ErrInsufficientListingFee is returned when the native amount attached to
	// a list call is below the fixed listing fee.
	ErrInsufficientListingFee = errors.New("marketplace: listing fee below minimum")

	// ErrNotAssetOwner is returned when the lister does not currently own the
	// asset according to the asset contract.
	ErrNotAssetOwner = errors.New("marketplace: caller does not own this asset")

	// ErrZeroPrice is returned when a listing is submitted with price 0.
	ErrZeroPrice = errors.New("marketplace: cannot list an asset for free")

	// ErrInvalidAuthorization is returned when the attached signature does not
	// recover to the trusted authority for the (wallet, contract, token) triple.
	ErrInvalidAuthorization = errors.New("marketplace: authorization signature invalid")

	// ErrAlreadyListed is returned when an active listing already exists for the key.
	ErrAlreadyListed = errors.New("marketplace: asset is already listed")

	// ErrNotListed is returned when a purchase or delisting targets a key with
	// no active listing.
	ErrNotListed = errors.New("marketplace: asset is not listed")

	// ErrSelfPurchase is returned when the buyer is the recorded seller.
	ErrSelfPurchase = errors.New("marketplace: cannot buy your own listing")

	// ErrNotSeller is returned when someone other than the recorded seller
	// tries to delist.
	ErrNotSeller = errors.New("marketplace: only the seller can delist")

	// ErrNotOwner is returned when a non-owner tries to withdraw collected fees.
	ErrNotOwner = errors.New("marketplace: only the owner can withdraw fees")

	// ErrPaymentTransferFailed wraps a payment-token transfer rejection
	// (insufficient balance or allowance). The whole purchase is rolled back.
	ErrPaymentTransferFailed = errors.New("marketplace: payment transfer failed")

	// ErrAssetTransferFailed wraps an asset transfer rejection (missing
	// approval). The whole purchase is rolled back, payment included.
	ErrAssetTransferFailed = errors.New("marketplace: asset transfer failed")

	// ErrUnknownContract is returned when an address does not resolve to a
	// registered token contract.
	ErrUnknownContract = errors.New("marketplace: unknown token contract")

	// ErrNotRentable is returned when a rental settlement targets an asset
	// contract without a usable-holder role.
	ErrNotRentable = errors.New("marketplace: asset does not support usage rights")

	// ErrInvalidRental is returned for a rental duration under one second or
	// a zero quantity.
	ErrInvalidRental = errors.New("marketplace: invalid rental terms")
)

// Token ledger rejections. The marketplace maps these onto the transfer-failed
// sentinels above when they surface mid-settlement.
var (
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrNotApproved           = errors.New("token: caller not approved")
	ErrUnknownToken          = errors.New("token: token does not exist")
	ErrTokenExists           = errors.New("token: token already minted")
)

// IsRejection reports whether err is one of the marketplace's user-visible
// rejection reasons, as opposed to an internal failure.
func IsRejection(err error) bool {
	for _, sentinel := range []error{
		ErrInsufficientListingFee, ErrNotAssetOwner, ErrZeroPrice,
		ErrInvalidAuthorization, ErrAlreadyListed, ErrNotListed,
		ErrSelfPurchase, ErrNotSeller, ErrNotOwner,
		ErrPaymentTransferFailed, ErrAssetTransferFailed,
		ErrUnknownContract, ErrNotRentable, ErrInvalidRental,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
