// Package authority verifies the off-chain listing attestations. A trusted
// authority signs the keccak256 hash of the ABI-encoded triple
// (wallet, asset contract, token id); the marketplace accepts a listing only
// if the attached signature recovers to the authority's address. The
// signature proves vetting, not ownership; ownership is re-checked
// on-ledger at call time.
package authority

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the raw [R || S || V] signature size.
const SignatureLength = 65

// MessageHash returns keccak256(abi.encode(wallet, contract, tokenID)):
// two addresses and a uint256, each left-padded to 32 bytes.
func MessageHash(wallet, contract common.Address, tokenID uint64) []byte {
	buf := make([]byte, 0, 96)
	buf = append(buf, common.LeftPadBytes(wallet.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(contract.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(new(big.Int).SetUint64(tokenID).Bytes(), 32)...)
	return crypto.Keccak256(buf)
}

// Verifier checks attestations against a fixed authority address.
// The address is injected at construction and never changes.
type Verifier struct {
	authority common.Address
}

// NewVerifier creates a Verifier trusting the given authority address.
func NewVerifier(authority common.Address) *Verifier {
	return &Verifier{authority: authority}
}

// Authority returns the trusted signer address.
func (v *Verifier) Authority() common.Address {
	return v.authority
}

// Verify reports whether sig is the authority's signature over the
// (wallet, contract, tokenID) triple. Fails closed: any malformed signature
// is simply not valid.
func (v *Verifier) Verify(wallet, contract common.Address, tokenID uint64, sig []byte) bool {
	if len(sig) != SignatureLength {
		return false
	}

	// Accept both recovery id conventions: raw 0/1 and Ethereum's 27/28.
	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	if normalized[64] > 1 {
		return false
	}

	pub, err := crypto.SigToPub(MessageHash(wallet, contract, tokenID), normalized)
	if err != nil {
		return false
	}
	return crypto.PubkeyToAddress(*pub) == v.authority
}
