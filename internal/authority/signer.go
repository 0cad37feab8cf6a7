package authority

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer is the authority's signing side. In production the key lives with
// the off-chain vetting service; here it backs that service and the tests.
type Signer struct {
	key *ecdsa.PrivateKey
}

// NewSigner parses a hex-encoded secp256k1 private key.
func NewSigner(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("authority: invalid private key: %w", err)
	}
	return &Signer{key: key}, nil
}

// GenerateSigner creates a Signer with a fresh random key.
func GenerateSigner() (*Signer, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("authority: key generation failed: %w", err)
	}
	return &Signer{key: key}, nil
}

// Address returns the address attestations from this signer recover to.
func (s *Signer) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// Sign attests that wallet has been vetted to list tokenID of contract.
// Returns a 65-byte [R || S || V] signature with V in {27, 28}.
func (s *Signer) Sign(wallet, contract common.Address, tokenID uint64) ([]byte, error) {
	sig, err := crypto.Sign(MessageHash(wallet, contract, tokenID), s.key)
	if err != nil {
		return nil, fmt.Errorf("authority: signing failed: %w", err)
	}
	sig[64] += 27
	return sig, nil
}
