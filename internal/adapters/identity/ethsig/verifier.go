// Package ethsig verifies registration claims signed as Ethereum personal
// messages.
package ethsig

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type Verifier struct{}

func NewVerifier() ports.IdentityVerifier {
	return &Verifier{}
}

// ClaimHash is keccak256(address ‖ constituency) in solidity packed encoding.
func ClaimHash(address common.Address, constituency string) common.Hash {
	return crypto.Keccak256Hash(address.Bytes(), []byte(constituency))
}

// Verify recovers the signer of the claim and checks that it is the declared
// address. The signature must cover the declared constituency so a claim can
// not be replayed in another district.
func (v *Verifier) Verify(claim domain.RegistrationClaim) (*domain.VerifiedIdentity, error) {
	if claim.Address == "" || claim.Constituency == "" || claim.Signature == "" {
		return nil, fmt.Errorf("%w: address, constituency and signature are required", domain.ErrMalformedClaim)
	}
	if !common.IsHexAddress(claim.Address) {
		return nil, fmt.Errorf("%w: invalid address %q", domain.ErrMalformedClaim, claim.Address)
	}
	address := common.HexToAddress(claim.Address)

	sig, err := decodeSignature(claim.Signature)
	if err != nil {
		return nil, err
	}

	hash := ClaimHash(address, claim.Constituency)
	pub, err := crypto.SigToPub(accounts.TextHash(hash.Bytes()), normalizeV(sig))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	if recovered := crypto.PubkeyToAddress(*pub); recovered != address {
		return nil, fmt.Errorf("%w: signer %s does not match address %s", domain.ErrInvalidSignature, recovered.Hex(), address.Hex())
	}

	return &domain.VerifiedIdentity{
		Address:      address.Hex(),
		Constituency: claim.Constituency,
		Signature:    sig,
	}, nil
}

func decodeSignature(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	sig, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: signature is not hex: %v", domain.ErrInvalidSignature, err)
	}
	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("%w: signature must be %d bytes, got %d", domain.ErrInvalidSignature, crypto.SignatureLength, len(sig))
	}
	return sig, nil
}

// normalizeV returns a copy of sig with the recovery id in the 0/1 form
// expected by crypto.SigToPub. Wallets emit 27/28.
func normalizeV(sig []byte) []byte {
	out := make([]byte, len(sig))
	copy(out, sig)
	if out[crypto.RecoveryIDOffset] >= 27 {
		out[crypto.RecoveryIDOffset] -= 27
	}
	return out
}
