package services

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// HashAccountIdentifier returns the keccak256 of the raw account identifier,
// 0x-prefixed. The raw identifier is never stored.
func HashAccountIdentifier(accountIdentifier string) string {
	return crypto.Keccak256Hash([]byte(accountIdentifier)).Hex()
}

// normalizeAddress returns the checksummed form of a hex address and whether
// the input was a syntactically valid address.
func normalizeAddress(address string) (string, bool) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return "", false
	}
	return common.HexToAddress(address).Hex(), true
}

type noopMetrics struct{}

func (noopMetrics) ObserveOutcome(string, string) {}
