package utils

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// IsValidAddress checks if a string is a valid Ethereum address
func IsValidAddress(address string) bool {
	return common.IsHexAddress(address)
}

// NormalizeAddress normalizes an address to lowercase with 0x prefix
func NormalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		address = "0x" + address
	}
	return strings.ToLower(address)
}

// SameAddress compares two addresses case-insensitively
func SameAddress(a, b string) bool {
	return strings.EqualFold(NormalizeAddress(a), NormalizeAddress(b))
}

// IsZeroAddress reports whether addr is the zero address
func IsZeroAddress(addr common.Address) bool {
	return addr == (common.Address{})
}

// IsZeroHash reports whether h is 32 zero bytes
func IsZeroHash(h [32]byte) bool {
	return h == [32]byte{}
}

// GetEventSignature returns the keccak256 hash of an event signature
func GetEventSignature(signature string) common.Hash {
	return crypto.Keccak256Hash([]byte(signature))
}
