package crypto

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/screa/pow-miner/pkg/types"
)

// Packed input layout, identical to abi.encodePacked(uint256, address, uint256):
// nonce (32) + address (20) + candidate (32) = 84
const (
	NonceLen     = 32
	AddressLen   = common.AddressLength
	CandidateLen = 32
	PrefixLen    = NonceLen + AddressLen
	InputLen     = PrefixLen + CandidateLen
)

// EncodePrefix serializes the per-task part of the hash input. It is
// computed once per task and shared read-only by every worker.
func EncodePrefix(nonce *uint256.Int, address []byte) ([]byte, error) {
	if nonce == nil {
		return nil, fmt.Errorf("%w: nil nonce", types.ErrEncoding)
	}
	if len(address) != AddressLen {
		return nil, fmt.Errorf("%w: address is %d bytes, want %d", types.ErrEncoding, len(address), AddressLen)
	}
	prefix := make([]byte, PrefixLen)
	n := nonce.Bytes32()
	copy(prefix[:NonceLen], n[:])
	copy(prefix[NonceLen:], address)
	return prefix, nil
}

// EncodeCandidate overwrites dst with prefix followed by the 32-byte
// big-endian candidate and returns the filled slice. dst must have a
// capacity of at least len(prefix)+CandidateLen or append reallocates.
func EncodeCandidate(dst, prefix []byte, candidate *uint256.Int) []byte {
	c := candidate.Bytes32()
	dst = append(dst[:0], prefix...)
	return append(dst, c[:]...)
}

// DecodePrefix splits a prefix produced by EncodePrefix back into its parts.
func DecodePrefix(prefix []byte) (*uint256.Int, common.Address, error) {
	if len(prefix) != PrefixLen {
		return nil, common.Address{}, fmt.Errorf("%w: prefix is %d bytes, want %d", types.ErrEncoding, len(prefix), PrefixLen)
	}
	nonce := new(uint256.Int).SetBytes32(prefix[:NonceLen])
	return nonce, common.BytesToAddress(prefix[NonceLen:]), nil
}
