package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/screa/pow-miner/pkg/types"
)

// ParseAddress decodes a 20-byte hex address (with or without 0x).
func ParseAddress(addr string) (common.Address, error) {
	h := strings.TrimSpace(addr)
	if !common.IsHexAddress(h) {
		if len(h) >= 2 && (h[0:2] == "0x" || h[0:2] == "0X") {
			h = h[2:]
		}
		return common.Address{}, fmt.Errorf("%w: invalid address: got %d hex chars, want %d", types.ErrEncoding, len(h), 2*AddressLen)
	}
	return common.HexToAddress(h), nil
}

// ParseUint256 parses a decimal or 0x-prefixed hex integer that fits in 256 bits.
func ParseUint256(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		raw := s[2:]
		if len(raw)%2 != 0 {
			raw = "0" + raw
		}
		b, err := hex.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid hex integer %q: %w", s, err)
		}
		if len(b) > 32 {
			return nil, fmt.Errorf("integer %q overflows 256 bits", s)
		}
		return new(uint256.Int).SetBytes(b), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q: %w", s, err)
	}
	return v, nil
}
