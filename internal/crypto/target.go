package crypto

import (
	"bytes"

	"github.com/holiman/uint256"

	"github.com/screa/pow-miner/pkg/types"
)

var maxUint256 = new(uint256.Int).SetAllOne()

// Threshold returns floor((2^256 - 1) / difficulty).
func Threshold(difficulty *uint256.Int) (*uint256.Int, error) {
	if difficulty == nil || difficulty.IsZero() {
		return nil, types.ErrInvalidDifficulty
	}
	return new(uint256.Int).Div(maxUint256, difficulty), nil
}

// Target is a threshold in its big-endian byte form. A digest meets the
// target when its value is less than or equal to it; the comparison is
// inclusive on both the derivation and the check.
type Target [32]byte

// NewTarget derives the target for difficulty
func NewTarget(difficulty *uint256.Int) (Target, error) {
	threshold, err := Threshold(difficulty)
	if err != nil {
		return Target{}, err
	}
	return Target(threshold.Bytes32()), nil
}

// Meets reports whether digest, read as a big-endian unsigned integer, is <= t.
func (t *Target) Meets(digest []byte) bool {
	return bytes.Compare(digest, t[:]) <= 0
}

// Int returns the target as an integer
func (t *Target) Int() *uint256.Int {
	return new(uint256.Int).SetBytes32(t[:])
}
