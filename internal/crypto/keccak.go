package crypto

import (
	"hash"

	"golang.org/x/crypto/sha3"
)

// HashLen is the size of a keccak256 digest
const HashLen = 32

// keccakState is the legacy keccak sponge; Read squeezes the digest
// without the copy Sum makes.
type keccakState interface {
	hash.Hash
	Read([]byte) (int, error)
}

// Hasher is a reusable keccak256 state. Each worker owns one; it is not
// safe for concurrent use.
type Hasher struct {
	state keccakState
}

// NewHasher creates a new keccak256 hasher
func NewHasher() *Hasher {
	return &Hasher{state: sha3.NewLegacyKeccak256().(keccakState)}
}

// SumInto hashes input and writes the digest into out.
func (h *Hasher) SumInto(input []byte, out *[HashLen]byte) {
	h.state.Reset()
	h.state.Write(input)
	h.state.Read(out[:])
}

// Keccak256 calculates the keccak256 hash of the concatenated inputs
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		_, _ = h.Write(b)
	}
	return h.Sum(nil)
}
