package crypto

import (
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/screa/pow-miner/pkg/types"
)

// Verify recomputes the digest of a solution through go-ethereum's keccak,
// the same path an on-chain verifier takes, and checks it against the
// task's threshold. It shares no state with the mining hot path.
func Verify(task *types.Task, solution *uint256.Int) (common.Hash, bool, error) {
	target, err := NewTarget(task.Difficulty)
	if err != nil {
		return common.Hash{}, false, err
	}
	prefix, err := EncodePrefix(task.Nonce, task.Address.Bytes())
	if err != nil {
		return common.Hash{}, false, err
	}
	c := solution.Bytes32()
	digest := ethcrypto.Keccak256Hash(prefix, c[:])
	return digest, target.Meets(digest[:]), nil
}
