package bridge

import (
	"math/big"

	"github.com/TEENet-io/erc20-bridge-go/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	MintClaimTag   = "MINT_CLAIM"
	UnlockClaimTag = "UNLOCK_CLAIM"
)

// MintClaimHash is the digest a validator signs to authorize minting amount
// of the wrapped (nativeToken, nativeChainID) to recipient on the ledger
// identified by localChainID. Name and symbol enter the preimage hashed, so
// moving bytes between them changes the digest.
func MintClaimHash(
	localChainID *big.Int,
	recipient ethcommon.Address,
	amount *big.Int,
	nativeToken ethcommon.Address,
	nativeChainID *big.Int,
	name, symbol string,
	txRef ethcommon.Hash,
) ethcommon.Hash {
	return crypto.Keccak256Hash(common.EncodePacked(
		MintClaimTag,
		localChainID,
		recipient,
		amount,
		nativeToken,
		nativeChainID,
		crypto.Keccak256Hash([]byte(name)),
		crypto.Keccak256Hash([]byte(symbol)),
		txRef,
	))
}

// UnlockClaimHash is the digest a validator signs to authorize releasing
// amount of nativeToken from escrow to recipient.
func UnlockClaimHash(
	localChainID *big.Int,
	recipient ethcommon.Address,
	amount *big.Int,
	nativeToken ethcommon.Address,
	txRef ethcommon.Hash,
) ethcommon.Hash {
	return crypto.Keccak256Hash(common.EncodePacked(
		UnlockClaimTag,
		localChainID,
		recipient,
		amount,
		nativeToken,
		txRef,
	))
}

// WrappedSalt identifies a (native token, native chain) pair for the
// deterministic deployment of its wrapped token.
func WrappedSalt(nativeToken ethcommon.Address, nativeChainID *big.Int) ethcommon.Hash {
	return crypto.Keccak256Hash(common.EncodePacked(nativeToken, nativeChainID))
}

// TxRef names the seq-th event recorded by the bridge at address on chainID.
func TxRef(chainID *big.Int, bridge ethcommon.Address, seq uint64) ethcommon.Hash {
	return crypto.Keccak256Hash(common.EncodePacked(chainID, bridge, seq))
}

// checkAmount accepts amounts in [1, 2^256). Digests encode integers as
// 256-bit words, so a wider value would alias a smaller one.
func checkAmount(amount *big.Int) error {
	if !common.IsPositive(amount) {
		return ErrZeroAmount
	}
	if !common.IsUint256(amount) {
		return ErrValueOutOfRange
	}
	return nil
}

func checkUint256(v *big.Int) error {
	if !common.IsUint256(v) {
		return ErrValueOutOfRange
	}
	return nil
}
