package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type ClaimKind string

const (
	ClaimKindMint   ClaimKind = "mint"
	ClaimKindUnlock ClaimKind = "unlock"
)

// ProcessedClaim records an executed claim. Once stored it is never removed.
type ProcessedClaim struct {
	Digest   common.Hash
	Kind     ClaimKind
	TxRef    common.Hash
	Claimant common.Address
	// native token of the claimed asset
	Token  common.Address
	Amount *big.Int
}

// WrappedToken binds a (native token, native chain) pair to the wrapped
// token representing it on the local ledger.
type WrappedToken struct {
	NativeToken   common.Address
	NativeChainID *big.Int
	WrappedToken  common.Address
}

type EventRecord struct {
	Seq     uint64
	Kind    string
	TxRef   common.Hash
	Payload []byte
}

type pairKey struct {
	token   common.Address
	chainID common.Hash
}

func newPairKey(token common.Address, chainID *big.Int) pairKey {
	return pairKey{token, common.BigToHash(chainID)}
}
