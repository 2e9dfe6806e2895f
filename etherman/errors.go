package etherman

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidPrivateKey   = errors.New("invalid private key")
	ErrWrappedUnsupported  = errors.New("wrapped token deployment is not supported on an EVM ledger")
	ErrNilTransactionReply = errors.New("nil transaction")
)

func ErrUnknownAccount(addr common.Address) error {
	return fmt.Errorf("no key for account %s", addr.Hex())
}

func ErrTxFailed(method string, txHash common.Hash) error {
	return fmt.Errorf("%s transaction %s reverted", method, txHash.Hex())
}

func ErrChainIDUnmatched(expected, got *big.Int) error {
	return fmt.Errorf("chain id unmatched: expected=%v, got=%v", expected, got)
}
