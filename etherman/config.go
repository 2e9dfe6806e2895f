package etherman

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"
)

const (
	DefaultTokenCacheSize = 128

	// how long a sent transaction is waited for before it is reported pending
	DefaultReceiptTimeout = 5 * time.Minute
)

type Config struct {
	// URL is the URL of the Ethereum node
	URL string

	// expected chain id, not checked if nil
	ChainID *big.Int

	// hex private keys of the accounts the bridge sends transactions from,
	// e.g. its escrow account
	PrivateKeys []string

	TokenCacheSize int
	ReceiptTimeout time.Duration
}

func newTokenCache(size int) *lru.Cache[common.Address, *ERC20] {
	if size <= 0 {
		size = DefaultTokenCacheSize
	}
	return lru.NewCache[common.Address, *ERC20](size)
}
