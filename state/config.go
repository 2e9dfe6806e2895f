package state

import "math/big"

const DefaultCacheSize = 1024

type Config struct {
	ChainID   *big.Int // chain id of the ledger hosting the bridge, e.g. 1337
	CacheSize int
}
