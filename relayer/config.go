package relayer

import (
	"math/big"
	"time"
)

const (
	MinTickerDuration = 100 * time.Millisecond
	DefaultBatchSize  = 100
)

type Config struct {
	// chain on which the produced vouchers are claimed
	TargetChainID *big.Int

	Frequency time.Duration
	BatchSize int
}
