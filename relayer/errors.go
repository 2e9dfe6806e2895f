package relayer

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingTargetChainID = errors.New("missing target chain id")
	ErrSameChain            = errors.New("source and target chain are the same")
)

func ErrTickerTooShort(d time.Duration) error {
	return fmt.Errorf("relay frequency %v is shorter than %v", d, MinTickerDuration)
}
