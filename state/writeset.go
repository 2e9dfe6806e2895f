package state

import (
	"github.com/ethereum/go-ethereum/common"
)

// writeSet collects the writes of one operation until it commits.
type writeSet struct {
	kv      map[common.Hash][]byte
	chains  map[common.Hash]bool
	wrapped []*WrappedToken
	claims  []*ProcessedClaim
	events  []*EventRecord
}

func newWriteSet() *writeSet {
	return &writeSet{
		kv:     make(map[common.Hash][]byte),
		chains: make(map[common.Hash]bool),
	}
}

func (ws *writeSet) findWrapped(key pairKey) *WrappedToken {
	for _, w := range ws.wrapped {
		if newPairKey(w.NativeToken, w.NativeChainID) == key {
			return w
		}
	}
	return nil
}

func (ws *writeSet) findNative(wrapped common.Address) *WrappedToken {
	for _, w := range ws.wrapped {
		if w.WrappedToken == wrapped {
			return w
		}
	}
	return nil
}

func (ws *writeSet) findClaim(digest common.Hash) *ProcessedClaim {
	for _, c := range ws.claims {
		if c.Digest == digest {
			return c
		}
	}
	return nil
}
