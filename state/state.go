package state

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/TEENet-io/erc20-bridge-go/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/ethereum/go-ethereum/crypto"
	logger "github.com/sirupsen/logrus"
)

var (
	KeyChainID      = crypto.Keccak256Hash([]byte("KeyChainID"))
	KeyOwner        = crypto.Keccak256Hash([]byte("KeyOwner"))
	KeyValidatorKey = crypto.Keccak256Hash([]byte("KeyValidatorKey"))
	KeyScheme       = crypto.Keccak256Hash([]byte("KeyScheme"))

	ErrChainIDUnmatchedStored = errors.New("chain id unmatched with the stored one")
	ErrGetChainID             = errors.New("failed to get chain id from statedb")
	ErrSetChainID             = errors.New("failed to set chain id in statedb")
	ErrOperationInProgress    = errors.New("another operation is in progress")
	ErrNoOperation            = errors.New("no operation in progress")
	ErrInvalidAmount          = errors.New("amount must be positive")
)

func ErrClaimAlreadyProcessed(digest ethcommon.Hash) error {
	return fmt.Errorf("claim already processed: digest=%s", digest.String())
}

func ErrWrappedAlreadyRegistered(w *WrappedToken) error {
	return fmt.Errorf(
		"wrapped token already registered: native=%s, chain=%v, wrapped=%s",
		w.NativeToken.Hex(), w.NativeChainID, w.WrappedToken.Hex(),
	)
}

// State is the bridge's view of its persisted state. Writes are staged in
// an operation opened by Begin and reach the db only on Commit; Discard
// drops them all. Reads observe the staged writes of the open operation.
type State struct {
	statedb *StateDB
	cfg     *Config

	mu      sync.RWMutex
	pending *writeSet
	kv      map[ethcommon.Hash][]byte
	lastSeq uint64

	wrappedCache *lru.Cache[pairKey, *WrappedToken]
	nativeCache  *lru.Cache[ethcommon.Address, *WrappedToken]
	claimCache   *lru.Cache[ethcommon.Hash, *ProcessedClaim]
}

func New(statedb *StateDB, cfg *Config) (*State, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}

	st := &State{
		statedb:      statedb,
		cfg:          cfg,
		kv:           make(map[ethcommon.Hash][]byte),
		wrappedCache: lru.NewCache[pairKey, *WrappedToken](size),
		nativeCache:  lru.NewCache[ethcommon.Address, *WrappedToken](size),
		claimCache:   lru.NewCache[ethcommon.Hash, *ProcessedClaim](size),
	}

	if err := st.initChainID(); err != nil {
		return nil, err
	}

	lastSeq, err := statedb.GetLastEventSeq()
	if err != nil {
		return nil, err
	}
	st.lastSeq = lastSeq

	return st, nil
}

func (st *State) initChainID() error {
	stored, ok, err := st.statedb.GetKeyedValue(KeyChainID)
	if err != nil {
		logger.Errorf("failed to get chain id from statedb: err=%v", err)
		return ErrGetChainID
	}

	if !ok {
		logger.Debugf("no stored chain id found, saving %v", st.cfg.ChainID)
		b := common.BigInt2Bytes32(st.cfg.ChainID)
		if err := st.statedb.SetKeyedValue(KeyChainID, b[:]); err != nil {
			logger.Errorf("failed to set chain id in statedb: err=%v", err)
			return ErrSetChainID
		}
		return nil
	}

	if new(big.Int).SetBytes(stored).Cmp(st.cfg.ChainID) != 0 {
		logger.WithFields(logger.Fields{
			"stored":     new(big.Int).SetBytes(stored),
			"configured": st.cfg.ChainID,
		}).Error("chain id unmatched")
		return ErrChainIDUnmatchedStored
	}
	return nil
}

func (st *State) ChainID() *big.Int {
	return new(big.Int).Set(st.cfg.ChainID)
}

// Begin opens a new operation.
func (st *State) Begin() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.pending != nil {
		return ErrOperationInProgress
	}
	st.pending = newWriteSet()
	return nil
}

// Commit persists the open operation atomically. On a db failure nothing
// is persisted and the operation is dropped.
func (st *State) Commit() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	ws := st.pending
	if ws == nil {
		return ErrNoOperation
	}
	st.pending = nil

	if err := st.statedb.commit(ws); err != nil {
		logger.Errorf("failed to commit state: err=%v", err)
		return err
	}

	for k, v := range ws.kv {
		st.kv[k] = v
	}
	for _, w := range ws.wrapped {
		st.wrappedCache.Add(newPairKey(w.NativeToken, w.NativeChainID), w)
		st.nativeCache.Add(w.WrappedToken, w)
	}
	for _, c := range ws.claims {
		st.claimCache.Add(c.Digest, c)
	}
	if n := len(ws.events); n > 0 {
		st.lastSeq = ws.events[n-1].Seq
	}

	return nil
}

// Discard drops every write of the open operation.
func (st *State) Discard() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.pending = nil
}

func (st *State) getKeyedValue(key ethcommon.Hash) ([]byte, bool, error) {
	if st.pending != nil {
		if v, ok := st.pending.kv[key]; ok {
			return v, true, nil
		}
	}
	if v, ok := st.kv[key]; ok {
		return v, true, nil
	}

	v, ok, err := st.statedb.GetKeyedValue(key)
	if err != nil || !ok {
		return nil, ok, err
	}
	st.kv[key] = v
	return v, true, nil
}

func (st *State) setKeyedValue(key ethcommon.Hash, value []byte) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.pending == nil {
		return ErrNoOperation
	}
	st.pending.kv[key] = ethcommon.CopyBytes(value)
	return nil
}

func (st *State) Owner() (ethcommon.Address, bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	v, ok, err := st.getKeyedValue(KeyOwner)
	if err != nil || !ok {
		return ethcommon.Address{}, ok, err
	}
	return ethcommon.BytesToAddress(v), true, nil
}

func (st *State) SetOwner(owner ethcommon.Address) error {
	return st.setKeyedValue(KeyOwner, owner.Bytes())
}

func (st *State) ValidatorKey() ([]byte, bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	v, ok, err := st.getKeyedValue(KeyValidatorKey)
	return ethcommon.CopyBytes(v), ok, err
}

func (st *State) SetValidatorKey(key []byte) error {
	return st.setKeyedValue(KeyValidatorKey, key)
}

func (st *State) Scheme() (string, bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	v, ok, err := st.getKeyedValue(KeyScheme)
	return string(v), ok, err
}

func (st *State) SetScheme(scheme string) error {
	return st.setKeyedValue(KeyScheme, []byte(scheme))
}

func (st *State) IsChainSupported(chainID *big.Int) (bool, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if st.pending != nil {
		if enabled, ok := st.pending.chains[ethcommon.BigToHash(chainID)]; ok {
			return enabled, nil
		}
	}
	return st.statedb.IsChainSupported(chainID)
}

func (st *State) SetChainSupported(chainID *big.Int, enabled bool) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.pending == nil {
		return ErrNoOperation
	}
	st.pending.chains[ethcommon.BigToHash(chainID)] = enabled
	return nil
}

func (st *State) SupportedChains() ([]*big.Int, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.statedb.GetSupportedChains()
}

func (st *State) GetWrapped(nativeToken ethcommon.Address, nativeChainID *big.Int) (*WrappedToken, bool, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	key := newPairKey(nativeToken, nativeChainID)
	if st.pending != nil {
		if w := st.pending.findWrapped(key); w != nil {
			return w, true, nil
		}
	}
	if w, ok := st.wrappedCache.Get(key); ok {
		return w, true, nil
	}

	w, ok, err := st.statedb.GetWrapped(nativeToken, nativeChainID)
	if err != nil || !ok {
		return nil, ok, err
	}
	st.wrappedCache.Add(key, w)
	return w, true, nil
}

func (st *State) GetNative(wrappedToken ethcommon.Address) (*WrappedToken, bool, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if st.pending != nil {
		if w := st.pending.findNative(wrappedToken); w != nil {
			return w, true, nil
		}
	}
	if w, ok := st.nativeCache.Get(wrappedToken); ok {
		return w, true, nil
	}

	w, ok, err := st.statedb.GetNative(wrappedToken)
	if err != nil || !ok {
		return nil, ok, err
	}
	st.nativeCache.Add(wrappedToken, w)
	return w, true, nil
}

func (st *State) GetAllWrapped() ([]*WrappedToken, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.statedb.GetAllWrapped()
}

// InsertWrapped registers both directions of a pair. A pair or a wrapped
// token can only be registered once.
func (st *State) InsertWrapped(w *WrappedToken) error {
	if _, ok, err := st.GetWrapped(w.NativeToken, w.NativeChainID); err != nil {
		return err
	} else if ok {
		return ErrWrappedAlreadyRegistered(w)
	}
	if _, ok, err := st.GetNative(w.WrappedToken); err != nil {
		return err
	} else if ok {
		return ErrWrappedAlreadyRegistered(w)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.pending == nil {
		return ErrNoOperation
	}
	st.pending.wrapped = append(st.pending.wrapped, &WrappedToken{
		NativeToken:   w.NativeToken,
		NativeChainID: new(big.Int).Set(w.NativeChainID),
		WrappedToken:  w.WrappedToken,
	})
	return nil
}

func (st *State) GetClaim(digest ethcommon.Hash) (*ProcessedClaim, bool, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if st.pending != nil {
		if c := st.pending.findClaim(digest); c != nil {
			return c, true, nil
		}
	}
	if c, ok := st.claimCache.Get(digest); ok {
		return c, true, nil
	}

	c, ok, err := st.statedb.GetClaim(digest)
	if err != nil || !ok {
		return nil, ok, err
	}
	st.claimCache.Add(digest, c)
	return c, true, nil
}

func (st *State) IsClaimProcessed(digest ethcommon.Hash) (bool, error) {
	_, ok, err := st.GetClaim(digest)
	return ok, err
}

// InsertClaim marks a claim digest as processed.
func (st *State) InsertClaim(c *ProcessedClaim) error {
	if !common.IsPositive(c.Amount) {
		return ErrInvalidAmount
	}
	if ok, err := st.IsClaimProcessed(c.Digest); err != nil {
		return err
	} else if ok {
		return ErrClaimAlreadyProcessed(c.Digest)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.pending == nil {
		return ErrNoOperation
	}
	cp := *c
	cp.Amount = new(big.Int).Set(c.Amount)
	st.pending.claims = append(st.pending.claims, &cp)
	return nil
}

// RevokeClaim removes a committed claim so that it can be processed again.
// It must only be used for a claim whose ledger effects were definitely not
// applied.
func (st *State) RevokeClaim(digest ethcommon.Hash) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := st.statedb.DeleteClaim(digest); err != nil {
		return err
	}
	st.claimCache.Remove(digest)
	return nil
}

// NextEventSeq returns the sequence number the next appended event gets.
func (st *State) NextEventSeq() uint64 {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if st.pending != nil {
		return st.lastSeq + uint64(len(st.pending.events)) + 1
	}
	return st.lastSeq + 1
}

func (st *State) AppendEvent(kind string, txRef ethcommon.Hash, payload []byte) (uint64, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.pending == nil {
		return 0, ErrNoOperation
	}
	seq := st.lastSeq + uint64(len(st.pending.events)) + 1
	st.pending.events = append(st.pending.events, &EventRecord{
		Seq:     seq,
		Kind:    kind,
		TxRef:   txRef,
		Payload: ethcommon.CopyBytes(payload),
	})
	return seq, nil
}

// EventsSince returns committed events only.
func (st *State) EventsSince(seq uint64, limit int) ([]*EventRecord, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.statedb.GetEventsSince(seq, limit)
}

func (st *State) LastEventSeq() uint64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.lastSeq
}
