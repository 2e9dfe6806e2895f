// Package bridge implements the claim-processing and escrow state machine of
// a two-way ERC20 bridge. One Bridge instance lives on each ledger: on the
// native side it escrows locked tokens and releases them on unlock claims,
// on the remote side it mints and burns wrapped tokens.
package bridge

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/TEENet-io/erc20-bridge-go/ledger"
	"github.com/TEENet-io/erc20-bridge-go/state"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	logger "github.com/sirupsen/logrus"
)

const maxEventsPerQuery = 1000

type Bridge struct {
	address common.Address
	chainID *big.Int

	st       *state.State
	resolver ledger.Resolver
	factory  ledger.WrappedFactory

	// serializes operations; verifier is only touched while holding it
	mu       sync.Mutex
	verifier AttestationVerifier

	// set while an operation waits on the token ledger
	inExternal atomic.Bool

	feed  event.Feed
	scope event.SubscriptionScope
}

// New opens the bridge described by cfg. On first start the admin
// configuration is persisted; afterwards the stored configuration wins.
func New(
	cfg *Config,
	st *state.State,
	resolver ledger.Resolver,
	factory ledger.WrappedFactory,
) (*Bridge, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.ChainID.Cmp(st.ChainID()) != 0 {
		return nil, state.ErrChainIDUnmatchedStored
	}

	b := &Bridge{
		address:  cfg.Address,
		chainID:  new(big.Int).Set(cfg.ChainID),
		st:       st,
		resolver: resolver,
		factory:  factory,
	}

	if err := b.loadOrInitConfig(cfg); err != nil {
		return nil, err
	}

	logger.WithFields(logger.Fields{
		"bridge": b.address.Hex(),
		"chain":  b.chainID.String(),
		"scheme": b.verifier.Scheme(),
	}).Info("bridge opened")

	return b, nil
}

func (b *Bridge) Address() common.Address { return b.address }
func (b *Bridge) ChainID() *big.Int       { return new(big.Int).Set(b.chainID) }

// Close unsubscribes every event subscriber.
func (b *Bridge) Close() {
	b.scope.Close()
}

type frameKey struct {
	b *Bridge
}

// frame is one executing operation. Events are staged in the state write
// set and published only after commit.
type frame struct {
	b        *Bridge
	events   []*Event
	onCommit []func()
}

func (f *frame) emit(kind EventKind, data interface{}) (common.Hash, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return common.Hash{}, err
	}

	seq := f.b.st.NextEventSeq()
	txRef := TxRef(f.b.chainID, f.b.address, seq)
	if _, err := f.b.st.AppendEvent(string(kind), txRef, payload); err != nil {
		return common.Hash{}, err
	}

	f.events = append(f.events, &Event{Seq: seq, Kind: kind, TxRef: txRef, Data: data})
	return txRef, nil
}

// checkpoint commits everything staged so far and opens a new write set.
// Writes made before it survive a later failure of the operation.
func (f *frame) checkpoint() error {
	if err := f.b.st.Commit(); err != nil {
		return err
	}
	for _, hook := range f.onCommit {
		hook()
	}
	f.onCommit = nil
	return f.b.st.Begin()
}

// execute runs fn as one atomic operation: every state write of fn is
// committed when it returns nil and discarded otherwise. Writes before a
// checkpoint are already durable, and a pending ledger write keeps the
// staged ones too since the ledger may still apply it. A call made while
// another operation of the same bridge is inside the token ledger fails
// with ErrReentrantCall, whether or not it carries that operation's ctx.
func (b *Bridge) execute(ctx context.Context, op string, fn func(ctx context.Context, f *frame) error) error {
	if ctx.Value(frameKey{b}) != nil || b.inExternal.Load() {
		logger.WithField("op", op).Warn("reentrant call rejected")
		return ErrReentrantCall
	}

	b.mu.Lock()
	f := &frame{b: b}
	err := b.run(context.WithValue(ctx, frameKey{b}, f), op, f, fn)
	b.mu.Unlock()

	if err != nil {
		return err
	}
	for _, ev := range f.events {
		b.feed.Send(ev)
	}
	return nil
}

func (b *Bridge) run(ctx context.Context, op string, f *frame, fn func(ctx context.Context, f *frame) error) error {
	if err := b.st.Begin(); err != nil {
		return err
	}

	if err := fn(ctx, f); err != nil {
		if ledger.IsPending(err) {
			// the ledger may still apply the write, keep what was staged
			if cerr := b.st.Commit(); cerr != nil {
				logger.WithFields(logger.Fields{"op": op, "err": cerr}).Error("failed to commit pending operation")
			}
			logger.WithFields(logger.Fields{"op": op, "err": err}).Error("ledger outcome unknown")
			return err
		}
		b.st.Discard()
		logger.WithFields(logger.Fields{"op": op, "err": err}).Debug("operation reverted")
		return err
	}

	if err := b.st.Commit(); err != nil {
		logger.WithFields(logger.Fields{"op": op, "err": err}).Error("failed to commit operation")
		return err
	}
	for _, hook := range f.onCommit {
		hook()
	}
	return nil
}

func (b *Bridge) GetWTokenAddress(nativeToken common.Address, nativeChainID *big.Int) (common.Address, error) {
	w, ok, err := b.st.GetWrapped(nativeToken, nativeChainID)
	if err != nil || !ok {
		return common.Address{}, err
	}
	return w.WrappedToken, nil
}

func (b *Bridge) GetNativeTokenAddress(wrappedToken common.Address) (common.Address, *big.Int, error) {
	w, ok, err := b.st.GetNative(wrappedToken)
	if err != nil {
		return common.Address{}, nil, err
	}
	if !ok {
		return common.Address{}, nil, ErrNotWrappedToken
	}
	return w.NativeToken, new(big.Int).Set(w.NativeChainID), nil
}

func (b *Bridge) WrappedTokens() ([]*state.WrappedToken, error) {
	return b.st.GetAllWrapped()
}

func (b *Bridge) GetMintClaimHash(
	recipient common.Address,
	amount *big.Int,
	nativeToken common.Address,
	nativeChainID *big.Int,
	name, symbol string,
	txRef common.Hash,
) common.Hash {
	return MintClaimHash(b.chainID, recipient, amount, nativeToken, nativeChainID, name, symbol, txRef)
}

func (b *Bridge) GetUnlockClaimHash(
	recipient common.Address,
	amount *big.Int,
	nativeToken common.Address,
	txRef common.Hash,
) common.Hash {
	return UnlockClaimHash(b.chainID, recipient, amount, nativeToken, txRef)
}

func (b *Bridge) IsClaimProcessed(digest common.Hash) (bool, error) {
	return b.st.IsClaimProcessed(digest)
}

func (b *Bridge) GetProcessedClaim(digest common.Hash) (*state.ProcessedClaim, bool, error) {
	return b.st.GetClaim(digest)
}

func (b *Bridge) IsChainSupported(chainID *big.Int) (bool, error) {
	return b.st.IsChainSupported(chainID)
}

func (b *Bridge) SupportedChains() ([]*big.Int, error) {
	return b.st.SupportedChains()
}

// EventsSince returns at most limit committed events with a sequence number
// larger than seq.
func (b *Bridge) EventsSince(seq uint64, limit int) ([]*Event, error) {
	if limit <= 0 || limit > maxEventsPerQuery {
		limit = maxEventsPerQuery
	}

	recs, err := b.st.EventsSince(seq, limit)
	if err != nil {
		return nil, err
	}

	evs := make([]*Event, 0, len(recs))
	for _, rec := range recs {
		ev, err := decodeEvent(rec)
		if err != nil {
			return nil, err
		}
		evs = append(evs, ev)
	}
	return evs, nil
}

// SubscribeEvents delivers every event committed after the call.
func (b *Bridge) SubscribeEvents(ch chan<- *Event) event.Subscription {
	return b.scope.Track(b.feed.Subscribe(ch))
}

// external runs a call into the token ledger. Operations started before it
// returns are rejected instead of queueing behind the one making the call.
func (b *Bridge) external(call func() error) error {
	b.inExternal.Store(true)
	defer b.inExternal.Store(false)
	return call()
}

func (b *Bridge) resolve(ctx context.Context, token common.Address) (ledger.Token, error) {
	var tok ledger.Token
	err := b.external(func() (err error) {
		tok, err = b.resolver.Token(ctx, token)
		return err
	})
	if err != nil {
		return nil, delegated("resolve", err)
	}
	return tok, nil
}
