// Package relayer watches the event log of one bridge and turns every
// lock or burn into a voucher signed by the attestor. Vouchers are stored,
// never submitted: a claim credits its submitter, so only the recipient
// can redeem one.
package relayer

import (
	"context"
	"math/big"
	"time"

	"github.com/TEENet-io/erc20-bridge-go/bridge"
	"github.com/TEENet-io/erc20-bridge-go/common"
	"github.com/TEENet-io/erc20-bridge-go/ledger"
	"github.com/TEENet-io/erc20-bridge-go/validator"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	logger "github.com/sirupsen/logrus"
)

// Source is the bridge whose events are relayed.
type Source interface {
	Address() ethcommon.Address
	ChainID() *big.Int
	EventsSince(seq uint64, limit int) ([]*bridge.Event, error)
	GetNativeTokenAddress(wrappedToken ethcommon.Address) (ethcommon.Address, *big.Int, error)
}

type Relayer struct {
	cfg    *Config
	src    Source
	tokens ledger.Resolver
	signer validator.Signer
	db     *VoucherDB

	sourceKey ethcommon.Hash
	lastSeq   uint64
}

// New resumes relaying src from the checkpoint stored in db. tokens
// resolves the tokens of the source ledger.
func New(
	cfg *Config,
	src Source,
	tokens ledger.Resolver,
	signer validator.Signer,
	db *VoucherDB,
) (*Relayer, error) {
	if cfg.TargetChainID == nil {
		return nil, ErrMissingTargetChainID
	}
	if cfg.TargetChainID.Cmp(src.ChainID()) == 0 {
		return nil, ErrSameChain
	}
	if cfg.Frequency < MinTickerDuration {
		return nil, ErrTickerTooShort(cfg.Frequency)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	key := SourceKey(src.ChainID(), src.Address())
	lastSeq, err := db.GetCheckpoint(key)
	if err != nil {
		logger.Error("failed to get relayer checkpoint from database")
		return nil, err
	}

	return &Relayer{
		cfg:       cfg,
		src:       src,
		tokens:    tokens,
		signer:    signer,
		db:        db,
		sourceKey: key,
		lastSeq:   lastSeq,
	}, nil
}

// SourceKey identifies a bridge across chains in the checkpoint table.
func SourceKey(chainID *big.Int, bridgeAddr ethcommon.Address) ethcommon.Hash {
	return crypto.Keccak256Hash(common.EncodePacked(chainID, bridgeAddr))
}

func (r *Relayer) LastSeq() uint64 {
	return r.lastSeq
}

func (r *Relayer) Loop(ctx context.Context) error {
	logger.WithFields(logger.Fields{
		"source": r.src.ChainID().String(),
		"target": r.cfg.TargetChainID.String(),
	}).Debug("starting relayer")
	defer func() {
		logger.Debug("stopping relayer")
	}()

	ticker := time.NewTicker(r.cfg.Frequency)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Relay(ctx); err != nil {
				return err
			}
		}
	}
}

// Relay processes every event committed since the last checkpoint.
func (r *Relayer) Relay(ctx context.Context) error {
	for {
		evs, err := r.src.EventsSince(r.lastSeq, r.cfg.BatchSize)
		if err != nil {
			return err
		}
		if len(evs) == 0 {
			return nil
		}

		vouchers := []*Voucher{}
		for _, ev := range evs {
			v, err := r.voucherFor(ctx, ev)
			if err != nil {
				logger.WithFields(logger.Fields{
					"seq":   ev.Seq,
					"kind":  ev.Kind,
					"txRef": ev.TxRef.Hex(),
				}).Errorf("failed to build voucher: %v", err)
				return err
			}
			if v != nil {
				vouchers = append(vouchers, v)
			}
		}

		last := evs[len(evs)-1].Seq
		if err := r.db.Save(r.sourceKey, last, vouchers); err != nil {
			logger.Errorf("failed to save vouchers: %v", err)
			return err
		}
		for _, v := range vouchers {
			logger.Info(v.String())
		}
		r.lastSeq = last

		if len(evs) < r.cfg.BatchSize {
			return nil
		}
	}
}

// voucherFor returns nil for events that do not move funds towards the
// target chain.
func (r *Relayer) voucherFor(ctx context.Context, ev *bridge.Event) (*Voucher, error) {
	switch data := ev.Data.(type) {
	case *bridge.LockRecorded:
		if data.TargetChainID.Cmp(r.cfg.TargetChainID) != 0 {
			return nil, nil
		}
		return r.mintVoucher(ctx, ev.TxRef, data)
	case *bridge.BurnRecorded:
		return r.unlockVoucher(ev.TxRef, data)
	default:
		return nil, nil
	}
}

func (r *Relayer) mintVoucher(ctx context.Context, txRef ethcommon.Hash, ev *bridge.LockRecorded) (*Voucher, error) {
	token, err := r.tokens.Token(ctx, ev.Token)
	if err != nil {
		return nil, err
	}
	name, err := token.Name(ctx)
	if err != nil {
		return nil, err
	}
	symbol, err := token.Symbol(ctx)
	if err != nil {
		return nil, err
	}

	sourceChainID := r.src.ChainID()
	v := &Voucher{
		Kind:          VoucherMint,
		SourceChainID: sourceChainID,
		TargetChainID: new(big.Int).Set(r.cfg.TargetChainID),
		TxRef:         txRef,
		Recipient:     ev.Locker,
		Amount:        new(big.Int).Set(ev.Amount),
		NativeToken:   ev.Token,
		NativeChainID: sourceChainID,
		Name:          name,
		Symbol:        symbol,
	}
	v.Digest = bridge.MintClaimHash(
		v.TargetChainID, v.Recipient, v.Amount, v.NativeToken, v.NativeChainID, v.Name, v.Symbol, v.TxRef,
	)
	return v, r.sign(v)
}

func (r *Relayer) unlockVoucher(txRef ethcommon.Hash, ev *bridge.BurnRecorded) (*Voucher, error) {
	nativeToken, nativeChainID, err := r.src.GetNativeTokenAddress(ev.WrappedToken)
	if err != nil {
		return nil, err
	}
	if nativeChainID.Cmp(r.cfg.TargetChainID) != 0 {
		return nil, nil
	}

	v := &Voucher{
		Kind:          VoucherUnlock,
		SourceChainID: r.src.ChainID(),
		TargetChainID: nativeChainID,
		TxRef:         txRef,
		Recipient:     ev.Burner,
		Amount:        new(big.Int).Set(ev.Amount),
		NativeToken:   nativeToken,
		NativeChainID: nativeChainID,
	}
	v.Digest = bridge.UnlockClaimHash(v.TargetChainID, v.Recipient, v.Amount, v.NativeToken, v.TxRef)
	return v, r.sign(v)
}

func (r *Relayer) sign(v *Voucher) error {
	sig, err := r.signer.Sign(v.Digest)
	if err != nil {
		return err
	}
	v.Scheme = r.signer.Scheme()
	v.Signature = sig
	return nil
}
