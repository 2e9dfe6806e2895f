package bridge

import (
	"context"
	"math/big"

	"github.com/TEENet-io/erc20-bridge-go/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"
)

// LockNativeToken pulls amount of token from caller into escrow so that
// the same amount of wrapped token can be claimed on targetChainID. The
// caller must have approved the bridge beforehand. It returns the reference
// of the recorded lock.
func (b *Bridge) LockNativeToken(
	ctx context.Context,
	caller ethcommon.Address,
	token ethcommon.Address,
	amount *big.Int,
	targetChainID *big.Int,
) (ethcommon.Hash, error) {
	var txRef ethcommon.Hash
	err := b.execute(ctx, "lockNativeToken", func(ctx context.Context, f *frame) error {
		ref, err := b.lock(ctx, f, caller, token, amount, targetChainID, nil)
		txRef = ref
		return err
	})
	return txRef, err
}

type permitArgs struct {
	deadline  *big.Int
	signature []byte
}

// LockNativeTokenWithPermit is LockNativeToken preceded by an EIP-2612
// permit granting the bridge an allowance of amount until deadline.
func (b *Bridge) LockNativeTokenWithPermit(
	ctx context.Context,
	caller ethcommon.Address,
	token ethcommon.Address,
	amount *big.Int,
	targetChainID *big.Int,
	deadline *big.Int,
	signature []byte,
) (ethcommon.Hash, error) {
	var txRef ethcommon.Hash
	err := b.execute(ctx, "lockNativeTokenWithPermit", func(ctx context.Context, f *frame) error {
		ref, err := b.lock(ctx, f, caller, token, amount, targetChainID, &permitArgs{deadline, signature})
		txRef = ref
		return err
	})
	return txRef, err
}

func (b *Bridge) lock(
	ctx context.Context,
	f *frame,
	caller ethcommon.Address,
	token ethcommon.Address,
	amount *big.Int,
	targetChainID *big.Int,
	permit *permitArgs,
) (ethcommon.Hash, error) {
	if !common.IsUint256(targetChainID) {
		return ethcommon.Hash{}, ErrUnsupportedChain
	}
	supported, err := b.st.IsChainSupported(targetChainID)
	if err != nil {
		return ethcommon.Hash{}, err
	}
	if !supported {
		return ethcommon.Hash{}, ErrUnsupportedChain
	}
	if err := checkAmount(amount); err != nil {
		return ethcommon.Hash{}, err
	}

	tok, err := b.resolve(ctx, token)
	if err != nil {
		return ethcommon.Hash{}, err
	}

	if permit != nil {
		if err := checkUint256(permit.deadline); err != nil {
			return ethcommon.Hash{}, err
		}
		if err := b.permit(ctx, tok, caller, amount, permit.deadline, permit.signature); err != nil {
			return ethcommon.Hash{}, err
		}
	}

	if err := b.deposit(ctx, tok, caller, amount); err != nil {
		return ethcommon.Hash{}, err
	}

	txRef, err := f.emit(EventLockRecorded, &LockRecorded{
		Locker:        caller,
		Token:         token,
		Amount:        new(big.Int).Set(amount),
		TargetChainID: new(big.Int).Set(targetChainID),
	})
	if err != nil {
		return ethcommon.Hash{}, err
	}

	logger.WithFields(logger.Fields{
		"locker": caller.Hex(),
		"token":  token.Hex(),
		"amount": amount.String(),
		"target": targetChainID.String(),
		"txRef":  common.Shorten(txRef.String(), 8),
	}).Info("lock recorded")

	return txRef, nil
}
