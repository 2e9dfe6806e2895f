package bridge

import (
	"context"
	"math/big"

	"github.com/TEENet-io/erc20-bridge-go/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"
)

// BurnWrappedToken destroys amount of a wrapped token held by caller so
// that the escrowed native token can be unlocked on its native chain. It
// returns the reference of the recorded burn.
func (b *Bridge) BurnWrappedToken(
	ctx context.Context,
	caller ethcommon.Address,
	wrappedToken ethcommon.Address,
	amount *big.Int,
) (ethcommon.Hash, error) {
	var txRef ethcommon.Hash
	err := b.execute(ctx, "burnWrappedToken", func(ctx context.Context, f *frame) error {
		_, ok, err := b.st.GetNative(wrappedToken)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotWrappedToken
		}
		if err := checkAmount(amount); err != nil {
			return err
		}

		tok, err := b.resolve(ctx, wrappedToken)
		if err != nil {
			return err
		}
		if err := b.burn(ctx, tok, caller, amount); err != nil {
			return err
		}

		txRef, err = f.emit(EventBurnRecorded, &BurnRecorded{
			Burner:       caller,
			WrappedToken: wrappedToken,
			Amount:       new(big.Int).Set(amount),
		})
		return err
	})
	if err != nil {
		return ethcommon.Hash{}, err
	}

	logger.WithFields(logger.Fields{
		"burner":  caller.Hex(),
		"wrapped": wrappedToken.Hex(),
		"amount":  amount.String(),
		"txRef":   common.Shorten(txRef.String(), 8),
	}).Info("burn recorded")

	return txRef, nil
}
