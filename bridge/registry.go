package bridge

import (
	"context"
	"math/big"

	"github.com/TEENet-io/erc20-bridge-go/state"
	"github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"
)

// getOrCreateWrapped resolves the wrapped token of a pair, deploying and
// registering it on first use. Deployment is deterministic in the pair, so
// a retry after a failed operation finds the token already deployed and
// only registers it.
func (b *Bridge) getOrCreateWrapped(
	ctx context.Context,
	f *frame,
	nativeToken common.Address,
	nativeChainID *big.Int,
	name, symbol string,
) (common.Address, error) {
	w, ok, err := b.st.GetWrapped(nativeToken, nativeChainID)
	if err != nil {
		return common.Address{}, err
	}
	if ok {
		return w.WrappedToken, nil
	}

	salt := WrappedSalt(nativeToken, nativeChainID)
	var wrapped common.Address
	err = b.external(func() (err error) {
		wrapped, err = b.factory.DeployWrapped(ctx, b.address, salt, name, symbol)
		return err
	})
	if err != nil {
		return common.Address{}, delegated("deploy", err)
	}

	if err := b.st.InsertWrapped(&state.WrappedToken{
		NativeToken:   nativeToken,
		NativeChainID: nativeChainID,
		WrappedToken:  wrapped,
	}); err != nil {
		return common.Address{}, err
	}

	if _, err := f.emit(EventWrappedTokenCreated, &WrappedTokenCreated{
		NativeToken:   nativeToken,
		NativeChainID: new(big.Int).Set(nativeChainID),
		WrappedToken:  wrapped,
		Name:          name,
		Symbol:        symbol,
	}); err != nil {
		return common.Address{}, err
	}

	logger.WithFields(logger.Fields{
		"native":  nativeToken.Hex(),
		"chain":   nativeChainID.String(),
		"wrapped": wrapped.Hex(),
	}).Info("wrapped token registered")

	return wrapped, nil
}
