package bridge

import (
	"context"
	"math/big"

	"github.com/TEENet-io/erc20-bridge-go/common"
	"github.com/TEENet-io/erc20-bridge-go/ledger"
	"github.com/TEENet-io/erc20-bridge-go/state"
	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"
)

// ClaimMint mints amount of the wrapped (nativeToken, nativeChainID) to
// caller, authorized by a validator signature over the mint claim digest
// whose recipient is caller. Each digest executes at most once.
func (b *Bridge) ClaimMint(
	ctx context.Context,
	caller ethcommon.Address,
	amount *big.Int,
	nativeToken ethcommon.Address,
	nativeChainID *big.Int,
	name, symbol string,
	txRef ethcommon.Hash,
	signature []byte,
) error {
	if nativeChainID == nil {
		nativeChainID = new(big.Int)
	}

	return b.execute(ctx, "claimMint", func(ctx context.Context, f *frame) error {
		if err := checkAmount(amount); err != nil {
			return err
		}
		if err := checkUint256(nativeChainID); err != nil {
			return err
		}

		digest := MintClaimHash(b.chainID, caller, amount, nativeToken, nativeChainID, name, symbol, txRef)
		if err := b.checkClaim(digest, signature); err != nil {
			return err
		}

		// must be durable before any call into the token ledger
		if err := b.st.InsertClaim(&state.ProcessedClaim{
			Digest:   digest,
			Kind:     state.ClaimKindMint,
			TxRef:    txRef,
			Claimant: caller,
			Token:    nativeToken,
			Amount:   amount,
		}); err != nil {
			return err
		}
		if err := f.checkpoint(); err != nil {
			return err
		}

		wrapped, err := b.getOrCreateWrapped(ctx, f, nativeToken, nativeChainID, name, symbol)
		if err != nil {
			return b.unsettled(digest, err)
		}
		tok, err := b.resolve(ctx, wrapped)
		if err != nil {
			return b.unsettled(digest, err)
		}
		if err := b.mint(ctx, tok, caller, amount); err != nil {
			return b.unsettled(digest, err)
		}

		if _, err := f.emit(EventMintClaimed, &MintClaimed{
			Recipient:     caller,
			WrappedToken:  wrapped,
			NativeToken:   nativeToken,
			NativeChainID: new(big.Int).Set(nativeChainID),
			Amount:        new(big.Int).Set(amount),
			ClaimTxRef:    txRef,
			Digest:        digest,
		}); err != nil {
			return err
		}

		logger.WithFields(logger.Fields{
			"recipient": caller.Hex(),
			"wrapped":   wrapped.Hex(),
			"amount":    amount.String(),
			"digest":    common.Shorten(digest.String(), 8),
		}).Info("mint claimed")
		return nil
	})
}

// ClaimUnlock releases amount of nativeToken from escrow to caller,
// authorized by a validator signature over the unlock claim digest whose
// recipient is caller. Each digest executes at most once.
func (b *Bridge) ClaimUnlock(
	ctx context.Context,
	caller ethcommon.Address,
	amount *big.Int,
	nativeToken ethcommon.Address,
	txRef ethcommon.Hash,
	signature []byte,
) error {
	return b.execute(ctx, "claimUnlock", func(ctx context.Context, f *frame) error {
		if err := checkAmount(amount); err != nil {
			return err
		}

		digest := UnlockClaimHash(b.chainID, caller, amount, nativeToken, txRef)
		if err := b.checkClaim(digest, signature); err != nil {
			return err
		}

		// must be durable before any call into the token ledger
		if err := b.st.InsertClaim(&state.ProcessedClaim{
			Digest:   digest,
			Kind:     state.ClaimKindUnlock,
			TxRef:    txRef,
			Claimant: caller,
			Token:    nativeToken,
			Amount:   amount,
		}); err != nil {
			return err
		}
		if err := f.checkpoint(); err != nil {
			return err
		}

		tok, err := b.resolve(ctx, nativeToken)
		if err != nil {
			return b.unsettled(digest, err)
		}
		if err := b.release(ctx, tok, caller, amount); err != nil {
			return b.unsettled(digest, err)
		}

		if _, err := f.emit(EventUnlockClaimed, &UnlockClaimed{
			Recipient:   caller,
			NativeToken: nativeToken,
			Amount:      new(big.Int).Set(amount),
			ClaimTxRef:  txRef,
			Digest:      digest,
		}); err != nil {
			return err
		}

		logger.WithFields(logger.Fields{
			"recipient": caller.Hex(),
			"token":     nativeToken.Hex(),
			"amount":    amount.String(),
			"digest":    common.Shorten(digest.String(), 8),
		}).Info("unlock claimed")
		return nil
	})
}

// checkClaim runs the signature check and then the replay check.
func (b *Bridge) checkClaim(digest ethcommon.Hash, signature []byte) error {
	if !b.verifier.Verify(digest, signature) {
		return ErrInvalidSignature
	}

	processed, err := b.st.IsClaimProcessed(digest)
	if err != nil {
		return err
	}
	if processed {
		return ErrDuplicateClaim
	}
	return nil
}

// unsettled handles a ledger failure of a claim whose mark is already
// committed. A rejected call revokes the mark so that the claim can be
// retried. A pending one keeps it since the ledger may still apply the write.
func (b *Bridge) unsettled(digest ethcommon.Hash, cause error) error {
	if ledger.IsPending(cause) {
		return cause
	}
	if err := b.st.RevokeClaim(digest); err != nil {
		logger.WithFields(logger.Fields{
			"digest": digest.String(),
			"err":    err,
		}).Error("failed to revoke claim, it stays processed")
	}
	return cause
}
