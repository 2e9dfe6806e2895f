package bridge

import (
	"context"
	"errors"
	"math/big"

	"github.com/TEENet-io/erc20-bridge-go/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"
)

var (
	ErrMissingBridgeAddress = errors.New("bridge address is required")
	ErrMissingChainID       = errors.New("chain id is required")
	ErrMissingOwner         = errors.New("owner is required")
	ErrZeroOwner            = errors.New("new owner is the zero address")
)

// Config is the admin configuration of a bridge. It only seeds the state on
// first start; afterwards it changes through the owner-only operations.
type Config struct {
	// account holding escrowed tokens and owning the wrapped tokens
	Address ethcommon.Address
	ChainID *big.Int
	Owner   ethcommon.Address

	SupportedChainIDs []*big.Int
	Scheme            string
	ValidatorKey      []byte
}

func (cfg *Config) validate() error {
	if cfg.Address == (ethcommon.Address{}) {
		return ErrMissingBridgeAddress
	}
	if cfg.ChainID == nil {
		return ErrMissingChainID
	}
	if cfg.Owner == (ethcommon.Address{}) {
		return ErrMissingOwner
	}
	_, err := NewVerifier(cfg.Scheme, cfg.ValidatorKey)
	return err
}

func (b *Bridge) loadOrInitConfig(cfg *Config) error {
	_, ok, err := b.st.Owner()
	if err != nil {
		return err
	}

	if !ok {
		verifier, _ := NewVerifier(cfg.Scheme, cfg.ValidatorKey)
		err := b.execute(context.Background(), "init", func(_ context.Context, f *frame) error {
			if err := b.st.SetOwner(cfg.Owner); err != nil {
				return err
			}
			if _, err := f.emit(EventOwnershipTransferred, &OwnershipTransferred{NewOwner: cfg.Owner}); err != nil {
				return err
			}
			for _, chainID := range cfg.SupportedChainIDs {
				if err := b.setSupportedChain(f, chainID, true); err != nil {
					return err
				}
			}
			return b.setVerifier(f, verifier)
		})
		if err != nil {
			return err
		}
		b.verifier = verifier
		return nil
	}

	scheme, _, err := b.st.Scheme()
	if err != nil {
		return err
	}
	key, _, err := b.st.ValidatorKey()
	if err != nil {
		return err
	}
	verifier, err := NewVerifier(scheme, key)
	if err != nil {
		return err
	}

	if configured, _ := NewVerifier(cfg.Scheme, cfg.ValidatorKey); !sameKey(verifier, configured) {
		logger.WithFields(logger.Fields{
			"stored":     common.ByteSliceToPureHexStr(verifier.PublicKey()),
			"configured": common.ByteSliceToPureHexStr(configured.PublicKey()),
		}).Warn("configured validator key differs from the stored one, using the stored key")
	}
	b.verifier = verifier
	return nil
}

func (b *Bridge) Owner() (ethcommon.Address, error) {
	owner, _, err := b.st.Owner()
	return owner, err
}

// ValidatorPublicKey returns the scheme and key claims are verified with.
func (b *Bridge) ValidatorPublicKey() (string, []byte, error) {
	scheme, _, err := b.st.Scheme()
	if err != nil {
		return "", nil, err
	}
	key, _, err := b.st.ValidatorKey()
	if err != nil {
		return "", nil, err
	}
	return scheme, key, nil
}

func (b *Bridge) onlyOwner(caller ethcommon.Address) error {
	owner, ok, err := b.st.Owner()
	if err != nil {
		return err
	}
	if !ok || caller != owner {
		return ErrNotOwner
	}
	return nil
}

// SetSupportedChain enables or disables chainID as a lock target.
func (b *Bridge) SetSupportedChain(ctx context.Context, caller ethcommon.Address, chainID *big.Int, enabled bool) error {
	return b.execute(ctx, "setSupportedChain", func(_ context.Context, f *frame) error {
		if err := b.onlyOwner(caller); err != nil {
			return err
		}
		if err := checkUint256(chainID); err != nil {
			return err
		}
		return b.setSupportedChain(f, chainID, enabled)
	})
}

func (b *Bridge) setSupportedChain(f *frame, chainID *big.Int, enabled bool) error {
	if err := b.st.SetChainSupported(chainID, enabled); err != nil {
		return err
	}
	_, err := f.emit(EventSupportedChainUpdated, &SupportedChainUpdated{
		ChainID: new(big.Int).Set(chainID),
		Enabled: enabled,
	})
	return err
}

// SetValidatorPublicKey replaces the validator key, keeping the current
// attestation scheme. Claims signed by the previous key stop verifying
// immediately; processed claims are unaffected.
func (b *Bridge) SetValidatorPublicKey(ctx context.Context, caller ethcommon.Address, key []byte) error {
	return b.execute(ctx, "setValidatorPublicKey", func(_ context.Context, f *frame) error {
		if err := b.onlyOwner(caller); err != nil {
			return err
		}
		return b.rotateVerifier(f, b.verifier.Scheme(), key)
	})
}

// SetAttestationScheme replaces both the scheme and the validator key.
func (b *Bridge) SetAttestationScheme(ctx context.Context, caller ethcommon.Address, scheme string, key []byte) error {
	return b.execute(ctx, "setAttestationScheme", func(_ context.Context, f *frame) error {
		if err := b.onlyOwner(caller); err != nil {
			return err
		}
		return b.rotateVerifier(f, scheme, key)
	})
}

func (b *Bridge) rotateVerifier(f *frame, scheme string, key []byte) error {
	verifier, err := NewVerifier(scheme, key)
	if err != nil {
		return err
	}
	if err := b.setVerifier(f, verifier); err != nil {
		return err
	}
	f.onCommit = append(f.onCommit, func() { b.verifier = verifier })
	return nil
}

func (b *Bridge) setVerifier(f *frame, verifier AttestationVerifier) error {
	var old []byte
	if b.verifier != nil {
		old = b.verifier.PublicKey()
	}
	if err := b.st.SetScheme(verifier.Scheme()); err != nil {
		return err
	}
	if err := b.st.SetValidatorKey(verifier.PublicKey()); err != nil {
		return err
	}
	_, err := f.emit(EventValidatorKeyUpdated, &ValidatorKeyUpdated{
		Scheme: verifier.Scheme(),
		OldKey: old,
		NewKey: verifier.PublicKey(),
	})
	return err
}

func (b *Bridge) TransferOwnership(ctx context.Context, caller, newOwner ethcommon.Address) error {
	return b.execute(ctx, "transferOwnership", func(_ context.Context, f *frame) error {
		if err := b.onlyOwner(caller); err != nil {
			return err
		}
		if newOwner == (ethcommon.Address{}) {
			return ErrZeroOwner
		}
		if err := b.st.SetOwner(newOwner); err != nil {
			return err
		}
		_, err := f.emit(EventOwnershipTransferred, &OwnershipTransferred{
			PreviousOwner: caller,
			NewOwner:      newOwner,
		})
		return err
	})
}
