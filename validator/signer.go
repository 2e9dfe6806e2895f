// Package validator holds the attestor keys that sign bridge claims.
package validator

import (
	"crypto/ecdsa"
	"errors"

	"github.com/TEENet-io/erc20-bridge-go/bridge"
	"github.com/TEENet-io/erc20-bridge-go/common"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrInvalidPrivateKey = errors.New("private key must be 32 bytes")

// Signer signs claim digests. Signatures are made over the
// "\x19Ethereum Signed Message:\n32" prefixed digest and verify with the
// bridge verifier of the same scheme under PublicKey().
type Signer interface {
	Scheme() string
	PublicKey() []byte
	Sign(digest ethcommon.Hash) ([]byte, error)
}

// NewSigner builds a signer of scheme from a 32-byte private key.
func NewSigner(scheme string, privKey []byte) (Signer, error) {
	switch scheme {
	case bridge.SchemeECDSA:
		return NewECDSASigner(privKey)
	case bridge.SchemeSchnorr:
		return NewSchnorrSigner(privKey)
	default:
		return nil, bridge.ErrUnknownScheme
	}
}

// ECDSASigner is a single secp256k1 key; its public identity is the
// derived address.
type ECDSASigner struct {
	sk *ecdsa.PrivateKey
}

func NewECDSASigner(privKey []byte) (*ECDSASigner, error) {
	sk, err := crypto.ToECDSA(privKey)
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}
	return &ECDSASigner{sk: sk}, nil
}

func NewRandomECDSASigner() (*ECDSASigner, error) {
	sk, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &ECDSASigner{sk: sk}, nil
}

func (s *ECDSASigner) Scheme() string { return bridge.SchemeECDSA }

func (s *ECDSASigner) Address() ethcommon.Address {
	return crypto.PubkeyToAddress(s.sk.PublicKey)
}

func (s *ECDSASigner) PublicKey() []byte {
	return s.Address().Bytes()
}

// Sign returns r || s || v with v in {27, 28}.
func (s *ECDSASigner) Sign(digest ethcommon.Hash) ([]byte, error) {
	hash := common.EthSignedMessageHash(digest)
	sig, err := crypto.Sign(hash[:], s.sk)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

// SchnorrSigner is backed by one single private key, standing in for a
// threshold group whose aggregated key signs the same way.
type SchnorrSigner struct {
	sk *btcec.PrivateKey
}

func NewSchnorrSigner(privKey []byte) (*SchnorrSigner, error) {
	if len(privKey) != btcec.PrivKeyBytesLen {
		return nil, ErrInvalidPrivateKey
	}
	sk, _ := btcec.PrivKeyFromBytes(privKey)
	return &SchnorrSigner{sk: sk}, nil
}

func NewRandomSchnorrSigner() (*SchnorrSigner, error) {
	sk, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return &SchnorrSigner{sk: sk}, nil
}

func (s *SchnorrSigner) Scheme() string { return bridge.SchemeSchnorr }

// PublicKey is the 32-byte x-only key.
func (s *SchnorrSigner) PublicKey() []byte {
	return schnorr.SerializePubKey(s.sk.PubKey())
}

func (s *SchnorrSigner) Sign(digest ethcommon.Hash) ([]byte, error) {
	hash := common.EthSignedMessageHash(digest)
	sig, err := schnorr.Sign(s.sk, hash[:])
	if err != nil {
		return nil, err
	}
	return sig.Serialize(), nil
}
