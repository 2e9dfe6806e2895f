package bridge

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/TEENet-io/erc20-bridge-go/common"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	SchemeECDSA   = "ecdsa"
	SchemeSchnorr = "schnorr"
)

var ErrUnknownScheme = errors.New("unknown attestation scheme")

func ErrInvalidValidatorKey(scheme string, err error) error {
	return fmt.Errorf("invalid %s validator key: %w", scheme, err)
}

// AttestationVerifier decides whether a signature over a claim digest was
// produced by the trusted attestor. Implementations verify against the
// "\x19Ethereum Signed Message:\n32" prefixed digest.
type AttestationVerifier interface {
	Scheme() string
	// PublicKey is the identity stored as the validator key.
	PublicKey() []byte
	Verify(digest ethcommon.Hash, signature []byte) bool
}

// NewVerifier builds the verifier of scheme for the given validator key.
func NewVerifier(scheme string, key []byte) (AttestationVerifier, error) {
	switch scheme {
	case SchemeECDSA:
		return NewECDSAVerifier(key)
	case SchemeSchnorr:
		return NewSchnorrVerifier(key)
	default:
		return nil, ErrUnknownScheme
	}
}

// ECDSAVerifier accepts 65-byte r || s || v secp256k1 signatures whose
// recovered address equals the validator address.
type ECDSAVerifier struct {
	validator ethcommon.Address
}

// NewECDSAVerifier accepts a 20-byte address or a 33/65-byte public key.
func NewECDSAVerifier(key []byte) (*ECDSAVerifier, error) {
	switch len(key) {
	case ethcommon.AddressLength:
		addr := ethcommon.BytesToAddress(key)
		if addr == (ethcommon.Address{}) {
			return nil, ErrInvalidValidatorKey(SchemeECDSA, errors.New("zero address"))
		}
		return &ECDSAVerifier{validator: addr}, nil
	case 33:
		pub, err := crypto.DecompressPubkey(key)
		if err != nil {
			return nil, ErrInvalidValidatorKey(SchemeECDSA, err)
		}
		return &ECDSAVerifier{validator: crypto.PubkeyToAddress(*pub)}, nil
	case 65:
		pub, err := crypto.UnmarshalPubkey(key)
		if err != nil {
			return nil, ErrInvalidValidatorKey(SchemeECDSA, err)
		}
		return &ECDSAVerifier{validator: crypto.PubkeyToAddress(*pub)}, nil
	default:
		return nil, ErrInvalidValidatorKey(SchemeECDSA, fmt.Errorf("unexpected length %d", len(key)))
	}
}

func (v *ECDSAVerifier) Scheme() string { return SchemeECDSA }

func (v *ECDSAVerifier) PublicKey() []byte { return v.validator.Bytes() }

func (v *ECDSAVerifier) Address() ethcommon.Address { return v.validator }

func (v *ECDSAVerifier) Verify(digest ethcommon.Hash, signature []byte) bool {
	signer, ok := RecoverSigner(digest, signature)
	return ok && signer == v.validator
}

// RecoverSigner returns the address that signed the prefixed digest. v may
// be 27/28 or 0/1; high-s signatures are rejected.
func RecoverSigner(digest ethcommon.Hash, signature []byte) (ethcommon.Address, bool) {
	if len(signature) != crypto.SignatureLength {
		return ethcommon.Address{}, false
	}

	sig := ethcommon.CopyBytes(signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(sig[64], r, s, true) {
		return ethcommon.Address{}, false
	}

	hash := common.EthSignedMessageHash(digest)
	pub, err := crypto.SigToPub(hash[:], sig)
	if err != nil {
		return ethcommon.Address{}, false
	}
	return crypto.PubkeyToAddress(*pub), true
}

// SchnorrVerifier accepts 64-byte BIP-340 signatures under a 32-byte
// x-only key, as produced by the TEENet threshold signers.
type SchnorrVerifier struct {
	raw []byte
	pub *btcec.PublicKey
}

func NewSchnorrVerifier(key []byte) (*SchnorrVerifier, error) {
	pub, err := schnorr.ParsePubKey(key)
	if err != nil {
		return nil, ErrInvalidValidatorKey(SchemeSchnorr, err)
	}
	return &SchnorrVerifier{raw: schnorr.SerializePubKey(pub), pub: pub}, nil
}

func (v *SchnorrVerifier) Scheme() string { return SchemeSchnorr }

func (v *SchnorrVerifier) PublicKey() []byte { return ethcommon.CopyBytes(v.raw) }

func (v *SchnorrVerifier) Verify(digest ethcommon.Hash, signature []byte) bool {
	if len(signature) != schnorr.SignatureSize {
		return false
	}
	sig, err := schnorr.ParseSignature(signature)
	if err != nil {
		return false
	}
	hash := common.EthSignedMessageHash(digest)
	return sig.Verify(hash[:], v.pub)
}

func sameKey(a, b AttestationVerifier) bool {
	return a.Scheme() == b.Scheme() && bytes.Equal(a.PublicKey(), b.PublicKey())
}
