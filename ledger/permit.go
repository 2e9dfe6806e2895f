package ledger

import (
	"crypto/ecdsa"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const PermitDomainVersion = "1"

var (
	// EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)
	EIP712DomainTypeHash = crypto.Keccak256Hash([]byte(
		"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)",
	))

	// Permit(address owner,address spender,uint256 value,uint256 nonce,uint256 deadline)
	PermitTypeHash = crypto.Keccak256Hash([]byte(
		"Permit(address owner,address spender,uint256 value,uint256 nonce,uint256 deadline)",
	))

	ErrInvalidSignatureLength = errors.New("signature must be 65 bytes long")
)

var (
	bytes32Type, _ = abi.NewType("bytes32", "", nil)
	uint256Type, _ = abi.NewType("uint256", "", nil)
	addressType, _ = abi.NewType("address", "", nil)
)

// DomainSeparator computes the EIP-712 domain separator of a permit token.
func DomainSeparator(name string, chainID *big.Int, verifyingContract common.Address) common.Hash {
	arguments := abi.Arguments{
		{Type: bytes32Type}, // typeHash
		{Type: bytes32Type}, // nameHash
		{Type: bytes32Type}, // versionHash
		{Type: uint256Type}, // chainId
		{Type: addressType}, // verifyingContract
	}

	encoded, err := arguments.Pack(
		EIP712DomainTypeHash,
		crypto.Keccak256Hash([]byte(name)),
		crypto.Keccak256Hash([]byte(PermitDomainVersion)),
		chainID,
		verifyingContract,
	)
	if err != nil {
		panic("failed to encode domain separator: " + err.Error())
	}

	return crypto.Keccak256Hash(encoded)
}

// PermitStructHash computes hashStruct(Permit).
func PermitStructHash(owner, spender common.Address, value, nonce, deadline *big.Int) common.Hash {
	arguments := abi.Arguments{
		{Type: bytes32Type}, // typeHash
		{Type: addressType}, // owner
		{Type: addressType}, // spender
		{Type: uint256Type}, // value
		{Type: uint256Type}, // nonce
		{Type: uint256Type}, // deadline
	}

	encoded, err := arguments.Pack(PermitTypeHash, owner, spender, value, nonce, deadline)
	if err != nil {
		panic("failed to encode permit struct: " + err.Error())
	}

	return crypto.Keccak256Hash(encoded)
}

// PermitDigest is keccak256("\x19\x01" || domainSeparator || structHash).
func PermitDigest(domainSeparator, structHash common.Hash) common.Hash {
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, domainSeparator[:], structHash[:])
}

// SplitSignature splits a 65-byte r || s || v signature. v is normalized to
// 27/28.
func SplitSignature(sig []byte) (v uint8, r, s [32]byte, err error) {
	if len(sig) != crypto.SignatureLength {
		return 0, r, s, ErrInvalidSignatureLength
	}
	copy(r[:], sig[:32])
	copy(s[:], sig[32:64])
	v = sig[64]
	if v < 27 {
		v += 27
	}
	return v, r, s, nil
}

// JoinSignature is the inverse of SplitSignature.
func JoinSignature(v uint8, r, s [32]byte) []byte {
	sig := make([]byte, crypto.SignatureLength)
	copy(sig[:32], r[:])
	copy(sig[32:64], s[:])
	sig[64] = v
	return sig
}

// recoverSigner returns the address that produced (v, r, s) over digest.
// High-s and out of range v values are rejected.
func recoverSigner(digest common.Hash, v uint8, r, s [32]byte) (common.Address, bool) {
	if v != 27 && v != 28 {
		return common.Address{}, false
	}
	if !crypto.ValidateSignatureValues(v-27, new(big.Int).SetBytes(r[:]), new(big.Int).SetBytes(s[:]), true) {
		return common.Address{}, false
	}

	sig := JoinSignature(v-27, r, s)
	pub, err := crypto.SigToPub(digest[:], sig)
	if err != nil {
		return common.Address{}, false
	}
	return crypto.PubkeyToAddress(*pub), true
}

// SignPermit produces the (v, r, s) an owner hands out so that spender may
// pull value from the owner's balance until deadline.
func SignPermit(
	key *ecdsa.PrivateKey,
	domainSeparator common.Hash,
	spender common.Address,
	value, nonce, deadline *big.Int,
) ([]byte, error) {
	owner := crypto.PubkeyToAddress(key.PublicKey)
	digest := PermitDigest(domainSeparator, PermitStructHash(owner, spender, value, nonce, deadline))

	sig, err := crypto.Sign(digest[:], key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}
