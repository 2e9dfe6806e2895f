package common

import (
	"crypto/rand"

	"github.com/ethereum/go-ethereum/accounts"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

func RandEthAddress() ethcommon.Address {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return ethcommon.Address{}
	}
	return ethcommon.BytesToAddress(b[:])
}

// EthSignedMessageHash returns keccak256("\x19Ethereum Signed Message:\n32" || digest),
// the hash validators actually sign for a claim digest.
func EthSignedMessageHash(digest ethcommon.Hash) ethcommon.Hash {
	return ethcommon.BytesToHash(accounts.TextHash(digest[:]))
}
