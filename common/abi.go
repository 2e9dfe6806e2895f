package common

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	logger "github.com/sirupsen/logrus"
)

// EncodePacked mirrors solidity's abi.encodePacked for the value kinds the
// bridge hashes. Integers are always widened to uint256; strings are taken
// as raw utf-8 bytes.
func EncodePacked(values ...interface{}) []byte {
	var res [][]byte
	for _, value := range values {
		switch v := value.(type) {
		case string:
			res = append(res, []byte(v))
		case []byte:
			res = append(res, v)
		case [32]byte:
			res = append(res, v[:])
		case uint64:
			res = append(res, math.U256Bytes(new(big.Int).SetUint64(v)))
		case *big.Int:
			res = append(res, math.U256Bytes(BigIntClone(v)))
		case []*big.Int:
			res = append(res, encodeBigIntArray(v))
		case common.Hash:
			res = append(res, v[:])
		case []common.Hash:
			res = append(res, encodeHashArray(v))
		case common.Address:
			res = append(res, v.Bytes())
		case []common.Address:
			res = append(res, encodeAddressArray(v))
		default:
			logger.Fatalf("EncodePacked: unsupported type %T", value)
		}
	}
	return bytes.Join(res, nil)
}

func encodeAddressArray(arr []common.Address) []byte {
	var res [][]byte
	for _, v := range arr {
		res = append(res, v.Bytes())
	}

	return bytes.Join(res, nil)
}

func encodeHashArray(arr []common.Hash) []byte {
	var res [][]byte
	for _, v := range arr {
		res = append(res, v[:])
	}

	return bytes.Join(res, nil)
}

func encodeBigIntArray(arr []*big.Int) []byte {
	var res [][]byte
	for _, v := range arr {
		res = append(res, math.U256Bytes(BigIntClone(v)))
	}

	return bytes.Join(res, nil)
}
