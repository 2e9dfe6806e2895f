package relayer

import (
	"fmt"
	"math/big"

	"github.com/TEENet-io/erc20-bridge-go/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type VoucherKind string

const (
	VoucherMint   VoucherKind = "mint"
	VoucherUnlock VoucherKind = "unlock"
)

// Voucher carries everything a recipient needs to submit a claim on the
// target chain: the claim arguments and the attestor's signature over the
// claim digest.
type Voucher struct {
	Digest        ethcommon.Hash    `json:"digest"`
	Kind          VoucherKind       `json:"kind"`
	SourceChainID *big.Int          `json:"source_chain_id"`
	TargetChainID *big.Int          `json:"target_chain_id"`
	TxRef         ethcommon.Hash    `json:"tx_ref"`
	Recipient     ethcommon.Address `json:"recipient"`
	Amount        *big.Int          `json:"amount"`
	NativeToken   ethcommon.Address `json:"native_token"`
	NativeChainID *big.Int          `json:"native_chain_id"`

	// mint vouchers only
	Name   string `json:"name,omitempty"`
	Symbol string `json:"symbol,omitempty"`

	Scheme    string        `json:"scheme"`
	Signature hexutil.Bytes `json:"signature"`
}

func (v *Voucher) String() string {
	return fmt.Sprintf("%s voucher %s: %v to %s on chain %v",
		v.Kind, common.Shorten(v.Digest.String(), 8), v.Amount, v.Recipient.Hex(), v.TargetChainID)
}

type sqlVoucher struct {
	Digest        string
	Kind          string
	SourceChainID string
	TargetChainID string
	TxRef         string
	Recipient     string
	Amount        string
	NativeToken   string
	NativeChainID string
	Name          string
	Symbol        string
	Scheme        string
	Signature     []byte
}

func (s *sqlVoucher) encode(v *Voucher) *sqlVoucher {
	s.Digest = hashToStr(v.Digest)
	s.Kind = string(v.Kind)
	s.SourceChainID = bigToStr(v.SourceChainID)
	s.TargetChainID = bigToStr(v.TargetChainID)
	s.TxRef = hashToStr(v.TxRef)
	s.Recipient = addrToStr(v.Recipient)
	s.Amount = bigToStr(v.Amount)
	s.NativeToken = addrToStr(v.NativeToken)
	s.NativeChainID = bigToStr(v.NativeChainID)
	s.Name = v.Name
	s.Symbol = v.Symbol
	s.Scheme = v.Scheme
	s.Signature = ethcommon.CopyBytes(v.Signature)
	return s
}

func (s *sqlVoucher) decode() *Voucher {
	return &Voucher{
		Digest:        common.HexStrToBytes32(s.Digest),
		Kind:          VoucherKind(s.Kind),
		SourceChainID: common.HexStrToBigInt(s.SourceChainID),
		TargetChainID: common.HexStrToBigInt(s.TargetChainID),
		TxRef:         common.HexStrToBytes32(s.TxRef),
		Recipient:     ethcommon.BytesToAddress(common.HexStrToByteSlice(s.Recipient)),
		Amount:        common.HexStrToBigInt(s.Amount),
		NativeToken:   ethcommon.BytesToAddress(common.HexStrToByteSlice(s.NativeToken)),
		NativeChainID: common.HexStrToBigInt(s.NativeChainID),
		Name:          s.Name,
		Symbol:        s.Symbol,
		Scheme:        s.Scheme,
		Signature:     ethcommon.CopyBytes(s.Signature),
	}
}

func hashToStr(h ethcommon.Hash) string {
	return h.String()[2:]
}

func addrToStr(a ethcommon.Address) string {
	return common.ByteSliceToPureHexStr(a.Bytes())
}

func bigToStr(v *big.Int) string {
	b := common.BigInt2Bytes32(v)
	return common.ByteSliceToPureHexStr(b[:])
}
