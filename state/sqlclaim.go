package state

import (
	"math/big"

	"github.com/TEENet-io/erc20-bridge-go/common"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

type sqlClaim struct {
	Digest   string
	Kind     string
	TxRef    string
	Claimant string // hex representation of address (no 0x prefix)
	Token    string
	Amount   string // 32-byte big endian hex
}

func (s *sqlClaim) encode(c *ProcessedClaim) *sqlClaim {
	s.Digest = hashToStr(c.Digest)
	s.Kind = string(c.Kind)
	s.TxRef = hashToStr(c.TxRef)
	s.Claimant = addrToStr(c.Claimant)
	s.Token = addrToStr(c.Token)
	s.Amount = bigToStr(c.Amount)
	return s
}

func (s *sqlClaim) decode() *ProcessedClaim {
	return &ProcessedClaim{
		Digest:   strToHash(s.Digest),
		Kind:     ClaimKind(s.Kind),
		TxRef:    strToHash(s.TxRef),
		Claimant: strToAddr(s.Claimant),
		Token:    strToAddr(s.Token),
		Amount:   strToBig(s.Amount),
	}
}

type sqlWrapped struct {
	NativeToken   string
	NativeChainID string
	WrappedToken  string
}

func (s *sqlWrapped) encode(w *WrappedToken) *sqlWrapped {
	s.NativeToken = addrToStr(w.NativeToken)
	s.NativeChainID = bigToStr(w.NativeChainID)
	s.WrappedToken = addrToStr(w.WrappedToken)
	return s
}

func (s *sqlWrapped) decode() *WrappedToken {
	return &WrappedToken{
		NativeToken:   strToAddr(s.NativeToken),
		NativeChainID: strToBig(s.NativeChainID),
		WrappedToken:  strToAddr(s.WrappedToken),
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

func strToHash(s string) ethcommon.Hash {
	return common.HexStrToBytes32(s)
}

func strToAddr(s string) ethcommon.Address {
	return ethcommon.BytesToAddress(common.HexStrToByteSlice(s))
}

func strToBig(s string) *big.Int {
	return new(big.Int).SetBytes(common.HexStrToByteSlice(s))
}
