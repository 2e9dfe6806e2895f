package reporter

import (
	"errors"
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrNotFound = errors.New("not found")

func ErrInvalidParam(field, value string) error {
	return fmt.Errorf("invalid %s: %q", field, value)
}

func ErrUnexpectedStatus(status int, body string) error {
	return fmt.Errorf("unexpected status %d: %s", status, body)
}

type BridgeInfo struct {
	Address         ethcommon.Address `json:"address"`
	ChainID         string            `json:"chain_id"`
	Owner           ethcommon.Address `json:"owner"`
	Scheme          string            `json:"scheme"`
	ValidatorKey    hexutil.Bytes     `json:"validator_key"`
	SupportedChains []string          `json:"supported_chains"`
}

// Amounts and chain ids are decimal strings.
type MintClaimHashRequest struct {
	Recipient     string `json:"recipient" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	NativeToken   string `json:"native_token" binding:"required"`
	NativeChainID string `json:"native_chain_id" binding:"required"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	TxRef         string `json:"tx_ref" binding:"required"`
}

type UnlockClaimHashRequest struct {
	Recipient   string `json:"recipient" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	NativeToken string `json:"native_token" binding:"required"`
	TxRef       string `json:"tx_ref" binding:"required"`
}

type EventsQuery struct {
	Since uint64 `form:"since"`
	Limit int    `form:"limit"`
}

type digestResponse struct {
	Digest ethcommon.Hash `json:"digest"`
}

type errorResponse struct {
	Error string `json:"error"`
}
