package bridge

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/TEENet-io/erc20-bridge-go/state"
	"github.com/ethereum/go-ethereum/common"
)

type EventKind string

const (
	EventLockRecorded          EventKind = "LockRecorded"
	EventBurnRecorded          EventKind = "BurnRecorded"
	EventMintClaimed           EventKind = "MintClaimed"
	EventUnlockClaimed         EventKind = "UnlockClaimed"
	EventWrappedTokenCreated   EventKind = "WrappedTokenCreated"
	EventSupportedChainUpdated EventKind = "SupportedChainUpdated"
	EventValidatorKeyUpdated   EventKind = "ValidatorKeyUpdated"
	EventOwnershipTransferred  EventKind = "OwnershipTransferred"
)

// Event is a committed bridge event. Data holds the payload matching Kind,
// e.g. *LockRecorded for EventLockRecorded.
type Event struct {
	Seq   uint64      `json:"seq"`
	Kind  EventKind   `json:"kind"`
	TxRef common.Hash `json:"tx_ref"`
	Data  interface{} `json:"data"`
}

type LockRecorded struct {
	Locker        common.Address `json:"locker"`
	Token         common.Address `json:"token"`
	Amount        *big.Int       `json:"amount"`
	TargetChainID *big.Int       `json:"target_chain_id"`
}

type BurnRecorded struct {
	Burner       common.Address `json:"burner"`
	WrappedToken common.Address `json:"wrapped_token"`
	Amount       *big.Int       `json:"amount"`
}

type MintClaimed struct {
	Recipient     common.Address `json:"recipient"`
	WrappedToken  common.Address `json:"wrapped_token"`
	NativeToken   common.Address `json:"native_token"`
	NativeChainID *big.Int       `json:"native_chain_id"`
	Amount        *big.Int       `json:"amount"`
	ClaimTxRef    common.Hash    `json:"claim_tx_ref"`
	Digest        common.Hash    `json:"digest"`
}

type UnlockClaimed struct {
	Recipient   common.Address `json:"recipient"`
	NativeToken common.Address `json:"native_token"`
	Amount      *big.Int       `json:"amount"`
	ClaimTxRef  common.Hash    `json:"claim_tx_ref"`
	Digest      common.Hash    `json:"digest"`
}

type WrappedTokenCreated struct {
	NativeToken   common.Address `json:"native_token"`
	NativeChainID *big.Int       `json:"native_chain_id"`
	WrappedToken  common.Address `json:"wrapped_token"`
	Name          string         `json:"name"`
	Symbol        string         `json:"symbol"`
}

type SupportedChainUpdated struct {
	ChainID *big.Int `json:"chain_id"`
	Enabled bool     `json:"enabled"`
}

type ValidatorKeyUpdated struct {
	Scheme string `json:"scheme"`
	OldKey []byte `json:"old_key"`
	NewKey []byte `json:"new_key"`
}

type OwnershipTransferred struct {
	PreviousOwner common.Address `json:"previous_owner"`
	NewOwner      common.Address `json:"new_owner"`
}

func newEventData(kind EventKind) (interface{}, error) {
	switch kind {
	case EventLockRecorded:
		return &LockRecorded{}, nil
	case EventBurnRecorded:
		return &BurnRecorded{}, nil
	case EventMintClaimed:
		return &MintClaimed{}, nil
	case EventUnlockClaimed:
		return &UnlockClaimed{}, nil
	case EventWrappedTokenCreated:
		return &WrappedTokenCreated{}, nil
	case EventSupportedChainUpdated:
		return &SupportedChainUpdated{}, nil
	case EventValidatorKeyUpdated:
		return &ValidatorKeyUpdated{}, nil
	case EventOwnershipTransferred:
		return &OwnershipTransferred{}, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
}

func decodeEvent(rec *state.EventRecord) (*Event, error) {
	data, err := newEventData(EventKind(rec.Kind))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rec.Payload, data); err != nil {
		return nil, fmt.Errorf("failed to decode event %d: %w", rec.Seq, err)
	}
	return &Event{
		Seq:   rec.Seq,
		Kind:  EventKind(rec.Kind),
		TxRef: rec.TxRef,
		Data:  data,
	}, nil
}
