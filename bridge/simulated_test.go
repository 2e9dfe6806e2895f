package bridge

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"

	bcommon "github.com/TEENet-io/erc20-bridge-go/common"
	"github.com/TEENet-io/erc20-bridge-go/ledger"
	"github.com/TEENet-io/erc20-bridge-go/state"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

var (
	nativeChainID = big.NewInt(1)
	remoteChainID = big.NewInt(123)
)

type testBridge struct {
	*Bridge
	ledger    *ledger.Ledger
	statedb   *state.StateDB
	owner     common.Address
	validator *ecdsa.PrivateKey
	close     func()
}

func newTestBridge(t *testing.T, chainID *big.Int, supported ...*big.Int) *testBridge {
	sqlDB, statedb := state.NewMemoryStateDB()
	st, err := state.New(statedb, &state.Config{ChainID: chainID, CacheSize: 16})
	require.NoError(t, err)

	validator, err := crypto.GenerateKey()
	require.NoError(t, err)
	owner := bcommon.RandEthAddress()
	l := ledger.NewLedger(chainID)

	b, err := New(&Config{
		Address:           crypto.CreateAddress(owner, 0),
		ChainID:           chainID,
		Owner:             owner,
		SupportedChainIDs: supported,
		Scheme:            SchemeECDSA,
		ValidatorKey:      crypto.PubkeyToAddress(validator.PublicKey).Bytes(),
	}, st, l, l)
	require.NoError(t, err)

	return &testBridge{
		Bridge:    b,
		ledger:    l,
		statedb:   statedb,
		owner:     owner,
		validator: validator,
		close: func() {
			b.Close()
			statedb.Close()
			sqlDB.Close()
		},
	}
}

func signECDSA(t *testing.T, key *ecdsa.PrivateKey, digest common.Hash) []byte {
	hash := bcommon.EthSignedMessageHash(digest)
	sig, err := crypto.Sign(hash[:], key)
	require.NoError(t, err)
	sig[64] += 27
	return sig
}

func signSchnorr(t *testing.T, key *btcec.PrivateKey, digest common.Hash) []byte {
	hash := bcommon.EthSignedMessageHash(digest)
	sig, err := schnorr.Sign(key, hash[:])
	require.NoError(t, err)
	return sig.Serialize()
}

func (tb *testBridge) signMint(
	t *testing.T,
	recipient common.Address,
	amount *big.Int,
	nativeToken common.Address,
	nativeChainID *big.Int,
	name, symbol string,
	txRef common.Hash,
) []byte {
	digest := tb.GetMintClaimHash(recipient, amount, nativeToken, nativeChainID, name, symbol, txRef)
	return signECDSA(t, tb.validator, digest)
}

func (tb *testBridge) signUnlock(
	t *testing.T,
	recipient common.Address,
	amount *big.Int,
	nativeToken common.Address,
	txRef common.Hash,
) []byte {
	digest := tb.GetUnlockClaimHash(recipient, amount, nativeToken, txRef)
	return signECDSA(t, tb.validator, digest)
}

// fund mints amount of a fresh test token to user and approves the bridge.
func (tb *testBridge) fund(t *testing.T, user common.Address, amount *big.Int) *ledger.SimToken {
	ctx := context.Background()
	token := tb.ledger.DeployToken(bcommon.RandEthAddress(), "Cool Token", "COOL")
	require.NoError(t, token.Mint(ctx, user, user, amount))
	require.NoError(t, token.Approve(ctx, user, tb.Address(), amount))
	return token
}

func balanceOf(t *testing.T, token ledger.Token, account common.Address) *big.Int {
	bal, err := token.BalanceOf(context.Background(), account)
	require.NoError(t, err)
	return bal
}

// hostileToken calls back into the bridge from inside token transfers.
type hostileToken struct {
	*ledger.SimToken
	onTransfer     func(ctx context.Context) error
	onTransferFrom func(ctx context.Context) error
}

func (h *hostileToken) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if h.onTransfer != nil {
		if err := h.onTransfer(ctx); err != nil {
			return err
		}
	}
	return h.SimToken.Transfer(ctx, from, to, amount)
}

func (h *hostileToken) TransferFrom(ctx context.Context, spender, from, to common.Address, amount *big.Int) error {
	if h.onTransferFrom != nil {
		if err := h.onTransferFrom(ctx); err != nil {
			return err
		}
	}
	return h.SimToken.TransferFrom(ctx, spender, from, to, amount)
}

func newHostileToken(t *testing.T, l *ledger.Ledger) *hostileToken {
	h := &hostileToken{
		SimToken: ledger.NewSimToken(&ledger.SimTokenConfig{
			Address:    bcommon.RandEthAddress(),
			Owner:      bcommon.RandEthAddress(),
			Name:       "Hostile",
			Symbol:     "HST",
			Decimals:   ledger.DefaultDecimals,
			PublicMint: true,
			ChainID:    l.ChainID(),
		}),
	}
	require.NoError(t, l.Register(h))
	return h
}
