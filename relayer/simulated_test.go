package relayer

import (
	"database/sql"
	"math/big"
	"testing"

	"github.com/TEENet-io/erc20-bridge-go/bridge"
	"github.com/TEENet-io/erc20-bridge-go/common"
	"github.com/TEENet-io/erc20-bridge-go/ledger"
	"github.com/TEENet-io/erc20-bridge-go/state"
	"github.com/TEENet-io/erc20-bridge-go/validator"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

var (
	nativeChainID = big.NewInt(1)
	remoteChainID = big.NewInt(123)
)

type testChain struct {
	*bridge.Bridge
	ledger *ledger.Ledger
	close  func()
}

func newTestChain(t *testing.T, chainID *big.Int, signer validator.Signer, supported ...*big.Int) *testChain {
	sqlDB, statedb := state.NewMemoryStateDB()
	st, err := state.New(statedb, &state.Config{ChainID: chainID, CacheSize: 16})
	require.NoError(t, err)

	owner := common.RandEthAddress()
	l := ledger.NewLedger(chainID)
	b, err := bridge.New(&bridge.Config{
		Address:           crypto.CreateAddress(owner, 0),
		ChainID:           chainID,
		Owner:             owner,
		SupportedChainIDs: supported,
		Scheme:            signer.Scheme(),
		ValidatorKey:      signer.PublicKey(),
	}, st, l, l)
	require.NoError(t, err)

	return &testChain{
		Bridge: b,
		ledger: l,
		close: func() {
			b.Close()
			statedb.Close()
			sqlDB.Close()
		},
	}
}

func newVoucherDB(t *testing.T) (*VoucherDB, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	vdb, err := NewVoucherDB(db)
	require.NoError(t, err)

	return vdb, func() {
		vdb.Close()
		db.Close()
	}
}

func randVoucher(kind VoucherKind, recipient ethcommon.Address) *Voucher {
	return &Voucher{
		Digest:        common.RandBytes32(),
		Kind:          kind,
		SourceChainID: big.NewInt(1),
		TargetChainID: big.NewInt(123),
		TxRef:         common.RandBytes32(),
		Recipient:     recipient,
		Amount:        big.NewInt(1000),
		NativeToken:   common.RandEthAddress(),
		NativeChainID: big.NewInt(1),
		Name:          "Cool Token",
		Symbol:        "COOL",
		Scheme:        bridge.SchemeECDSA,
		Signature:     common.RandBytes(65),
	}
}
