package state

import (
	"database/sql"
	"math/big"

	"github.com/TEENet-io/erc20-bridge-go/common"
	_ "github.com/mattn/go-sqlite3"
	logger "github.com/sirupsen/logrus"
)

func RandClaim(kind ClaimKind) *ProcessedClaim {
	return &ProcessedClaim{
		Digest:   common.RandBytes32(),
		Kind:     kind,
		TxRef:    common.RandBytes32(),
		Claimant: common.RandEthAddress(),
		Token:    common.RandEthAddress(),
		Amount:   big.NewInt(100),
	}
}

func RandWrapped(nativeChainID *big.Int) *WrappedToken {
	return &WrappedToken{
		NativeToken:   common.RandEthAddress(),
		NativeChainID: new(big.Int).Set(nativeChainID),
		WrappedToken:  common.RandEthAddress(),
	}
}

// NewMemoryStateDB is for tests and devnets; every connection to ":memory:"
// opens a fresh database, hence the single connection.
func NewMemoryStateDB() (*sql.DB, *StateDB) {
	db := getMemoryDB()
	statedb, err := NewStateDB(db)
	if err != nil {
		logger.Fatal(err)
	}
	return db, statedb
}

func getMemoryDB() *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		logger.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	return db
}
