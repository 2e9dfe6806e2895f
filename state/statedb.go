package state

import (
	"database/sql"
	"math/big"

	"github.com/TEENet-io/erc20-bridge-go/common"
	"github.com/TEENet-io/erc20-bridge-go/database"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

type StateDB struct {
	stmtCache *database.StmtCache
}

func NewStateDB(db *sql.DB) (*StateDB, error) {
	// 1. Create the tables.
	if _, err := db.Exec(
		kvTable + supportedChainTable + wrappedTokenTable + processedClaimTable + eventLogTable,
	); err != nil {
		return nil, err
	}

	// 2. A stmt cache + db.
	return &StateDB{
		stmtCache: database.NewStmtCache(db),
	}, nil
}

func (st *StateDB) Close() {
	st.stmtCache.Clear()
}

func (st *StateDB) GetKeyedValue(key ethcommon.Hash) ([]byte, bool, error) {
	query := `SELECT value FROM kv WHERE key = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, false, err
	}

	var value string
	if err := stmt.QueryRow(hashToStr(key)).Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}

	return common.HexStrToByteSlice(value), true, nil
}

func (st *StateDB) SetKeyedValue(key ethcommon.Hash, value []byte) error {
	query := `INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return err
	}

	if _, err := stmt.Exec(hashToStr(key), common.ByteSliceToPureHexStr(value)); err != nil {
		return err
	}

	return nil
}

func (st *StateDB) IsChainSupported(chainID *big.Int) (bool, error) {
	query := `SELECT enabled FROM supportedChain WHERE chainId = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return false, err
	}

	var enabled bool
	if err := stmt.QueryRow(bigToStr(chainID)).Scan(&enabled); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return enabled, nil
}

func (st *StateDB) GetSupportedChains() ([]*big.Int, error) {
	query := `SELECT chainId FROM supportedChain WHERE enabled = TRUE ORDER BY chainId`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chains []*big.Int
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		chains = append(chains, strToBig(s))
	}
	return chains, rows.Err()
}

func (st *StateDB) GetWrapped(nativeToken ethcommon.Address, nativeChainID *big.Int) (*WrappedToken, bool, error) {
	query := `SELECT nativeToken, nativeChainId, wrappedToken FROM wrappedToken
		WHERE nativeToken = ? AND nativeChainId = ?`
	return st.getWrapped(query, addrToStr(nativeToken), bigToStr(nativeChainID))
}

func (st *StateDB) GetNative(wrappedToken ethcommon.Address) (*WrappedToken, bool, error) {
	query := `SELECT nativeToken, nativeChainId, wrappedToken FROM wrappedToken WHERE wrappedToken = ?`
	return st.getWrapped(query, addrToStr(wrappedToken))
}

func (st *StateDB) getWrapped(query string, args ...interface{}) (*WrappedToken, bool, error) {
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, false, err
	}

	var w sqlWrapped
	if err := stmt.QueryRow(args...).Scan(&w.NativeToken, &w.NativeChainID, &w.WrappedToken); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return w.decode(), true, nil
}

func (st *StateDB) GetAllWrapped() ([]*WrappedToken, error) {
	query := `SELECT nativeToken, nativeChainId, wrappedToken FROM wrappedToken`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ws []*WrappedToken
	for rows.Next() {
		var w sqlWrapped
		if err := rows.Scan(&w.NativeToken, &w.NativeChainID, &w.WrappedToken); err != nil {
			return nil, err
		}
		ws = append(ws, w.decode())
	}
	return ws, rows.Err()
}

func (st *StateDB) GetClaim(digest ethcommon.Hash) (*ProcessedClaim, bool, error) {
	query := `SELECT digest, kind, txRef, claimant, token, amount FROM processedClaim WHERE digest = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, false, err
	}

	var c sqlClaim
	if err := stmt.QueryRow(hashToStr(digest)).Scan(
		&c.Digest,
		&c.Kind,
		&c.TxRef,
		&c.Claimant,
		&c.Token,
		&c.Amount,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return c.decode(), true, nil
}

// DeleteClaim removes a processed claim. It is a no-op for unknown digests.
func (st *StateDB) DeleteClaim(digest ethcommon.Hash) error {
	stmt, err := st.stmtCache.Prepare(`DELETE FROM processedClaim WHERE digest = ?`)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(hashToStr(digest))
	return err
}

func (st *StateDB) GetLastEventSeq() (uint64, error) {
	query := `SELECT COALESCE(MAX(seq), 0) FROM eventLog`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return 0, err
	}

	var seq uint64
	if err := stmt.QueryRow().Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

// GetEventsSince returns at most limit events with sequence numbers larger
// than seq, in ascending order.
func (st *StateDB) GetEventsSince(seq uint64, limit int) ([]*EventRecord, error) {
	query := `SELECT seq, kind, txRef, payload FROM eventLog WHERE seq > ? ORDER BY seq LIMIT ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(seq, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evs []*EventRecord
	for rows.Next() {
		var (
			ev    EventRecord
			txRef string
		)
		if err := rows.Scan(&ev.Seq, &ev.Kind, &txRef, &ev.Payload); err != nil {
			return nil, err
		}
		ev.TxRef = strToHash(txRef)
		evs = append(evs, &ev)
	}
	return evs, rows.Err()
}

// commit writes a whole write set in a single sql transaction.
func (st *StateDB) commit(ws *writeSet) error {
	return st.stmtCache.WithTx(func(tx *sql.Tx) error {
		if len(ws.kv) > 0 {
			stmt, err := st.stmtCache.PrepareTx(tx, `INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`)
			if err != nil {
				return err
			}
			for k, v := range ws.kv {
				if _, err := stmt.Exec(hashToStr(k), common.ByteSliceToPureHexStr(v)); err != nil {
					return err
				}
			}
		}

		if len(ws.chains) > 0 {
			stmt, err := st.stmtCache.PrepareTx(tx,
				`INSERT OR REPLACE INTO supportedChain (chainId, enabled) VALUES (?, ?)`)
			if err != nil {
				return err
			}
			for k, enabled := range ws.chains {
				if _, err := stmt.Exec(hashToStr(k), enabled); err != nil {
					return err
				}
			}
		}

		if len(ws.wrapped) > 0 {
			stmt, err := st.stmtCache.PrepareTx(tx,
				`INSERT INTO wrappedToken (nativeToken, nativeChainId, wrappedToken) VALUES (?, ?, ?)`)
			if err != nil {
				return err
			}
			for _, w := range ws.wrapped {
				s := new(sqlWrapped).encode(w)
				if _, err := stmt.Exec(s.NativeToken, s.NativeChainID, s.WrappedToken); err != nil {
					return err
				}
			}
		}

		if len(ws.claims) > 0 {
			stmt, err := st.stmtCache.PrepareTx(tx, `INSERT INTO processedClaim
				(digest, kind, txRef, claimant, token, amount) VALUES (?, ?, ?, ?, ?, ?)`)
			if err != nil {
				return err
			}
			for _, c := range ws.claims {
				s := new(sqlClaim).encode(c)
				if _, err := stmt.Exec(s.Digest, s.Kind, s.TxRef, s.Claimant, s.Token, s.Amount); err != nil {
					return err
				}
			}
		}

		if len(ws.events) > 0 {
			stmt, err := st.stmtCache.PrepareTx(tx,
				`INSERT INTO eventLog (seq, kind, txRef, payload) VALUES (?, ?, ?, ?)`)
			if err != nil {
				return err
			}
			for _, ev := range ws.events {
				if _, err := stmt.Exec(ev.Seq, ev.Kind, hashToStr(ev.TxRef), ev.Payload); err != nil {
					return err
				}
			}
		}

		return nil
	})
}
