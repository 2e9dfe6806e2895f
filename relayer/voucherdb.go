package relayer

import (
	"database/sql"

	"github.com/TEENet-io/erc20-bridge-go/database"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// VoucherDB stores signed vouchers together with the event checkpoint of
// every source bridge. Several relayers may share one VoucherDB.
type VoucherDB struct {
	stmtcache *database.StmtCache
}

func NewVoucherDB(db *sql.DB) (*VoucherDB, error) {
	if _, err := db.Exec(voucherTable + checkpointTable); err != nil {
		return nil, err
	}

	return &VoucherDB{
		stmtcache: database.NewStmtCache(db),
	}, nil
}

func (db *VoucherDB) Close() {
	db.stmtcache.Clear()
}

// Save inserts the vouchers and moves the checkpoint of source to seq in a
// single transaction. Vouchers already stored are left untouched.
func (db *VoucherDB) Save(source ethcommon.Hash, seq uint64, vouchers []*Voucher) error {
	return db.stmtcache.WithTx(func(tx *sql.Tx) error {
		if len(vouchers) > 0 {
			stmt, err := db.stmtcache.PrepareTx(tx, queryInsertVoucher)
			if err != nil {
				return err
			}
			for _, v := range vouchers {
				s := new(sqlVoucher).encode(v)
				if _, err := stmt.Exec(
					s.Digest, s.Kind, s.SourceChainID, s.TargetChainID, s.TxRef, s.Recipient, s.Amount,
					s.NativeToken, s.NativeChainID, s.Name, s.Symbol, s.Scheme, s.Signature,
				); err != nil {
					return err
				}
			}
		}

		stmt, err := db.stmtcache.PrepareTx(tx, querySetCheckpoint)
		if err != nil {
			return err
		}
		_, err = stmt.Exec(hashToStr(source), seq)
		return err
	})
}

func (db *VoucherDB) GetCheckpoint(source ethcommon.Hash) (uint64, error) {
	stmt, err := db.stmtcache.Prepare(queryGetCheckpoint)
	if err != nil {
		return 0, err
	}

	var seq uint64
	if err := stmt.QueryRow(hashToStr(source)).Scan(&seq); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return seq, nil
}

func (db *VoucherDB) GetVoucher(digest ethcommon.Hash) (*Voucher, bool, error) {
	stmt, err := db.stmtcache.Prepare(queryGetVoucher)
	if err != nil {
		return nil, false, err
	}

	v, err := scanVoucher(stmt.QueryRow(hashToStr(digest)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

func (db *VoucherDB) GetVouchersByRecipient(recipient ethcommon.Address) ([]*Voucher, error) {
	stmt, err := db.stmtcache.Prepare(queryGetVouchersByRecipient)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(addrToStr(recipient))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vouchers := []*Voucher{}
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanVoucher(row scanner) (*Voucher, error) {
	var s sqlVoucher
	if err := row.Scan(
		&s.Digest, &s.Kind, &s.SourceChainID, &s.TargetChainID, &s.TxRef, &s.Recipient, &s.Amount,
		&s.NativeToken, &s.NativeChainID, &s.Name, &s.Symbol, &s.Scheme, &s.Signature,
	); err != nil {
		return nil, err
	}
	return s.decode(), nil
}
