package database

import (
	"database/sql"
	"sync"
)

// to cache prepared sql statement, which maps query string to stmt.
type StmtCache struct {
	db *sql.DB
	m  sync.Map
}

func NewStmtCache(db *sql.DB) *StmtCache {
	return &StmtCache{db: db}
}

func (sc *StmtCache) DB() *sql.DB {
	return sc.db
}

func (sc *StmtCache) Prepare(query string) (*sql.Stmt, error) {
	cached, _ := sc.m.Load(query)
	if cached == nil {
		stmt, err := sc.db.Prepare(query)
		if err != nil {
			return nil, err
		}
		actual, loaded := sc.m.LoadOrStore(query, stmt)
		if loaded {
			_ = stmt.Close()
		}
		cached = actual
	}
	return cached.(*sql.Stmt), nil
}

func (sc *StmtCache) MustPrepare(query string) *sql.Stmt {
	stmt, err := sc.Prepare(query)
	if err != nil {
		panic(err)
	}
	return stmt
}

// PrepareTx returns a statement bound to tx. The returned stmt is closed
// together with the transaction. A query that is not cached yet is prepared
// on the tx connection directly so that a pool limited to a single
// connection does not block.
func (sc *StmtCache) PrepareTx(tx *sql.Tx, query string) (*sql.Stmt, error) {
	if cached, ok := sc.m.Load(query); ok {
		return tx.Stmt(cached.(*sql.Stmt)), nil
	}
	return tx.Prepare(query)
}

// WithTx runs fn inside a transaction, commits if fn returns nil and rolls
// back otherwise.
func (sc *StmtCache) WithTx(fn func(tx *sql.Tx) error) error {
	tx, err := sc.db.Begin()
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (sc *StmtCache) Clear() {
	sc.m.Range(func(k, v interface{}) bool {
		_ = v.(*sql.Stmt).Close()
		sc.m.Delete(k)
		return true
	})
}
