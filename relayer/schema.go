package relayer

import "strings"

var (
	strZeroBytes32 = strings.Repeat("0", 64)

	voucherTable = `CREATE TABLE IF NOT EXISTS voucher (
		digest CHAR(64) PRIMARY KEY NOT NULL,
		kind VARCHAR(6) NOT NULL,
		sourceChainId CHAR(64) NOT NULL,
		targetChainId CHAR(64) NOT NULL,
		txRef CHAR(64) NOT NULL,
		recipient CHAR(40) NOT NULL,
		amount CHAR(64) NOT NULL,
		nativeToken CHAR(40) NOT NULL,
		nativeChainId CHAR(64) NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		symbol TEXT NOT NULL DEFAULT '',
		scheme VARCHAR(10) NOT NULL,
		signature BLOB NOT NULL,
		createdAt TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT chk_digest CHECK (digest != '` + strZeroBytes32 + `'),
		CONSTRAINT chk_kind CHECK (kind IN ('mint', 'unlock')),
		CONSTRAINT chk_amount CHECK (amount != '` + strZeroBytes32 + `')
	);
	CREATE INDEX IF NOT EXISTS idx_voucher_recipient ON voucher (recipient);`

	checkpointTable = `CREATE TABLE IF NOT EXISTS checkpoint (
		source CHAR(64) PRIMARY KEY NOT NULL,
		seq INTEGER NOT NULL,
		CONSTRAINT chk_seq CHECK (seq >= 0)
	);`

	voucherColumns = `digest, kind, sourceChainId, targetChainId, txRef, recipient, amount,
		nativeToken, nativeChainId, name, symbol, scheme, signature`

	queryInsertVoucher = `INSERT OR IGNORE INTO voucher (` + voucherColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
	queryGetVoucher             = `SELECT ` + voucherColumns + ` FROM voucher WHERE digest = ?;`
	queryGetVouchersByRecipient = `SELECT ` + voucherColumns + ` FROM voucher WHERE recipient = ? ORDER BY createdAt ASC, digest ASC;`
	queryGetCheckpoint          = `SELECT seq FROM checkpoint WHERE source = ?;`
	querySetCheckpoint          = `INSERT OR REPLACE INTO checkpoint (source, seq) VALUES (?, ?);`
)
