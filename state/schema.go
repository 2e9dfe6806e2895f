package state

import "strings"

var (
	strZeroBytes32 = strings.Repeat("0", 64)
	strZeroBytes20 = strings.Repeat("0", 40)

	// table stores key-value pairs. Keys are 32-byte hex strings without
	// prefix '0x', values are hex strings of any length.
	kvTable = `CREATE TABLE IF NOT EXISTS kv (
		key CHAR(64) PRIMARY KEY NOT NULL,
		value TEXT NOT NULL
	);`

	// chains that lockNativeToken may target
	supportedChainTable = `CREATE TABLE IF NOT EXISTS supportedChain (
		chainId CHAR(64) PRIMARY KEY NOT NULL,
		enabled BOOLEAN NOT NULL
	);`

	// registry of wrapped tokens, readable in both directions
	wrappedTokenTable = `CREATE TABLE IF NOT EXISTS wrappedToken (
		nativeToken CHAR(40) NOT NULL,
		nativeChainId CHAR(64) NOT NULL,
		wrappedToken CHAR(40) UNIQUE NOT NULL,
		PRIMARY KEY (nativeToken, nativeChainId),
		CONSTRAINT chk_nativeToken CHECK (nativeToken != '` + strZeroBytes20 + `'),
		CONSTRAINT chk_wrappedToken CHECK (wrappedToken != '` + strZeroBytes20 + `')
	);`

	// append-only set of executed claim digests
	processedClaimTable = `CREATE TABLE IF NOT EXISTS processedClaim (
		digest CHAR(64) PRIMARY KEY NOT NULL,
		kind VARCHAR(10) NOT NULL,
		txRef CHAR(64) NOT NULL,
		claimant CHAR(40) NOT NULL,
		token CHAR(40) NOT NULL,
		amount CHAR(64) NOT NULL,
		CONSTRAINT chk_kind CHECK (kind IN ('mint', 'unlock')),
		CONSTRAINT chk_digest CHECK (digest != '` + strZeroBytes32 + `'),
		CONSTRAINT chk_amount CHECK (amount != '` + strZeroBytes32 + `')
	);`

	eventLogTable = `CREATE TABLE IF NOT EXISTS eventLog (
		seq INTEGER PRIMARY KEY NOT NULL,
		kind VARCHAR(32) NOT NULL,
		txRef CHAR(64) NOT NULL,
		payload BLOB NOT NULL,
		CONSTRAINT chk_seq CHECK (seq > 0)
	);`
)
