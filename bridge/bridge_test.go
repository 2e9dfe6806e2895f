package bridge

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	bcommon "github.com/TEENet-io/erc20-bridge-go/common"
	"github.com/TEENet-io/erc20-bridge-go/ledger"
	"github.com/TEENet-io/erc20-bridge-go/state"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialConfig(t *testing.T) {
	tb := newTestBridge(t, nativeChainID, remoteChainID)
	defer tb.close()

	owner, err := tb.Owner()
	assert.NoError(t, err)
	assert.Equal(t, tb.owner, owner)

	ok, err := tb.IsChainSupported(remoteChainID)
	assert.NoError(t, err)
	assert.True(t, ok)
	ok, err = tb.IsChainSupported(big.NewInt(999))
	assert.NoError(t, err)
	assert.False(t, ok)

	scheme, key, err := tb.ValidatorPublicKey()
	assert.NoError(t, err)
	assert.Equal(t, SchemeECDSA, scheme)
	assert.Equal(t, crypto.PubkeyToAddress(tb.validator.PublicKey).Bytes(), key)

	evs, err := tb.EventsSince(0, 0)
	assert.NoError(t, err)
	require.Len(t, evs, 3)
	assert.Equal(t, EventOwnershipTransferred, evs[0].Kind)
	assert.Equal(t, EventSupportedChainUpdated, evs[1].Kind)
	assert.Equal(t, EventValidatorKeyUpdated, evs[2].Kind)
	for i, ev := range evs {
		assert.Equal(t, uint64(i+1), ev.Seq)
		assert.Equal(t, TxRef(nativeChainID, tb.Address(), ev.Seq), ev.TxRef)
	}
}

func TestInvalidConfig(t *testing.T) {
	sqlDB, statedb := state.NewMemoryStateDB()
	defer sqlDB.Close()
	st, err := state.New(statedb, &state.Config{ChainID: nativeChainID})
	require.NoError(t, err)
	l := ledger.NewLedger(nativeChainID)

	cfg := &Config{
		Address:      bcommon.RandEthAddress(),
		ChainID:      nativeChainID,
		Owner:        bcommon.RandEthAddress(),
		Scheme:       SchemeECDSA,
		ValidatorKey: bcommon.RandEthAddress().Bytes(),
	}

	bad := *cfg
	bad.Scheme = "bls"
	_, err = New(&bad, st, l, l)
	assert.Equal(t, ErrUnknownScheme, err)

	bad = *cfg
	bad.ValidatorKey = []byte{1, 2, 3}
	_, err = New(&bad, st, l, l)
	assert.Error(t, err)

	bad = *cfg
	bad.Owner = common.Address{}
	_, err = New(&bad, st, l, l)
	assert.Equal(t, ErrMissingOwner, err)

	bad = *cfg
	bad.ChainID = remoteChainID
	_, err = New(&bad, st, l, l)
	assert.Equal(t, state.ErrChainIDUnmatchedStored, err)
}

func TestLockNativeToken(t *testing.T) {
	ctx := context.Background()
	tb := newTestBridge(t, nativeChainID, remoteChainID)
	defer tb.close()

	user := bcommon.RandEthAddress()
	amount := big.NewInt(1000)
	token := tb.fund(t, user, amount)

	ch := make(chan *Event, 4)
	sub := tb.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	txRef, err := tb.LockNativeToken(ctx, user, token.Address(), amount, remoteChainID)
	require.NoError(t, err)

	assert.Equal(t, amount, balanceOf(t, token, tb.Address()))
	assert.Equal(t, big.NewInt(0), balanceOf(t, token, user))

	ev := <-ch
	assert.Equal(t, EventLockRecorded, ev.Kind)
	assert.Equal(t, txRef, ev.TxRef)
	assert.Equal(t, &LockRecorded{
		Locker:        user,
		Token:         token.Address(),
		Amount:        amount,
		TargetChainID: remoteChainID,
	}, ev.Data)

	// the persisted event decodes to the same payload
	evs, err := tb.EventsSince(ev.Seq-1, 1)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, ev.Seq, evs[0].Seq)
	lock := evs[0].Data.(*LockRecorded)
	assert.Equal(t, user, lock.Locker)
	assert.Equal(t, 0, amount.Cmp(lock.Amount))
	assert.Equal(t, 0, remoteChainID.Cmp(lock.TargetChainID))
}

func TestLockFailures(t *testing.T) {
	ctx := context.Background()
	tb := newTestBridge(t, nativeChainID, remoteChainID)
	defer tb.close()

	user := bcommon.RandEthAddress()
	amount := big.NewInt(1000)
	token := tb.fund(t, user, amount)
	lastSeq := tb.st.LastEventSeq()

	_, err := tb.LockNativeToken(ctx, user, token.Address(), amount, big.NewInt(999))
	assert.Equal(t, ErrUnsupportedChain, err)
	assert.EqualError(t, err, "Not supported chain!")
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = tb.LockNativeToken(ctx, user, token.Address(), big.NewInt(0), remoteChainID)
	assert.Equal(t, ErrZeroAmount, err)

	wrap := new(big.Int).Lsh(big.NewInt(1), 256)
	_, err = tb.LockNativeToken(ctx, user, token.Address(), new(big.Int).Add(wrap, amount), remoteChainID)
	assert.Equal(t, ErrValueOutOfRange, err)
	_, err = tb.LockNativeToken(ctx, user, token.Address(), amount, new(big.Int).Add(wrap, remoteChainID))
	assert.Equal(t, ErrUnsupportedChain, err)

	// more than approved
	_, err = tb.LockNativeToken(ctx, user, token.Address(), big.NewInt(1001), remoteChainID)
	assert.EqualError(t, err, "ERC20: insufficient allowance")
	assert.ErrorIs(t, err, ledger.ErrInsufficientAllowance)
	assert.Equal(t, KindDelegatedTransfer, KindOf(err))

	// more than owned
	require.NoError(t, token.Approve(ctx, user, tb.Address(), big.NewInt(5000)))
	_, err = tb.LockNativeToken(ctx, user, token.Address(), big.NewInt(1001), remoteChainID)
	assert.ErrorIs(t, err, ledger.ErrTransferExceedsBalance)

	_, err = tb.LockNativeToken(ctx, user, bcommon.RandEthAddress(), amount, remoteChainID)
	assert.Equal(t, KindDelegatedTransfer, KindOf(err))

	assert.Equal(t, amount, balanceOf(t, token, user))
	assert.Equal(t, lastSeq, tb.st.LastEventSeq())
}

func TestLockNativeTokenWithPermit(t *testing.T) {
	ctx := context.Background()
	tb := newTestBridge(t, nativeChainID, remoteChainID)
	defer tb.close()

	userKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	user := crypto.PubkeyToAddress(userKey.PublicKey)
	token := tb.ledger.DeployToken(bcommon.RandEthAddress(), "Cool Token", "COOL")
	amount := big.NewInt(1000)
	require.NoError(t, token.Mint(ctx, user, user, amount))

	deadline := big.NewInt(time.Now().Add(time.Hour).Unix())
	sig, err := ledger.SignPermit(userKey, token.DomainSeparator(), tb.Address(), amount, big.NewInt(0), deadline)
	require.NoError(t, err)

	// permit signed for another value
	_, err = tb.LockNativeTokenWithPermit(ctx, user, token.Address(), big.NewInt(999), remoteChainID, deadline, sig)
	assert.ErrorIs(t, err, ledger.ErrInvalidPermitSignature)

	_, err = tb.LockNativeTokenWithPermit(ctx, user, token.Address(), amount, remoteChainID, deadline, sig[:64])
	assert.ErrorIs(t, err, ledger.ErrInvalidPermitSignature)

	_, err = tb.LockNativeTokenWithPermit(ctx, user, token.Address(), amount, remoteChainID, deadline, sig)
	require.NoError(t, err)
	assert.Equal(t, amount, balanceOf(t, token, tb.Address()))

	expired := big.NewInt(time.Now().Add(-time.Minute).Unix())
	sig, err = ledger.SignPermit(userKey, token.DomainSeparator(), tb.Address(), amount, big.NewInt(1), expired)
	require.NoError(t, err)
	_, err = tb.LockNativeTokenWithPermit(ctx, user, token.Address(), amount, remoteChainID, expired, sig)
	assert.ErrorIs(t, err, ledger.ErrPermitExpired)
	assert.EqualError(t, err, "ERC20Permit: expired deadline")
}

func TestClaimMint(t *testing.T) {
	ctx := context.Background()
	tb := newTestBridge(t, remoteChainID, nativeChainID)
	defer tb.close()

	user := bcommon.RandEthAddress()
	nativeToken := bcommon.RandEthAddress()
	amount := big.NewInt(1000)
	txRef := common.Hash(bcommon.RandBytes32())
	sig := tb.signMint(t, user, amount, nativeToken, nativeChainID, "Cool Token", "COOL", txRef)

	require.NoError(t, tb.ClaimMint(ctx, user, amount, nativeToken, nativeChainID, "Cool Token", "COOL", txRef, sig))

	wrapped, err := tb.GetWTokenAddress(nativeToken, nativeChainID)
	require.NoError(t, err)
	assert.Equal(t, ledger.WrappedAddress(tb.Address(), WrappedSalt(nativeToken, nativeChainID)), wrapped)
	native, chainID, err := tb.GetNativeTokenAddress(wrapped)
	require.NoError(t, err)
	assert.Equal(t, nativeToken, native)
	assert.Equal(t, nativeChainID, chainID)

	tok, err := tb.ledger.Token(ctx, wrapped)
	require.NoError(t, err)
	assert.Equal(t, amount, balanceOf(t, tok, user))
	name, _ := tok.Name(ctx)
	symbol, _ := tok.Symbol(ctx)
	assert.Equal(t, "Cool Token", name)
	assert.Equal(t, "COOL", symbol)

	digest := tb.GetMintClaimHash(user, amount, nativeToken, nativeChainID, "Cool Token", "COOL", txRef)
	processed, err := tb.IsClaimProcessed(digest)
	assert.NoError(t, err)
	assert.True(t, processed)

	err = tb.ClaimMint(ctx, user, amount, nativeToken, nativeChainID, "Cool Token", "COOL", txRef, sig)
	assert.Equal(t, ErrDuplicateClaim, err)
	assert.EqualError(t, err, "This claim is already processed!")
	assert.Equal(t, KindReplay, KindOf(err))
	assert.Equal(t, amount, balanceOf(t, tok, user))

	// another claim for the pair reuses the wrapped token
	txRef2 := common.Hash(bcommon.RandBytes32())
	sig = tb.signMint(t, user, big.NewInt(5), nativeToken, nativeChainID, "Cool Token", "COOL", txRef2)
	require.NoError(t, tb.ClaimMint(ctx, user, big.NewInt(5), nativeToken, nativeChainID, "Cool Token", "COOL", txRef2, sig))
	wrapped2, err := tb.GetWTokenAddress(nativeToken, nativeChainID)
	require.NoError(t, err)
	assert.Equal(t, wrapped, wrapped2)
	assert.Equal(t, big.NewInt(1005), balanceOf(t, tok, user))

	all, err := tb.WrappedTokens()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestClaimMintInvalidSignature(t *testing.T) {
	ctx := context.Background()
	tb := newTestBridge(t, remoteChainID, nativeChainID)
	defer tb.close()

	user := bcommon.RandEthAddress()
	nativeToken := bcommon.RandEthAddress()
	amount := big.NewInt(1000)
	txRef := common.Hash(bcommon.RandBytes32())
	sig := tb.signMint(t, user, amount, nativeToken, nativeChainID, "Cool Token", "COOL", txRef)

	type claim struct {
		caller        common.Address
		amount        *big.Int
		nativeToken   common.Address
		nativeChainID *big.Int
		name, symbol  string
		txRef         common.Hash
	}
	cases := map[string]claim{
		"recipient": {bcommon.RandEthAddress(), amount, nativeToken, nativeChainID, "Cool Token", "COOL", txRef},
		"amount":    {user, big.NewInt(1001), nativeToken, nativeChainID, "Cool Token", "COOL", txRef},
		"token":     {user, amount, bcommon.RandEthAddress(), nativeChainID, "Cool Token", "COOL", txRef},
		"chain":     {user, amount, nativeToken, big.NewInt(2), "Cool Token", "COOL", txRef},
		"name":      {user, amount, nativeToken, nativeChainID, "Cool", "COOL", txRef},
		"symbol":    {user, amount, nativeToken, nativeChainID, "Cool Token", "COO", txRef},
		"shifted":   {user, amount, nativeToken, nativeChainID, "Cool TokenC", "OOL", txRef},
		"txRef":     {user, amount, nativeToken, nativeChainID, "Cool Token", "COOL", common.Hash(bcommon.RandBytes32())},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			err := tb.ClaimMint(ctx, c.caller, c.amount, c.nativeToken, c.nativeChainID, c.name, c.symbol, c.txRef, sig)
			assert.Equal(t, ErrInvalidSignature, err)
			assert.EqualError(t, err, "Invalid claim signature!")
		})
	}

	// values wider than 256 bits would encode like their low word
	wrap := new(big.Int).Lsh(big.NewInt(1), 256)
	err := tb.ClaimMint(ctx, user, new(big.Int).Add(wrap, amount), nativeToken, nativeChainID, "Cool Token", "COOL", txRef, sig)
	assert.Equal(t, ErrValueOutOfRange, err)
	assert.Equal(t, KindValidation, KindOf(err))
	err = tb.ClaimMint(ctx, user, amount, nativeToken, new(big.Int).Add(wrap, nativeChainID), "Cool Token", "COOL", txRef, sig)
	assert.Equal(t, ErrValueOutOfRange, err)
	err = tb.ClaimMint(ctx, user, amount, nativeToken, new(big.Int).Neg(nativeChainID), "Cool Token", "COOL", txRef, sig)
	assert.Equal(t, ErrValueOutOfRange, err)

	// signed by someone else
	other, err := crypto.GenerateKey()
	require.NoError(t, err)
	digest := tb.GetMintClaimHash(user, amount, nativeToken, nativeChainID, "Cool Token", "COOL", txRef)
	err = tb.ClaimMint(ctx, user, amount, nativeToken, nativeChainID, "Cool Token", "COOL", txRef, signECDSA(t, other, digest))
	assert.Equal(t, ErrInvalidSignature, err)

	// malformed signatures
	assert.Equal(t, ErrInvalidSignature, tb.ClaimMint(ctx, user, amount, nativeToken, nativeChainID, "Cool Token", "COOL", txRef, sig[:64]))
	highS := common.CopyBytes(sig)
	s := new(big.Int).SetBytes(highS[32:64])
	copy(highS[32:64], common.LeftPadBytes(new(big.Int).Sub(crypto.S256().Params().N, s).Bytes(), 32))
	highS[64] = 55 - highS[64]
	assert.Equal(t, ErrInvalidSignature, tb.ClaimMint(ctx, user, amount, nativeToken, nativeChainID, "Cool Token", "COOL", txRef, highS))

	// nothing was recorded
	processed, err := tb.IsClaimProcessed(digest)
	assert.NoError(t, err)
	assert.False(t, processed)
	wrapped, err := tb.GetWTokenAddress(nativeToken, nativeChainID)
	assert.NoError(t, err)
	assert.Equal(t, common.Address{}, wrapped)
}

func TestClaimDomainsAreDisjoint(t *testing.T) {
	ctx := context.Background()
	tb := newTestBridge(t, nativeChainID, remoteChainID)
	defer tb.close()

	user := bcommon.RandEthAddress()
	token := tb.fund(t, user, big.NewInt(1000))
	_, err := tb.LockNativeToken(ctx, user, token.Address(), big.NewInt(1000), remoteChainID)
	require.NoError(t, err)

	txRef := common.Hash(bcommon.RandBytes32())
	amount := big.NewInt(1000)

	// a mint signature cannot unlock
	mintSig := tb.signMint(t, user, amount, token.Address(), nativeChainID, "", "", txRef)
	err = tb.ClaimUnlock(ctx, user, amount, token.Address(), txRef, mintSig)
	assert.Equal(t, ErrInvalidSignature, err)

	// a digest for another chain cannot unlock here
	digest := UnlockClaimHash(remoteChainID, user, amount, token.Address(), txRef)
	err = tb.ClaimUnlock(ctx, user, amount, token.Address(), txRef, signECDSA(t, tb.validator, digest))
	assert.Equal(t, ErrInvalidSignature, err)

	assert.NotEqual(t,
		MintClaimHash(nativeChainID, user, amount, token.Address(), nativeChainID, "", "", txRef),
		UnlockClaimHash(nativeChainID, user, amount, token.Address(), txRef),
	)
}

func TestBurnWrappedToken(t *testing.T) {
	ctx := context.Background()
	tb := newTestBridge(t, remoteChainID, nativeChainID)
	defer tb.close()

	user := bcommon.RandEthAddress()
	nativeToken := bcommon.RandEthAddress()
	amount := big.NewInt(1000)
	txRef := common.Hash(bcommon.RandBytes32())
	sig := tb.signMint(t, user, amount, nativeToken, nativeChainID, "Cool Token", "COOL", txRef)
	require.NoError(t, tb.ClaimMint(ctx, user, amount, nativeToken, nativeChainID, "Cool Token", "COOL", txRef, sig))
	wrapped, _ := tb.GetWTokenAddress(nativeToken, nativeChainID)

	// a plain token is not wrapped even when it exists on the ledger
	plain := tb.fund(t, user, amount)
	_, err := tb.BurnWrappedToken(ctx, user, plain.Address(), big.NewInt(1))
	assert.Equal(t, ErrNotWrappedToken, err)
	assert.EqualError(t, err, "Not a wrapped token!")
	assert.Equal(t, KindState, KindOf(err))

	_, err = tb.BurnWrappedToken(ctx, user, wrapped, big.NewInt(0))
	assert.Equal(t, ErrZeroAmount, err)
	_, err = tb.BurnWrappedToken(ctx, user, wrapped, new(big.Int).Lsh(big.NewInt(1), 256))
	assert.Equal(t, ErrValueOutOfRange, err)

	_, err = tb.BurnWrappedToken(ctx, user, wrapped, big.NewInt(1001))
	assert.ErrorIs(t, err, ledger.ErrBurnExceedsBalance)

	ch := make(chan *Event, 1)
	sub := tb.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	txRefBurn, err := tb.BurnWrappedToken(ctx, user, wrapped, big.NewInt(600))
	require.NoError(t, err)
	tok, _ := tb.ledger.Token(ctx, wrapped)
	assert.Equal(t, big.NewInt(400), balanceOf(t, tok, user))

	ev := <-ch
	assert.Equal(t, EventBurnRecorded, ev.Kind)
	assert.Equal(t, txRefBurn, ev.TxRef)
	assert.Equal(t, &BurnRecorded{Burner: user, WrappedToken: wrapped, Amount: big.NewInt(600)}, ev.Data)
}

func TestClaimUnlock(t *testing.T) {
	ctx := context.Background()
	tb := newTestBridge(t, nativeChainID, remoteChainID)
	defer tb.close()

	user := bcommon.RandEthAddress()
	amount := big.NewInt(1000)
	token := tb.fund(t, user, amount)
	txRef := common.Hash(bcommon.RandBytes32())
	sig := tb.signUnlock(t, user, amount, token.Address(), txRef)
	digest := tb.GetUnlockClaimHash(user, amount, token.Address(), txRef)

	// escrow is empty
	err := tb.ClaimUnlock(ctx, user, amount, token.Address(), txRef, sig)
	assert.EqualError(t, err, "ERC20: transfer amount exceeds balance")
	assert.Equal(t, KindDelegatedTransfer, KindOf(err))
	processed, err := tb.IsClaimProcessed(digest)
	assert.NoError(t, err)
	assert.False(t, processed)

	_, err = tb.LockNativeToken(ctx, user, token.Address(), amount, remoteChainID)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(0), balanceOf(t, token, user))

	// the same claim succeeds once escrow holds enough
	require.NoError(t, tb.ClaimUnlock(ctx, user, amount, token.Address(), txRef, sig))
	assert.Equal(t, amount, balanceOf(t, token, user))
	assert.Equal(t, big.NewInt(0), balanceOf(t, token, tb.Address()))

	claim, ok, err := tb.GetProcessedClaim(digest)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, state.ClaimKindUnlock, claim.Kind)
	assert.Equal(t, user, claim.Claimant)
	assert.Equal(t, txRef, claim.TxRef)

	err = tb.ClaimUnlock(ctx, user, amount, token.Address(), txRef, sig)
	assert.Equal(t, ErrDuplicateClaim, err)

	// a forged signature is reported before the duplicate
	forged := common.CopyBytes(sig)
	forged[5] ^= 0xff
	err = tb.ClaimUnlock(ctx, user, amount, token.Address(), txRef, forged)
	assert.Equal(t, ErrInvalidSignature, err)
}

func TestReentrantUnlock(t *testing.T) {
	ctx := context.Background()
	tb := newTestBridge(t, nativeChainID, remoteChainID)
	defer tb.close()

	h := newHostileToken(t, tb.ledger)
	require.NoError(t, h.Mint(ctx, h.Owner(), tb.Address(), big.NewInt(2000)))

	user := bcommon.RandEthAddress()
	amount := big.NewInt(1000)
	txRef := common.Hash(bcommon.RandBytes32())
	sig := tb.signUnlock(t, user, amount, h.Address(), txRef)
	digest := tb.GetUnlockClaimHash(user, amount, h.Address(), txRef)

	var (
		processedDuringCall bool
		reentryErr          error
	)
	h.onTransfer = func(ctx context.Context) error {
		processedDuringCall, _ = tb.IsClaimProcessed(digest)
		reentryErr = tb.ClaimUnlock(ctx, user, amount, h.Address(), txRef, sig)
		return nil
	}

	require.NoError(t, tb.ClaimUnlock(ctx, user, amount, h.Address(), txRef, sig))
	assert.True(t, processedDuringCall)
	assert.Equal(t, ErrReentrantCall, reentryErr)
	assert.Equal(t, amount, balanceOf(t, h, user))
	assert.Equal(t, big.NewInt(1000), balanceOf(t, h, tb.Address()))
}

func TestReentrantUnlockWithFreshContext(t *testing.T) {
	ctx := context.Background()
	tb := newTestBridge(t, nativeChainID, remoteChainID)
	defer tb.close()

	h := newHostileToken(t, tb.ledger)
	require.NoError(t, h.Mint(ctx, h.Owner(), tb.Address(), big.NewInt(2000)))

	user := bcommon.RandEthAddress()
	amount := big.NewInt(1000)
	txRef := common.Hash(bcommon.RandBytes32())
	sig := tb.signUnlock(t, user, amount, h.Address(), txRef)

	var reentryErr, lockErr error
	h.onTransfer = func(context.Context) error {
		// the callback does not carry the ctx it was handed
		reentryErr = tb.ClaimUnlock(context.Background(), user, amount, h.Address(), txRef, sig)
		_, lockErr = tb.LockNativeToken(context.Background(), user, h.Address(), amount, remoteChainID)
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- tb.ClaimUnlock(ctx, user, amount, h.Address(), txRef, sig)
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("claim did not return")
	}

	assert.Equal(t, ErrReentrantCall, reentryErr)
	assert.Equal(t, ErrReentrantCall, lockErr)
	assert.Equal(t, amount, balanceOf(t, h, user))
	assert.Equal(t, big.NewInt(1000), balanceOf(t, h, tb.Address()))

	// the bridge accepts operations again once the call returned
	h.onTransfer = nil
	assert.Equal(t, ErrDuplicateClaim, tb.ClaimUnlock(ctx, user, amount, h.Address(), txRef, sig))
}

func TestClaimUnlockLedgerFailure(t *testing.T) {
	ctx := context.Background()
	tb := newTestBridge(t, nativeChainID, remoteChainID)
	defer tb.close()

	h := newHostileToken(t, tb.ledger)
	require.NoError(t, h.Mint(ctx, h.Owner(), tb.Address(), big.NewInt(2000)))

	user := bcommon.RandEthAddress()
	amount := big.NewInt(1000)
	txRef := common.Hash(bcommon.RandBytes32())
	sig := tb.signUnlock(t, user, amount, h.Address(), txRef)
	digest := tb.GetUnlockClaimHash(user, amount, h.Address(), txRef)

	// a rejected transfer leaves the claim open
	rejected := errors.New("ERC20: transfer paused")
	h.onTransfer = func(context.Context) error { return rejected }
	err := tb.ClaimUnlock(ctx, user, amount, h.Address(), txRef, sig)
	assert.ErrorIs(t, err, rejected)
	assert.Equal(t, KindDelegatedTransfer, KindOf(err))
	processed, err := tb.IsClaimProcessed(digest)
	require.NoError(t, err)
	assert.False(t, processed)

	// a transfer with unknown outcome keeps it processed across restarts
	h.onTransfer = func(context.Context) error {
		return &ledger.PendingTxError{TxHash: common.Hash(bcommon.RandBytes32()), Err: context.DeadlineExceeded}
	}
	lastSeq := tb.st.LastEventSeq()
	err = tb.ClaimUnlock(ctx, user, amount, h.Address(), txRef, sig)
	assert.True(t, ledger.IsPending(err))
	assert.Equal(t, KindDelegatedTransfer, KindOf(err))
	_, ok, err := tb.statedb.GetClaim(digest)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, lastSeq, tb.st.LastEventSeq())

	h.onTransfer = nil
	assert.Equal(t, ErrDuplicateClaim, tb.ClaimUnlock(ctx, user, amount, h.Address(), txRef, sig))
	assert.Equal(t, big.NewInt(0), balanceOf(t, h, user))
}

func TestReentrantLockReverts(t *testing.T) {
	ctx := context.Background()
	tb := newTestBridge(t, nativeChainID, remoteChainID)
	defer tb.close()

	user := bcommon.RandEthAddress()
	h := newHostileToken(t, tb.ledger)
	require.NoError(t, h.Mint(ctx, user, user, big.NewInt(1000)))
	require.NoError(t, h.Approve(ctx, user, tb.Address(), big.NewInt(1000)))

	h.onTransferFrom = func(ctx context.Context) error {
		_, err := tb.LockNativeToken(ctx, user, h.Address(), big.NewInt(1), remoteChainID)
		return err
	}
	lastSeq := tb.st.LastEventSeq()

	_, err := tb.LockNativeToken(ctx, user, h.Address(), big.NewInt(1000), remoteChainID)
	assert.Equal(t, ErrReentrantCall, err)
	assert.EqualError(t, err, "ReentrancyGuard: reentrant call")
	assert.Equal(t, big.NewInt(1000), balanceOf(t, h, user))
	assert.Equal(t, lastSeq, tb.st.LastEventSeq())

	// the bridge stays usable afterwards
	h.onTransferFrom = nil
	_, err = tb.LockNativeToken(ctx, user, h.Address(), big.NewInt(1000), remoteChainID)
	assert.NoError(t, err)
}

func TestAdminOperations(t *testing.T) {
	ctx := context.Background()
	tb := newTestBridge(t, nativeChainID, remoteChainID)
	defer tb.close()

	stranger := bcommon.RandEthAddress()
	newChain := big.NewInt(777)

	err := tb.SetSupportedChain(ctx, stranger, newChain, true)
	assert.Equal(t, ErrNotOwner, err)
	assert.EqualError(t, err, "Ownable: caller is not the owner")
	assert.Equal(t, KindAuthorization, KindOf(err))
	assert.Equal(t, ErrNotOwner, tb.SetValidatorPublicKey(ctx, stranger, bcommon.RandEthAddress().Bytes()))
	assert.Equal(t, ErrNotOwner, tb.TransferOwnership(ctx, stranger, stranger))

	// enable then disable a chain
	user := bcommon.RandEthAddress()
	token := tb.fund(t, user, big.NewInt(10))
	require.NoError(t, tb.SetSupportedChain(ctx, tb.owner, newChain, true))
	_, err = tb.LockNativeToken(ctx, user, token.Address(), big.NewInt(5), newChain)
	require.NoError(t, err)
	require.NoError(t, tb.SetSupportedChain(ctx, tb.owner, newChain, false))
	_, err = tb.LockNativeToken(ctx, user, token.Address(), big.NewInt(5), newChain)
	assert.Equal(t, ErrUnsupportedChain, err)

	assert.Equal(t, ErrValueOutOfRange, tb.SetSupportedChain(ctx, tb.owner, new(big.Int).Lsh(big.NewInt(1), 256), true))
	assert.Equal(t, ErrValueOutOfRange, tb.SetSupportedChain(ctx, tb.owner, big.NewInt(-1), true))

	chains, err := tb.SupportedChains()
	assert.NoError(t, err)
	assert.Equal(t, []*big.Int{remoteChainID}, chains)

	// ownership
	newOwner := bcommon.RandEthAddress()
	assert.Equal(t, ErrZeroOwner, tb.TransferOwnership(ctx, tb.owner, common.Address{}))
	require.NoError(t, tb.TransferOwnership(ctx, tb.owner, newOwner))
	assert.Equal(t, ErrNotOwner, tb.SetSupportedChain(ctx, tb.owner, newChain, true))
	assert.NoError(t, tb.SetSupportedChain(ctx, newOwner, newChain, true))
}

func TestValidatorRotation(t *testing.T) {
	ctx := context.Background()
	tb := newTestBridge(t, remoteChainID, nativeChainID)
	defer tb.close()

	user := bcommon.RandEthAddress()
	nativeToken := bcommon.RandEthAddress()
	amount := big.NewInt(10)

	txRef1 := common.Hash(bcommon.RandBytes32())
	sig1 := tb.signMint(t, user, amount, nativeToken, nativeChainID, "N", "S", txRef1)
	require.NoError(t, tb.ClaimMint(ctx, user, amount, nativeToken, nativeChainID, "N", "S", txRef1, sig1))

	// signed by the old key, not yet submitted
	txRef2 := common.Hash(bcommon.RandBytes32())
	sig2 := tb.signMint(t, user, amount, nativeToken, nativeChainID, "N", "S", txRef2)

	newKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	assert.Error(t, tb.SetValidatorPublicKey(ctx, tb.owner, []byte{1}))
	require.NoError(t, tb.SetValidatorPublicKey(ctx, tb.owner, crypto.CompressPubkey(&newKey.PublicKey)))

	_, key, err := tb.ValidatorPublicKey()
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(newKey.PublicKey).Bytes(), key)

	assert.Equal(t, ErrInvalidSignature, tb.ClaimMint(ctx, user, amount, nativeToken, nativeChainID, "N", "S", txRef2, sig2))
	// processed claims stay processed
	assert.Equal(t, ErrDuplicateClaim, tb.ClaimMint(ctx, user, amount, nativeToken, nativeChainID, "N", "S", txRef1,
		signECDSA(t, newKey, tb.GetMintClaimHash(user, amount, nativeToken, nativeChainID, "N", "S", txRef1))))

	tb.validator = newKey
	sig2 = tb.signMint(t, user, amount, nativeToken, nativeChainID, "N", "S", txRef2)
	assert.NoError(t, tb.ClaimMint(ctx, user, amount, nativeToken, nativeChainID, "N", "S", txRef2, sig2))
}

func TestSchnorrAttestation(t *testing.T) {
	ctx := context.Background()
	tb := newTestBridge(t, nativeChainID, remoteChainID)
	defer tb.close()

	sk, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	require.NoError(t, tb.SetAttestationScheme(ctx, tb.owner, SchemeSchnorr, schnorr.SerializePubKey(sk.PubKey())))

	user := bcommon.RandEthAddress()
	amount := big.NewInt(1000)
	token := tb.fund(t, user, amount)
	_, err = tb.LockNativeToken(ctx, user, token.Address(), amount, remoteChainID)
	require.NoError(t, err)

	txRef := common.Hash(bcommon.RandBytes32())
	digest := tb.GetUnlockClaimHash(user, amount, token.Address(), txRef)

	// ecdsa signatures of the old key no longer verify
	assert.Equal(t, ErrInvalidSignature, tb.ClaimUnlock(ctx, user, amount, token.Address(), txRef, signECDSA(t, tb.validator, digest)))

	require.NoError(t, tb.ClaimUnlock(ctx, user, amount, token.Address(), txRef, signSchnorr(t, sk, digest)))
	assert.Equal(t, amount, balanceOf(t, token, user))

	scheme, key, err := tb.ValidatorPublicKey()
	require.NoError(t, err)
	assert.Equal(t, SchemeSchnorr, scheme)
	assert.Equal(t, schnorr.SerializePubKey(sk.PubKey()), key)
}

func TestRestart(t *testing.T) {
	ctx := context.Background()
	tb := newTestBridge(t, remoteChainID, nativeChainID)
	defer tb.close()

	user := bcommon.RandEthAddress()
	nativeToken := bcommon.RandEthAddress()
	amount := big.NewInt(10)
	txRef := common.Hash(bcommon.RandBytes32())
	sig := tb.signMint(t, user, amount, nativeToken, nativeChainID, "N", "S", txRef)
	require.NoError(t, tb.ClaimMint(ctx, user, amount, nativeToken, nativeChainID, "N", "S", txRef, sig))
	wrapped, _ := tb.GetWTokenAddress(nativeToken, nativeChainID)

	st, err := state.New(tb.statedb, &state.Config{ChainID: remoteChainID})
	require.NoError(t, err)
	// a different configured key is ignored in favour of the stored one
	b, err := New(&Config{
		Address:      tb.Address(),
		ChainID:      remoteChainID,
		Owner:        bcommon.RandEthAddress(),
		Scheme:       SchemeECDSA,
		ValidatorKey: bcommon.RandEthAddress().Bytes(),
	}, st, tb.ledger, tb.ledger)
	require.NoError(t, err)
	defer b.Close()

	owner, err := b.Owner()
	require.NoError(t, err)
	assert.Equal(t, tb.owner, owner)

	assert.Equal(t, ErrDuplicateClaim, b.ClaimMint(ctx, user, amount, nativeToken, nativeChainID, "N", "S", txRef, sig))
	got, err := b.GetWTokenAddress(nativeToken, nativeChainID)
	require.NoError(t, err)
	assert.Equal(t, wrapped, got)

	txRef2 := common.Hash(bcommon.RandBytes32())
	sig2 := tb.signMint(t, user, amount, nativeToken, nativeChainID, "N", "S", txRef2)
	assert.NoError(t, b.ClaimMint(ctx, user, amount, nativeToken, nativeChainID, "N", "S", txRef2, sig2))
}
