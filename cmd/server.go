// Server = native bridge + remote bridge + one relayer per direction + http reporter.
// All components are configured via envionment variables (strings!).

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	_ "github.com/mattn/go-sqlite3"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/erc20-bridge-go/bridge"
	"github.com/TEENet-io/erc20-bridge-go/common"
	"github.com/TEENet-io/erc20-bridge-go/etherman"
	"github.com/TEENet-io/erc20-bridge-go/ledger"
	"github.com/TEENet-io/erc20-bridge-go/relayer"
	"github.com/TEENet-io/erc20-bridge-go/reporter"
	"github.com/TEENet-io/erc20-bridge-go/state"
	"github.com/TEENet-io/erc20-bridge-go/validator"
)

// Default params for server.
const (
	defaultRelayFrequency = 2 * time.Second

	relayerDbFile = "relayer.db"
)

// Keep the configuration's fields as "text" as possible.
// Its easier to load it from env vars or a config file.
type BridgeServerConfig struct {
	// state side, one sqlite file per bridge plus one for the relayers.
	// Empty keeps everything in memory.
	DbDir string

	// chains
	NativeChainID string // decimal
	RemoteChainID string // decimal

	// native side on a real evm chain. Empty runs a simulated ledger.
	NativeRpcUrl string
	EscrowPriv   string // key of the account holding the escrowed tokens

	// admin & attestation
	OwnerPriv         string // hex private key of the bridge owner
	ValidatorPriv     string // hex private key of the attestor
	AttestationScheme string // ecdsa | schnorr

	RelayFrequency time.Duration

	// Http side
	HttpIp   string // eg. 0.0.0.0
	HttpPort string // eg. 8080, empty to not serve
}

// BridgeServer holds the objects that consists of the bridge server.
type BridgeServer struct {
	Owner  ethcommon.Address
	Signer validator.Signer

	// native side
	NativeLedger ledger.Resolver // *ledger.Ledger or *etherman.Etherman
	Native       *bridge.Bridge

	// remote side
	RemoteLedger *ledger.Ledger
	Remote       *bridge.Bridge

	Vouchers *relayer.VoucherDB
	ToRemote *relayer.Relayer
	ToNative *relayer.Relayer

	Reporter *reporter.HttpReporter

	closers []func()
}

// NewBridgeServer creates a new bridge server.
// ctx is used for parental context to cancel the operation of bridge server.
// wg is used to wait for all the goroutines inside the server (relayers) to finish.
func NewBridgeServer(bsc *BridgeServerConfig, ctx context.Context, wg *sync.WaitGroup) (*BridgeServer, error) {
	srv := &BridgeServer{}
	ok := false
	defer func() {
		if !ok {
			srv.Close()
		}
	}()

	nativeChainID := common.DecStrToBigInt(bsc.NativeChainID)
	if nativeChainID == nil || nativeChainID.Sign() == 0 {
		return nil, ErrInvalidConfig("NATIVE_CHAIN_ID", bsc.NativeChainID)
	}
	remoteChainID := common.DecStrToBigInt(bsc.RemoteChainID)
	if remoteChainID == nil || remoteChainID.Sign() == 0 {
		return nil, ErrInvalidConfig("REMOTE_CHAIN_ID", bsc.RemoteChainID)
	}

	ownerKey, err := etherman.StringToPrivateKey(bsc.OwnerPriv)
	if err != nil {
		logger.Errorf("failed to load owner key: %v", err)
		return nil, ErrInvalidConfig("OWNER_PRIV", "***")
	}
	srv.Owner = crypto.PubkeyToAddress(ownerKey.PublicKey)

	scheme := bsc.AttestationScheme
	if scheme == "" {
		scheme = bridge.SchemeECDSA
	}
	srv.Signer, err = validator.NewSigner(scheme, common.HexStrToByteSlice(bsc.ValidatorPriv))
	if err != nil {
		logger.Errorf("failed to create attestor: %v", err)
		return nil, err
	}
	logger.WithFields(logger.Fields{
		"scheme": scheme,
		"key":    common.ByteSliceToPureHexStr(srv.Signer.PublicKey()),
	}).Info("attestor loaded")

	// 1) Native side: either a real evm chain or a simulated ledger.
	var nativeAddr ethcommon.Address
	var nativeFactory ledger.WrappedFactory
	if bsc.NativeRpcUrl != "" {
		escrowKey, err := etherman.StringToPrivateKey(bsc.EscrowPriv)
		if err != nil {
			logger.Errorf("failed to load escrow key: %v", err)
			return nil, ErrInvalidConfig("ESCROW_PRIV", "***")
		}
		em, err := etherman.NewEtherman(&etherman.Config{
			URL:         bsc.NativeRpcUrl,
			ChainID:     nativeChainID,
			PrivateKeys: []string{bsc.EscrowPriv},
		})
		if err != nil {
			logger.Errorf("failed to create etherman: %v", err)
			return nil, err
		}
		nativeAddr = crypto.PubkeyToAddress(escrowKey.PublicKey)
		srv.NativeLedger, nativeFactory = em, em
	} else {
		l := ledger.NewLedger(nativeChainID)
		nativeAddr = crypto.CreateAddress(srv.Owner, 0)
		srv.NativeLedger, nativeFactory = l, l
	}

	srv.Native, err = srv.openBridge(bsc.DbDir, nativeAddr, nativeChainID, remoteChainID, srv.NativeLedger, nativeFactory)
	if err != nil {
		logger.Errorf("failed to open native bridge: %v", err)
		return nil, err
	}

	// 2) Remote side always runs on a simulated ledger.
	srv.RemoteLedger = ledger.NewLedger(remoteChainID)
	srv.Remote, err = srv.openBridge(bsc.DbDir, crypto.CreateAddress(srv.Owner, 1), remoteChainID, nativeChainID, srv.RemoteLedger, srv.RemoteLedger)
	if err != nil {
		logger.Errorf("failed to open remote bridge: %v", err)
		return nil, err
	}

	// 3) Relayers, one per direction, sharing the voucher db.
	vdb, err := openDB(bsc.DbDir, relayerDbFile)
	if err != nil {
		logger.Errorf("failed to open relayer db: %v", err)
		return nil, err
	}
	srv.closers = append(srv.closers, func() { vdb.Close() })
	srv.Vouchers, err = relayer.NewVoucherDB(vdb)
	if err != nil {
		logger.Errorf("failed to create voucher db: %v", err)
		return nil, err
	}
	srv.closers = append(srv.closers, srv.Vouchers.Close)

	freq := bsc.RelayFrequency
	if freq == 0 {
		freq = defaultRelayFrequency
	}
	srv.ToRemote, err = relayer.New(
		&relayer.Config{TargetChainID: remoteChainID, Frequency: freq},
		srv.Native, srv.NativeLedger, srv.Signer, srv.Vouchers,
	)
	if err != nil {
		logger.Errorf("failed to create native->remote relayer: %v", err)
		return nil, err
	}
	srv.ToNative, err = relayer.New(
		&relayer.Config{TargetChainID: nativeChainID, Frequency: freq},
		srv.Remote, srv.RemoteLedger, srv.Signer, srv.Vouchers,
	)
	if err != nil {
		logger.Errorf("failed to create remote->native relayer: %v", err)
		return nil, err
	}

	// Important: Turn on the relayers!
	for _, r := range []*relayer.Relayer{srv.ToRemote, srv.ToNative} {
		wg.Add(1)
		go func(r *relayer.Relayer) {
			defer wg.Done()
			err := r.Loop(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("relayer stopped: %v", err)
			}
		}(r)
	}
	// Don't forget to call wg.Wait() in the main routine.

	// *** Setup a http server to report status ***
	srv.Reporter = reporter.NewHttpReporter(bsc.HttpIp, bsc.HttpPort, srv.Vouchers, srv.Native, srv.Remote)
	if bsc.HttpPort != "" {
		go srv.Reporter.Run()

		// Give it some time to start the http server
		time.Sleep(1 * time.Second)
	}

	logger.WithFields(logger.Fields{
		"native": fmt.Sprintf("%s@%s", srv.Native.Address().Hex(), nativeChainID),
		"remote": fmt.Sprintf("%s@%s", srv.Remote.Address().Hex(), remoteChainID),
		"owner":  srv.Owner.Hex(),
	}).Info("bridge server started")

	ok = true
	return srv, nil
}

// openBridge opens the state of one bridge and the bridge over it. On a
// fresh database the bridge supports peerChainID only.
func (srv *BridgeServer) openBridge(
	dir string,
	addr ethcommon.Address,
	chainID, peerChainID *big.Int,
	resolver ledger.Resolver,
	factory ledger.WrappedFactory,
) (*bridge.Bridge, error) {
	sqldb, err := openDB(dir, fmt.Sprintf("bridge_%s.db", chainID))
	if err != nil {
		return nil, err
	}
	srv.closers = append(srv.closers, func() { sqldb.Close() })

	statedb, err := state.NewStateDB(sqldb)
	if err != nil {
		return nil, err
	}
	srv.closers = append(srv.closers, statedb.Close)

	st, err := state.New(statedb, &state.Config{ChainID: chainID})
	if err != nil {
		return nil, err
	}

	b, err := bridge.New(&bridge.Config{
		Address:           addr,
		ChainID:           chainID,
		Owner:             srv.Owner,
		SupportedChainIDs: []*big.Int{peerChainID},
		Scheme:            srv.Signer.Scheme(),
		ValidatorKey:      srv.Signer.PublicKey(),
	}, st, resolver, factory)
	if err != nil {
		return nil, err
	}
	srv.closers = append(srv.closers, b.Close)
	return b, nil
}

// Close releases the bridges and databases in reverse order of opening.
// Call it after the relayers have stopped.
func (srv *BridgeServer) Close() {
	for i := len(srv.closers) - 1; i >= 0; i-- {
		srv.closers[i]()
	}
	srv.closers = nil
}

// openDB opens dir/name, or a private in-memory database when dir is empty.
func openDB(dir, name string) (*sql.DB, error) {
	path := ":memory:"
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		path = filepath.Join(dir, name)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// one connection keeps ":memory:" a single database
	db.SetMaxOpenConns(1)
	return db, nil
}

// Create, then start the bridge server and wait.
// It contains a prepared bridge server and context + waitgroup.
// Press Ctrl-C to kill the server.
func StartBridgeServerAndWait(bsc *BridgeServerConfig) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up a signal channel to listen for Ctrl-C (SIGINT) or SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Launch a new goroutine to handle the signal
	go func() {
		sig := <-sigCh
		fmt.Printf("Received signal: %v, cancelling context...\n", sig)
		cancel()
	}()

	var wg sync.WaitGroup

	srv, err := NewBridgeServer(bsc, ctx, &wg)
	if err != nil {
		logger.Fatalf("failed to create bridge server: %v", err)
		return
	}

	// wait for the relayers to stop
	wg.Wait()
	srv.Close()
}
