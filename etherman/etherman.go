// Package etherman adapts ERC20 tokens on an EVM chain to the ledger
// interfaces consumed by the bridge. Reads go through eth_call; writes are
// signed by accounts whose keys were handed to the Etherman and wait until
// mined.
package etherman

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"
	"time"

	"github.com/TEENet-io/erc20-bridge-go/common"
	"github.com/TEENet-io/erc20-bridge-go/ledger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	logger "github.com/sirupsen/logrus"
)

type ethereumClient interface {
	ethereum.ChainReader
	ethereum.ChainStateReader
	ethereum.ChainIDReader
	ethereum.ContractCaller
	ethereum.GasEstimator
	ethereum.GasPricer
	ethereum.LogFilterer
	ethereum.TransactionReader
	ethereum.TransactionSender

	bind.DeployBackend
	bind.ContractBackend
}

type Etherman struct {
	ethClient ethereumClient
	chainID   *big.Int

	mu       sync.Mutex
	accounts map[ethcommon.Address]*bind.TransactOpts
	tokens   *lru.Cache[ethcommon.Address, *ERC20]

	receiptTimeout time.Duration

	// called after every sent transaction; simulated backends mine here
	afterSend func()
}

func NewEtherman(cfg *Config) (*Etherman, error) {
	ethClient, err := ethclient.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	em, err := newEtherman(ethClient, cfg.TokenCacheSize)
	if err != nil {
		return nil, err
	}
	if cfg.ChainID != nil && cfg.ChainID.Cmp(em.chainID) != 0 {
		return nil, ErrChainIDUnmatched(cfg.ChainID, em.chainID)
	}
	if cfg.ReceiptTimeout > 0 {
		em.receiptTimeout = cfg.ReceiptTimeout
	}

	for _, s := range cfg.PrivateKeys {
		sk, err := StringToPrivateKey(s)
		if err != nil {
			return nil, err
		}
		if _, err := em.AddAccount(sk); err != nil {
			return nil, err
		}
	}

	return em, nil
}

func newEtherman(ethClient ethereumClient, cacheSize int) (*Etherman, error) {
	chainID, err := ethClient.ChainID(context.Background())
	if err != nil {
		logger.Error("failed to get eth chain ID")
		return nil, err
	}

	return &Etherman{
		ethClient: ethClient,
		chainID:   chainID,
		accounts:  make(map[ethcommon.Address]*bind.TransactOpts),
		tokens:    newTokenCache(cacheSize),

		receiptTimeout: DefaultReceiptTimeout,
	}, nil
}

func (etherman *Etherman) ChainID() *big.Int {
	return new(big.Int).Set(etherman.chainID)
}

func (etherman *Etherman) Client() ethereumClient {
	return etherman.ethClient
}

// AddAccount lets the Etherman send transactions on behalf of the key's
// address.
func (etherman *Etherman) AddAccount(sk *ecdsa.PrivateKey) (ethcommon.Address, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(sk, etherman.chainID)
	if err != nil {
		return ethcommon.Address{}, err
	}

	etherman.mu.Lock()
	defer etherman.mu.Unlock()
	etherman.accounts[auth.From] = auth

	return auth.From, nil
}

// Token returns the adapter of the ERC20 contract at addr. Addresses
// without code are rejected.
func (etherman *Etherman) Token(ctx context.Context, addr ethcommon.Address) (ledger.Token, error) {
	if tok, ok := etherman.tokens.Get(addr); ok {
		return tok, nil
	}

	code, err := etherman.ethClient.CodeAt(ctx, addr, nil)
	if err != nil {
		return nil, err
	}
	if len(code) == 0 {
		return nil, ledger.ErrTokenNotFound(addr)
	}

	tok := newERC20(addr, etherman)
	etherman.tokens.Add(addr, tok)
	return tok, nil
}

func (etherman *Etherman) DeployWrapped(
	_ context.Context,
	_ ethcommon.Address,
	_ ethcommon.Hash,
	_, _ string,
) (ethcommon.Address, error) {
	return ethcommon.Address{}, ErrWrappedUnsupported
}

func (etherman *Etherman) transactor(ctx context.Context, from ethcommon.Address) (*bind.TransactOpts, error) {
	etherman.mu.Lock()
	defer etherman.mu.Unlock()

	auth, ok := etherman.accounts[from]
	if !ok {
		return nil, ErrUnknownAccount(from)
	}

	opts := *auth
	opts.Context = ctx
	return &opts, nil
}

// transact sends the call from account from and waits for it to be mined.
// Once the transaction is sent, cancelling ctx no longer stops the wait; a
// transaction still unmined after the receipt timeout is reported as a
// *ledger.PendingTxError because it may yet be included.
func (etherman *Etherman) transact(
	ctx context.Context,
	from ethcommon.Address,
	contract *bind.BoundContract,
	method string,
	params ...interface{},
) error {
	opts, err := etherman.transactor(ctx, from)
	if err != nil {
		return err
	}

	tx, err := contract.Transact(opts, method, params...)
	if err != nil {
		return err
	}
	if tx == nil {
		return ErrNilTransactionReply
	}
	if etherman.afterSend != nil {
		etherman.afterSend()
	}

	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), etherman.receiptTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(waitCtx, etherman.ethClient, tx)
	if err != nil {
		logger.WithFields(logger.Fields{
			"method": method,
			"from":   from.Hex(),
			"tx":     tx.Hash().Hex(),
			"err":    err,
		}).Error("transaction sent but not mined")
		return &ledger.PendingTxError{TxHash: tx.Hash(), Err: err}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return ErrTxFailed(method, tx.Hash())
	}

	logger.WithFields(logger.Fields{
		"method": method,
		"from":   from.Hex(),
		"tx":     common.Shorten(tx.Hash().String(), 8),
		"block":  receipt.BlockNumber,
	}).Debug("transaction mined")
	return nil
}

func StringToPrivateKey(s string) (*ecdsa.PrivateKey, error) {
	sk, err := crypto.HexToECDSA(common.Trim0xPrefix(s))
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}
	return sk, nil
}
