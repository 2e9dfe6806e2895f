package ledger

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	logger "github.com/sirupsen/logrus"
)

// wrappedInitCodeHash stands in for keccak(creationCode) of the wrapped
// token contract when deriving CREATE2 addresses.
var wrappedInitCodeHash = crypto.Keccak256Hash([]byte("WrappedERC20"))

// Ledger simulates one EVM-like chain holding ERC20 tokens. It resolves
// token addresses and deploys wrapped tokens deterministically.
type Ledger struct {
	chainID *big.Int
	now     func() time.Time

	mu     sync.RWMutex
	tokens map[common.Address]Token
	nonces map[common.Address]uint64
}

func NewLedger(chainID *big.Int) *Ledger {
	return &Ledger{
		chainID: new(big.Int).Set(chainID),
		now:     time.Now,
		tokens:  make(map[common.Address]Token),
		nonces:  make(map[common.Address]uint64),
	}
}

func (l *Ledger) ChainID() *big.Int {
	return new(big.Int).Set(l.chainID)
}

// SetClock replaces the time source used by tokens deployed afterwards.
func (l *Ledger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// DeployToken creates a public-mint test token with permit support at the
// CREATE address of (deployer, nonce).
func (l *Ledger) DeployToken(deployer common.Address, name, symbol string) *SimToken {
	l.mu.Lock()
	defer l.mu.Unlock()

	nonce := l.nonces[deployer]
	l.nonces[deployer] = nonce + 1
	addr := crypto.CreateAddress(deployer, nonce)

	token := NewSimToken(&SimTokenConfig{
		Address:    addr,
		Owner:      deployer,
		Name:       name,
		Symbol:     symbol,
		Decimals:   DefaultDecimals,
		PublicMint: true,
		ChainID:    l.chainID,
		Now:        l.now,
	})
	l.tokens[addr] = token

	logger.WithFields(logger.Fields{
		"chain":   l.chainID.String(),
		"token":   addr.Hex(),
		"symbol":  symbol,
		"creator": deployer.Hex(),
	}).Debug("token deployed")

	return token
}

// Register places an externally constructed token on the ledger.
func (l *Ledger) Register(token Token) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	addr := token.Address()
	if _, ok := l.tokens[addr]; ok {
		return ErrTokenAlreadyDeployed(addr)
	}
	l.tokens[addr] = token
	return nil
}

func (l *Ledger) Token(_ context.Context, addr common.Address) (Token, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	token, ok := l.tokens[addr]
	if !ok {
		return nil, ErrTokenNotFound(addr)
	}
	return token, nil
}

// WrappedAddress returns the address DeployWrapped uses for (deployer, salt).
func WrappedAddress(deployer common.Address, salt common.Hash) common.Address {
	return crypto.CreateAddress2(deployer, salt, wrappedInitCodeHash[:])
}

func (l *Ledger) DeployWrapped(
	_ context.Context,
	deployer common.Address,
	salt common.Hash,
	name, symbol string,
) (common.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	addr := WrappedAddress(deployer, salt)
	if existing, ok := l.tokens[addr]; ok {
		if m, ok := existing.(Mintable); ok && m.Owner() == deployer {
			return addr, nil
		}
		return common.Address{}, ErrTokenAlreadyDeployed(addr)
	}

	l.tokens[addr] = NewSimToken(&SimTokenConfig{
		Address:  addr,
		Owner:    deployer,
		Name:     name,
		Symbol:   symbol,
		Decimals: DefaultDecimals,
		ChainID:  l.chainID,
		Now:      l.now,
	})

	logger.WithFields(logger.Fields{
		"chain":    l.chainID.String(),
		"wrapped":  addr.Hex(),
		"symbol":   symbol,
		"deployer": deployer.Hex(),
	}).Info("wrapped token deployed")

	return addr, nil
}
