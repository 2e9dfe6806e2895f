package etherman

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	logger "github.com/sirupsen/logrus"
)

var blockGasLimit = uint64(999999999999999999)

// SimulatedChain is an in-process EVM chain with funded accounts. The
// simulated backend always reports chain id 1337.
type SimulatedChain struct {
	Backend  *simulated.Backend
	Keys     []*ecdsa.PrivateKey
	Accounts []*bind.TransactOpts
}

func NewSimulatedChain(nAccount int) *SimulatedChain {
	// create accounts
	keys := make([]*ecdsa.PrivateKey, nAccount)
	accounts := make([]*bind.TransactOpts, nAccount)
	for i := 0; i < nAccount; i++ {
		keys[i], accounts[i] = newAuth()
	}

	// allocate funds to accounts
	genesisAlloc := map[common.Address]types.Account{}
	for _, account := range accounts {
		balance, _ := new(big.Int).SetString("100000000000000000000", 10)
		genesisAlloc[account.From] = types.Account{
			Balance: balance,
		}
	}

	// create simulated backend
	backend := simulated.NewBackend(genesisAlloc, simulated.WithBlockGasLimit(blockGasLimit))

	return &SimulatedChain{
		Backend:  backend,
		Keys:     keys,
		Accounts: accounts,
	}
}

// Etherman returns an Etherman over the simulated chain that mines a block
// after every transaction and controls every funded account.
func (sim *SimulatedChain) Etherman() (*Etherman, error) {
	em, err := newEtherman(sim.Backend.Client(), DefaultTokenCacheSize)
	if err != nil {
		return nil, err
	}
	em.afterSend = func() { sim.Backend.Commit() }

	for _, sk := range sim.Keys {
		if _, err := em.AddAccount(sk); err != nil {
			return nil, err
		}
	}
	return em, nil
}

func (sim *SimulatedChain) Close() {
	if err := sim.Backend.Close(); err != nil {
		logger.Warnf("failed to close simulated backend: %v", err)
	}
}

func newAuth() (*ecdsa.PrivateKey, *bind.TransactOpts) {
	sk, _ := crypto.GenerateKey()
	auth, _ := bind.NewKeyedTransactorWithChainID(sk, big.NewInt(1337))
	return sk, auth
}
