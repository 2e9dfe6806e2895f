package ledger

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

const DefaultDecimals = 18

// SimToken is an in-memory ERC20 with EIP-2612 permit. Each call is atomic:
// it either applies completely or leaves every balance untouched.
type SimToken struct {
	address  common.Address
	owner    common.Address
	name     string
	symbol   string
	decimals uint8

	// anyone may mint when set; used by test tokens
	publicMint bool

	domainSeparator common.Hash
	now             func() time.Time

	mu          sync.Mutex
	totalSupply *big.Int
	balances    map[common.Address]*big.Int
	allowances  map[common.Address]map[common.Address]*big.Int
	nonces      map[common.Address]*big.Int
}

type SimTokenConfig struct {
	Address    common.Address
	Owner      common.Address
	Name       string
	Symbol     string
	Decimals   uint8
	PublicMint bool
	ChainID    *big.Int
	Now        func() time.Time
}

func NewSimToken(cfg *SimTokenConfig) *SimToken {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	chainID := cfg.ChainID
	if chainID == nil {
		chainID = big.NewInt(0)
	}

	return &SimToken{
		address:         cfg.Address,
		owner:           cfg.Owner,
		name:            cfg.Name,
		symbol:          cfg.Symbol,
		decimals:        cfg.Decimals,
		publicMint:      cfg.PublicMint,
		domainSeparator: DomainSeparator(cfg.Name, chainID, cfg.Address),
		now:             now,
		totalSupply:     big.NewInt(0),
		balances:        make(map[common.Address]*big.Int),
		allowances:      make(map[common.Address]map[common.Address]*big.Int),
		nonces:          make(map[common.Address]*big.Int),
	}
}

func (t *SimToken) Address() common.Address { return t.address }
func (t *SimToken) Owner() common.Address   { return t.owner }

func (t *SimToken) Name(context.Context) (string, error)   { return t.name, nil }
func (t *SimToken) Symbol(context.Context) (string, error) { return t.symbol, nil }
func (t *SimToken) Decimals(context.Context) (uint8, error) {
	return t.decimals, nil
}

func (t *SimToken) TotalSupply() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.totalSupply)
}

func (t *SimToken) BalanceOf(_ context.Context, account common.Address) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.balanceOf(account)), nil
}

func (t *SimToken) Allowance(_ context.Context, owner, spender common.Address) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.allowance(owner, spender)), nil
}

func (t *SimToken) Transfer(_ context.Context, from, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transfer(from, to, amount)
}

func (t *SimToken) TransferFrom(_ context.Context, spender, from, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}

	allowed := t.allowance(from, spender)
	infinite := allowed.Cmp(math.MaxBig256) == 0
	if !infinite && allowed.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}

	// checked before any mutation so a failed transfer keeps the allowance
	if err := t.checkTransfer(from, to, amount); err != nil {
		return err
	}

	if !infinite {
		t.setAllowance(from, spender, new(big.Int).Sub(allowed, amount))
	}
	t.move(from, to, amount)
	return nil
}

func (t *SimToken) Approve(_ context.Context, owner, spender common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if spender == (common.Address{}) {
		return ErrApproveToZero
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	t.setAllowance(owner, spender, new(big.Int).Set(amount))
	return nil
}

func (t *SimToken) Permit(
	_ context.Context,
	owner, spender common.Address,
	value, deadline *big.Int,
	v uint8, r, s [32]byte,
) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if big.NewInt(t.now().Unix()).Cmp(deadline) > 0 {
		return ErrPermitExpired
	}

	nonce := t.nonce(owner)
	digest := PermitDigest(t.domainSeparator, PermitStructHash(owner, spender, value, nonce, deadline))
	signer, ok := recoverSigner(digest, v, r, s)
	if !ok || signer != owner {
		return ErrInvalidPermitSignature
	}
	if spender == (common.Address{}) {
		return ErrApproveToZero
	}

	t.nonces[owner] = new(big.Int).Add(nonce, big.NewInt(1))
	t.setAllowance(owner, spender, new(big.Int).Set(value))
	return nil
}

func (t *SimToken) Nonces(_ context.Context, owner common.Address) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.nonce(owner)), nil
}

func (t *SimToken) DomainSeparator() common.Hash {
	return t.domainSeparator
}

func (t *SimToken) Mint(_ context.Context, operator, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.publicMint && operator != t.owner {
		return ErrNotTokenOwner
	}
	if to == (common.Address{}) {
		return ErrMintToZero
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}

	t.totalSupply = new(big.Int).Add(t.totalSupply, amount)
	t.balances[to] = new(big.Int).Add(t.balanceOf(to), amount)
	return nil
}

func (t *SimToken) Burn(_ context.Context, operator, from common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if operator != t.owner {
		return ErrNotTokenOwner
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	bal := t.balanceOf(from)
	if bal.Cmp(amount) < 0 {
		return ErrBurnExceedsBalance
	}

	t.balances[from] = new(big.Int).Sub(bal, amount)
	t.totalSupply = new(big.Int).Sub(t.totalSupply, amount)
	return nil
}

func (t *SimToken) transfer(from, to common.Address, amount *big.Int) error {
	if err := t.checkTransfer(from, to, amount); err != nil {
		return err
	}
	t.move(from, to, amount)
	return nil
}

func (t *SimToken) checkTransfer(from, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if to == (common.Address{}) {
		return ErrTransferToZero
	}
	if t.balanceOf(from).Cmp(amount) < 0 {
		return ErrTransferExceedsBalance
	}
	return nil
}

func (t *SimToken) move(from, to common.Address, amount *big.Int) {
	t.balances[from] = new(big.Int).Sub(t.balanceOf(from), amount)
	t.balances[to] = new(big.Int).Add(t.balanceOf(to), amount)
}

func (t *SimToken) balanceOf(account common.Address) *big.Int {
	if bal, ok := t.balances[account]; ok {
		return bal
	}
	return big.NewInt(0)
}

func (t *SimToken) allowance(owner, spender common.Address) *big.Int {
	if m, ok := t.allowances[owner]; ok {
		if a, ok := m[spender]; ok {
			return a
		}
	}
	return big.NewInt(0)
}

func (t *SimToken) setAllowance(owner, spender common.Address, amount *big.Int) {
	m, ok := t.allowances[owner]
	if !ok {
		m = make(map[common.Address]*big.Int)
		t.allowances[owner] = m
	}
	m[spender] = amount
}

func (t *SimToken) nonce(owner common.Address) *big.Int {
	if n, ok := t.nonces[owner]; ok {
		return n
	}
	return big.NewInt(0)
}
