package etherman

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// the part of the ERC20 interface the bridge uses
const erc20ABIJSON = `[
	{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[{"indexed":true,"name":"from","type":"address"},{"indexed":true,"name":"to","type":"address"},{"indexed":false,"name":"value","type":"uint256"}]},
	{"type":"event","name":"Approval","anonymous":false,"inputs":[{"indexed":true,"name":"owner","type":"address"},{"indexed":true,"name":"spender","type":"address"},{"indexed":false,"name":"value","type":"uint256"}]}
]`

var erc20ABI = mustParseABI(erc20ABIJSON)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}

// ERC20 implements ledger.Token for a deployed ERC20 contract.
type ERC20 struct {
	address  ethcommon.Address
	contract *bind.BoundContract
	em       *Etherman
}

func newERC20(addr ethcommon.Address, em *Etherman) *ERC20 {
	return &ERC20{
		address:  addr,
		contract: bind.NewBoundContract(addr, erc20ABI, em.ethClient, em.ethClient, em.ethClient),
		em:       em,
	}
}

func (t *ERC20) Address() ethcommon.Address { return t.address }

func (t *ERC20) call(ctx context.Context, method string, params ...interface{}) (interface{}, error) {
	var out []interface{}
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, err
	}
	return out[0], nil
}

func (t *ERC20) Name(ctx context.Context) (string, error) {
	out, err := t.call(ctx, "name")
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out, new(string)).(*string), nil
}

func (t *ERC20) Symbol(ctx context.Context) (string, error) {
	out, err := t.call(ctx, "symbol")
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out, new(string)).(*string), nil
}

func (t *ERC20) Decimals(ctx context.Context) (uint8, error) {
	out, err := t.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out, new(uint8)).(*uint8), nil
}

func (t *ERC20) TotalSupply(ctx context.Context) (*big.Int, error) {
	out, err := t.call(ctx, "totalSupply")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out, new(*big.Int)).(**big.Int), nil
}

func (t *ERC20) BalanceOf(ctx context.Context, account ethcommon.Address) (*big.Int, error) {
	out, err := t.call(ctx, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out, new(*big.Int)).(**big.Int), nil
}

func (t *ERC20) Allowance(ctx context.Context, owner, spender ethcommon.Address) (*big.Int, error) {
	out, err := t.call(ctx, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out, new(*big.Int)).(**big.Int), nil
}

func (t *ERC20) Transfer(ctx context.Context, from, to ethcommon.Address, amount *big.Int) error {
	return t.em.transact(ctx, from, t.contract, "transfer", to, amount)
}

func (t *ERC20) TransferFrom(ctx context.Context, spender, from, to ethcommon.Address, amount *big.Int) error {
	return t.em.transact(ctx, spender, t.contract, "transferFrom", from, to, amount)
}

func (t *ERC20) Approve(ctx context.Context, owner, spender ethcommon.Address, amount *big.Int) error {
	return t.em.transact(ctx, owner, t.contract, "approve", spender, amount)
}
