// Package ledger holds the capabilities the bridge consumes from a fungible
// token ledger, plus an in-process simulation of such a ledger.
package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Token is the ERC20 surface used by the bridge. Every mutating call names
// its sender explicitly since there is no implicit msg.sender in Go.
type Token interface {
	Address() common.Address
	Name(ctx context.Context) (string, error)
	Symbol(ctx context.Context) (string, error)
	Decimals(ctx context.Context) (uint8, error)
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)

	Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error
	TransferFrom(ctx context.Context, spender, from, to common.Address, amount *big.Int) error
	Approve(ctx context.Context, owner, spender common.Address, amount *big.Int) error
}

// Permitter is implemented by tokens that accept EIP-2612 off-ledger signed
// approvals.
type Permitter interface {
	Permit(
		ctx context.Context,
		owner, spender common.Address,
		value, deadline *big.Int,
		v uint8, r, s [32]byte,
	) error
	Nonces(ctx context.Context, owner common.Address) (*big.Int, error)
	DomainSeparator() common.Hash
}

// Mintable is implemented by tokens whose supply is controlled by an owner,
// e.g. the wrapped tokens deployed by the bridge.
type Mintable interface {
	Owner() common.Address
	Mint(ctx context.Context, operator, to common.Address, amount *big.Int) error
	Burn(ctx context.Context, operator, from common.Address, amount *big.Int) error
}

// Resolver finds the token deployed at an address.
type Resolver interface {
	Token(ctx context.Context, addr common.Address) (Token, error)
}

// WrappedFactory deploys wrapped tokens at an address derived only from
// (deployer, salt). Deploying twice with the same pair returns the existing
// token instead of creating a new one.
type WrappedFactory interface {
	DeployWrapped(
		ctx context.Context,
		deployer common.Address,
		salt common.Hash,
		name, symbol string,
	) (common.Address, error)
}
