package bridge

import (
	"context"
	"math/big"

	"github.com/TEENet-io/erc20-bridge-go/ledger"
	"github.com/ethereum/go-ethereum/common"
)

// Escrow balances are the bridge account's own balances on the token
// ledger. Every ledger failure is surfaced as a DelegatedTransferError.

func (b *Bridge) deposit(ctx context.Context, token ledger.Token, from common.Address, amount *big.Int) error {
	if err := b.external(func() error {
		return token.TransferFrom(ctx, b.address, from, b.address, amount)
	}); err != nil {
		return delegated("transferFrom", err)
	}
	return nil
}

func (b *Bridge) release(ctx context.Context, token ledger.Token, to common.Address, amount *big.Int) error {
	if err := b.external(func() error {
		return token.Transfer(ctx, b.address, to, amount)
	}); err != nil {
		return delegated("transfer", err)
	}
	return nil
}

func (b *Bridge) permit(
	ctx context.Context,
	token ledger.Token,
	owner common.Address,
	value, deadline *big.Int,
	signature []byte,
) error {
	p, ok := token.(ledger.Permitter)
	if !ok {
		return delegated("permit", ledger.ErrPermitUnsupported)
	}
	v, r, s, err := ledger.SplitSignature(signature)
	if err != nil {
		return delegated("permit", ledger.ErrInvalidPermitSignature)
	}
	if err := b.external(func() error {
		return p.Permit(ctx, owner, b.address, value, deadline, v, r, s)
	}); err != nil {
		return delegated("permit", err)
	}
	return nil
}

func mintable(token ledger.Token, op string) (ledger.Mintable, error) {
	m, ok := token.(ledger.Mintable)
	if !ok {
		return nil, delegated(op, ledger.ErrNotMintable)
	}
	return m, nil
}

func (b *Bridge) mint(ctx context.Context, token ledger.Token, to common.Address, amount *big.Int) error {
	m, err := mintable(token, "mint")
	if err != nil {
		return err
	}
	if err := b.external(func() error {
		return m.Mint(ctx, b.address, to, amount)
	}); err != nil {
		return delegated("mint", err)
	}
	return nil
}

func (b *Bridge) burn(ctx context.Context, token ledger.Token, from common.Address, amount *big.Int) error {
	m, err := mintable(token, "burn")
	if err != nil {
		return err
	}
	if err := b.external(func() error {
		return m.Burn(ctx, b.address, from, amount)
	}); err != nil {
		return delegated("burn", err)
	}
	return nil
}
