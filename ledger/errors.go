package ledger

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrTransferExceedsBalance = errors.New("ERC20: transfer amount exceeds balance")
	ErrInsufficientAllowance  = errors.New("ERC20: insufficient allowance")
	ErrBurnExceedsBalance     = errors.New("ERC20: burn amount exceeds balance")
	ErrTransferToZero         = errors.New("ERC20: transfer to the zero address")
	ErrMintToZero             = errors.New("ERC20: mint to the zero address")
	ErrApproveToZero          = errors.New("ERC20: approve to the zero address")
	ErrNegativeAmount         = errors.New("ERC20: negative amount")
	ErrNotTokenOwner          = errors.New("Ownable: caller is not the owner")
	ErrPermitExpired          = errors.New("ERC20Permit: expired deadline")
	ErrInvalidPermitSignature = errors.New("ERC20Permit: invalid signature")
	ErrPermitUnsupported      = errors.New("token does not support permit")
	ErrNotMintable            = errors.New("token is not mintable")
)

func ErrTokenNotFound(addr common.Address) error {
	return fmt.Errorf("no token deployed at %s", addr.Hex())
}

func ErrTokenAlreadyDeployed(addr common.Address) error {
	return fmt.Errorf("address %s already holds a token", addr.Hex())
}

// PendingTxError reports a transaction that was sent but whose outcome is
// unknown. Its effects may still land on the ledger.
type PendingTxError struct {
	TxHash common.Hash
	Err    error
}

func (e *PendingTxError) Error() string {
	return fmt.Sprintf("transaction %s pending: %v", e.TxHash.Hex(), e.Err)
}

func (e *PendingTxError) Unwrap() error {
	return e.Err
}

// IsPending reports whether err leaves a ledger write in an unknown state.
func IsPending(err error) bool {
	var pe *PendingTxError
	return errors.As(err, &pe)
}
