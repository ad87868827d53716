package registry

import (
	"errors"
)

// RevertError aborts a registry operation with a reason string. The whole
// GORM transaction rolls back, so no partial state survives — the same
// all-or-nothing contract as an EVM revert. Reason strings are part of the
// compatibility surface and must not be reworded.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	return e.Reason
}

func revert(reason string) error {
	return &RevertError{Reason: reason}
}

// Reverts shared across operations. Grouped by the error taxonomy:
// validation, authorization, state conflict, payment.
var (
	ErrInsufficientMintFee = revert("Insufficient mint fee")
	ErrLotCodeRequired     = revert("Lot code required")
	ErrLotCodeExists       = revert("Lot code already exists")
	ErrInvalidScaScore     = revert("Invalid SCA score")
	ErrNotTokenOwner       = revert("Not token owner")
	ErrPriceNotPositive    = revert("Price must be positive")
	ErrAlreadyListed       = revert("Already listed")
	ErrAlreadyRedeemed     = revert("Coffee already redeemed")
	ErrNotForSale          = revert("Not for sale")
	ErrInsufficientPayment = revert("Insufficient payment")
	ErrBuyOwnToken         = revert("Cannot buy own NFT")
	ErrNotSeller           = revert("Not the seller")
	ErrFeeTooHigh          = revert("Fee too high")
	ErrTokenNotFound       = revert("Token does not exist")
	ErrNotOwner            = revert("Ownable: caller is not the owner")
	ErrInsufficientBalance = revert("Insufficient balance")
	ErrStaleSeller         = revert("Seller no longer owns token")
	ErrInvalidAddress      = revert("Invalid address")
)

// IsRevert reports whether err is a registry revert (caller mistake) as
// opposed to an internal failure (DB down, bug).
func IsRevert(err error) bool {
	var re *RevertError
	return errors.As(err, &re)
}

// Reason returns the revert reason string, or "" for non-revert errors.
func Reason(err error) string {
	var re *RevertError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ""
}
