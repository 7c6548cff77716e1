package portfolio

import "errors"

// Typed failures for order execution and snapshots. Callers branch on these
// with errors.Is; messages carry the offending values.
var (
	ErrUnknownAccount       = errors.New("unknown account")
	ErrDuplicateAccount     = errors.New("account already exists")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInvalidSide          = errors.New("invalid order side")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrRiskLimit            = errors.New("risk limit exceeded")
)
