package pricing

import "errors"

// ErrInvalidPricingInput marks market inputs the closed-form model cannot
// price: non-positive spot, strike or volatility, or non-finite values.
var ErrInvalidPricingInput = errors.New("invalid pricing input")
