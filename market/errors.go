package market

import "errors"

// ErrUnknownInstrument is returned for symbols the model was not constructed
// with. Registration happens once at startup; there is no dynamic listing.
var ErrUnknownInstrument = errors.New("unknown instrument")
