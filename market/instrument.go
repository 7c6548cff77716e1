package market

// Instrument is reference data for one simulated underlying. Spot here is the
// opening price only; the live value is owned by the Model.
type Instrument struct {
	Symbol string
	Name   string
	Spot   float64
	Vol    float64 // annualized volatility estimate

	// LotSize is the contract multiplier for derivatives on this underlying.
	// Shares always trade with a multiplier of 1.
	LotSize float64

	// StrikeStep is the strike grid spacing for the option chain. Zero means
	// no listed options.
	StrikeStep float64
}

// DefaultInstruments is the stock universe the simulator boots with, plus the
// NIFTY index as the option-chain underlying.
func DefaultInstruments() []Instrument {
	return []Instrument{
		{Symbol: "NIFTY", Name: "NIFTY 50", Spot: 24350.75, Vol: 0.14, LotSize: 25, StrikeStep: 50},
		{Symbol: "RELIANCE", Name: "Reliance Industries", Spot: 2500.0, Vol: 0.28, LotSize: 1},
		{Symbol: "TCS", Name: "Tata Consultancy Services", Spot: 3200.0, Vol: 0.24, LotSize: 1},
		{Symbol: "INFY", Name: "Infosys", Spot: 1450.0, Vol: 0.30, LotSize: 1},
		{Symbol: "HDFC", Name: "HDFC Bank", Spot: 1600.0, Vol: 0.26, LotSize: 1},
		{Symbol: "ICICI", Name: "ICICI Bank", Spot: 950.0, Vol: 0.32, LotSize: 1},
		{Symbol: "WIPRO", Name: "Wipro", Spot: 420.0, Vol: 0.35, LotSize: 1},
		{Symbol: "BHARTI", Name: "Bharti Airtel", Spot: 850.0, Vol: 0.27, LotSize: 1},
		{Symbol: "ITC", Name: "ITC Limited", Spot: 310.0, Vol: 0.22, LotSize: 1},
	}
}
