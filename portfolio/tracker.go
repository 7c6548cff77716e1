// Package portfolio owns account balances and open positions, values them
// against the market model, and is the only path by which they change.
package portfolio

import (
	"fmt"
	"sync"

	"github.com/rustyeddy/optionsim/market"
)

// Account is the settlement-currency view of one user. Balance only ever
// changes together with a position change, inside the executor.
type Account struct {
	ID       string
	Currency string
	Balance  float64
}

// accountState is everything the executor must mutate atomically: the
// balance/position pair lives behind one mutex so no observer sees one
// updated without the other. Orders for different accounts never contend.
type accountState struct {
	mu        sync.Mutex
	acct      Account
	positions map[string]*Position
}

// Tracker holds every account and prices them against the market model.
type Tracker struct {
	mu       sync.RWMutex
	market   *market.Model
	riskFree float64
	accounts map[string]*accountState
}

// NewTracker wires the tracker to its market model. riskFree is the
// annualized risk-free rate used for all theoretical pricing.
func NewTracker(m *market.Model, riskFree float64) *Tracker {
	return &Tracker{
		market:   m,
		riskFree: riskFree,
		accounts: make(map[string]*accountState),
	}
}

// CreateAccount registers a new account with its opening balance.
func (t *Tracker) CreateAccount(id, currency string, balance float64) (Account, error) {
	if id == "" {
		return Account{}, fmt.Errorf("portfolio: empty account id")
	}
	if balance < 0 {
		return Account{}, fmt.Errorf("portfolio: negative opening balance %v", balance)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.accounts[id]; dup {
		return Account{}, fmt.Errorf("%w: %q", ErrDuplicateAccount, id)
	}

	acct := Account{ID: id, Currency: currency, Balance: balance}
	t.accounts[id] = &accountState{
		acct:      acct,
		positions: make(map[string]*Position),
	}
	return acct, nil
}

// Account returns a copy of the account's current balance view.
func (t *Tracker) Account(id string) (Account, error) {
	st, err := t.state(id)
	if err != nil {
		return Account{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return st.acct, nil
}

func (t *Tracker) state(id string) (*accountState, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st, ok := t.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAccount, id)
	}
	return st, nil
}
