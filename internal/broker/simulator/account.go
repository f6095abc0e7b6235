package simulator

import (
	"sync"

	"jotacomputing/counterbridge/internal/broker"
)

// accountBook is the simulator's single account row. One mutex;
// recomputed on every trade.
type accountBook struct {
	mu             sync.Mutex
	initialBalance float64
	closeProfit    float64
	commission     float64
	dailyPnL       float64
	margin         float64
}

func newAccountBook(initialBalance float64) *accountBook {
	return &accountBook{initialBalance: initialBalance}
}

// addTrade folds one fill's P&L and cost into the account.
func (a *accountBook) addTrade(pnl, commission float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closeProfit += pnl
	a.dailyPnL += pnl
	a.commission += commission
}

// setMarginTotal replaces the account-wide margin total; called after the
// position table's margin recompute.
func (a *accountBook) setMarginTotal(total float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.margin = total
}

func (a *accountBook) snapshot() broker.Account {
	a.mu.Lock()
	defer a.mu.Unlock()
	balance := a.initialBalance + a.closeProfit - a.commission
	return broker.Account{
		Balance:        balance,
		Available:      balance - a.margin - a.commission,
		Margin:         a.margin,
		Commission:     a.commission,
		CloseProfit:    a.closeProfit,
		DailyPnL:       a.dailyPnL,
		InitialBalance: a.initialBalance,
	}
}

func (a *accountBook) dailyLossBreached(maxDailyLoss float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dailyPnL < -maxDailyLoss
}
