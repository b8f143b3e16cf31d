package broker

import (
	"fmt"
	"sync"
	"time"

	"tradebot/internal/domain"
)

// ledger is the in-memory account state shared by the paper broker and the
// local mirror of the Alpaca broker. One RWMutex covers the whole
// read-modify-write of an order so readers never see a position with its
// quantity updated but its average price stale (or vice versa).
type ledger struct {
	mu        sync.RWMutex
	cash      float64
	positions map[string]*domain.Position
	history   []domain.Trade
}

func newLedger(initialBalance float64) *ledger {
	return &ledger{
		cash:      initialBalance,
		positions: make(map[string]*domain.Position),
	}
}

// applyOrder validates and applies one order under the write lock, returning
// the recorded trade. On any error the ledger is left untouched.
func (l *ledger) applyOrder(symbol string, orderType domain.OrderType, quantity, fillPrice float64, at time.Time) (*domain.Trade, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity %v must be positive", ErrInvalidOrder, quantity)
	}
	if fillPrice <= 0 {
		return nil, fmt.Errorf("%w: fill price %v must be positive", ErrInvalidOrder, fillPrice)
	}
	if !orderType.IsBuy() && !orderType.IsSell() {
		return nil, fmt.Errorf("%w: order type %q is not executable", ErrInvalidOrder, orderType)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[symbol]
	if !ok {
		pos = &domain.Position{Symbol: symbol}
	}

	switch {
	case orderType.IsBuy():
		newQty := pos.Quantity + quantity
		if pos.Quantity == 0 {
			// Avoid the 0/0 weighted average on a fresh position.
			pos.AvgPrice = fillPrice
		} else {
			pos.AvgPrice = (pos.Quantity*pos.AvgPrice + quantity*fillPrice) / newQty
		}
		pos.Quantity = newQty
		l.cash -= quantity * fillPrice

	case orderType.IsSell():
		newQty := pos.Quantity - quantity
		if newQty < 0 {
			return nil, fmt.Errorf("%w: have %v %s, tried to sell %v",
				ErrInsufficientPosition, pos.Quantity, symbol, quantity)
		}
		pos.Quantity = newQty
		if newQty == 0 {
			// Closed position carries no stale cost basis.
			pos.AvgPrice = 0
		}
		l.cash += quantity * fillPrice
	}

	l.positions[symbol] = pos
	l.checkInvariants(pos)

	trade := domain.Trade{
		Symbol:    symbol,
		OrderType: orderType,
		Quantity:  quantity,
		Price:     fillPrice,
		Timestamp: at,
	}
	l.history = append(l.history, trade)
	return &trade, nil
}

// setPosition overwrites the position for a symbol. Used when mirroring
// remote account state.
func (l *ledger) setPosition(pos domain.Position) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := pos
	l.positions[pos.Symbol] = &p
	l.checkInvariants(&p)
}

// setCash overwrites the cash balance. Used when mirroring remote state.
func (l *ledger) setCash(cash float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cash = cash
}

// snapshotPositions returns copies of all positions.
func (l *ledger) snapshotPositions() []domain.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	positions := make([]domain.Position, 0, len(l.positions))
	for _, p := range l.positions {
		positions = append(positions, *p)
	}
	return positions
}

func (l *ledger) balance() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cash
}

func (l *ledger) snapshotHistory() []domain.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()

	history := make([]domain.Trade, len(l.history))
	copy(history, l.history)
	return history
}

// checkInvariants panics when the ledger has reached a state that cannot be
// produced by valid order application. This is the one fatal error class:
// continuing would trade against corrupted state.
func (l *ledger) checkInvariants(pos *domain.Position) {
	if pos.Quantity < 0 || pos.AvgPrice < 0 {
		panic(fmt.Errorf("%w: position %s has quantity %v avg price %v",
			ErrLedgerCorrupt, pos.Symbol, pos.Quantity, pos.AvgPrice))
	}
	if pos.Quantity == 0 && pos.AvgPrice != 0 {
		panic(fmt.Errorf("%w: closed position %s retains avg price %v",
			ErrLedgerCorrupt, pos.Symbol, pos.AvgPrice))
	}
}
