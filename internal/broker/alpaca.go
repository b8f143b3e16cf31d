package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"

	"tradebot/internal/domain"
)

// Compile-time interface check.
var _ Broker = (*AlpacaBroker)(nil)

// AlpacaBroker executes orders through the Alpaca brokerage API and keeps a
// local ledger mirror of the remote account so positions and balance are
// readable without a network round trip. The mirror is only mutated after
// the remote call succeeds, so a failed submission leaves no partial state.
type AlpacaBroker struct {
	client *alpaca.Client
	ledger *ledger
	log    *slog.Logger
}

// NewAlpacaBroker creates an AlpacaBroker configured with the given
// credentials and API endpoint.
func NewAlpacaBroker(apiKey, apiSecret, baseURL string) *AlpacaBroker {
	return &AlpacaBroker{
		client: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
		ledger: newLedger(0),
		log:    slog.Default().With("broker", "alpaca"),
	}
}

// Name returns "alpaca".
func (b *AlpacaBroker) Name() string {
	return "alpaca"
}

// Sync pulls the remote account balance and open positions into the local
// mirror. It must be called once before trading starts.
func (b *AlpacaBroker) Sync() error {
	account, err := b.client.GetAccount()
	if err != nil {
		return fmt.Errorf("%w: fetching account: %v", ErrUnavailable, err)
	}
	positions, err := b.client.GetPositions()
	if err != nil {
		return fmt.Errorf("%w: fetching positions: %v", ErrUnavailable, err)
	}

	b.ledger.setCash(account.Cash.InexactFloat64())
	for _, p := range positions {
		if p.Qty.IsNegative() {
			// Short positions have no place in the long-only ledger.
			b.log.Warn("skipping short position", "symbol", p.Symbol, "qty", p.Qty)
			continue
		}
		b.ledger.setPosition(domain.Position{
			Symbol:   p.Symbol,
			Quantity: p.Qty.InexactFloat64(),
			AvgPrice: p.AvgEntryPrice.InexactFloat64(),
		})
	}
	b.log.Info("account synced",
		"cash", account.Cash.InexactFloat64(),
		"positions", len(positions),
	)
	return nil
}

// PlaceOrder submits a market order to Alpaca and, once the submission is
// accepted, applies the same order to the local mirror. Any API failure
// surfaces as ErrUnavailable with the ledger untouched.
func (b *AlpacaBroker) PlaceOrder(ctx context.Context, symbol string, orderType domain.OrderType, quantity, fillPrice float64) (*domain.Trade, error) {
	if quantity <= 0 || fillPrice <= 0 {
		return nil, fmt.Errorf("%w: quantity %v price %v", ErrInvalidOrder, quantity, fillPrice)
	}

	var side alpaca.Side
	switch {
	case orderType.IsBuy():
		side = alpaca.Buy
	case orderType.IsSell():
		side = alpaca.Sell
	default:
		return nil, fmt.Errorf("%w: order type %q is not executable", ErrInvalidOrder, orderType)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qty := decimal.NewFromFloat(quantity)
	order, err := b.client.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:      symbol,
		Qty:         &qty,
		Side:        side,
		Type:        alpaca.Market,
		TimeInForce: alpaca.Day,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: placing order %s %s: %v", ErrUnavailable, orderType, symbol, err)
	}

	b.log.Info("order submitted",
		"id", order.ID,
		"symbol", symbol,
		"type", string(orderType),
		"quantity", quantity,
	)

	// The submission was accepted; mirror the fill locally. A market order's
	// actual fill price arrives asynchronously, so the decision price stands
	// in until the next Sync.
	return b.ledger.applyOrder(symbol, orderType, quantity, fillPrice, time.Now())
}

// GetPositions returns a snapshot of the mirrored positions.
func (b *AlpacaBroker) GetPositions() []domain.Position {
	return b.ledger.snapshotPositions()
}

// GetBalance returns the mirrored cash balance.
func (b *AlpacaBroker) GetBalance() float64 {
	return b.ledger.balance()
}

// TradeHistory returns all trades executed through this broker instance.
func (b *AlpacaBroker) TradeHistory() []domain.Trade {
	return b.ledger.snapshotHistory()
}
