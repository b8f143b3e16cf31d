package builtins

import "tradebot/internal/strategy"

// Default SMA crossover periods, in bars.
const (
	defaultShortPeriod = 10
	defaultLongPeriod  = 30
)

// RegisterAll adds every built-in strategy to the registry with its default
// parameters.
func RegisterAll(r *strategy.Registry) {
	r.Register(NewSMACross(defaultShortPeriod, defaultLongPeriod))
	r.Register(NewBuyHold())
}
