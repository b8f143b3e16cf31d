package builtins

import (
	"testing"
	"time"

	"tradebot/internal/domain"
)

func bar(close float64) domain.Bar {
	return domain.Bar{Symbol: "AAPL", Timestamp: time.Now(), Close: close}
}

func TestSMACrossHoldsUntilWarm(t *testing.T) {
	s := NewSMACross(2, 4)

	for i, close := range []float64{100, 101, 102} {
		if got := s.GenerateSignal(bar(close)); got != domain.Hold {
			t.Errorf("bar %d: signal = %s, want HOLD while warming", i, got)
		}
	}
}

func TestSMACrossSignalsOnCrossover(t *testing.T) {
	s := NewSMACross(2, 4)

	// Establish a falling series so the short SMA sits below the long one.
	for _, close := range []float64{110, 108, 106, 104, 102} {
		s.GenerateSignal(bar(close))
	}

	// A sharp rally pulls the short SMA above the long: buy.
	var got domain.OrderType
	for _, close := range []float64{112, 118} {
		got = s.GenerateSignal(bar(close))
		if got == domain.Buy {
			break
		}
	}
	if got != domain.Buy {
		t.Fatalf("signal after rally = %s, want BUY", got)
	}

	// A collapse drives it back below: sell.
	for _, close := range []float64{90, 80, 70} {
		got = s.GenerateSignal(bar(close))
		if got == domain.Sell {
			break
		}
	}
	if got != domain.Sell {
		t.Fatalf("signal after collapse = %s, want SELL", got)
	}
}
