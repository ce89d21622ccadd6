// Package strategy holds the decision policy: a pure function from
// current holding state and the model's signal to a single trade action.
package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"trader/internal/model"
)

type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
	None Action = "NONE"
)

// PositionState is the brokerage-reported holding for a symbol.
type PositionState struct {
	Qty     decimal.Decimal
	Holding bool
}

// TradeIntent is the policy's output. Reason is the human-readable
// description for NONE actions; for submitted orders the final
// description is built after the brokerage acknowledges.
type TradeIntent struct {
	Action Action
	Qty    decimal.Decimal
	Reason string
}

// Decide combines holding state and signal into one action:
//
//	not holding + BUY  => buy the max affordable whole-share quantity
//	holding + SELL     => sell the full held quantity
//	otherwise          => no action
//
// A BUY with zero affordable shares degrades to None. Stateless across
// runs: identical inputs always produce the identical intent.
func Decide(symbol string, pos PositionState, sig model.Signal, buyingPower, lastClose decimal.Decimal) TradeIntent {
	switch {
	case !pos.Holding && sig == model.SignalBuy:
		qty := maxAffordableQty(buyingPower, lastClose)
		if !qty.IsPositive() {
			return TradeIntent{
				Action: None,
				Reason: fmt.Sprintf("Insufficient buying power to buy %s: no action", symbol),
			}
		}
		return TradeIntent{Action: Buy, Qty: qty, Reason: "buy_signal_while_flat"}

	case pos.Holding && sig == model.SignalSell:
		return TradeIntent{Action: Sell, Qty: pos.Qty, Reason: "sell_signal_while_holding"}

	case !pos.Holding && sig == model.SignalSell:
		return TradeIntent{
			Action: None,
			Reason: fmt.Sprintf("No position and SELL signal for %s: no action", symbol),
		}

	default:
		return TradeIntent{
			Action: None,
			Reason: fmt.Sprintf("Already holding and BUY signal for %s: no action", symbol),
		}
	}
}

// maxAffordableQty is the largest whole-share quantity purchasable with
// the given buying power at the given price, rounded down.
func maxAffordableQty(buyingPower, price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return buyingPower.Div(price).Floor()
}
