// Package engine wires the pipeline: fetch bars, enrich, predict,
// decide, submit. One Run per process invocation; all position and
// order state lives at the brokerage.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"trader/internal/broker"
	"trader/internal/config"
	"trader/internal/indicators"
	"trader/internal/md"
	"trader/internal/model"
	"trader/internal/strategy"
)

// Result is the structured record printed on stdout after a run.
type Result struct {
	Symbol    string `json:"symbol"`
	Signal    string `json:"signal"`
	Decision  string `json:"decision"`
	Paper     bool   `json:"paper"`
	Timestamp string `json:"timestamp"`
}

// BarProvider yields the daily series, synthetic last bar included.
type BarProvider interface {
	Series(ctx context.Context, symbol string) ([]md.Bar, error)
}

// Gateway is the slice of the brokerage the engine needs.
type Gateway interface {
	Position(ctx context.Context, symbol string) (decimal.Decimal, bool, error)
	BuyingPower(ctx context.Context) (decimal.Decimal, error)
	SubmitMarketOrder(ctx context.Context, symbol string, side alpaca.Side, qty decimal.Decimal) (broker.OrderAck, error)
}

type Engine struct {
	cfg    config.Config
	bars   BarProvider
	gw     Gateway
	enrich func(bars []md.Bar) (indicators.Frame, error)
	load   func(path string) (model.Predictor, error)
	now    func() time.Time
}

func New(cfg config.Config, bars BarProvider, gw Gateway) *Engine {
	return &Engine{
		cfg:    cfg,
		bars:   bars,
		gw:     gw,
		enrich: indicators.Enrich,
		load:   model.Load,
		now:    time.Now,
	}
}

// Run executes the pipeline once. On failure after the signal was
// computed, the partial Result is returned alongside the error so the
// caller can report what was learned before the failure.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	symbol := e.cfg.Symbol

	bars, err := e.bars.Series(ctx, symbol)
	if err != nil {
		return Result{}, errors.Wrap(err, "fetch market data")
	}

	frame, err := e.enrich(bars)
	if err != nil {
		return Result{}, errors.Wrap(err, "compute indicators")
	}

	predictor, err := e.load(e.cfg.ModelPath)
	if err != nil {
		return Result{}, errors.Wrap(err, "load model")
	}

	preds, err := predictor.Predict(frame)
	if err != nil {
		return Result{}, errors.Wrap(err, "predict")
	}
	if len(preds) == 0 {
		return Result{}, errors.Wrap(model.ErrPrediction, "predict: empty prediction sequence")
	}

	sig, err := model.SignalFromPrediction(preds[len(preds)-1])
	if err != nil {
		return Result{}, errors.Wrap(err, "predict")
	}

	result := Result{
		Symbol:    symbol,
		Signal:    string(sig),
		Paper:     e.cfg.Paper,
		Timestamp: e.now().UTC().Format(time.RFC3339),
	}
	slog.Info("signal computed", "symbol", symbol, "signal", sig)

	qty, holding, err := e.gw.Position(ctx, symbol)
	if err != nil {
		return result, errors.Wrap(err, "get position")
	}
	pos := strategy.PositionState{Qty: qty, Holding: holding}

	buyingPower := decimal.Zero
	if !holding && sig == model.SignalBuy {
		buyingPower, err = e.gw.BuyingPower(ctx)
		if err != nil {
			return result, errors.Wrap(err, "get buying power")
		}
	}

	lastClose := decimal.NewFromFloat(frame.LastClose())
	intent := strategy.Decide(symbol, pos, sig, buyingPower, lastClose)

	if intent.Action == strategy.None {
		result.Decision = intent.Reason
		slog.Info("no action", "symbol", symbol, "reason", intent.Reason)
		return result, nil
	}

	side := alpaca.Buy
	if intent.Action == strategy.Sell {
		side = alpaca.Sell
	}

	ack, err := e.gw.SubmitMarketOrder(ctx, symbol, side, intent.Qty)
	if err != nil {
		result.Decision = fmt.Sprintf("%s failed for %s: %v", intent.Action, symbol, err)
		return result, errors.Wrap(err, "submit order")
	}

	result.Decision = fmt.Sprintf("%s order submitted for %s (qty=%s)", intent.Action, symbol, intent.Qty)
	slog.Info("order submitted", "symbol", symbol, "side", side, "qty", intent.Qty, "order_id", ack.ID, "status", ack.Status)
	return result, nil
}
