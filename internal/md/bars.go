// Package md fetches daily bars and estimates the still-open session's
// bar from an intraday snapshot and the latest trade.
package md

import (
	"context"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/pkg/errors"
)

// ErrDataFetch marks any failure to obtain market data, historical or
// live. A run never falls back to stale prices on this error.
var ErrDataFetch = errors.New("market data fetch failed")

// Bar is one daily OHLCV row. Date is the session date.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume uint64
}

// DaySnapshot is the intraday view of the current session before its
// official close exists: best-known open/high/low and volume so far.
type DaySnapshot struct {
	Open   float64
	High   float64
	Low    float64
	Volume uint64
}

// BarSource is the market data capability the estimator is built on.
type BarSource interface {
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error)
	DaySnapshot(ctx context.Context, symbol string) (DaySnapshot, error)
	LatestTradePrice(ctx context.Context, symbol string) (float64, error)
}

// AlpacaSource implements BarSource over the Alpaca market data API.
type AlpacaSource struct {
	client *marketdata.Client
}

func NewAlpacaSource(client *marketdata.Client) *AlpacaSource {
	return &AlpacaSource{client: client}
}

func (s *AlpacaSource) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	req := marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
	}
	raw, err := s.client.GetBars(symbol, req)
	if err != nil {
		return nil, errors.Wrapf(ErrDataFetch, "daily bars %s: %v", symbol, err)
	}

	bars := make([]Bar, 0, len(raw))
	for _, b := range raw {
		bars = append(bars, Bar{
			Date:   b.Timestamp,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}
	return bars, nil
}

func (s *AlpacaSource) DaySnapshot(ctx context.Context, symbol string) (DaySnapshot, error) {
	snap, err := s.client.GetSnapshot(symbol, marketdata.GetSnapshotRequest{})
	if err != nil {
		return DaySnapshot{}, errors.Wrapf(ErrDataFetch, "snapshot %s: %v", symbol, err)
	}
	if snap == nil || snap.DailyBar == nil {
		return DaySnapshot{}, errors.Wrapf(ErrDataFetch, "snapshot %s: no daily bar", symbol)
	}
	return DaySnapshot{
		Open:   snap.DailyBar.Open,
		High:   snap.DailyBar.High,
		Low:    snap.DailyBar.Low,
		Volume: snap.DailyBar.Volume,
	}, nil
}

func (s *AlpacaSource) LatestTradePrice(ctx context.Context, symbol string) (float64, error) {
	trade, err := s.client.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return 0, errors.Wrapf(ErrDataFetch, "latest trade %s: %v", symbol, err)
	}
	if trade == nil {
		return 0, errors.Wrapf(ErrDataFetch, "latest trade %s: no recent trade", symbol)
	}
	return trade.Price, nil
}
