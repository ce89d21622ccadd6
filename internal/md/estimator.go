package md

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
)

// exchangeTZ is the session calendar for US equities.
var exchangeTZ = mustLoadLocation("America/New_York")

// Estimator produces the daily series a model predicts on: historical
// bars plus, when the current session has no official close yet, a
// synthetic bar built from the intraday snapshot and the latest trade.
type Estimator struct {
	source       BarSource
	lookbackDays int
	now          func() time.Time
}

func NewEstimator(source BarSource, lookbackDays int) *Estimator {
	return &Estimator{
		source:       source,
		lookbackDays: lookbackDays,
		now:          time.Now,
	}
}

// Series returns daily bars for symbol covering the lookback window
// through today, ordered by date. If the data source already has a bar
// for today's session the series is returned as-is; otherwise a
// synthetic bar for today is appended with the latest trade price as
// its close. An unavailable snapshot or trade fails the fetch outright.
func (e *Estimator) Series(ctx context.Context, symbol string) ([]Bar, error) {
	now := e.now()
	start := now.AddDate(0, 0, -e.lookbackDays)

	bars, err := e.source.DailyBars(ctx, symbol, start, now)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, errors.Wrapf(ErrDataFetch, "no daily bars for %s", symbol)
	}

	today := sessionDate(now)
	last := bars[len(bars)-1]
	if sessionDate(last.Date).Equal(today) {
		slog.Info("series complete through today", "symbol", symbol, "bars", len(bars))
		return bars, nil
	}

	snap, err := e.source.DaySnapshot(ctx, symbol)
	if err != nil {
		return nil, err
	}
	price, err := e.source.LatestTradePrice(ctx, symbol)
	if err != nil {
		return nil, err
	}

	synthetic := Bar{
		Date:   today,
		Open:   snap.Open,
		High:   snap.High,
		Low:    snap.Low,
		Close:  price,
		Volume: snap.Volume,
	}
	slog.Info("appended synthetic bar", "symbol", symbol, "date", today.Format("2006-01-02"), "close", price)
	return append(bars, synthetic), nil
}

// sessionDate normalizes a timestamp to its trading session's calendar
// date in exchange time.
func sessionDate(t time.Time) time.Time {
	local := t.In(exchangeTZ)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, exchangeTZ)
}

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}
