package md

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	bars     []Bar
	barsErr  error
	snap     DaySnapshot
	snapErr  error
	price    float64
	priceErr error

	snapCalls int
}

func (f *fakeSource) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	return f.bars, f.barsErr
}

func (f *fakeSource) DaySnapshot(ctx context.Context, symbol string) (DaySnapshot, error) {
	f.snapCalls++
	return f.snap, f.snapErr
}

func (f *fakeSource) LatestTradePrice(ctx context.Context, symbol string) (float64, error) {
	return f.price, f.priceErr
}

// fixedNow is mid-session on a Tuesday, exchange time.
var fixedNow = time.Date(2025, 6, 10, 14, 30, 0, 0, exchangeTZ)

func newTestEstimator(source BarSource) *Estimator {
	e := NewEstimator(source, 365)
	e.now = func() time.Time { return fixedNow }
	return e
}

func dayBar(t time.Time, close float64) Bar {
	return Bar{Date: t, Open: close - 1, High: close + 1, Low: close - 2, Close: close, Volume: 5000}
}

func TestSeriesSkipsSynthesisWhenTodayBarExists(t *testing.T) {
	source := &fakeSource{
		bars: []Bar{
			dayBar(fixedNow.AddDate(0, 0, -1), 99),
			dayBar(fixedNow.Add(-2*time.Hour), 101),
		},
	}

	bars, err := newTestEstimator(source).Series(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Len(t, bars, 2)
	assert.Equal(t, 101.0, bars[len(bars)-1].Close)
	assert.Zero(t, source.snapCalls, "snapshot fetched despite complete series")
}

func TestSeriesAppendsSyntheticBar(t *testing.T) {
	source := &fakeSource{
		bars: []Bar{
			dayBar(fixedNow.AddDate(0, 0, -2), 98),
			dayBar(fixedNow.AddDate(0, 0, -1), 99),
		},
		snap:  DaySnapshot{Open: 99.5, High: 102, Low: 99.1, Volume: 31337},
		price: 101.25,
	}

	bars, err := newTestEstimator(source).Series(context.Background(), "SPY")
	require.NoError(t, err)
	require.Len(t, bars, 3)

	last := bars[len(bars)-1]
	assert.Equal(t, 101.25, last.Close)
	assert.Equal(t, 99.5, last.Open)
	assert.Equal(t, 102.0, last.High)
	assert.Equal(t, 99.1, last.Low)
	assert.Equal(t, uint64(31337), last.Volume)
	assert.True(t, sessionDate(last.Date).Equal(sessionDate(fixedNow)))
}

func TestSeriesFailsWhenSnapshotUnavailable(t *testing.T) {
	source := &fakeSource{
		bars:    []Bar{dayBar(fixedNow.AddDate(0, 0, -1), 99)},
		snapErr: errors.Wrap(ErrDataFetch, "snapshot SPY: no daily bar"),
	}

	_, err := newTestEstimator(source).Series(context.Background(), "SPY")
	assert.ErrorIs(t, err, ErrDataFetch)
}

func TestSeriesFailsWhenLatestTradeUnavailable(t *testing.T) {
	source := &fakeSource{
		bars:     []Bar{dayBar(fixedNow.AddDate(0, 0, -1), 99)},
		priceErr: errors.Wrap(ErrDataFetch, "latest trade SPY: no recent trade"),
	}

	_, err := newTestEstimator(source).Series(context.Background(), "SPY")
	assert.ErrorIs(t, err, ErrDataFetch)
}

func TestSeriesFailsOnEmptyHistory(t *testing.T) {
	_, err := newTestEstimator(&fakeSource{}).Series(context.Background(), "UNKNOWN")
	assert.ErrorIs(t, err, ErrDataFetch)
}
