// Package indicators derives the technical feature columns the trading
// model consumes from a raw daily bar series.
package indicators

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/pkg/errors"

	"trader/internal/md"
)

// Feature column names produced by Enrich.
const (
	ColClose  = "close"
	ColVolume = "volume"
	ColEMA20  = "ema20"
	ColEMA50  = "ema50"
	ColRSI14  = "rsi14"
	ColMACD   = "macd"
)

// ErrInsufficientHistory is returned when the series is too short to
// warm up every indicator.
var ErrInsufficientHistory = errors.New("insufficient history for indicators")

// Frame is a bar series with aligned feature columns. Every column has
// exactly one value per bar; warmup rows without a full feature set are
// trimmed from the front.
type Frame struct {
	Bars    []md.Bar
	columns map[string][]float64
}

// NewFrame builds a frame from pre-aligned columns. Every column must
// have one value per bar.
func NewFrame(bars []md.Bar, columns map[string][]float64) (Frame, error) {
	for name, col := range columns {
		if len(col) != len(bars) {
			return Frame{}, errors.Errorf("column %q has %d values for %d bars", name, len(col), len(bars))
		}
	}
	return Frame{Bars: bars, columns: columns}, nil
}

func (f Frame) Len() int {
	return len(f.Bars)
}

func (f Frame) Column(name string) ([]float64, bool) {
	col, ok := f.columns[name]
	return col, ok
}

// LastClose is the close of the most recent bar in the frame.
func (f Frame) LastClose() float64 {
	return f.Bars[len(f.Bars)-1].Close
}

// Enrich computes the feature columns over bars. Indicator outputs are
// shorter than their input; all columns and the bar slice are aligned
// to the shortest tail.
func Enrich(bars []md.Bar) (Frame, error) {
	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = float64(b.Volume)
	}

	columns := map[string][]float64{
		ColClose:  closes,
		ColVolume: volumes,
		ColEMA20:  ema(closes, 20),
		ColEMA50:  ema(closes, 50),
		ColRSI14:  rsi(closes, 14),
		ColMACD:   macdLine(closes),
	}

	tail := len(bars)
	for _, col := range columns {
		if len(col) < tail {
			tail = len(col)
		}
	}
	if tail == 0 {
		return Frame{}, errors.Wrapf(ErrInsufficientHistory, "got %d bars", len(bars))
	}

	aligned := make(map[string][]float64, len(columns))
	for name, col := range columns {
		aligned[name] = col[len(col)-tail:]
	}

	return Frame{
		Bars:    bars[len(bars)-tail:],
		columns: aligned,
	}, nil
}

func ema(closes []float64, period int) []float64 {
	if len(closes) < period {
		return nil
	}
	e := trend.NewEmaWithPeriod[float64](period)
	return helper.ChanToSlice(e.Compute(helper.SliceToChan(closes)))
}

func rsi(closes []float64, period int) []float64 {
	if len(closes) < period+1 {
		return nil
	}
	r := momentum.NewRsiWithPeriod[float64](period)
	return helper.ChanToSlice(r.Compute(helper.SliceToChan(closes)))
}

func macdLine(closes []float64) []float64 {
	if len(closes) < 26 {
		return nil
	}
	m := trend.NewMacd[float64]()
	macdChan, signalChan := m.Compute(helper.SliceToChan(closes))
	// drain signal channel to prevent blocking
	go func() {
		for range signalChan {
		}
	}()
	return helper.ChanToSlice(macdChan)
}
