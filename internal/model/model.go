// Package model loads an externally trained model artifact and maps its
// raw predictions to trade signals. The artifact is opaque to the rest
// of the pipeline: everything behind Predictor is pluggable.
package model

import (
	"encoding/json"
	"math"
	"os"

	"github.com/pkg/errors"

	"trader/internal/indicators"
)

type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
)

var (
	// ErrModelLoad marks an unreadable, malformed or unknown artifact.
	ErrModelLoad = errors.New("model load failed")
	// ErrPrediction marks a predictor that could not score the series.
	ErrPrediction = errors.New("prediction failed")
	// ErrUnmappedSignal marks a raw prediction outside the 0/1 label
	// set. Unknown labels are never coerced to a signal.
	ErrUnmappedSignal = errors.New("unmapped model signal")
)

// Predictor scores a feature frame, one class label per row.
type Predictor interface {
	Predict(frame indicators.Frame) ([]float64, error)
}

// artifact is the serialized form of a trained model.
type artifact struct {
	Kind      string    `json:"kind"`
	Features  []string  `json:"features"`
	Weights   []float64 `json:"weights"`
	Bias      float64   `json:"bias"`
	Threshold float64   `json:"threshold"`
}

// Load reads a model artifact from path. The artifact's kind selects
// the predictor implementation.
func Load(path string) (Predictor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrModelLoad, "read %s: %v", path, err)
	}

	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, errors.Wrapf(ErrModelLoad, "decode %s: %v", path, err)
	}

	switch art.Kind {
	case "logistic":
		return newLogistic(art)
	default:
		return nil, errors.Wrapf(ErrModelLoad, "unknown model kind %q", art.Kind)
	}
}

// SignalFromPrediction maps a raw class label to a signal: 1 is BUY,
// 0 is SELL, anything else is an error.
func SignalFromPrediction(raw float64) (Signal, error) {
	switch raw {
	case 1:
		return SignalBuy, nil
	case 0:
		return SignalSell, nil
	default:
		return "", errors.Wrapf(ErrUnmappedSignal, "raw prediction %v", raw)
	}
}

// logistic is a binary classifier over named feature columns.
type logistic struct {
	features  []string
	weights   []float64
	bias      float64
	threshold float64
}

func newLogistic(art artifact) (*logistic, error) {
	if len(art.Features) == 0 {
		return nil, errors.Wrap(ErrModelLoad, "logistic model has no features")
	}
	if len(art.Weights) != len(art.Features) {
		return nil, errors.Wrapf(ErrModelLoad, "logistic model has %d weights for %d features", len(art.Weights), len(art.Features))
	}
	threshold := art.Threshold
	if threshold == 0 {
		threshold = 0.5
	}
	return &logistic{
		features:  art.Features,
		weights:   art.Weights,
		bias:      art.Bias,
		threshold: threshold,
	}, nil
}

func (m *logistic) Predict(frame indicators.Frame) ([]float64, error) {
	if frame.Len() == 0 {
		return nil, errors.Wrap(ErrPrediction, "empty feature frame")
	}

	cols := make([][]float64, len(m.features))
	for i, name := range m.features {
		col, ok := frame.Column(name)
		if !ok {
			return nil, errors.Wrapf(ErrPrediction, "missing feature column %q", name)
		}
		cols[i] = col
	}

	labels := make([]float64, frame.Len())
	for row := 0; row < frame.Len(); row++ {
		score := m.bias
		for i, col := range cols {
			score += m.weights[i] * col[row]
		}
		if sigmoid(score) >= m.threshold {
			labels[row] = 1
		}
	}
	return labels, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
