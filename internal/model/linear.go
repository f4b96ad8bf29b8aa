package model

import "math"

// Plain batch gradient descent over standardized inputs. Weights start at
// zero and the row order is fixed, so refitting identical data reproduces
// identical parameters.

// scaler standardizes columns to zero mean and unit variance.
type scaler struct {
	Mean []float64
	Std  []float64
}

// fitScaler computes per-column mean and standard deviation.
func fitScaler(rows [][]float64) *scaler {
	if len(rows) == 0 {
		return &scaler{}
	}

	cols := len(rows[0])
	s := &scaler{
		Mean: make([]float64, cols),
		Std:  make([]float64, cols),
	}

	for _, row := range rows {
		for j, v := range row {
			s.Mean[j] += v
		}
	}
	for j := range s.Mean {
		s.Mean[j] /= float64(len(rows))
	}

	for _, row := range rows {
		for j, v := range row {
			diff := v - s.Mean[j]
			s.Std[j] += diff * diff
		}
	}
	for j := range s.Std {
		s.Std[j] = math.Sqrt(s.Std[j] / float64(len(rows)))
		if s.Std[j] == 0 {
			// Constant column: leave it centered, not exploded
			s.Std[j] = 1
		}
	}

	return s
}

// transform standardizes a single row.
func (s *scaler) transform(row []float64) []float64 {
	if len(s.Mean) == 0 {
		return row
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out
}

// transformAll standardizes a matrix.
func (s *scaler) transformAll(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = s.transform(row)
	}
	return out
}

// linearCoef holds a fitted linear predictor.
type linearCoef struct {
	Weights []float64
	Bias    float64
}

// fitLinear fits least squares by batch gradient descent with L2 decay.
func fitLinear(x [][]float64, y []float64, learningRate float64, epochs int, l2 float64) linearCoef {
	coef := linearCoef{Weights: make([]float64, len(x[0]))}
	n := float64(len(x))

	for epoch := 0; epoch < epochs; epoch++ {
		gradW := make([]float64, len(coef.Weights))
		gradB := 0.0

		for i, row := range x {
			pred := coef.Bias
			for j, v := range row {
				pred += coef.Weights[j] * v
			}
			residual := pred - y[i]
			for j, v := range row {
				gradW[j] += residual * v
			}
			gradB += residual
		}

		for j := range coef.Weights {
			coef.Weights[j] -= learningRate * (gradW[j]/n + l2*coef.Weights[j])
		}
		coef.Bias -= learningRate * gradB / n
	}

	return coef
}

// predictLinear evaluates a fitted linear predictor on one row.
func predictLinear(coef linearCoef, row []float64) float64 {
	pred := coef.Bias
	for j, v := range row {
		pred += coef.Weights[j] * v
	}
	return pred
}

// fitLogistic fits a binary classifier by batch gradient descent on the
// log-loss with L2 decay. Labels are 0 or 1.
func fitLogistic(x [][]float64, y []float64, learningRate float64, epochs int, l2 float64) linearCoef {
	coef := linearCoef{Weights: make([]float64, len(x[0]))}
	n := float64(len(x))

	for epoch := 0; epoch < epochs; epoch++ {
		gradW := make([]float64, len(coef.Weights))
		gradB := 0.0

		for i, row := range x {
			z := coef.Bias
			for j, v := range row {
				z += coef.Weights[j] * v
			}
			residual := sigmoid(z) - y[i]
			for j, v := range row {
				gradW[j] += residual * v
			}
			gradB += residual
		}

		for j := range coef.Weights {
			coef.Weights[j] -= learningRate * (gradW[j]/n + l2*coef.Weights[j])
		}
		coef.Bias -= learningRate * gradB / n
	}

	return coef
}

// predictLogistic evaluates a fitted classifier, returning a probability.
func predictLogistic(coef linearCoef, row []float64) float64 {
	return sigmoid(predictLinear(coef, row))
}

func sigmoid(z float64) float64 {
	// Clamp to keep exp finite
	if z > 30 {
		return 1
	}
	if z < -30 {
		return 0
	}
	return 1 / (1 + math.Exp(-z))
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
