package model

import "gonum.org/v1/gonum/mat"

// Predictor evaluates a fitted single-output model on the rows of X.
type Predictor interface {
	Predict(X mat.Matrix) (*mat.VecDense, error)
}

// Scorer computes the coefficient of determination R² on (X, y).
type Scorer interface {
	Score(X mat.Matrix, y mat.Vector) (float64, error)
}

// Regressor is a fitted model that can both predict and score.
type Regressor interface {
	Predictor
	Scorer
}
