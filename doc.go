// Package stablefit provides numerically stable linear regression and a
// fast randomized function approximator for Go, built for simulation
// pipelines that fit many small problems.
//
// # Features
//
//   - Nine interchangeable linear estimators: least squares by normal
//     equations, QR or SVD, ridge and truncated-SVD regularization, and
//     least absolute deviation solved as linear programs in primal or dual
//     form
//   - One dispatcher that standardizes the data, fits an intercept and
//     returns coefficients in the original units
//   - An algebraic network: a single-hidden-layer approximator fitted by
//     random projection and one linear solve, with optional gradient
//     refinement
//   - Typed errors with stack traces and structured logging
//
// # Quick Start
//
//	x := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
//	y := mat.NewVecDense(4, []float64{3, 5, 7, 9})
//
//	est, err := linear.NewRLSSVD(linear.WithKappa(1e6))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	beta, err := linear.Regress(est, x, y)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(beta.RawVector().Data) // [1 2]: intercept, slope
//
// Fitting a network that interpolates three samples:
//
//	net, err := network.Fit(x3, y3, network.WithSource(rand.NewPCG(1, 1)))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	yhat, err := net.PredictOne([]float64{0.5})
//
// # Packages
//
//   - linear: estimators and the Regress / RegressMulti dispatcher
//   - network: algebraic network trainer and activations
//   - preprocessing: column standardization and its inverse
//   - metrics: regression metrics (MSE, RMSE, MAE, R²)
//   - optimize/lp: linear programs with primal and dual solutions
//   - core/linalg: pseudo-inverse, numerical rank, least-squares solves
//   - core/model: fitted-state bookkeeping and shared interfaces
//   - core/parallel: fan-out for independent per-column work
//   - pkg/errors: error types, warnings and panic recovery
//   - pkg/log: structured logging over slog or zerolog
//
// # Error Handling
//
// Errors carry stack traces and can be inspected with errors.Is and
// errors.As from pkg/errors:
//
//	if _, err := linear.NewOLS(linear.WithEta(-2)); err != nil {
//	    var ve *errors.ValidationError
//	    if errors.As(err, &ve) {
//	        fmt.Println(ve.ParamName) // eta
//	    }
//	}
//
// Iterative procedures that stop without meeting their condition report a
// ConvergenceWarning through errors.Warn; route warnings elsewhere with
// errors.SetWarningHandler or log.InstallZerologWarnings.
package stablefit
