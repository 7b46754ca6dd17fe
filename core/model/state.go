// Package model holds the state bookkeeping and interfaces shared by the
// fitted objects in stablefit.
package model

// FitState records whether an object has been fitted and the training shape
// it was fitted on. Embed it by value.
type FitState struct {
	fitted    bool
	nSamples  int
	nFeatures int
}

// IsFitted reports whether MarkFitted has been called.
func (s *FitState) IsFitted() bool {
	return s.fitted
}

// MarkFitted records a completed fit on nSamples × nFeatures data.
func (s *FitState) MarkFitted(nSamples, nFeatures int) {
	s.fitted = true
	s.nSamples = nSamples
	s.nFeatures = nFeatures
}

// Shape returns the training shape recorded by MarkFitted.
func (s *FitState) Shape() (nSamples, nFeatures int) {
	return s.nSamples, s.nFeatures
}
