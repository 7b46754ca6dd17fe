package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitState(t *testing.T) {
	var s FitState
	assert.False(t, s.IsFitted())

	s.MarkFitted(5, 2)
	assert.True(t, s.IsFitted())
	n, q := s.Shape()
	assert.Equal(t, 5, n)
	assert.Equal(t, 2, q)
}
