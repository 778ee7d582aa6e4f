package pitchset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddIdempotent(t *testing.T) {
	var a, b Set
	a.Add(5)
	a.Add(5)
	b.Add(5)
	require.Equal(t, b, a)
}

func TestDropCancelsAdd(t *testing.T) {
	var s Set
	s.Add(-10)
	s.Drop(-10)
	require.True(t, s.IsEmpty())

	var s2 Set
	s2.Drop(3)
	s2.Add(3)
	require.True(t, s2.Has(3))
}

func TestLeastMost(t *testing.T) {
	var s Set
	s.Add(5)
	s.Add(-20)
	s.Add(48)
	s.Add(-39)
	require.Equal(t, -39, s.Least())
	require.Equal(t, 48, s.Most())
}

func TestEachAscending(t *testing.T) {
	var s Set
	for _, p := range []int{7, -3, 0, -39, 48, -1} {
		s.Add(p)
	}
	var got []int
	s.Each(func(p int) { got = append(got, p) })
	require.Equal(t, []int{-39, -3, -1, 0, 7, 48}, got)
}

func TestTransposeRoundTrip(t *testing.T) {
	var s Set
	s.Add(0)
	s.Add(12)

	up, ok := s.Transpose(5)
	require.True(t, ok)
	down, ok := up.Transpose(-5)
	require.True(t, ok)
	require.Equal(t, s, down)
}

func TestTransposeOutOfRangeFailsWithoutMutation(t *testing.T) {
	var s Set
	s.Add(48)
	_, ok := s.Transpose(1)
	require.False(t, ok)
	require.True(t, s.Has(48))
}

func TestFullRangeBoundaryShift(t *testing.T) {
	require.Equal(t, MinPitch, fullRange.Least())
	require.Equal(t, MaxPitch, fullRange.Most())

	_, ok := fullRange.Transpose(1)
	require.False(t, ok)

	shifted, ok := fullRange.Transpose(0)
	require.True(t, ok)
	require.Equal(t, fullRange, shifted)
}

func TestTransposeEmptyIsNoop(t *testing.T) {
	out, ok := Empty.Transpose(10)
	require.True(t, ok)
	require.True(t, out.IsEmpty())
}
