package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBufferStartsWithSectionZero(t *testing.T) {
	b := NewBuffer()
	require.Equal(t, []int{0}, b.Sections())
}

func TestSortOrdersGraceBeforeMeasured(t *testing.T) {
	b := NewBuffer()
	require.True(t, b.AppendNote(Note{T: 0, Dur: 96, Pitch: 5}))
	require.True(t, b.AppendNote(Note{T: 0, Dur: -1, Pitch: 4}))
	require.True(t, b.AppendNote(Note{T: 0, Dur: -3, Pitch: 0}))
	require.True(t, b.AppendNote(Note{T: 0, Dur: -2, Pitch: 2}))

	sorted := b.Sorted()
	var durs []int
	for _, n := range sorted {
		durs = append(durs, n.Dur)
	}
	require.Equal(t, []int{-3, -2, -1, 96}, durs)
}

func TestSortOrdersByTFirst(t *testing.T) {
	b := NewBuffer()
	require.True(t, b.AppendNote(Note{T: 96, Dur: 1}))
	require.True(t, b.AppendNote(Note{T: 0, Dur: 2}))

	sorted := b.Sorted()
	require.Equal(t, 0, sorted[0].T)
	require.Equal(t, 96, sorted[1].T)
}

func TestRewriteTrailingDur(t *testing.T) {
	b := NewBuffer()
	require.True(t, b.AppendNote(Note{Dur: -1}))
	require.True(t, b.AppendNote(Note{Dur: -2}))
	require.True(t, b.AppendNote(Note{Dur: -3}))

	b.RewriteTrailingDur(3, func(old int) int { return -((3 + 1) - (-old)) })

	notes := b.Notes()
	require.Equal(t, -3, notes[0].Dur)
	require.Equal(t, -2, notes[1].Dur)
	require.Equal(t, -1, notes[2].Dur)
}

func TestAppendNoteCapacity(t *testing.T) {
	b := &Buffer{}
	for i := 0; i < MaxNotes; i++ {
		require.True(t, b.AppendNote(Note{T: i}))
	}
	require.False(t, b.AppendNote(Note{T: MaxNotes}))
}

func TestAddSectionCapacity(t *testing.T) {
	b := &Buffer{}
	for i := 0; i < MaxSections; i++ {
		require.True(t, b.AddSection(i))
	}
	require.False(t, b.AddSection(MaxSections))
}

func TestInOrder(t *testing.T) {
	b := NewBuffer()
	require.True(t, b.AppendNote(Note{T: 0, Dur: 1}))
	require.True(t, b.AppendNote(Note{T: 0, Dur: 2}))
	require.True(t, b.InOrder())

	require.True(t, b.AppendNote(Note{T: 0, Dur: -1}))
	require.False(t, b.InOrder())
}
