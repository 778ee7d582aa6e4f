package vm

import (
	"testing"

	"github.com/canidlogic/noirc/internal/compileerr"
	"github.com/canidlogic/noirc/internal/event"
	"github.com/canidlogic/noirc/internal/pitchset"
	"github.com/stretchr/testify/require"
)

func newMachine() (*VM, *event.Buffer) {
	buf := event.NewBuffer()
	return New(buf), buf
}

func single(p int) pitchset.Set {
	var s pitchset.Set
	s.Add(p)
	return s
}

func TestSingleNote(t *testing.T) {
	m, buf := newMachine()
	require.Nil(t, m.Duration(96, 1))
	require.Nil(t, m.PitchSet(single(0), 1))
	require.Nil(t, m.EOF(1))

	notes := buf.Notes()
	require.Equal(t, []event.Note{{T: 0, Dur: 96, Pitch: 0, Art: 0, Sect: 0, LayerI: 0}}, notes)
	require.Equal(t, 96, m.Cursor())
}

func TestChord(t *testing.T) {
	m, buf := newMachine()
	var chord pitchset.Set
	chord.Add(0)
	chord.Add(4)
	chord.Add(7)

	require.Nil(t, m.Duration(96, 1))
	require.Nil(t, m.PitchSet(chord, 1))
	require.Nil(t, m.EOF(1))

	notes := buf.Notes()
	require.Len(t, notes, 3)
	require.Equal(t, 0, notes[0].Pitch)
	require.Equal(t, 4, notes[1].Pitch)
	require.Equal(t, 7, notes[2].Pitch)
	for _, n := range notes {
		require.Equal(t, 0, n.T)
		require.Equal(t, 96, n.Dur)
	}
}

func TestGraceRunThenBeat(t *testing.T) {
	m, buf := newMachine()
	require.Nil(t, m.Duration(0, 1))
	require.Nil(t, m.PitchSet(single(0), 1))
	require.Nil(t, m.PitchSet(single(2), 1))
	require.Nil(t, m.PitchSet(single(4), 1))
	require.Nil(t, m.Duration(96, 1))
	require.Nil(t, m.PitchSet(single(5), 1))
	require.Nil(t, m.EOF(1))

	notes := buf.Notes()
	require.Equal(t, []event.Note{
		{T: 0, Dur: -3, Pitch: 0, Art: 0, Sect: 0, LayerI: 0},
		{T: 0, Dur: -2, Pitch: 2, Art: 0, Sect: 0, LayerI: 0},
		{T: 0, Dur: -1, Pitch: 4, Art: 0, Sect: 0, LayerI: 0},
		{T: 0, Dur: 96, Pitch: 5, Art: 0, Sect: 0, LayerI: 0},
	}, notes)
}

func TestSectionChange(t *testing.T) {
	m, buf := newMachine()
	require.Nil(t, m.Duration(96, 1))
	require.Nil(t, m.PitchSet(single(0), 1))
	require.Nil(t, m.NewSection(1))
	require.Nil(t, m.Duration(96, 1))
	require.Nil(t, m.PitchSet(single(2), 1))
	require.Nil(t, m.EOF(1))

	require.Equal(t, []int{0, 96}, buf.Sections())
	notes := buf.Notes()
	require.Equal(t, []event.Note{
		{T: 0, Dur: 96, Pitch: 0, Art: 0, Sect: 0, LayerI: 0},
		{T: 96, Dur: 96, Pitch: 2, Art: 0, Sect: 1, LayerI: 0},
	}, notes)
}

func TestTransposition(t *testing.T) {
	m, buf := newMachine()
	require.Nil(t, m.PushTrans(2, 1))
	require.Nil(t, m.Duration(96, 1))
	require.Nil(t, m.PitchSet(single(0), 1))
	require.Nil(t, m.PopTrans(1))
	require.Nil(t, m.EOF(1))

	notes := buf.Notes()
	require.Equal(t, []event.Note{{T: 0, Dur: 96, Pitch: 2, Art: 0, Sect: 0, LayerI: 0}}, notes)
}

func TestCue(t *testing.T) {
	m, buf := newMachine()
	require.Nil(t, m.Duration(96, 1))
	require.Nil(t, m.PitchSet(single(0), 1))
	require.Nil(t, m.Cue(0, 1))
	require.Nil(t, m.EOF(1))

	notes := buf.Notes()
	require.Len(t, notes, 2)
	require.Equal(t, m.Cursor(), notes[1].T)
	require.Equal(t, 0, notes[1].Dur)
	require.Equal(t, 0, notes[1].Art)
	require.Equal(t, 0, notes[1].LayerI)
}

func TestNoPitchBeforeRepeat(t *testing.T) {
	m, _ := newMachine()
	require.Nil(t, m.Duration(96, 1))
	err := m.Repeat(1)
	require.NotNil(t, err)
	require.Equal(t, compileerr.NoPitch, err.Kind)
}

func TestNoDurBeforeRepeat(t *testing.T) {
	m, _ := newMachine()
	// PitchSet runs repeat semantics itself, so it already reports NoDur.
	perr := m.PitchSet(single(0), 1)
	require.NotNil(t, perr)
	require.Equal(t, compileerr.NoDur, perr.Kind)
	err := m.Repeat(1)
	require.NotNil(t, err)
	require.Equal(t, compileerr.NoDur, err.Kind)
}

func TestStackUnderflow(t *testing.T) {
	m, _ := newMachine()
	err := m.PopTrans(1)
	require.NotNil(t, err)
	require.Equal(t, compileerr.Underflow, err.Kind)
}

func TestNewSectionRequiresEmptyStacks(t *testing.T) {
	m, _ := newMachine()
	require.Nil(t, m.PushLoc(1))
	err := m.NewSection(1)
	require.NotNil(t, err)
	require.Equal(t, compileerr.Linger, err.Kind)
}

func TestBaseLayerRange(t *testing.T) {
	m, _ := newMachine()
	err := m.SetBaseLayer(0, 1)
	require.NotNil(t, err)
	require.Equal(t, compileerr.BadLayer, err.Kind)

	err = m.SetBaseLayer(65537, 1)
	require.NotNil(t, err)
	require.Equal(t, compileerr.BadLayer, err.Kind)

	require.Nil(t, m.SetBaseLayer(1, 1))
}

func TestReturnLocPeeksNotPops(t *testing.T) {
	m, _ := newMachine()
	require.Nil(t, m.Duration(96, 1))
	require.Nil(t, m.PitchSet(single(0), 1))
	require.Nil(t, m.PushLoc(1))
	require.Nil(t, m.ReturnLoc(1))
	require.Equal(t, 96, m.Cursor())
	require.Nil(t, m.PopLoc(1))
	err := m.PopLoc(1)
	require.NotNil(t, err)
	require.Equal(t, compileerr.Underflow, err.Kind)
}
