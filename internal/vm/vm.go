// Package vm implements the stateful virtual machine that turns pitch
// sets and durations into note events: cursor, registers, four bounded
// stacks, repeat semantics, and the grace-note flush (spec §4.3).
//
// The VM is an explicit value constructed once per compile and
// threaded through the entity parser, not module-global state (spec
// §9, "module-global VM state -> explicit context").
package vm

import (
	"math"

	"github.com/canidlogic/noirc/internal/compileerr"
	"github.com/canidlogic/noirc/internal/event"
	"github.com/canidlogic/noirc/internal/pitchset"
)

// maxStackDepth bounds each of the four stacks (spec §3).
const maxStackDepth = 1024

// maxGrace bounds grace_offset / grace_count against bias32's range,
// since a flushed grace dur is written through that field.
const maxGrace = math.MaxInt32

// maxSectIndex is the highest legal section index (spec §4.3 "$").
const maxSectIndex = 65534

// maxLayerNumber is the highest legal external layer number (n in
// "&<n>"/"+<n>"); layer_i is a uint16 in the wire format.
const maxLayerNumber = 65536

// maxCursor bounds t (spec §3: t in [0, 2^31-1]).
const maxCursor = math.MaxInt32

type layerRef struct {
	sect   int
	layerI int
}

// VM holds all state from spec §3's "VM state" table plus the event
// buffer it appends to.
type VM struct {
	events *event.Buffer

	cursor int

	pitchReg      pitchset.Set
	pitchRegValid bool

	durReg      int
	durRegValid bool

	sect        int
	baset       int
	baseLayerI  int
	immArt      int
	immArtValid bool

	graceCount  int
	graceOffset int

	locationStack []int
	transStack    []int
	layerStack    []layerRef
	artStack      []int
}

// New constructs a VM bound to buf, with section 0 already open.
func New(buf *event.Buffer) *VM {
	return &VM{events: buf}
}

// Events returns the VM's event buffer.
func (m *VM) Events() *event.Buffer { return m.events }

// Cursor reports the current time offset, mostly useful for tests.
func (m *VM) Cursor() int { return m.cursor }

func stacksEmpty(m *VM) bool {
	return len(m.locationStack) == 0 && len(m.transStack) == 0 &&
		len(m.layerStack) == 0 && len(m.artStack) == 0
}

// PitchSet implements the "pitch_set(ps)" operator.
func (m *VM) PitchSet(ps pitchset.Set, line int) *compileerr.Error {
	delta := 0
	if n := len(m.transStack); n > 0 {
		delta = m.transStack[n-1]
	}
	transposed, ok := ps.Transpose(delta)
	if !ok {
		return compileerr.New(compileerr.TransRng, line)
	}
	m.pitchReg = transposed
	m.pitchRegValid = true
	return m.repeat(line)
}

// Duration implements the "duration(q)" operator.
func (m *VM) Duration(q int, line int) *compileerr.Error {
	if m.durRegValid && m.durReg == 0 && q != 0 {
		m.flushGrace()
	}
	m.durReg = q
	m.durRegValid = true
	return nil
}

// Repeat implements the bare "/" operator.
func (m *VM) Repeat(line int) *compileerr.Error {
	return m.repeat(line)
}

// RepeatN implements "\<n>": n >= 1 repeats of the current registers.
func (m *VM) RepeatN(n int, line int) *compileerr.Error {
	if n < 1 {
		return compileerr.New(compileerr.MultCount, line)
	}
	for i := 0; i < n; i++ {
		if err := m.repeat(line); err != nil {
			return err
		}
	}
	return nil
}

// repeat is the shared "repeat semantics" subroutine (spec §4.3).
func (m *VM) repeat(line int) *compileerr.Error {
	if !m.pitchRegValid {
		return compileerr.New(compileerr.NoPitch, line)
	}
	if !m.durRegValid {
		return compileerr.New(compileerr.NoDur, line)
	}

	if m.durReg == 0 {
		if m.graceOffset >= maxGrace {
			return compileerr.New(compileerr.HugeGrace, line)
		}
		m.graceOffset++
	}

	d := m.durReg
	if m.graceOffset > 0 {
		d = -m.graceOffset
	}

	art := 0
	if m.immArtValid {
		art = m.immArt
		m.immArtValid = false
	} else if n := len(m.artStack); n > 0 {
		art = m.artStack[n-1]
	}

	layerI := m.baseLayerI
	if n := len(m.layerStack); n > 0 {
		layerI = m.layerStack[n-1].layerI
	}

	var emitErr *compileerr.Error
	m.pitchReg.Each(func(p int) {
		if emitErr != nil {
			return
		}
		ok := m.events.AppendNote(event.Note{
			T: m.cursor, Dur: d, Pitch: p, Art: art, Sect: m.sect, LayerI: layerI,
		})
		if !ok {
			emitErr = compileerr.New(compileerr.ManyNotes, line)
			return
		}
		if d < 0 {
			if m.graceCount >= maxGrace {
				emitErr = compileerr.New(compileerr.HugeGrace, line)
				return
			}
			m.graceCount++
		}
	})
	if emitErr != nil {
		return emitErr
	}

	if d > 0 {
		if m.cursor > maxCursor-d {
			return compileerr.New(compileerr.LongPiece, line)
		}
		m.cursor += d
	}
	return nil
}

// flushGrace rewrites the last grace_count events' dur fields (spec
// §4.3 "Grace flush").
func (m *VM) flushGrace() {
	if m.graceCount > 0 {
		k := m.graceOffset
		m.events.RewriteTrailingDur(m.graceCount, func(old int) int {
			return -((k + 1) - (-old))
		})
	}
	m.graceCount = 0
	m.graceOffset = 0
}

// resetRegisters flushes grace and invalidates pitch_reg/dur_reg, used
// by "$", "@", and ":" (spec §4.3).
func (m *VM) resetRegisters() {
	m.flushGrace()
	m.pitchRegValid = false
	m.durRegValid = false
}

// NewSection implements "$".
func (m *VM) NewSection(line int) *compileerr.Error {
	if !stacksEmpty(m) {
		return compileerr.New(compileerr.Linger, line)
	}
	if m.immArtValid {
		return compileerr.New(compileerr.DangleArt, line)
	}
	m.resetRegisters()

	if m.sect+1 > maxSectIndex {
		return compileerr.New(compileerr.ManySect, line)
	}
	if !m.events.AddSection(m.cursor) {
		return compileerr.New(compileerr.ManySect, line)
	}
	m.sect++
	m.baset = m.cursor
	m.baseLayerI = 0
	return nil
}

// RewindSection implements "@".
func (m *VM) RewindSection(line int) *compileerr.Error {
	if !stacksEmpty(m) {
		return compileerr.New(compileerr.Linger, line)
	}
	if m.immArtValid {
		return compileerr.New(compileerr.DangleArt, line)
	}
	m.resetRegisters()

	m.cursor = m.baset
	m.baseLayerI = 0
	return nil
}

// PushLoc implements "{".
func (m *VM) PushLoc(line int) *compileerr.Error {
	if len(m.locationStack) >= maxStackDepth {
		return compileerr.New(compileerr.StackFull, line)
	}
	m.locationStack = append(m.locationStack, m.cursor)
	return nil
}

// ReturnLoc implements ":".
func (m *VM) ReturnLoc(line int) *compileerr.Error {
	if m.immArtValid {
		return compileerr.New(compileerr.DangleArt, line)
	}
	if len(m.locationStack) == 0 {
		return compileerr.New(compileerr.NoLoc, line)
	}
	m.resetRegisters()
	m.cursor = m.locationStack[len(m.locationStack)-1]
	return nil
}

// PopLoc implements "}".
func (m *VM) PopLoc(line int) *compileerr.Error {
	if len(m.locationStack) == 0 {
		return compileerr.New(compileerr.Underflow, line)
	}
	m.locationStack = m.locationStack[:len(m.locationStack)-1]
	return nil
}

// PushTrans implements "^<n>".
func (m *VM) PushTrans(n int, line int) *compileerr.Error {
	base := 0
	if k := len(m.transStack); k > 0 {
		base = m.transStack[k-1]
	}
	sum := int64(base) + int64(n)
	if sum < math.MinInt32 || sum > math.MaxInt32 {
		return compileerr.New(compileerr.HugeTrans, line)
	}
	if len(m.transStack) >= maxStackDepth {
		return compileerr.New(compileerr.StackFull, line)
	}
	m.transStack = append(m.transStack, int(sum))
	return nil
}

// PopTrans implements "=".
func (m *VM) PopTrans(line int) *compileerr.Error {
	if len(m.transStack) == 0 {
		return compileerr.New(compileerr.Underflow, line)
	}
	m.transStack = m.transStack[:len(m.transStack)-1]
	return nil
}

// ImmArt implements "*<k>".
func (m *VM) ImmArt(k int, line int) *compileerr.Error {
	m.immArt = k
	m.immArtValid = true
	return nil
}

// PushArt implements "!<k>".
func (m *VM) PushArt(k int, line int) *compileerr.Error {
	if len(m.artStack) >= maxStackDepth {
		return compileerr.New(compileerr.StackFull, line)
	}
	m.artStack = append(m.artStack, k)
	return nil
}

// PopArt implements "~".
func (m *VM) PopArt(line int) *compileerr.Error {
	if len(m.artStack) == 0 {
		return compileerr.New(compileerr.Underflow, line)
	}
	m.artStack = m.artStack[:len(m.artStack)-1]
	return nil
}

// SetBaseLayer implements "&<n>".
func (m *VM) SetBaseLayer(n int, line int) *compileerr.Error {
	if n < 1 || n > maxLayerNumber {
		return compileerr.New(compileerr.BadLayer, line)
	}
	m.baseLayerI = n - 1
	return nil
}

// PushLayer implements "+<n>".
func (m *VM) PushLayer(n int, line int) *compileerr.Error {
	if n < 1 || n > maxLayerNumber {
		return compileerr.New(compileerr.BadLayer, line)
	}
	if len(m.layerStack) >= maxStackDepth {
		return compileerr.New(compileerr.StackFull, line)
	}
	m.layerStack = append(m.layerStack, layerRef{sect: m.sect, layerI: n - 1})
	return nil
}

// PopLayer implements "-".
func (m *VM) PopLayer(line int) *compileerr.Error {
	if len(m.layerStack) == 0 {
		return compileerr.New(compileerr.Underflow, line)
	}
	m.layerStack = m.layerStack[:len(m.layerStack)-1]
	return nil
}

// Cue implements "`<c>".
func (m *VM) Cue(c int, line int) *compileerr.Error {
	m.flushGrace()
	ok := m.events.AppendNote(event.Note{
		T:      m.cursor,
		Dur:    0,
		Pitch:  0,
		Art:    (c >> 16) & 0xffff,
		Sect:   m.sect,
		LayerI: c & 0xffff,
	})
	if !ok {
		return compileerr.New(compileerr.ManyNotes, line)
	}
	return nil
}

// EOF implements the end-of-input operator.
func (m *VM) EOF(line int) *compileerr.Error {
	if !stacksEmpty(m) {
		return compileerr.New(compileerr.Linger, line)
	}
	if m.immArtValid {
		return compileerr.New(compileerr.DangleArt, line)
	}
	m.flushGrace()
	return nil
}
