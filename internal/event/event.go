// Package event holds the compiler's append-only note/section buffers
// and the canonical sort order used by both the writer and the codec's
// read-side order validator (spec §4.5, §9).
package event

import "sort"

// MaxNotes and MaxSections are the structural capacity limits from
// spec §3/§4.6.
const (
	MaxNotes    = 1 << 20 // 1,048,576
	MaxSections = 65535
)

// Note is one emitted note or cue (spec §3 "Note event").
type Note struct {
	T      int // quanta from start of composition
	Dur    int // >0 measured, <0 grace offset, 0 cue
	Pitch  int // semitone offset, 0 for cues
	Art    int // articulation, or cue high 16 bits
	Sect   int // section index
	LayerI int // (layer number - 1), or cue low 16 bits
}

// IsGrace reports whether n is a grace note.
func (n Note) IsGrace() bool { return n.Dur < 0 }

// IsCue reports whether n is a cue marker.
func (n Note) IsCue() bool { return n.Dur == 0 }

// Buffer is the ordered section table plus the ordered note list
// (spec §3 "Section table", §4.5). Section 0 at offset 0 is always
// present.
type Buffer struct {
	sections []int
	notes    []Note
}

// NewBuffer returns a Buffer with section 0 already present at offset 0.
func NewBuffer() *Buffer {
	return &Buffer{sections: []int{0}}
}

// AddSection appends a new section offset. It returns false without
// mutating the buffer if doing so would exceed MaxSections.
func (b *Buffer) AddSection(offset int) bool {
	if len(b.sections) >= MaxSections {
		return false
	}
	b.sections = append(b.sections, offset)
	return true
}

// SectionCount returns the number of sections recorded so far.
func (b *Buffer) SectionCount() int { return len(b.sections) }

// SectionOffset returns the offset of section i.
func (b *Buffer) SectionOffset(i int) int { return b.sections[i] }

// Sections returns the full section offset table.
func (b *Buffer) Sections() []int {
	out := make([]int, len(b.sections))
	copy(out, b.sections)
	return out
}

// AppendNote appends n to the buffer. It returns false without
// mutating the buffer if doing so would exceed MaxNotes.
func (b *Buffer) AppendNote(n Note) bool {
	if len(b.notes) >= MaxNotes {
		return false
	}
	b.notes = append(b.notes, n)
	return true
}

// NoteCount returns the number of notes recorded so far.
func (b *Buffer) NoteCount() int { return len(b.notes) }

// RewriteTrailingDur rewrites the Dur field of the last count events
// in the buffer using newDur, which receives the event's current Dur
// and returns its replacement. This is the grace-flush retrofit (spec
// §4.3 "Grace flush", §9: an append-only vector with index-based
// mutation in place).
func (b *Buffer) RewriteTrailingDur(count int, newDur func(old int) int) {
	if count <= 0 {
		return
	}
	start := len(b.notes) - count
	if start < 0 {
		start = 0
	}
	for i := start; i < len(b.notes); i++ {
		b.notes[i].Dur = newDur(b.notes[i].Dur)
	}
}

// GetNote returns the note at index i in emission order.
func (b *Buffer) GetNote(i int) Note { return b.notes[i] }

// SetNote overwrites the note at index i in emission order.
func (b *Buffer) SetNote(i int, n Note) { b.notes[i] = n }

// Notes returns the notes in emission order (unsorted).
func (b *Buffer) Notes() []Note {
	out := make([]Note, len(b.notes))
	copy(out, b.notes)
	return out
}

// Less is the canonical ordering from spec §4.5: (t ascending, dur
// ascending). Because grace notes carry a negative Dur, cues carry
// Dur == 0, and measured notes carry a positive Dur, a plain ascending
// sort on Dur already implements "grace precedes non-grace at the same
// t" and "more negative grace dur sorts first" — no separate
// grace/non-grace branch is needed. Both the writer's sort and the
// codec's read-side order validator must use exactly this comparator
// (spec §9).
func Less(a, b Note) bool {
	if a.T != b.T {
		return a.T < b.T
	}
	return a.Dur < b.Dur
}

// Sorted returns a copy of the notes in canonical order.
func (b *Buffer) Sorted() []Note {
	out := b.Notes()
	sortNotes(out)
	return out
}

// Sort reorders the buffer's notes in place into canonical order.
func (b *Buffer) Sort() {
	sortNotes(b.notes)
}

// InOrder reports whether the buffer's notes are already in canonical
// order, used by the codec's order-enforcing reader variant.
func (b *Buffer) InOrder() bool {
	for i := 1; i < len(b.notes); i++ {
		if Less(b.notes[i], b.notes[i-1]) {
			return false
		}
	}
	return true
}

func sortNotes(notes []Note) {
	sort.Slice(notes, func(i, j int) bool { return Less(notes[i], notes[j]) })
}
