// Package nmf implements the binary score codec: fixed big-endian
// field layout, biased integer encoding, and the range/order checks a
// downstream reader must apply (spec §4.6, §6).
package nmf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/canidlogic/noirc/internal/compileerr"
	"github.com/canidlogic/noirc/internal/event"
	"github.com/canidlogic/noirc/internal/pitchset"
)

const (
	sigPrimary   uint32 = 1928196216
	sigSecondary uint32 = 1313818926
)

// Basis names the quantum scale recorded in an NMF file (spec §3).
type Basis uint16

const (
	BasisQ96     Basis = 0
	BasisR44100  Basis = 1
	BasisR48000  Basis = 2
	maxArt             = 61
)

func (b Basis) valid() bool { return b <= BasisR48000 }

// Data is the in-memory form of an NMF file: a basis tag plus the
// section/note buffer from package event. It implements the
// downstream-consumer interface from spec §6.
type Data struct {
	basis Basis
	buf   *event.Buffer
}

// Alloc returns an empty Data with section 0 at offset 0 and basis
// Q96, ready for a compiler to populate.
func Alloc() *Data {
	return &Data{basis: BasisQ96, buf: event.NewBuffer()}
}

// FromBuffer wraps an already-populated event buffer, as produced by
// the compiler's virtual machine, for serialization.
func FromBuffer(basis Basis, buf *event.Buffer) *Data {
	return &Data{basis: basis, buf: buf}
}

// Basis returns the file's quantum basis.
func (d *Data) Basis() Basis { return d.basis }

// SetBasis sets the quantum basis. An invalid value is a caller bug,
// not a data error, so it faults rather than returning an error.
func (d *Data) SetBasis(b Basis) {
	if !b.valid() {
		compileerr.Faultf("nmf: invalid basis %d", b)
	}
	d.basis = b
}

// SectionCount returns the number of recorded sections.
func (d *Data) SectionCount() int { return d.buf.SectionCount() }

// NoteCount returns the number of recorded notes.
func (d *Data) NoteCount() int { return d.buf.NoteCount() }

// Offset returns the starting offset of section i.
func (d *Data) Offset(i int) int { return d.buf.SectionOffset(i) }

// GetNote returns the note at index i.
func (d *Data) GetNote(i int) event.Note { return d.buf.GetNote(i) }

// SetNote overwrites the note at index i after range-checking it.
func (d *Data) SetNote(i int, n event.Note) {
	checkNote(n, d.buf.SectionCount())
	d.buf.SetNote(i, n)
}

// AppendNote appends n after range-checking it. It returns false only
// when the note-count capacity is exhausted (spec §6).
func (d *Data) AppendNote(n event.Note) bool {
	checkNote(n, d.buf.SectionCount())
	return d.buf.AppendNote(n)
}

// AddSection appends a new section offset. It returns false only when
// the section-count capacity is exhausted (spec §6).
func (d *Data) AddSection(offset int) bool {
	return d.buf.AddSection(offset)
}

// Sort reorders notes into canonical order (spec §4.5).
func (d *Data) Sort() { d.buf.Sort() }

func checkNote(n event.Note, sectionCount int) {
	if !pitchset.InRange(n.Pitch) {
		compileerr.Faultf("nmf: note pitch %d out of range", n.Pitch)
	}
	if n.Art < 0 || n.Art > 0xffff {
		compileerr.Faultf("nmf: note art %d out of range", n.Art)
	}
	if n.Sect < 0 || n.Sect >= sectionCount {
		compileerr.Faultf("nmf: note sect %d out of range", n.Sect)
	}
}

// Serialize writes data to w in the fixed NMF layout. It requires at
// least one note (spec §4.6 "Writer semantics").
func Serialize(data *Data, w io.Writer) error {
	if data.buf.NoteCount() == 0 {
		return ErrEmpty
	}

	bw := bufio.NewWriter(w)
	write := func(v any) error {
		return binary.Write(bw, binary.BigEndian, v)
	}

	if err := write(sigPrimary); err != nil {
		return fmt.Errorf("nmf: write signature: %w", err)
	}
	if err := write(sigSecondary); err != nil {
		return fmt.Errorf("nmf: write signature: %w", err)
	}
	if err := write(uint16(data.basis)); err != nil {
		return fmt.Errorf("nmf: write basis: %w", err)
	}

	sections := data.buf.Sections()
	if err := write(uint16(len(sections))); err != nil {
		return fmt.Errorf("nmf: write section count: %w", err)
	}

	notes := data.buf.Sorted()
	if err := write(uint32(len(notes))); err != nil {
		return fmt.Errorf("nmf: write note count: %w", err)
	}

	for _, offset := range sections {
		if err := write(uint32(offset)); err != nil {
			return fmt.Errorf("nmf: write section offset: %w", err)
		}
	}

	for _, n := range notes {
		if err := write(uint32(n.T)); err != nil {
			return fmt.Errorf("nmf: write note: %w", err)
		}
		if err := write(encodeBias32(n.Dur)); err != nil {
			return fmt.Errorf("nmf: write note: %w", err)
		}
		if err := write(encodeBias16(n.Pitch)); err != nil {
			return fmt.Errorf("nmf: write note: %w", err)
		}
		if err := write(uint16(n.Art)); err != nil {
			return fmt.Errorf("nmf: write note: %w", err)
		}
		if err := write(uint16(n.Sect)); err != nil {
			return fmt.Errorf("nmf: write note: %w", err)
		}
		if err := write(uint16(n.LayerI)); err != nil {
			return fmt.Errorf("nmf: write note: %w", err)
		}
	}

	return bw.Flush()
}

// Parse reads an NMF file from r, validating signatures and the
// per-field ranges from spec §4.6 ("Reader semantics"). It does not
// enforce sort order; use ParseOrdered for that.
func Parse(r io.Reader) (*Data, error) {
	return parse(r, false)
}

// ParseOrdered is the reader variant that additionally rejects
// out-of-order files (spec §4.6 "A reader variant enforces the sort
// order").
func ParseOrdered(r io.Reader) (*Data, error) {
	return parse(r, true)
}

func parse(r io.Reader, enforceOrder bool) (*Data, error) {
	br := bufio.NewReader(r)
	read := func(v any) error {
		err := binary.Read(br, binary.BigEndian, v)
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return ErrTruncated
		}
		return err
	}

	var primary, secondary uint32
	if err := read(&primary); err != nil {
		return nil, fmt.Errorf("nmf: read signature: %w", err)
	}
	if err := read(&secondary); err != nil {
		return nil, fmt.Errorf("nmf: read signature: %w", err)
	}
	if primary != sigPrimary || secondary != sigSecondary {
		return nil, ErrSignature
	}

	var basisRaw, sectionCount uint16
	if err := read(&basisRaw); err != nil {
		return nil, fmt.Errorf("nmf: read basis: %w", err)
	}
	basis := Basis(basisRaw)
	if !basis.valid() {
		return nil, ErrBasis
	}

	if err := read(&sectionCount); err != nil {
		return nil, fmt.Errorf("nmf: read section count: %w", err)
	}
	if sectionCount < 1 {
		return nil, ErrRange
	}

	var noteCount uint32
	if err := read(&noteCount); err != nil {
		return nil, fmt.Errorf("nmf: read note count: %w", err)
	}
	if noteCount < 1 || noteCount > event.MaxNotes {
		return nil, ErrRange
	}

	offsets := make([]uint32, sectionCount)
	for i := range offsets {
		if err := read(&offsets[i]); err != nil {
			return nil, fmt.Errorf("nmf: read section offset: %w", err)
		}
	}
	if offsets[0] != 0 {
		return nil, ErrRange
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return nil, ErrRange
		}
	}

	buf := event.NewBuffer()
	// NewBuffer already seeds section 0 at offset 0, which matches the
	// file's first offset (checked above); append the remaining ones.
	for i, off := range offsets {
		if i == 0 {
			continue
		}
		if !buf.AddSection(int(off)) {
			return nil, ErrRange
		}
	}

	for i := uint32(0); i < noteCount; i++ {
		var t uint32
		var rawDur uint32
		var rawPitch uint16
		var art, sect, layerI uint16

		if err := read(&t); err != nil {
			return nil, fmt.Errorf("nmf: read note: %w", err)
		}
		if err := read(&rawDur); err != nil {
			return nil, fmt.Errorf("nmf: read note: %w", err)
		}
		if err := read(&rawPitch); err != nil {
			return nil, fmt.Errorf("nmf: read note: %w", err)
		}
		if err := read(&art); err != nil {
			return nil, fmt.Errorf("nmf: read note: %w", err)
		}
		if err := read(&sect); err != nil {
			return nil, fmt.Errorf("nmf: read note: %w", err)
		}
		if err := read(&layerI); err != nil {
			return nil, fmt.Errorf("nmf: read note: %w", err)
		}

		dur, ok := decodeBias32(rawDur)
		if !ok {
			return nil, ErrRange
		}
		pitch, ok := decodeBias16(rawPitch)
		if !ok {
			return nil, ErrRange
		}

		n := event.Note{
			T: int(t), Dur: dur, Pitch: pitch,
			Art: int(art), Sect: int(sect), LayerI: int(layerI),
		}
		if !pitchset.InRange(n.Pitch) {
			return nil, ErrRange
		}
		if n.Art > maxArt {
			return nil, ErrRange
		}
		if n.Sect >= len(offsets) {
			return nil, ErrRange
		}
		if n.T < int(offsets[n.Sect]) {
			return nil, ErrRange
		}

		if !buf.AppendNote(n) {
			return nil, ErrRange
		}
	}

	if enforceOrder && !buf.InOrder() {
		return nil, ErrOrder
	}

	return &Data{basis: basis, buf: buf}, nil
}
