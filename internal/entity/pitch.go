package entity

import (
	"github.com/canidlogic/noirc/internal/compileerr"
	"github.com/canidlogic/noirc/internal/pitchset"
)

var pitchBase = map[byte]int{
	'C': -12, 'c': 0,
	'D': -10, 'd': 2,
	'E': -8, 'e': 4,
	'F': -7, 'f': 5,
	'G': -5, 'g': 7,
	'A': -3, 'a': 9,
	'B': -1, 'b': 11,
}

// decodePitch turns a pitch-start token's leading letter plus its
// accidental/register payload into a semitone offset (spec §4.2
// "Single-pitch decode").
func decodePitch(lead byte, payload string, line int) (int, *compileerr.Error) {
	p, ok := pitchBase[lead]
	if !ok {
		return 0, compileerr.New(compileerr.BadPitch, line)
	}
	for i := 0; i < len(payload); i++ {
		switch payload[i] {
		case 'x', 'X':
			p += 2
		case 's', 'S':
			p += 1
		case 'n', 'N':
			p += 0
		case 'h', 'H':
			p -= 1
		case 't', 'T':
			p -= 2
		case '\'':
			p += 12
		case ',':
			p -= 12
		default:
			return 0, compileerr.New(compileerr.BadPitch, line)
		}
	}
	if !pitchset.InRange(p) {
		return 0, compileerr.New(compileerr.PitchR, line)
	}
	return p, nil
}
