package entity

import "github.com/canidlogic/noirc/internal/compileerr"

// rhythmBase maps a rhythm-start digit to its base quanta count; the
// second return value reports whether the digit is the grace marker
// (spec §4.2 "Rhythm decode").
func rhythmBase(digit byte) (int, bool) {
	switch digit {
	case '0':
		return 0, true
	case '1':
		return 6, false
	case '2':
		return 12, false
	case '3':
		return 24, false
	case '4':
		return 48, false
	case '5':
		return 96, false
	case '6':
		return 192, false
	case '7':
		return 384, false
	case '8':
		return 32, false
	case '9':
		return 64, false
	}
	return 0, false
}

// decodeRhythmComponent turns a single rhythm-start token (digit plus
// optional suffix) into a quanta count. isGrace reports whether the
// component is a grace marker; q is meaningless when isGrace is true.
func decodeRhythmComponent(digit byte, suffix string, line int) (q int, isGrace bool, err *compileerr.Error) {
	base, grace := rhythmBase(digit)
	if grace {
		if len(suffix) != 0 {
			return 0, true, compileerr.New(compileerr.BadDur, line)
		}
		return 0, true, nil
	}
	if len(suffix) == 0 {
		return base, false, nil
	}
	switch suffix[0] {
	case '\'':
		return base * 2, false, nil
	case '.':
		return base * 3 / 2, false, nil
	case ',':
		return base / 2, false, nil
	}
	return 0, false, compileerr.New(compileerr.BadDur, line)
}

const maxDur = 1<<31 - 1

// addDur sums an accumulated rhythm-group duration with a new
// component, checking for overflow (spec §4.2 "Overflow -> LongDur").
func addDur(sum, q, line int) (int, *compileerr.Error) {
	total := int64(sum) + int64(q)
	if total > maxDur {
		return 0, compileerr.New(compileerr.LongDur, line)
	}
	return int(total), nil
}
