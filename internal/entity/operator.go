package entity

import "github.com/canidlogic/noirc/internal/compileerr"

// maxCueNumber is the largest cue number the grave operator accepts.
// Its high 16 bits (0x3d == 61) equal the largest articulation index,
// so a cue's Art field stays in [0, 61].
const maxCueNumber = 0x3dffff

// parseSignedInt parses a parameter operator's payload as a signed
// 32-bit integer (spec §4.2 "Parameter-operator payload"). An empty or
// non-numeric payload, or one outside int32 range, is BadOp.
func parseSignedInt(payload string, line int) (int, *compileerr.Error) {
	if len(payload) == 0 {
		return 0, compileerr.New(compileerr.BadOp, line)
	}

	neg := false
	i := 0
	switch payload[0] {
	case '+':
		i = 1
	case '-':
		neg = true
		i = 1
	}
	if i >= len(payload) {
		return 0, compileerr.New(compileerr.BadOp, line)
	}

	var mag int64
	for ; i < len(payload); i++ {
		c := payload[i]
		if c < '0' || c > '9' {
			return 0, compileerr.New(compileerr.BadOp, line)
		}
		mag = mag*10 + int64(c-'0')
		if mag > 1<<32 {
			return 0, compileerr.New(compileerr.BadOp, line)
		}
	}

	v := mag
	if neg {
		v = -v
	}
	if v < -(1<<31) || v > 1<<31-1 {
		return 0, compileerr.New(compileerr.BadOp, line)
	}
	return int(v), nil
}

// parseCueNumber parses the grave operator's payload: the same signed
// integer syntax, but the value must be non-negative and bounded by
// maxCueNumber (spec §4.2, §9).
func parseCueNumber(payload string, line int) (int, *compileerr.Error) {
	v, err := parseSignedInt(payload, line)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > maxCueNumber {
		return 0, compileerr.New(compileerr.CueNum, line)
	}
	return v, nil
}

// decodeKey turns a key operator's single-character payload into an
// articulation index in [0,61] (spec §4.2 "Key-operator payload").
func decodeKey(payload string, line int) (int, *compileerr.Error) {
	if len(payload) != 1 {
		return 0, compileerr.New(compileerr.BadOp, line)
	}
	c := payload[0]
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), nil
	case c >= 'A' && c <= 'Z':
		return 10 + int(c-'A'), nil
	case c >= 'a' && c <= 'z':
		return 36 + int(c-'a'), nil
	}
	return 0, compileerr.New(compileerr.BadOp, line)
}
