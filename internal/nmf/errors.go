package nmf

import "errors"

// Sentinel errors for the codec, a library layer distinct from the
// compiler's line-oriented compileerr.Error: an NMF file has no
// meaningful "source line" to attach a diagnostic to (spec §4.6,
// §6 "downstream consumers").
var (
	ErrSignature = errors.New("nmf: bad signature")
	ErrBasis     = errors.New("nmf: invalid basis")
	ErrRange     = errors.New("nmf: field out of range")
	ErrOrder     = errors.New("nmf: notes not in canonical order")
	ErrEmpty     = errors.New("nmf: no notes to serialize")
	ErrTruncated = errors.New("nmf: truncated input")
)
