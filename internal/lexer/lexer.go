// Package lexer tokenises the Noir surface syntax: a byte stream is
// filtered (BOM/NUL/line-ending/comment handling) and split into
// tokens with no delimiters between them (spec §4.1).
package lexer

import "github.com/canidlogic/noirc/internal/compileerr"

// maxTokenLen is the bound on total characters in one token (leading
// byte plus payload), matching spec §4.1's "31 characters plus
// terminator".
const maxTokenLen = 31

// Lexer reads tokens one at a time from an in-memory byte slice. The
// compiler never streams (spec §5), so the whole source is held at
// once; the lexer itself still processes it byte-by-byte with a
// one-byte pushback, exactly as spec §4.1 describes.
type Lexer struct {
	data []byte
	pos  int
	line int

	hasPushback bool
	pushback    byte
}

// New constructs a Lexer over src, consuming a leading UTF-8 BOM if
// present and validating it if the first byte looks like one.
func New(src []byte) (*Lexer, *compileerr.Error) {
	pos := 0
	if len(src) > 0 && src[0] == 0xEF {
		if len(src) < 3 || src[1] != 0xBB || src[2] != 0xBF {
			return nil, compileerr.New(compileerr.BadChar, 0)
		}
		pos = 3
	}
	return &Lexer{data: src, pos: pos, line: 1}, nil
}

// rawByte returns the next byte after line-ending normalization (CR,
// LF, CRLF, and LFCR all collapse to a single reported LF) and NUL
// rejection. ok is false at end of input.
func (l *Lexer) rawByte() (b byte, ok bool, err *compileerr.Error) {
	if l.pos >= len(l.data) {
		return 0, false, nil
	}
	b = l.data[l.pos]
	l.pos++

	if b == 0x00 {
		return 0, false, compileerr.New(compileerr.NulChar, l.line)
	}

	if b == '\r' || b == '\n' {
		// Look ahead one byte for the paired CRLF/LFCR case.
		if l.pos < len(l.data) {
			next := l.data[l.pos]
			if (b == '\r' && next == '\n') || (b == '\n' && next == '\r') {
				l.pos++
			}
		}
		if l.line == 1<<31-1 {
			return 0, false, compileerr.New(compileerr.OverLine, l.line)
		}
		l.line++
		return '\n', true, nil
	}

	return b, true, nil
}

// nextByte returns the next filtered byte, honoring a pending
// pushback first.
func (l *Lexer) nextByte() (byte, bool, *compileerr.Error) {
	if l.hasPushback {
		l.hasPushback = false
		return l.pushback, true, nil
	}
	return l.rawByte()
}

// unget pushes a single byte back for the next nextByte call.
func (l *Lexer) unget(b byte) {
	l.pushback = b
	l.hasPushback = true
}

// skipToLineBreak discards bytes through (and excluding) the next LF,
// used for '#' comments.
func (l *Lexer) skipToLineBreak() *compileerr.Error {
	for {
		b, ok, err := l.nextByte()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if b == '\n' {
			l.unget(b)
			return nil
		}
	}
}

// Next produces the next token. At end of input it returns a Token
// with Kind == EOF and a nil error (spec: "End-of-input is signalled
// as a successful empty token").
func (l *Lexer) Next() (Token, *compileerr.Error) {
	var b byte
	var ok bool
	var err *compileerr.Error

	for {
		b, ok, err = l.nextByte()
		if err != nil {
			return Token{}, err
		}
		if !ok {
			return Token{Kind: EOF, Line: l.line}, nil
		}
		if isWhitespace(b) {
			continue
		}
		if b == '#' {
			if err := l.skipToLineBreak(); err != nil {
				return Token{}, err
			}
			continue
		}
		break
	}

	line := l.line

	switch {
	case isPitchLetter(b):
		return l.lexPitch(b, line)
	case isDigit(b):
		return l.lexRhythm(b, line)
	case isAtomic(b):
		return Token{Kind: Atomic, Op: b, Line: line}, nil
	case isParamOp(b):
		return l.lexParamOp(b, line)
	case isKeyOp(b):
		return l.lexKeyOp(b, line)
	default:
		return Token{}, compileerr.New(compileerr.BadChar, line)
	}
}

func (l *Lexer) lexPitch(lead byte, line int) (Token, *compileerr.Error) {
	payload := make([]byte, 0, maxTokenLen-1)

	appendByte := func(b byte) *compileerr.Error {
		if len(payload)+1 > maxTokenLen-1 {
			return compileerr.New(compileerr.LongToken, line)
		}
		payload = append(payload, b)
		return nil
	}

	for {
		b, ok, err := l.nextByte()
		if err != nil {
			return Token{}, err
		}
		if !ok || !isAccidental(b) {
			if ok {
				l.unget(b)
			}
			break
		}
		if err := appendByte(b); err != nil {
			return Token{}, err
		}
	}

	for {
		b, ok, err := l.nextByte()
		if err != nil {
			return Token{}, err
		}
		if !ok || !isRegisterMark(b) {
			if ok {
				l.unget(b)
			}
			break
		}
		if err := appendByte(b); err != nil {
			return Token{}, err
		}
	}

	return Token{Kind: PitchStart, Op: lead, Payload: string(payload), Line: line}, nil
}

func (l *Lexer) lexRhythm(lead byte, line int) (Token, *compileerr.Error) {
	b, ok, err := l.nextByte()
	if err != nil {
		return Token{}, err
	}
	if !ok || !isRhythmSuffix(b) {
		if ok {
			l.unget(b)
		}
		return Token{Kind: RhythmStart, Op: lead, Line: line}, nil
	}
	return Token{Kind: RhythmStart, Op: lead, Payload: string([]byte{b}), Line: line}, nil
}

func (l *Lexer) lexParamOp(lead byte, line int) (Token, *compileerr.Error) {
	payload := make([]byte, 0, maxTokenLen-1)
	for {
		b, ok, err := l.nextByte()
		if err != nil {
			return Token{}, err
		}
		if !ok {
			return Token{}, compileerr.New(compileerr.ParamTk, line)
		}
		if b == ';' {
			return Token{Kind: ParamOp, Op: lead, Payload: string(payload), Line: line}, nil
		}
		if isWhitespace(b) {
			return Token{}, compileerr.New(compileerr.ParamTk, line)
		}
		if len(payload)+1 > maxTokenLen-1 {
			return Token{}, compileerr.New(compileerr.LongToken, line)
		}
		payload = append(payload, b)
	}
}

func (l *Lexer) lexKeyOp(lead byte, line int) (Token, *compileerr.Error) {
	b, ok, err := l.nextByte()
	if err != nil {
		return Token{}, err
	}
	if !ok || isWhitespace(b) {
		return Token{}, compileerr.New(compileerr.KeyToken, line)
	}
	return Token{Kind: KeyOp, Op: lead, Payload: string([]byte{b}), Line: line}, nil
}

// Line reports the lexer's current line counter, useful for errors
// detected between tokens (e.g. by the entity parser after EOF).
func (l *Lexer) Line() int { return l.line }
