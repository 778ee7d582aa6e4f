// Package entity parses the token stream into the compound
// constructs the VM understands: pitch sets, rhythm groups, and
// operators with their decoded parameters (spec §4.2).
package entity

import (
	"github.com/canidlogic/noirc/internal/compileerr"
	"github.com/canidlogic/noirc/internal/lexer"
	"github.com/canidlogic/noirc/internal/pitchset"
	"github.com/canidlogic/noirc/internal/vm"
)

// maxGroupDepth bounds pitch-group nesting (spec §4.2 "practical
// overflow -> TooDeep"); chosen to match the VM's stack depth bound.
const maxGroupDepth = 1024

// Machine is the interface the entity parser drives; vm.VM satisfies
// it directly, letting tests substitute a recording fake.
type Machine interface {
	PitchSet(ps pitchset.Set, line int) *compileerr.Error
	Duration(q int, line int) *compileerr.Error
	Repeat(line int) *compileerr.Error
	RepeatN(n int, line int) *compileerr.Error
	NewSection(line int) *compileerr.Error
	RewindSection(line int) *compileerr.Error
	PushLoc(line int) *compileerr.Error
	ReturnLoc(line int) *compileerr.Error
	PopLoc(line int) *compileerr.Error
	PushTrans(n int, line int) *compileerr.Error
	PopTrans(line int) *compileerr.Error
	ImmArt(k int, line int) *compileerr.Error
	PushArt(k int, line int) *compileerr.Error
	PopArt(line int) *compileerr.Error
	SetBaseLayer(n int, line int) *compileerr.Error
	PushLayer(n int, line int) *compileerr.Error
	PopLayer(line int) *compileerr.Error
	Cue(c int, line int) *compileerr.Error
	EOF(line int) *compileerr.Error
}

var _ Machine = (*vm.VM)(nil)

// Run consumes every token from lex, driving m, until EOF. It returns
// the first error encountered, or nil on a clean compile.
func Run(lex *lexer.Lexer, m Machine) *compileerr.Error {
	for {
		tok, err := lex.Next()
		if err != nil {
			return err
		}
		if tok.IsEOF() {
			return m.EOF(tok.Line)
		}
		if err := dispatch(lex, m, tok); err != nil {
			return err
		}
	}
}

func dispatch(lex *lexer.Lexer, m Machine, tok lexer.Token) *compileerr.Error {
	switch tok.Kind {
	case lexer.PitchStart:
		p, err := decodePitch(tok.Op, tok.Payload, tok.Line)
		if err != nil {
			return err
		}
		var ps pitchset.Set
		ps.Add(p)
		return m.PitchSet(ps, tok.Line)

	case lexer.RhythmStart:
		q, isGrace, err := decodeRhythmComponent(tok.Op, tok.Payload, tok.Line)
		if err != nil {
			return err
		}
		if isGrace {
			q = 0
		}
		return m.Duration(q, tok.Line)

	case lexer.ParamOp:
		return dispatchParamOp(m, tok)

	case lexer.KeyOp:
		k, err := decodeKey(tok.Payload, tok.Line)
		if err != nil {
			return err
		}
		switch tok.Op {
		case '*':
			return m.ImmArt(k, tok.Line)
		case '!':
			return m.PushArt(k, tok.Line)
		}
		compileerr.Faultf("entity: unreachable key operator %q", tok.Op)

	case lexer.Atomic:
		return dispatchAtomic(lex, m, tok)
	}

	compileerr.Faultf("entity: unreachable token kind %v", tok.Kind)
	return nil
}

func dispatchAtomic(lex *lexer.Lexer, m Machine, tok lexer.Token) *compileerr.Error {
	switch tok.Op {
	case '(':
		ps, err := parsePitchGroup(lex, tok.Line)
		if err != nil {
			return err
		}
		return m.PitchSet(ps, tok.Line)

	case 'R', 'r':
		return m.PitchSet(pitchset.Empty, tok.Line)

	case '[':
		q, err := parseRhythmGroup(lex, tok.Line)
		if err != nil {
			return err
		}
		return m.Duration(q, tok.Line)

	case ')', ']':
		return compileerr.New(compileerr.Right, tok.Line)

	case '/':
		return m.Repeat(tok.Line)
	case '$':
		return m.NewSection(tok.Line)
	case '@':
		return m.RewindSection(tok.Line)
	case '{':
		return m.PushLoc(tok.Line)
	case ':':
		return m.ReturnLoc(tok.Line)
	case '}':
		return m.PopLoc(tok.Line)
	case '=':
		return m.PopTrans(tok.Line)
	case '~':
		return m.PopArt(tok.Line)
	case '-':
		return m.PopLayer(tok.Line)
	}

	compileerr.Faultf("entity: unreachable atomic operator %q", tok.Op)
	return nil
}

func dispatchParamOp(m Machine, tok lexer.Token) *compileerr.Error {
	switch tok.Op {
	case '\\':
		n, err := parseSignedInt(tok.Payload, tok.Line)
		if err != nil {
			return err
		}
		return m.RepeatN(n, tok.Line)
	case '^':
		n, err := parseSignedInt(tok.Payload, tok.Line)
		if err != nil {
			return err
		}
		return m.PushTrans(n, tok.Line)
	case '&':
		n, err := parseSignedInt(tok.Payload, tok.Line)
		if err != nil {
			return err
		}
		return m.SetBaseLayer(n, tok.Line)
	case '+':
		n, err := parseSignedInt(tok.Payload, tok.Line)
		if err != nil {
			return err
		}
		return m.PushLayer(n, tok.Line)
	case '`':
		c, err := parseCueNumber(tok.Payload, tok.Line)
		if err != nil {
			return err
		}
		return m.Cue(c, tok.Line)
	}

	compileerr.Faultf("entity: unreachable parameter operator %q", tok.Op)
	return nil
}

// parsePitchGroup consumes tokens after an opening '(' already read
// from lex, returning the accumulated pitch set once nesting returns
// to depth zero (spec §4.2 "Pitch set construction").
func parsePitchGroup(lex *lexer.Lexer, startLine int) (pitchset.Set, *compileerr.Error) {
	var ps pitchset.Set
	depth := 1

	for {
		tok, err := lex.Next()
		if err != nil {
			return pitchset.Empty, err
		}
		if tok.IsEOF() {
			return pitchset.Empty, compileerr.New(compileerr.Unclosed, startLine)
		}

		switch {
		case tok.Kind == lexer.Atomic && tok.Op == '(':
			depth++
			if depth > maxGroupDepth {
				return pitchset.Empty, compileerr.New(compileerr.TooDeep, tok.Line)
			}
		case tok.Kind == lexer.Atomic && tok.Op == ')':
			depth--
			if depth == 0 {
				return ps, nil
			}
		case tok.Kind == lexer.Atomic && (tok.Op == 'R' || tok.Op == 'r'):
			// Rests inside a group contribute nothing.
		case tok.Kind == lexer.PitchStart:
			p, err := decodePitch(tok.Op, tok.Payload, tok.Line)
			if err != nil {
				return pitchset.Empty, err
			}
			ps.Add(p)
		default:
			return pitchset.Empty, compileerr.New(compileerr.Unclosed, tok.Line)
		}
	}
}

// parseRhythmGroup consumes tokens after an opening '[' already read
// from lex, summing component durations until the matching ']' (spec
// §4.2 "Rhythm decode").
func parseRhythmGroup(lex *lexer.Lexer, startLine int) (int, *compileerr.Error) {
	sum := 0

	for {
		tok, err := lex.Next()
		if err != nil {
			return 0, err
		}
		if tok.IsEOF() {
			return 0, compileerr.New(compileerr.Unclosed, startLine)
		}

		switch {
		case tok.Kind == lexer.Atomic && tok.Op == ']':
			return sum, nil
		case tok.Kind == lexer.RhythmStart:
			q, isGrace, err := decodeRhythmComponent(tok.Op, tok.Payload, tok.Line)
			if err != nil {
				return 0, err
			}
			if isGrace {
				return 0, compileerr.New(compileerr.InGrace, tok.Line)
			}
			sum, err = addDur(sum, q, tok.Line)
			if err != nil {
				return 0, err
			}
		default:
			return 0, compileerr.New(compileerr.BadDur, tok.Line)
		}
	}
}
