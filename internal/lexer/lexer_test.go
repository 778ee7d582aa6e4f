package lexer

import (
	"testing"

	"github.com/canidlogic/noirc/internal/compileerr"
	"github.com/stretchr/testify/require"
)

func tokens(t *testing.T, src string) []Token {
	t.Helper()
	lx, err := New([]byte(src))
	require.Nil(t, err)

	var out []Token
	for {
		tok, err := lx.Next()
		require.Nil(t, err)
		if tok.IsEOF() {
			return out
		}
		out = append(out, tok)
	}
}

func TestPitchToken(t *testing.T) {
	toks := tokens(t, "cs'")
	require.Len(t, toks, 1)
	require.Equal(t, PitchStart, toks[0].Kind)
	require.Equal(t, byte('c'), toks[0].Op)
	require.Equal(t, "s'", toks[0].Payload)
}

func TestRhythmToken(t *testing.T) {
	toks := tokens(t, "5.")
	require.Len(t, toks, 1)
	require.Equal(t, RhythmStart, toks[0].Kind)
	require.Equal(t, byte('5'), toks[0].Op)
	require.Equal(t, ".", toks[0].Payload)
}

func TestAtomicToken(t *testing.T) {
	toks := tokens(t, "(R)")
	require.Len(t, toks, 3)
	require.Equal(t, Atomic, toks[0].Kind)
	require.Equal(t, byte('('), toks[0].Op)
}

func TestParamOpToken(t *testing.T) {
	toks := tokens(t, "^-12;")
	require.Len(t, toks, 1)
	require.Equal(t, ParamOp, toks[0].Kind)
	require.Equal(t, byte('^'), toks[0].Op)
	require.Equal(t, "-12", toks[0].Payload)
}

func TestParamOpMissingTerminator(t *testing.T) {
	lx, err := New([]byte("^-12"))
	require.Nil(t, err)
	_, tokErr := lx.Next()
	require.NotNil(t, tokErr)
	require.Equal(t, compileerr.ParamTk, tokErr.Kind)
}

func TestKeyOpToken(t *testing.T) {
	toks := tokens(t, "*z")
	require.Len(t, toks, 1)
	require.Equal(t, KeyOp, toks[0].Kind)
	require.Equal(t, byte('*'), toks[0].Op)
	require.Equal(t, "z", toks[0].Payload)
}

func TestCommentsAndWhitespaceIgnored(t *testing.T) {
	toks := tokens(t, "  c # a comment\n  d")
	require.Len(t, toks, 2)
	require.Equal(t, byte('c'), toks[0].Op)
	require.Equal(t, byte('d'), toks[1].Op)
}

func TestLineEndingsNormalized(t *testing.T) {
	lx, err := New([]byte("c\r\nd\ne\r\nf"))
	require.Nil(t, err)
	for i := 0; i < 4; i++ {
		_, tokErr := lx.Next()
		require.Nil(t, tokErr)
	}
	require.Equal(t, 4, lx.Line())
}

func TestNulByteRejected(t *testing.T) {
	lx, err := New([]byte("c\x00d"))
	require.Nil(t, err)
	// The NUL is read while the lexer looks past 'c' for accidentals,
	// so the very first token already fails.
	_, tokErr := lx.Next()
	require.NotNil(t, tokErr)
	require.Equal(t, compileerr.NulChar, tokErr.Kind)
	require.Equal(t, 1, tokErr.Line)
}

func TestBadCharRejected(t *testing.T) {
	_, tokErr := New([]byte{})
	require.Nil(t, tokErr)

	lx, err := New([]byte("?"))
	require.Nil(t, err)
	_, tokErr = lx.Next()
	require.NotNil(t, tokErr)
	require.Equal(t, compileerr.BadChar, tokErr.Kind)
}

func TestBOMStripped(t *testing.T) {
	lx, err := New([]byte("\xEF\xBB\xBFc"))
	require.Nil(t, err)
	tok, tokErr := lx.Next()
	require.Nil(t, tokErr)
	require.Equal(t, byte('c'), tok.Op)
}

func TestMalformedBOMRejected(t *testing.T) {
	_, err := New([]byte("\xEF\xBBc"))
	require.NotNil(t, err)
	require.Equal(t, compileerr.BadChar, err.Kind)
}

func TestEOFIsEmptyToken(t *testing.T) {
	lx, err := New([]byte(""))
	require.Nil(t, err)
	tok, tokErr := lx.Next()
	require.Nil(t, tokErr)
	require.True(t, tok.IsEOF())
}
