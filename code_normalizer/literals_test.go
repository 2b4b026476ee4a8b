package code_normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeStringLiteral_Repr(t *testing.T) {
	tests := []struct {
		literal string
		want    string
	}{
		{`'a'`, `'a'`},
		{`"a"`, `'a'`},
		{`""`, `''`},
		{`"it's"`, `"it's"`},
		{`'a"b'`, `'a"b'`},
		{`'both \' and "'`, `'both \' and "'`},
		{`'''multi` + "\n" + `line'''`, `'multi\nline'`},
		{`'tab\there'`, `'tab\there'`},
		{`'\101'`, `'A'`},
		{`'\x41'`, `'A'`},
		{`'\u00e9'`, `'é'`},
		{`'\u2028'`, `'\u2028'`},
		{`'\x7f'`, `'\x7f'`},
		{`'\d'`, `'\\d'`},
		{`R'\n'`, `'\\n'`},
		{`'line\` + "\n" + `cont'`, `'linecont'`},
		{`u'x'`, `u'x'`},
		{`b"\xff'"`, `b"\xff'"`},
		{`B'\u1234'`, `b'\\u1234'`},
		{`rb'\x00'`, `b'\\x00'`},
	}

	for _, tt := range tests {
		lit, ok := decodeStringLiteral(tt.literal)
		if assert.True(t, ok, "literal %s", tt.literal) {
			assert.Equal(t, tt.want, lit.repr(), "literal %s", tt.literal)
		}
	}
}

func TestDecodeStringLiteral_KeptVerbatim(t *testing.T) {
	for _, literal := range []string{
		`f'{x}'`,
		`Rf"{x}"`,
		`'\N{EM DASH}'`,
		`'\x4'`,
		`b'é'`,
		"`x`",
	} {
		_, ok := decodeStringLiteral(literal)
		assert.False(t, ok, "literal %s", literal)
	}
}
