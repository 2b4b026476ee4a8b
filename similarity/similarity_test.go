package similarity

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// unitCost is plain Levenshtein: every edit costs one.
var unitCost = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// internTokens maps every distinct token to its own rune so token sequences
// can be checked against a rune-based implementation.
func internTokens(a, b []string) ([]rune, []rune) {
	ids := make(map[string]rune)
	intern := func(tokens []string) []rune {
		out := make([]rune, len(tokens))
		for i, tok := range tokens {
			id, ok := ids[tok]
			if !ok {
				id = rune(len(ids) + 'A')
				ids[tok] = id
			}
			out[i] = id
		}
		return out
	}
	return intern(a), intern(b)
}

func randomTokens(r *rand.Rand, n int) []string {
	vocab := []string{"def", "~~$$eqexpr~~$$", "(", ")", ":", "return", "+", "1", "=", "if"}
	out := make([]string, n)
	for i := range out {
		out[i] = vocab[r.Intn(len(vocab))]
	}
	return out
}

func TestDistance_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want int
	}{
		{"both empty", nil, nil, 0},
		{"empty source", nil, []string{"a", "b"}, 2},
		{"empty target", []string{"a", "b", "c"}, nil, 3},
		{"identical", []string{"x", "=", "1"}, []string{"x", "=", "1"}, 0},
		{"one substitution", []string{"x", "=", "1"}, []string{"x", "=", "2"}, 1},
		{"one insertion", []string{"a", "c"}, []string{"a", "b", "c"}, 1},
		{"one deletion", []string{"a", "b", "c"}, []string{"a", "c"}, 1},
		{"kitten sitting", []string{"k", "i", "t", "t", "e", "n"}, []string{"s", "i", "t", "t", "i", "n", "g"}, 3},
		{"case sensitive", []string{"Return"}, []string{"return"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Distance(tt.a, tt.b))
		})
	}
}

func TestDistance_MatchesRuneOracle(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		a := randomTokens(r, r.Intn(30))
		b := randomTokens(r, r.Intn(30))
		ra, rb := internTokens(a, b)

		want := levenshtein.DistanceForStrings(ra, rb, unitCost)
		assert.Equal(t, want, Distance(a, b), "a=%v b=%v", a, b)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 100; i++ {
		a := randomTokens(r, r.Intn(25))
		b := randomTokens(r, r.Intn(25))
		assert.Equal(t, Distance(a, b), Distance(b, a))
	}
}

func TestDistance_NeverExceedsLongerLength(t *testing.T) {
	r := rand.New(rand.NewSource(11))

	for i := 0; i < 100; i++ {
		a := randomTokens(r, r.Intn(20))
		b := randomTokens(r, r.Intn(20))
		assert.LessOrEqual(t, Distance(a, b), max(len(a), len(b)))
	}
}

func TestEngine_Score(t *testing.T) {
	engine := NewEngine(RoundHalfEven, EmptyFail)

	score, err := engine.Score([]string{"def", "f"}, []string{"def", "f"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	// literal differs: 1 edit over 3 tokens
	score, err = engine.Score([]string{"a", "=", "1"}, []string{"a", "=", "2"})
	require.NoError(t, err)
	assert.Equal(t, 0.67, score)

	score, err = engine.Score([]string{"a"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestEngine_ScoreRangeAndSymmetry(t *testing.T) {
	engine := NewEngine("", "")
	r := rand.New(rand.NewSource(3))

	for i := 0; i < 100; i++ {
		a := randomTokens(r, 1+r.Intn(20))
		b := randomTokens(r, 1+r.Intn(20))

		ab, err := engine.Score(a, b)
		require.NoError(t, err)
		ba, err := engine.Score(b, a)
		require.NoError(t, err)

		assert.Equal(t, ab, ba)
		assert.GreaterOrEqual(t, ab, 0.0)
		assert.LessOrEqual(t, ab, 1.0)
	}
}

func TestEngine_ScoreDropsWithExtraToken(t *testing.T) {
	engine := NewEngine(RoundHalfEven, EmptyFail)
	base := []string{"def", "~~$$eqexpr~~$$", "(", ")", ":", "return", "1", "+", "2", "*", "3"}
	extended := append(append([]string{}, base...), "-")

	score, err := engine.Score(base, extended)
	require.NoError(t, err)
	assert.Less(t, score, 1.0)
}

func TestEngine_EmptySequences(t *testing.T) {
	_, err := NewEngine(RoundHalfEven, EmptyFail).Score(nil, []string{})
	assert.ErrorIs(t, err, ErrEmptySequences)

	score, err := NewEngine(RoundHalfEven, EmptyIdentical).Score(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

// Scores are rounded from their exact binary value: 1 - 1/40 is stored just
// below 0.975 and rounds down in both modes.
func TestRound_NoDoubleRounding(t *testing.T) {
	for _, mode := range []RoundingMode{RoundHalfEven, RoundHalfAway} {
		assert.Equal(t, 0.97, Round(1-1.0/40, mode), "mode %s", mode)
	}

	tests := []struct {
		d, n int
		want float64
	}{
		{1, 40, 0.97},
		{3, 40, 0.93},
		{1, 8, 0.88},
		{1, 3, 0.67},
		{7, 200, 0.96},
	}
	engine := NewEngine(RoundHalfEven, EmptyFail)
	for _, tt := range tests {
		a := make([]string, tt.n)
		b := make([]string, tt.n)
		for i := range a {
			a[i] = "t"
			b[i] = "t"
		}
		for i := 0; i < tt.d; i++ {
			b[i] = "u"
		}
		score, err := engine.Score(a, b)
		require.NoError(t, err)
		assert.Equal(t, tt.want, score, "d=%d n=%d", tt.d, tt.n)
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.12, Round(0.125, RoundHalfEven))
	assert.Equal(t, 0.13, Round(0.125, RoundHalfAway))
	assert.Equal(t, 0.67, Round(2.0/3.0, RoundHalfEven))
	assert.Equal(t, 0.33, Round(1.0/3.0, RoundHalfAway))
	assert.Equal(t, 1.0, Round(1, RoundHalfEven))
	assert.Equal(t, 0.38, Round(0.375, RoundHalfEven))
	assert.Equal(t, 0.38, Round(0.375, RoundHalfAway))
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "1.0", FormatScore(1))
	assert.Equal(t, "0.0", FormatScore(0))
	assert.Equal(t, "0.87", FormatScore(0.87))
	assert.Equal(t, "0.5", FormatScore(0.5))
	assert.Equal(t, "0.67", FormatScore(Round(2.0/3.0, RoundHalfEven)))
}

func TestParseModes(t *testing.T) {
	mode, err := ParseRoundingMode("half_away")
	require.NoError(t, err)
	assert.Equal(t, RoundHalfAway, mode)

	_, err = ParseRoundingMode("banker")
	assert.Error(t, err)

	policy, err := ParseEmptyPolicy("identical")
	require.NoError(t, err)
	assert.Equal(t, EmptyIdentical, policy)

	_, err = ParseEmptyPolicy("zero")
	assert.Error(t, err)
}

func BenchmarkDistance(b *testing.B) {
	r := rand.New(rand.NewSource(1))
	x := randomTokens(r, 500)
	y := randomTokens(r, 500)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Distance(x, y)
	}
}
