package voice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitBasicSentences(t *testing.T) {
	g := Segmenter{}
	units := g.Split("Hello there my friend. How are you doing today? I am fine!")

	require.Len(t, units, 3)
	assert.Equal(t, "Hello there my friend.", units[0])
	assert.Equal(t, "How are you doing today?", units[1])
	assert.Equal(t, "I am fine!", units[2])
}

func TestSplitKeepsClosingQuoteWithSentence(t *testing.T) {
	g := Segmenter{}
	units := g.Split(`She said "Go away." Then he left quietly.`)

	require.Len(t, units, 2)
	assert.Equal(t, `She said "Go away."`, units[0])
	assert.Equal(t, "Then he left quietly.", units[1])
}

func TestSplitIgnoresLowercaseContinuation(t *testing.T) {
	g := Segmenter{}
	units := g.Split("This covers e.g. some abbreviations nicely.")

	require.Len(t, units, 1)
}

func TestShortUnitMergesIntoPredecessor(t *testing.T) {
	g := Segmenter{}
	units := g.Split("Hi. OK.")

	require.Len(t, units, 1)
	assert.Equal(t, "Hi. OK.", units[0])
}

func TestFirstShortUnitStandsAlone(t *testing.T) {
	g := Segmenter{}
	units := g.Split("Hi. This is a much longer sentence after it.")

	require.Len(t, units, 2)
	assert.Equal(t, "Hi.", units[0])
}

func TestNoShortStandaloneUnitsPastFirst(t *testing.T) {
	g := Segmenter{}
	units := g.Split("Well that was a lovely story. Yes. Now tell me what happened afterwards.")

	for i, u := range units[1:] {
		assert.GreaterOrEqual(t, len([]rune(u)), g.minLen(), "unit %d too short: %q", i+1, u)
	}
}

func TestSplitReconstructsInput(t *testing.T) {
	g := Segmenter{}
	in := "I went to the market yesterday. It was very crowded! Did you enjoy it? Yes, absolutely."
	units := g.Split(in)
	require.NotEmpty(t, units)

	normalize := func(s string) string { return strings.Join(strings.Fields(s), " ") }
	assert.Equal(t, normalize(in), normalize(strings.Join(units, " ")))
}

func TestSplitEmptyInput(t *testing.T) {
	g := Segmenter{}
	assert.Nil(t, g.Split(""))
	assert.Nil(t, g.Split("   \n\t "))
}

func TestSplitNonEmptyInputAlwaysYieldsUnits(t *testing.T) {
	g := Segmenter{}
	for _, in := range []string{"word", "no terminator here", "?!", "Short. Short. Short."} {
		assert.NotEmpty(t, g.Split(in), "input %q", in)
	}
}

func TestUnitsMetadata(t *testing.T) {
	g := Segmenter{}
	units := g.Units("The weather is lovely today. Shall we practice ordering food? Start whenever you are ready.")

	require.Len(t, units, 3)
	for i, u := range units {
		assert.Equal(t, i, u.Index)
		assert.Equal(t, 3, u.Total)
		assert.Equal(t, i == 2, u.IsLast)
	}
}
