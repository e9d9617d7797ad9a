package voice

import (
	"strings"
	"unicode"
)

const defaultMinSentenceLen = 10

// SentenceUnit is one spoken segment of a reply, delivered independently
// for text and audio.
type SentenceUnit struct {
	Text   string
	Index  int
	Total  int
	IsLast bool
}

// Segmenter splits reply text into natural spoken units. A sentence ends
// at '.', '!' or '?' (optionally followed by a closing quote) when the
// next non-space rune starts a capitalized sentence. Units shorter than
// MinLen runes are merged into the unit before them; the first unit has
// nothing to merge into and stands as-is.
type Segmenter struct {
	MinLen int
}

func isTerminator(r rune) bool { return r == '.' || r == '!' || r == '?' }

func isClosingQuote(r rune) bool {
	switch r {
	case '"', '\'', '”', '’', ')':
		return true
	}
	return false
}

func (g Segmenter) minLen() int {
	if g.MinLen > 0 {
		return g.MinLen
	}
	return defaultMinSentenceLen
}

// Split returns the ordered unit texts for text. Non-empty trimmed input
// always yields at least one unit.
func (g Segmenter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	var raw []string
	start := 0

	for i := 0; i < len(runes); {
		if !isTerminator(runes[i]) {
			i++
			continue
		}
		end := i + 1
		if end < len(runes) && isClosingQuote(runes[end]) {
			end++
		}
		next := end
		for next < len(runes) && unicode.IsSpace(runes[next]) {
			next++
		}
		if next > end && next < len(runes) && unicode.IsUpper(runes[next]) {
			if u := strings.TrimSpace(string(runes[start:end])); u != "" {
				raw = append(raw, u)
			}
			start = next
			i = next
			continue
		}
		i = end
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		raw = append(raw, tail)
	}

	// Merge degenerate fragments backward.
	min := g.minLen()
	var units []string
	for _, u := range raw {
		if len(units) > 0 && len([]rune(u)) < min {
			units[len(units)-1] += " " + u
			continue
		}
		units = append(units, u)
	}
	return units
}

// Units wraps Split with position metadata for ordered client reconstruction.
func (g Segmenter) Units(text string) []SentenceUnit {
	parts := g.Split(text)
	units := make([]SentenceUnit, len(parts))
	for i, p := range parts {
		units[i] = SentenceUnit{
			Text:   p,
			Index:  i,
			Total:  len(parts),
			IsLast: i == len(parts)-1,
		}
	}
	return units
}
