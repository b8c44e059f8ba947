package search

import (
	"html"
	"strings"
	"unicode"
)

// Highlighter defaults.
const (
	DefaultMaxFragments = 3
	DefaultWindow       = 5
	// minPrefixTerm is the shortest term that also matches longer words,
	// approximating the engine's stemming.
	minPrefixTerm = 4
)

// Highlighter cuts matched passages out of text field values.
type Highlighter struct {
	MaxFragments int
	// Window is the number of words kept on each side of a match.
	Window   int
	Open     string
	Close    string
	Ellipsis string
}

// DefaultHighlighter wraps terms in <em> with up to 3 fragments of ±5 words.
func DefaultHighlighter() Highlighter {
	return Highlighter{
		MaxFragments: DefaultMaxFragments,
		Window:       DefaultWindow,
		Open:         "<em>",
		Close:        "</em>",
		Ellipsis:     "…",
	}
}

// Terms extracts lowercase search terms from a free text query. Negated
// words (-term) and query syntax are ignored.
func Terms(query string) []string {
	var terms []string
	seen := make(map[string]bool)
	for _, word := range strings.Fields(query) {
		if strings.HasPrefix(word, "-") {
			continue
		}
		for _, t := range strings.FieldsFunc(word, notWordRune) {
			t = strings.ToLower(t)
			if !seen[t] {
				seen[t] = true
				terms = append(terms, t)
			}
		}
	}
	return terms
}

func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func matches(word string, terms []string) bool {
	w := strings.ToLower(strings.TrimFunc(word, notWordRune))
	if w == "" {
		return false
	}
	for _, t := range terms {
		if w == t || (len(t) >= minPrefixTerm && strings.HasPrefix(w, t)) {
			return true
		}
	}
	return false
}

// Fragments returns up to MaxFragments passages of text around matched
// terms, in text order. Overlapping windows merge into one passage. Words
// are HTML-escaped.
func (h Highlighter) Fragments(text string, terms []string) []string {
	words := strings.Fields(text)
	if len(words) == 0 || len(terms) == 0 {
		return nil
	}

	hit := make([]bool, len(words))
	var spans [][2]int
	for i, w := range words {
		if !matches(w, terms) {
			continue
		}
		hit[i] = true
		lo, hi := max(0, i-h.Window), min(len(words)-1, i+h.Window)
		if n := len(spans); n > 0 && lo <= spans[n-1][1]+1 {
			spans[n-1][1] = hi
			continue
		}
		if len(spans) == h.MaxFragments {
			break
		}
		spans = append(spans, [2]int{lo, hi})
	}

	out := make([]string, 0, len(spans))
	for _, sp := range spans {
		var b strings.Builder
		if sp[0] > 0 {
			b.WriteString(h.Ellipsis)
		}
		for i := sp[0]; i <= sp[1]; i++ {
			if i > sp[0] {
				b.WriteByte(' ')
			}
			w := html.EscapeString(words[i])
			if hit[i] {
				b.WriteString(h.Open + w + h.Close)
			} else {
				b.WriteString(w)
			}
		}
		if sp[1] < len(words)-1 {
			b.WriteString(h.Ellipsis)
		}
		out = append(out, b.String())
	}
	return out
}
