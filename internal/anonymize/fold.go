package anonymize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// newFolder strips combining marks after canonical decomposition.
// Transformers carry state, so each call site gets its own.
func newFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
}

func foldRune(t transform.Transformer, r rune) string {
	out, _, err := transform.String(t, string(r))
	if err != nil {
		out = string(r)
	}
	return strings.ToLower(out)
}

// foldString folds rune by rune so names and document text fold identically.
func foldString(s string) string {
	t := newFolder()
	var b strings.Builder
	for _, r := range s {
		b.WriteString(foldRune(t, r))
	}
	return b.String()
}

// foldedView is the folded form of a text plus, for every folded byte, the
// original byte span of the rune it came from.
type foldedView struct {
	s     string
	start []int
	end   []int
}

func newFoldedView(text string) foldedView {
	t := newFolder()
	var b strings.Builder
	v := foldedView{
		start: make([]int, 0, len(text)),
		end:   make([]int, 0, len(text)),
	}
	for i := 0; i < len(text); {
		r, w := utf8.DecodeRuneInString(text[i:])
		var piece string
		if r == utf8.RuneError && w <= 1 {
			piece = text[i : i+w]
		} else {
			piece = foldRune(t, r)
		}
		if piece == "" {
			// a bare combining mark belongs to the preceding base rune
			if n := len(v.end); n > 0 {
				v.end[n-1] = i + w
			}
			i += w
			continue
		}
		b.WriteString(piece)
		for range len(piece) {
			v.start = append(v.start, i)
			v.end = append(v.end, i+w)
		}
		i += w
	}
	v.s = b.String()
	return v
}

// replaceFolded replaces every non-overlapping occurrence of the folded needle
// in text with repl, keeping all unmatched original bytes untouched.
func replaceFolded(text, needle, repl string) string {
	if needle == "" || text == "" {
		return text
	}
	view := newFoldedView(text)
	if !strings.Contains(view.s, needle) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last, pos := 0, 0
	for pos < len(view.s) {
		idx := strings.Index(view.s[pos:], needle)
		if idx < 0 {
			break
		}
		fs := pos + idx
		fe := fs + len(needle)
		pos = fe
		from, to := view.start[fs], view.end[fe-1]
		if from < last {
			continue
		}
		b.WriteString(text[last:from])
		b.WriteString(repl)
		last = to
	}
	b.WriteString(text[last:])
	return b.String()
}
