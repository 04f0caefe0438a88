package questions

import (
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/mind-engage/mindengage-cbt/internal/grading"
)

// sentences splits text on terminal punctuation and line breaks and keeps
// those with at least minWords words.
func sentences(text string, minWords int) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		s := strings.Join(strings.Fields(cur.String()), " ")
		cur.Reset()
		if len(strings.Fields(s)) >= minWords {
			out = append(out, s)
		}
	}
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			cur.WriteRune(r)
			flush()
		case '\n':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// keyTerms returns the distinct content words of s, longest first.
func keyTerms(s string) []string { return grading.Keywords(s, 0) }

// blank replaces the first whole-word occurrence of term in s.
func blank(s, term string) string {
	ls, lt := strings.ToLower(s), strings.ToLower(term)
	from := 0
	for {
		i := strings.Index(ls[from:], lt)
		if i < 0 {
			return s
		}
		i += from
		end := i + len(lt)
		if boundary(s, i-1) && boundary(s, end) {
			return s[:i] + "_____" + s[end:]
		}
		from = end
	}
}

func boundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := rune(s[i])
	return !unicode.IsLetter(c) && !unicode.IsDigit(c)
}

func seedOf(parts ...string) int64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return int64(h.Sum64() & (1<<63 - 1))
}
