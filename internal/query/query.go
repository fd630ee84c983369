// Package query parses a single launcher line into a note title, body and an
// optional notebook directive.
//
// Grammar:
//
//	<title> <content> [!notebook]
//	"quoted title" <content> [!"notebook name"]
package query

import (
	"regexp"
	"strings"
	"unicode"
)

// Usage is the one-line format help shown whenever a query is not valid.
const Usage = "Format: <title> <content> [!notebook]"

// space is the character class of unicode.IsSpace, which \s alone does not
// cover (no-break and ideographic spaces, U+0085).
const space = `\s\v\x{85}\p{Z}`

// directiveRe matches a trailing notebook directive. The quoted form wins when
// both apply; a bare token may itself start with a quote.
var directiveRe = regexp.MustCompile(`[` + space + `]+!(?:"([^"]+)"|([^` + space + `]+))$`)

// Query is the parsed form of one launcher line. Notebook is empty when no
// directive was given.
type Query struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Notebook string `json:"notebook,omitempty"`
}

// Valid reports whether q can drive a note operation. The zero Query (empty
// input or an unterminated quoted title) means "show usage".
func (q Query) Valid() bool {
	return q.Title != ""
}

// Parse splits raw into title, content and notebook directive. It never fails;
// malformed input yields the zero Query.
func Parse(raw string) Query {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Query{}
	}

	text, notebook := splitDirective(text)

	if strings.HasPrefix(text, `"`) {
		end := strings.IndexByte(text[1:], '"')
		if end < 0 {
			return Query{}
		}
		return Query{
			Title:    strings.TrimSpace(text[1 : end+1]),
			Content:  strings.TrimSpace(text[end+2:]),
			Notebook: notebook,
		}
	}

	title, content := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		title, content = text[:i], strings.TrimSpace(text[i:])
	}
	return Query{Title: title, Content: content, Notebook: notebook}
}

// splitDirective removes a trailing `!notebook` or `!"notebook name"` from text.
func splitDirective(text string) (string, string) {
	m := directiveRe.FindStringSubmatchIndex(text)
	if m == nil {
		return text, ""
	}
	var name string
	if m[2] >= 0 {
		name = text[m[2]:m[3]]
	} else {
		name = text[m[4]:m[5]]
	}
	if name == `""` || strings.TrimSpace(name) == "" {
		return text, ""
	}
	return strings.TrimSpace(text[:m[0]]), name
}

// Render formats q back into launcher syntax. Parse(Render(q)) returns q for
// titles and contents without embedded quotes or a trailing `!word`.
func Render(q Query) string {
	var b strings.Builder
	if needsQuotes(q.Title) {
		b.WriteString(`"` + q.Title + `"`)
	} else {
		b.WriteString(q.Title)
	}
	if q.Content != "" {
		b.WriteByte(' ')
		b.WriteString(q.Content)
	}
	if q.Notebook != "" {
		b.WriteString(" !")
		if needsQuotes(q.Notebook) {
			b.WriteString(`"` + q.Notebook + `"`)
		} else {
			b.WriteString(q.Notebook)
		}
	}
	return b.String()
}

func needsQuotes(s string) bool {
	return s == "" || strings.HasPrefix(s, `"`) || strings.ContainsFunc(s, unicode.IsSpace)
}

// Normalize folds a title or notebook name into its comparison key.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
