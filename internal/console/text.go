package console

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"
)

// Styles are the terminal styles chat posts are drawn with.
type Styles struct {
	Speaker lipgloss.Style
	Error   lipgloss.Style
	Bold    lipgloss.Style
	Notice  lipgloss.Style
}

// NewStyles builds Styles for r. A renderer writing to a non-terminal
// produces plain text.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Speaker: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575")),
		Error:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#D7263D")),
		Bold:    r.NewStyle().Bold(true),
		Notice:  r.NewStyle().Foreground(lipgloss.Color("#999999")),
	}
}

// Text converts a chat post's HTML into terminal text: block elements start
// new lines, list items are bulleted, <b> is bold, and a paragraph with a
// red background is drawn in the error style. Entities are decoded.
//
// Postcondition: The result has no leading or trailing blank lines and
// never two blank lines in a row.
func Text(st Styles, src string) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var (
		b     strings.Builder
		bold  int
		alert int
	)
	newline := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or malformed input; keep what was decoded.
			return tidy(b.String())
		case html.TextToken:
			text := string(z.Text())
			if strings.TrimSpace(text) == "" {
				continue
			}
			switch {
			case alert > 0:
				b.WriteString(st.Error.Render(text))
			case bold > 0:
				b.WriteString(st.Bold.Render(text))
			default:
				b.WriteString(text)
			}
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			start := tt != html.EndTagToken
			switch string(name) {
			case "b", "strong":
				if start {
					bold++
				} else if bold > 0 {
					bold--
				}
			case "p":
				newline()
				if start && hasAttr && styleHasRedBackground(z) {
					alert++
				} else if !start && alert > 0 {
					alert--
				}
			case "li":
				newline()
				if start {
					b.WriteString("  - ")
				}
			case "div", "ul", "br":
				newline()
			}
		}
	}
}

func styleHasRedBackground(z *html.Tokenizer) bool {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "style" && strings.Contains(strings.ReplaceAll(string(val), " ", ""), "background-color:red") {
			return true
		}
		if !more {
			return false
		}
	}
}

func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimRight(l, " ")
		if l == "" && (len(out) == 0 || out[len(out)-1] == "") {
			continue
		}
		out = append(out, l)
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}
