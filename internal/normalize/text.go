package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var htmlMarker = regexp.MustCompile(`(?i)<(html|body|div|p|br|table|a|img|span|!doctype)[\s>/]`)

// LooksLikeHTML reports whether body appears to contain HTML markup.
func LooksLikeHTML(body string) bool {
	return htmlMarker.MatchString(body)
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Tr: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Table: true, atom.Ul: true, atom.Ol: true, atom.Blockquote: true, atom.Hr: true,
}

var skipElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Head: true, atom.Title: true,
}

// HTMLToText renders an HTML body as plain text for the terminal. Block
// elements become line breaks, links keep their target as "text <href>",
// and script, style and head content is dropped. Bodies that are not HTML
// are returned with only line endings normalized.
func HTMLToText(body string) string {
	if !LooksLikeHTML(body) {
		return strings.ReplaceAll(body, "\r\n", "\n")
	}

	z := html.NewTokenizer(strings.NewReader(body))
	var (
		b     strings.Builder
		skip  int
		hrefs []string
	)

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			a := atom.Lookup(name)
			if skipElements[a] && tt == html.StartTagToken {
				skip++
				continue
			}
			if blockElements[a] {
				newline(&b)
			}
			if a == atom.A && tt == html.StartTagToken {
				hrefs = append(hrefs, attr(z, hasAttr, "href"))
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if skipElements[a] {
				if skip > 0 {
					skip--
				}
				continue
			}
			if a == atom.A && len(hrefs) > 0 {
				href := hrefs[len(hrefs)-1]
				hrefs = hrefs[:len(hrefs)-1]
				if href != "" && !strings.HasPrefix(href, "#") {
					b.WriteString(" <" + href + ">")
				}
			}
			if blockElements[a] {
				newline(&b)
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := strings.Join(strings.Fields(string(z.Text())), " ")
			if text == "" {
				continue
			}
			if s := b.String(); s != "" && !strings.HasSuffix(s, "\n") && !strings.HasSuffix(s, " ") {
				b.WriteByte(' ')
			}
			b.WriteString(text)
		}
	}

	return collapseBlankLines(b.String())
}

func attr(z *html.Tokenizer, more bool, name string) string {
	for more {
		var key, val []byte
		key, val, more = z.TagAttr()
		if string(key) == name {
			return string(val)
		}
	}
	return ""
}

func newline(b *strings.Builder) {
	if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
		b.WriteByte('\n')
	}
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
