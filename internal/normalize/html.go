package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	anchorTag  = regexp.MustCompile(`(?i)<a(\s[^>]*)?>`)
	imgTag     = regexp.MustCompile(`(?i)<img([\s/][^>]*)?>`)
	targetAttr = regexp.MustCompile(`(?i)\starget\s*=`)
	styleAttr  = regexp.MustCompile(`(?i)\sstyle\s*=`)
	quotedAttr = regexp.MustCompile(`"[^"]*"|'[^']*'`)
)

// hasAttr reports whether tag carries the attribute matched by name,
// ignoring text inside quoted attribute values.
func hasAttr(tag string, name *regexp.Regexp) bool {
	return name.MatchString(quotedAttr.ReplaceAllString(tag, `""`))
}

const (
	anchorAttrs = ` target="_blank" rel="noopener nofollow"`
	imgAttrs    = ` style="max-width:100%;height:auto"`
)

// Body rewrites applied in order before the image and link passes. The
// order matters: "=3D" must be undone before the later escapes are seen.
var qpResidue = []struct{ old, new string }{
	{"=3D", "="},
	{`=\r\n`, ""},
	{"=\r\n", ""},
	{"=\n", ""},
	{"=22", `"`},
	{"=27", "'"},
	{"=20", " "},
	{"(MISSING)", ""},
	{`src="http://`, `src="https://`},
}

// HTML repairs quoted-printable residue left in an HTML body, upgrades
// plain-http image sources, opens links in a new context and constrains
// image width. The result is meant for display only and is not sanitized.
func HTML(body string) string {
	for _, r := range qpResidue {
		body = strings.ReplaceAll(body, r.old, r.new)
	}

	body = anchorTag.ReplaceAllStringFunc(body, func(tag string) string {
		if hasAttr(tag, targetAttr) {
			return tag
		}
		return tag[:2] + anchorAttrs + tag[2:]
	})

	body = imgTag.ReplaceAllStringFunc(body, func(tag string) string {
		if hasAttr(tag, styleAttr) {
			return tag
		}
		return tag[:4] + imgAttrs + tag[4:]
	})

	return body
}

const longContentRunes = 300

// IsLongContent reports whether a body should be shown collapsed: it is
// longer than 300 characters or looks like raw headers or a MIME dump.
func IsLongContent(body string) bool {
	return utf8.RuneCountInString(body) > longContentRunes ||
		strings.Contains(body, "DKIM-Signature") ||
		strings.Contains(body, "-------")
}
