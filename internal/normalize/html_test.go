package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLSteps(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"equals escape", `<p class=3D"x">`, `<p class="x">`},
		{"literal soft break", `ab=\r\ncd`, "abcd"},
		{"crlf soft break", "ab=\r\ncd", "abcd"},
		{"lf soft break", "ab=\ncd", "abcd"},
		{"quote escapes", "say =22hi=22 it=27s=20ok", `say "hi" it's ok`},
		{"missing marker", "Hello(MISSING) world", "Hello world"},
		{"http image", `<img src="http://x.test/a.png" style="w">`, `<img src="https://x.test/a.png" style="w">`},
		{"anchor gets target", `<a href="https://x.test">x</a>`, `<a target="_blank" rel="noopener nofollow" href="https://x.test">x</a>`},
		{"bare anchor", `<a>x</a>`, `<a target="_blank" rel="noopener nofollow">x</a>`},
		{"anchor with target kept", `<a href="/" target="_self">x</a>`, `<a href="/" target="_self">x</a>`},
		{"target inside quoted value", `<a title="see target=x" href="/">x</a>`, `<a target="_blank" rel="noopener nofollow" title="see target=x" href="/">x</a>`},
		{"abbr untouched", `<abbr title="t">t</abbr>`, `<abbr title="t">t</abbr>`},
		{"image gets style", `<img src="https://x.test/a.png">`, `<img style="max-width:100%;height:auto" src="https://x.test/a.png">`},
		{"self-closing image", `<img/>`, `<img style="max-width:100%;height:auto"/>`},
		{"style inside quoted value", `<img alt='a style=b'>`, `<img style="max-width:100%;height:auto" alt='a style=b'>`},
		{"upper case tags", `<A HREF="/">x</A><IMG SRC="y">`, `<A target="_blank" rel="noopener nofollow" HREF="/">x</A><IMG style="max-width:100%;height:auto" SRC="y">`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTML(tt.in))
		})
	}
}

func TestHTMLEscapeOrder(t *testing.T) {
	// "=3D22" must become "=22" and then '"'.
	assert.Equal(t, `say "x"`, HTML(`say =3D22x=3D22`))
}

func TestHTMLIdempotentRewrites(t *testing.T) {
	in := `<div><a href="https://x.test">link</a><img src="http://x.test/p.png"></div>`
	once := HTML(in)
	twice := HTML(once)

	assert.Equal(t, once, twice)
	assert.Equal(t, 1, strings.Count(twice, "target="))
	assert.Equal(t, 1, strings.Count(twice, "style="))
	assert.Contains(t, twice, `src="https://x.test/p.png"`)
}

func TestIsLongContent(t *testing.T) {
	assert.False(t, IsLongContent("short body"))
	assert.False(t, IsLongContent(strings.Repeat("a", 300)))
	assert.True(t, IsLongContent(strings.Repeat("a", 301)))
	assert.False(t, IsLongContent(strings.Repeat("码", 300)))
	assert.True(t, IsLongContent("DKIM-Signature: v=1"))
	assert.True(t, IsLongContent("--------"))
	assert.True(t, IsLongContent("-------"))
	assert.False(t, IsLongContent("------"))
}
