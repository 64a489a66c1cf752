package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLToText(t *testing.T) {
	in := `<html><head><title>T</title><style>p{color:red}</style></head>
<body><p>Hello   there</p><div>Your code: <b>482913</b></div>
<script>alert(1)</script><a href="https://x.test/verify">Verify</a><br>Bye</body></html>`

	want := "Hello there\nYour code: 482913\nVerify <https://x.test/verify>\nBye"
	assert.Equal(t, want, HTMLToText(in))
}

func TestHTMLToTextPlainPassThrough(t *testing.T) {
	assert.Equal(t, "line one\nline two", HTMLToText("line one\r\nline two"))
	assert.Equal(t, "3 < 4", HTMLToText("3 < 4"))
}

func TestHTMLToTextSkipsFragmentLinks(t *testing.T) {
	assert.Equal(t, "top", HTMLToText(`<p><a href="#top">top</a></p>`))
}

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, LooksLikeHTML("<p>x</p>"))
	assert.True(t, LooksLikeHTML("<!DOCTYPE html>"))
	assert.True(t, LooksLikeHTML("a<br/>b"))
	assert.False(t, LooksLikeHTML("plain text"))
	assert.False(t, LooksLikeHTML("<person@example.com>"))
}

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"labeled english", "Your verification code is 482913.", "482913"},
		{"labeled chinese", "您的验证码：7351，请勿泄露", "7351"},
		{"tagged", "<p>Use</p><strong>90817</strong></p>", "90817"},
		{"skips year", "Copyright 2024. Ticket 55871.", "55871"},
		{"nothing", "Hello, no digits here", ""},
		{"short numbers only", "Room 12, floor 3", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCode(tt.in))
		})
	}
}
