package normalize

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeSubject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Welcome aboard", "Welcome aboard"},
		{"base64 cjk", "=?utf-8?B?5ZWG5YOB?=", "商僁"},
		{"base64 chinese", "=?utf-8?B?5ZWG5ZOB?=", "商品"},
		{"base64 upper charset", "=?UTF-8?B?SGVsbG8=?=", "Hello"},
		{"quoted printable", "=?utf-8?Q?Hi=2C_there?=", "Hi, there"},
		{"quoted printable lower q", "=?utf-8?q?Hello_World=21?=", "Hello World!"},
		{"qp multibyte", "=?utf-8?Q?caf=C3=A9?=", "café"},
		{"qp latin1 fallback", "=?utf-8?Q?caf=E9?=", "café"},
		{"qp malformed escape kept", "=?utf-8?Q?100=ZZ?=", "100=ZZ"},
		{"surrounding text kept", "Re: =?utf-8?B?SGVsbG8=?= again", "Re: Hello again"},
		{"only first word decoded", "=?utf-8?B?SGk=?= =?utf-8?B?SGk=?=", "Hi =?utf-8?B?SGk=?="},
		{"other charset untouched", "=?iso-8859-1?Q?caf=E9?=", "=?iso-8859-1?Q?caf=E9?="},
		{"malformed base64", "=?utf-8?B?a===?=", "=?utf-8?B?a===?="},
		{"base64 not utf8", "=?utf-8?B?/w==?=", "=?utf-8?B?/w==?="},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeSubject(tt.in))
		})
	}
}

func TestDecodeSubjectBase64RoundTrip(t *testing.T) {
	for _, s := range []string{"Your verification code", "注册确认", "Ünïcødé ✓", "a"} {
		encoded := "=?utf-8?B?" + base64.StdEncoding.EncodeToString([]byte(s)) + "?="
		assert.Equal(t, s, DecodeSubject(encoded), s)
	}
}

func TestDecodeSubjectPrefersBase64(t *testing.T) {
	in := "=?utf-8?Q?first?= =?utf-8?B?c2Vjb25k?="
	assert.Equal(t, "=?utf-8?Q?first?= second", DecodeSubject(in))
}
