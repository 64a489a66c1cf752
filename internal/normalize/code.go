package normalize

import "regexp"

var (
	labeledCode = regexp.MustCompile(`(?i)(验证码|校验码|确认码|verification code|code)[^0-9]{0,15}[:：]?\s*(\d{4,8})`)
	taggedCode  = regexp.MustCompile(`<[^>]*>(\d{4,8})</`)
	bareCode    = regexp.MustCompile(`\b\d{4,8}\b`)
)

// ExtractCode finds a likely verification code in a message body. A number
// labeled as a code wins, then a number that is the whole content of an
// element, then any standalone 4 to 8 digit number that is not a year
// between 2020 and 2030. It returns "" when nothing qualifies.
func ExtractCode(body string) string {
	if m := labeledCode.FindStringSubmatch(body); m != nil {
		return m[2]
	}
	if m := taggedCode.FindStringSubmatch(body); m != nil {
		return m[1]
	}

	for _, candidate := range bareCode.FindAllString(HTMLToText(body), -1) {
		if len(candidate) == 4 && candidate >= "2020" && candidate <= "2030" {
			continue
		}
		return candidate
	}
	return ""
}
