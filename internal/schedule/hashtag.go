package schedule

import (
	"strings"

	"schedcal/internal/output"
)

// componentUnsafe are the ASCII bytes that must be percent-encoded when a
// hashtag is spliced into a URL component.
const componentUnsafe = ` "#<>?` + "`" + `{}/:;=@[\]^|$&+,`

func byteUnsafe(b byte) bool {
	return b < 0x20 || b == 0x7f || b >= 0x80 || strings.IndexByte(componentUnsafe, b) >= 0
}

const upperhex = "0123456789ABCDEF"

func escapeComponent(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if byteUnsafe(c) {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0xf])
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// MakeHashtag wraps a raw hashtag, attaching the percent-encoded form only
// when it differs from the display form.
func MakeHashtag(s string) output.Hashtag {
	escaped := escapeComponent(s)
	if escaped == s {
		return output.Hashtag{Display: s}
	}
	return output.Hashtag{Display: s, Escaped: escaped}
}
