package textutil

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// MaxCodePoint is the largest Unicode scalar value.
const MaxCodePoint = 0x10FFFF

// EncodeUTF8 encodes a code point as 1-4 bytes. Surrogates are encoded like
// any other 3-byte value; callers that need strict UTF-8 should filter them.
func EncodeUTF8(cp rune) []byte {
	switch {
	case cp < 0:
		return nil
	case cp <= 0x7F:
		return []byte{byte(cp)}
	case cp <= 0x7FF:
		return []byte{
			0xC0 | byte((cp>>6)&0x1F),
			0x80 | byte(cp&0x3F),
		}
	case cp <= 0xFFFF:
		return []byte{
			0xE0 | byte((cp>>12)&0x0F),
			0x80 | byte((cp>>6)&0x3F),
			0x80 | byte(cp&0x3F),
		}
	default:
		return []byte{
			0xF0 | byte((cp>>18)&0x07),
			0x80 | byte((cp>>12)&0x3F),
			0x80 | byte((cp>>6)&0x3F),
			0x80 | byte(cp&0x3F),
		}
	}
}

// DecodeReference resolves a character reference such as "&#8201;",
// "&#x2009;" or "&#X2009;" to its UTF-8 bytes.
//
// Code points above MaxCodePoint are dropped. A reference whose digits do not
// parse is returned unchanged. References without '#' are returned unchanged
// unless named is set, in which case known HTML entity names ("&amp;",
// "&nbsp;", ...) are resolved.
func DecodeReference(ref string, named bool) string {
	if len(ref) < 3 || ref[0] != '&' || ref[len(ref)-1] != ';' {
		return ref
	}
	if ref[1] != '#' {
		if !named {
			return ref
		}
		return html.UnescapeString(ref)
	}

	digits, base := ref[2:len(ref)-1], 10
	if strings.HasPrefix(digits, "x") || strings.HasPrefix(digits, "X") {
		digits, base = digits[1:], 16
	}
	if digits == "" {
		return ref
	}
	cp, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return ""
		}
		return ref
	}
	if cp > MaxCodePoint {
		return ""
	}
	return string(EncodeUTF8(rune(cp)))
}
