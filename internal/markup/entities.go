package markup

import (
	"regexp"
	"strconv"
	"strings"
)

// namedEntities is the fixed substitution table for the entities content
// documents actually use. Everything else comes in as a numeric reference or
// stays verbatim.
var namedEntities = map[string]string{
	"nbsp": " ",
	"amp":  "&",
	"lt":   "<",
	"gt":   ">",
	"quot": `"`,
	"apos": "'",
}

var entityRe = regexp.MustCompile(`&(#?[xX]?[0-9a-zA-Z]+);`)

// DecodeEntities replaces named and numeric character references in s.
// Unknown references pass through untouched, which also makes decoding
// idempotent: a bare & never re-matches.
func DecodeEntities(s string) string {
	if !strings.ContainsRune(s, '&') {
		return s
	}
	return entityRe.ReplaceAllStringFunc(s, func(m string) string {
		name := m[1 : len(m)-1]
		if strings.HasPrefix(name, "#") {
			return decodeNumeric(name[1:], m)
		}
		if rep, ok := namedEntities[strings.ToLower(name)]; ok {
			return rep
		}
		return m
	})
}

// decodeNumeric handles &#39; and &#x2F; style references. orig is returned
// when the digits do not parse to a valid rune.
func decodeNumeric(digits, orig string) string {
	base := 10
	if len(digits) > 0 && (digits[0] == 'x' || digits[0] == 'X') {
		base = 16
		digits = digits[1:]
	}
	n, err := strconv.ParseInt(digits, base, 32)
	if err != nil || n <= 0 || !isValidRune(rune(n)) {
		return orig
	}
	return string(rune(n))
}

func isValidRune(r rune) bool {
	return r != 0xFFFD && r <= 0x10FFFF && (r < 0xD800 || r > 0xDFFF)
}
