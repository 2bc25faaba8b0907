package style

import (
	"regexp"
	"strings"
)

// Origin is the precedence class of a rule source. Later origins beat
// earlier ones when resolving a node; source order breaks ties within one
// origin.
type Origin int

const (
	OriginTag Origin = iota
	OriginClass
	OriginID
	OriginInline
)

var (
	attrSelectorRe = regexp.MustCompile(`\[[^\]]*\]`)
	pseudoRe       = regexp.MustCompile(`::?[a-zA-Z-]+(\([^)]*\))?`)
	combinatorRe   = regexp.MustCompile(`[\s>+~]+`)
)

// normalizeSelector reduces one simple selector to a lookup key: `#id`,
// `.class`, or a bare tag name. Pseudo-classes, pseudo-elements, and
// attribute selectors are stripped; of a combinator chain only the last
// simple selector survives. Returns ok=false for selectors that normalize
// to nothing (at-rules, universal selector, pure pseudo selectors).
func normalizeSelector(sel string) (key string, origin Origin, ok bool) {
	sel = attrSelectorRe.ReplaceAllString(sel, "")
	sel = pseudoRe.ReplaceAllString(sel, "")

	parts := combinatorRe.Split(strings.TrimSpace(sel), -1)
	last := ""
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			last = parts[i]
			break
		}
	}
	if last == "" || last == "*" || strings.HasPrefix(last, "@") {
		return "", 0, false
	}

	if i := strings.LastIndexByte(last, '#'); i >= 0 {
		id := trimToIdent(last[i+1:])
		if id == "" {
			return "", 0, false
		}
		return "#" + id, OriginID, true
	}
	if i := strings.LastIndexByte(last, '.'); i >= 0 {
		class := trimToIdent(last[i+1:])
		if class == "" {
			return "", 0, false
		}
		return "." + class, OriginClass, true
	}
	return strings.ToLower(last), OriginTag, true
}

// trimToIdent cuts an identifier short at the first character that cannot
// be part of one (leftover punctuation from sloppy selectors).
func trimToIdent(s string) string {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c == '-' || c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return s[:i]
		}
	}
	return s
}
