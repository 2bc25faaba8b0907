package style

import "strings"

// Sheet is raw CSS text plus its origin path (diagnostics and per-path
// deduplication). Inline <style> blocks get a synthetic path derived from
// the owning document.
type Sheet struct {
	Path string
	Text string
}

type decl struct {
	prop string
	val  string
}

type rawRule struct {
	selectors []string
	decls     []decl
}

// scanRules tokenizes a stylesheet into rule blocks: selector list, `{`,
// declarations, `}`. Comments are stripped first; string literals inside
// values are respected. At-rules are skipped wholesale, nested blocks
// included. Malformed trailing input is dropped silently; a broken sheet
// loses its rules, nothing more.
func scanRules(css string) []rawRule {
	css = stripComments(css)
	var rules []rawRule

	i := 0
	for i < len(css) {
		open := indexOutsideString(css, i, '{')
		if open < 0 {
			break
		}
		selText := strings.TrimSpace(css[i:open])

		if strings.HasPrefix(selText, "@") {
			i = skipBlock(css, open)
			continue
		}

		close := indexOutsideString(css, open+1, '}')
		if close < 0 {
			break
		}
		rule := rawRule{decls: parseDecls(css[open+1 : close])}
		for _, sel := range strings.Split(selText, ",") {
			if s := strings.TrimSpace(sel); s != "" {
				rule.selectors = append(rule.selectors, s)
			}
		}
		if len(rule.selectors) > 0 && len(rule.decls) > 0 {
			rules = append(rules, rule)
		}
		i = close + 1
	}
	return rules
}

// parseDecls splits a declaration block on semicolons into property-value
// pairs. Entries without a colon are dropped.
func parseDecls(block string) []decl {
	var decls []decl
	for _, part := range splitOutsideString(block, ';') {
		prop, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.TrimSpace(val)
		if prop == "" || val == "" {
			continue
		}
		decls = append(decls, decl{prop: prop, val: val})
	}
	return decls
}

// stripComments removes /* */ comments, leaving string literals alone.
func stripComments(css string) string {
	var b strings.Builder
	b.Grow(len(css))
	inString := byte(0)
	for i := 0; i < len(css); i++ {
		ch := css[i]
		if inString != 0 {
			b.WriteByte(ch)
			if ch == '\\' && i+1 < len(css) {
				i++
				b.WriteByte(css[i])
			} else if ch == inString {
				inString = 0
			}
			continue
		}
		switch {
		case ch == '"' || ch == '\'':
			inString = ch
			b.WriteByte(ch)
		case ch == '/' && i+1 < len(css) && css[i+1] == '*':
			end := strings.Index(css[i+2:], "*/")
			if end < 0 {
				return b.String() // unterminated comment swallows the rest
			}
			i += 2 + end + 1
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// indexOutsideString finds the next occurrence of target at or after start
// that is not inside a string literal.
func indexOutsideString(css string, start int, target byte) int {
	inString := byte(0)
	for i := start; i < len(css); i++ {
		ch := css[i]
		if inString != 0 {
			if ch == '\\' {
				i++
			} else if ch == inString {
				inString = 0
			}
			continue
		}
		if ch == '"' || ch == '\'' {
			inString = ch
			continue
		}
		if ch == target {
			return i
		}
	}
	return -1
}

// skipBlock advances past a balanced brace block opening at open, returning
// the index just after the matching close brace.
func skipBlock(css string, open int) int {
	depth := 0
	for i := open; i < len(css); i++ {
		switch css[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(css)
}

// splitOutsideString splits s on sep, ignoring separators inside string
// literals.
func splitOutsideString(s string, sep byte) []string {
	var parts []string
	start := 0
	for {
		i := indexOutsideString(s, start, sep)
		if i < 0 {
			parts = append(parts, s[start:])
			return parts
		}
		parts = append(parts, s[start:i])
		start = i + 1
	}
}
