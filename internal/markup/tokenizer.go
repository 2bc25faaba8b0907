package markup

import (
	"regexp"
	"strings"
)

// voidTags never take children and are never pushed on the builder stack.
var voidTags = map[string]bool{
	"img":   true,
	"br":    true,
	"hr":    true,
	"input": true,
	"meta":  true,
	"link":  true,
}

var (
	doctypeRe = regexp.MustCompile(`(?is)<!doctype[^>]*>`)
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	scriptRe  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe   = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	headRe    = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	bodyRe    = regexp.MustCompile(`(?is)<body[^>]*>(.*?)</body>`)
	htmlRe    = regexp.MustCompile(`(?i)</?html[^>]*>`)

	// tagRe matches one tag: close marker, name, attribute string.
	tagRe = regexp.MustCompile(`(?s)<(/?)\s*([a-zA-Z][a-zA-Z0-9:_-]*)((?:[^>"']|"[^"]*"|'[^']*')*)>`)

	// attrRe matches one attribute inside a tag's attribute string.
	attrRe = regexp.MustCompile(`([a-zA-Z_:][a-zA-Z0-9:._-]*)(?:\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>/]+)))?`)
)

// Parse converts content-document markup into a Tree. Parsing is a
// single-pass scan over three token classes (open tag, close tag, text run)
// feeding a stack-based builder. Recovery is permissive: unmatched closing
// tags are dropped, tags left open at the end of input keep whatever
// children they collected.
func Parse(raw []byte) *Tree {
	frag := extractFragment(string(raw))
	tree := &Tree{}
	var stack []NodeID

	parent := func() NodeID {
		if len(stack) == 0 {
			return NoNode
		}
		return stack[len(stack)-1]
	}
	attach := func(id NodeID) {
		if p := tree.Nodes[id].Parent; p == NoNode {
			tree.Roots = append(tree.Roots, id)
		} else {
			tree.Nodes[p].Children = append(tree.Nodes[p].Children, id)
		}
	}

	pos := 0
	for _, loc := range tagRe.FindAllStringSubmatchIndex(frag, -1) {
		if loc[0] > pos {
			addText(tree, attach, parent(), frag[pos:loc[0]])
		}
		pos = loc[1]

		closing := loc[2] != loc[3] // "/" group non-empty
		name := strings.ToLower(frag[loc[4]:loc[5]])
		attrStr := frag[loc[6]:loc[7]]

		if closing {
			// Pop to the nearest matching open tag; ignore when none.
			match := -1
			for i := len(stack) - 1; i >= 0; i-- {
				if tree.Nodes[stack[i]].Tag == name {
					match = i
					break
				}
			}
			if match >= 0 {
				stack = stack[:match]
			}
			continue
		}

		selfClosing := strings.HasSuffix(strings.TrimSpace(attrStr), "/")
		id := tree.add(Node{
			Tag:    name,
			Attrs:  parseAttrs(attrStr),
			Parent: parent(),
		})
		attach(id)
		if !voidTags[name] && !selfClosing {
			stack = append(stack, id)
		}
	}
	if pos < len(frag) {
		addText(tree, attach, parent(), frag[pos:])
	}
	return tree
}

func addText(tree *Tree, attach func(NodeID), parent NodeID, run string) {
	text := strings.TrimSpace(DecodeEntities(run))
	if text == "" {
		return
	}
	id := tree.add(Node{Tag: TextTag, Text: text, Parent: parent})
	attach(id)
}

// parseAttrs parses a tag's attribute string. Attributes without a value
// (boolean attributes) default to "true".
func parseAttrs(attrStr string) map[string]string {
	attrStr = strings.TrimSuffix(strings.TrimSpace(attrStr), "/")
	if strings.TrimSpace(attrStr) == "" {
		return nil
	}
	attrs := make(map[string]string)
	for _, m := range attrRe.FindAllStringSubmatchIndex(attrStr, -1) {
		name := strings.ToLower(attrStr[m[2]:m[3]])
		// Submatch indices distinguish a valueless attribute from attr="".
		val := "true"
		for g := 2; g <= 4; g++ {
			if m[2*g] >= 0 {
				val = DecodeEntities(attrStr[m[2*g]:m[2*g+1]])
				break
			}
		}
		attrs[name] = val
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// extractFragment strips the regions the tokenizer never sees (doctype,
// comments, script, style, head, html wrappers) and concatenates body
// regions when present; otherwise the whole cleaned fragment is returned.
func extractFragment(doc string) string {
	doc = commentRe.ReplaceAllString(doc, "")
	doc = doctypeRe.ReplaceAllString(doc, "")
	doc = scriptRe.ReplaceAllString(doc, "")
	doc = styleRe.ReplaceAllString(doc, "")
	doc = headRe.ReplaceAllString(doc, "")

	if bodies := bodyRe.FindAllStringSubmatch(doc, -1); len(bodies) > 0 {
		var b strings.Builder
		for _, m := range bodies {
			b.WriteString(m[1])
		}
		return b.String()
	}
	return htmlRe.ReplaceAllString(doc, "")
}
