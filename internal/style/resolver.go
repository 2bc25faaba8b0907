package style

import (
	"strings"

	"go.uber.org/zap"
)

// Resolver accumulates stylesheets and answers style lookups for nodes.
// Rules are bucketed by normalized selector key; within one key, later
// sheets overwrite earlier ones property by property. Across keys the
// precedence at lookup time is inline > id > class > tag.
type Resolver struct {
	rules map[string]Props
	seen  map[string]bool // sheet paths already merged
	log   *zap.Logger
}

// NewResolver returns an empty resolver.
func NewResolver(log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		rules: make(map[string]Props),
		seen:  make(map[string]bool),
		log:   log,
	}
}

// AddSheet tokenizes and merges one stylesheet. Sheets already merged under
// the same path are skipped, which deduplicates stylesheets shared by many
// spine documents. A sheet that yields no rules is logged and otherwise
// ignored.
func (r *Resolver) AddSheet(sheet Sheet) {
	if sheet.Path != "" {
		if r.seen[sheet.Path] {
			return
		}
		r.seen[sheet.Path] = true
	}

	rules := scanRules(sheet.Text)
	if len(rules) == 0 {
		r.log.Debug("stylesheet produced no rules", zap.String("path", sheet.Path))
		return
	}

	added := 0
	for _, rule := range rules {
		props := make(Props)
		for _, d := range rule.decls {
			props.merge(resolveDecl(d.prop, d.val))
		}
		if len(props) == 0 {
			continue
		}
		for _, sel := range rule.selectors {
			key, _, ok := normalizeSelector(sel)
			if !ok {
				continue
			}
			existing, found := r.rules[key]
			if !found {
				existing = make(Props)
				r.rules[key] = existing
			}
			existing.merge(props)
			added++
		}
	}
	r.log.Debug("stylesheet merged",
		zap.String("path", sheet.Path), zap.Int("selectors", added))
}

// Rules exposes the flattened selector → properties map.
func (r *Resolver) Rules() map[string]Props {
	return r.rules
}

// Resolve computes the effective properties for a node. class may hold
// several space-separated names; they apply in attribute order. inline is
// the node's parsed style attribute and wins over everything.
func (r *Resolver) Resolve(tag, class, id string, inline Props) Props {
	out := make(Props)
	if tag != "" {
		out.merge(r.rules[strings.ToLower(tag)])
	}
	for _, c := range strings.Fields(class) {
		out.merge(r.rules["."+c])
	}
	if id != "" {
		out.merge(r.rules["#"+id])
	}
	out.merge(inline)
	return out
}

// ParseInline converts a style attribute value into resolved properties.
func ParseInline(styleAttr string) Props {
	out := make(Props)
	for _, d := range parseDecls(styleAttr) {
		out.merge(resolveDecl(d.prop, d.val))
	}
	return out
}
