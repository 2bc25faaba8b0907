package content

import (
	"path/filepath"
	"strings"

	"github.com/awataru/epubtree/internal/markup"
)

// RewriteImageSources resolves every relative img src in the tree against
// the directory of the owning content document, so downstream consumers see
// archive-root-relative paths. Absolute paths and scheme-carrying URLs are
// left alone.
func RewriteImageSources(tree *markup.Tree, docPath string) {
	baseDir := filepath.ToSlash(filepath.Dir(docPath))
	tree.Walk(func(_ markup.NodeID, n *markup.Node) {
		if n.Tag != "img" {
			return
		}
		src := n.Attrs["src"]
		if src == "" || strings.Contains(src, "://") || strings.HasPrefix(src, "/") {
			return
		}
		n.Attrs["src"] = filepath.ToSlash(filepath.Clean(filepath.Join(baseDir, src)))
	})
}

// ExtractText flattens a tree to its text runs, space-joined in document
// order. Markup is gone and entities were already decoded during parsing.
func ExtractText(tree *markup.Tree) string {
	var parts []string
	tree.Walk(func(_ markup.NodeID, n *markup.Node) {
		if n.Tag == markup.TextTag && n.Text != "" {
			parts = append(parts, n.Text)
		}
	})
	return strings.Join(parts, " ")
}

// Sentence length window. Fragments shorter than the floor are noise
// (initials, page numbers); longer than the ceiling they are unusable for
// sampling or read-aloud chunks.
const (
	minSentenceLen = 15
	maxSentenceLen = 200
)

// sentenceTerminals are the codepoints a sentence may end on, Latin and
// CJK forms both.
var sentenceTerminals = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true, '…': true,
}

// Sentences splits plain text into sentence fragments on terminal
// punctuation, keeping only fragments inside the length window. Fragments
// still containing angle brackets are rejected: those are parse leakage,
// not prose.
func Sentences(text string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		s := strings.TrimSpace(b.String())
		b.Reset()
		if len(s) < minSentenceLen || len(s) > maxSentenceLen {
			return
		}
		if strings.ContainsAny(s, "<>") {
			return
		}
		out = append(out, s)
	}
	for _, r := range text {
		b.WriteRune(r)
		if sentenceTerminals[r] {
			flush()
		}
	}
	flush()
	return out
}
