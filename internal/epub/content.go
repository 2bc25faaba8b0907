package epub

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ContentDoc is the per-spine-item scan result: the raw markup plus the
// assets discovered in it. The structural tree itself is built elsewhere;
// this scan only answers "what does this document reference".
type ContentDoc struct {
	ID        string // manifest id
	Path      string // archive-root-relative path
	Raw       []byte
	CSSLinks  []string // stylesheet hrefs, resolved against the document dir
	InlineCSS []string // contents of <style> blocks, in document order
	Title     string   // first heading or <title>, for spine-derived TOC labels
}

// ScanContent inspects a content document for stylesheet links, embedded
// style blocks, and a usable title. Scanning is best-effort: a document that
// goquery cannot parse still comes back with its raw bytes so the permissive
// tokenizer downstream gets its chance.
func ScanContent(id, docPath string, raw []byte) *ContentDoc {
	c := &ContentDoc{ID: id, Path: docPath, Raw: raw}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return c
	}

	baseDir := filepath.ToSlash(filepath.Dir(docPath))

	doc.Find("link[rel='stylesheet']").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			c.CSSLinks = append(c.CSSLinks, resolveHref(baseDir, href))
		}
	})
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		if css := strings.TrimSpace(s.Text()); css != "" {
			c.InlineCSS = append(c.InlineCSS, css)
		}
	})

	for _, sel := range []string{"h1", "h2", "h3", "title"} {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			c.Title = t
			break
		}
	}

	return c
}

// resolveHref resolves a document-relative href to an archive-root-relative
// path. Absolute paths and scheme-carrying URLs pass through untouched.
func resolveHref(baseDir, href string) string {
	if strings.Contains(href, "://") || strings.HasPrefix(href, "/") {
		return href
	}
	return filepath.ToSlash(filepath.Clean(filepath.Join(baseDir, href)))
}
