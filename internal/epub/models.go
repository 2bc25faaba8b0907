package epub

import "strings"

// Package represents the parsed package document (manifest, spine, metadata).
type Package struct {
	Metadata      Metadata
	Manifest      map[string]ManifestItem // id -> item
	ManifestOrder []string                // ids in document order
	Spine         []SpineItem
	NCXPath       string // resolved from the spine toc attribute, if any
	Guide         []GuideReference
}

// Metadata holds the package metadata this pipeline cares about.
type Metadata struct {
	Title      string
	Language   string
	Identifier string
	Creators   []string
	Publisher  string
	Date       string
	CoverID    string // EPUB 2 cover manifest id (meta name="cover")
}

// ManifestItem is one manifest entry: id, href relative to the archive
// root, and media type. Built once per import and never mutated.
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string
}

// SpineItem is an ordered reference into the manifest. Spine order defines
// reading order; the content tree is assembled in exactly this order.
type SpineItem struct {
	IDRef  string
	Linear bool
}

// GuideReference is an EPUB 2 guide entry (used for cover detection).
type GuideReference struct {
	Type  string
	Title string
	Href  string
}

// NavPoint is one node of the table of contents. Children nest without a
// fixed depth limit, though real books rarely go past four levels.
type NavPoint struct {
	ID        string
	PlayOrder int
	Label     string
	Src       string // href, possibly carrying a #fragment
	Children  []NavPoint
}

// SplitFragment splits a NavPoint src into its path and fragment parts.
func SplitFragment(src string) (path, fragment string) {
	if src == "" {
		return "", ""
	}
	if i := strings.IndexByte(src, '#'); i >= 0 {
		return src[:i], src[i+1:]
	}
	return src, ""
}
