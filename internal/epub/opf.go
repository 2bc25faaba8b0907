package epub

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
)

// pkgDocument mirrors the package document XML. Dublin Core elements are
// matched by namespace; non-namespaced fallbacks are handled separately.
type pkgDocument struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	UniqueID string      `xml:"unique-identifier,attr"`
	Metadata pkgMetadata `xml:"metadata"`
	Manifest *struct {
		Items []pkgManifestItem `xml:"item"`
	} `xml:"manifest"`
	Spine *struct {
		Toc      string `xml:"toc,attr"`
		ItemRefs []struct {
			IDRef  string `xml:"idref,attr"`
			Linear string `xml:"linear,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
	Guide struct {
		References []struct {
			Type  string `xml:"type,attr"`
			Title string `xml:"title,attr"`
			Href  string `xml:"href,attr"`
		} `xml:"reference"`
	} `xml:"guide"`
}

type pkgMetadata struct {
	Title      []string `xml:"http://purl.org/dc/elements/1.1/ title"`
	Language   []string `xml:"http://purl.org/dc/elements/1.1/ language"`
	Identifier []string `xml:"http://purl.org/dc/elements/1.1/ identifier"`
	Creator    []string `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Publisher  []string `xml:"http://purl.org/dc/elements/1.1/ publisher"`
	Date       []string `xml:"http://purl.org/dc/elements/1.1/ date"`
	Meta       []struct {
		Name    string `xml:"name,attr"`
		Content string `xml:"content,attr"`
	} `xml:"meta"`
}

type pkgManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

// ParsePackage parses package document bytes into a Package. opfDir is the
// directory containing the document, used to resolve manifest hrefs to
// archive-root-relative paths. A missing manifest or spine section is fatal.
func ParsePackage(data []byte, opfDir string) (*Package, error) {
	var doc pkgDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPackageMalformed, err)
	}
	if doc.Manifest == nil || len(doc.Manifest.Items) == 0 {
		return nil, fmt.Errorf("%w: no manifest section", ErrPackageMalformed)
	}
	if doc.Spine == nil || len(doc.Spine.ItemRefs) == 0 {
		return nil, fmt.Errorf("%w: no spine section", ErrPackageMalformed)
	}

	pkg := &Package{
		Manifest: make(map[string]ManifestItem, len(doc.Manifest.Items)),
	}
	pkg.Metadata = parseMetadata(&doc.Metadata, data)

	for _, item := range doc.Manifest.Items {
		mi := ManifestItem{
			ID:        item.ID,
			Href:      joinPath(opfDir, item.Href),
			MediaType: item.MediaType,
		}
		if item.Properties != "" {
			mi.Properties = strings.Fields(item.Properties)
		}
		if _, dup := pkg.Manifest[item.ID]; dup {
			continue // first declaration wins
		}
		pkg.Manifest[item.ID] = mi
		pkg.ManifestOrder = append(pkg.ManifestOrder, item.ID)
	}

	for _, ref := range doc.Spine.ItemRefs {
		pkg.Spine = append(pkg.Spine, SpineItem{
			IDRef:  ref.IDRef,
			Linear: ref.Linear != "no",
		})
	}
	if doc.Spine.Toc != "" {
		if item, ok := pkg.Manifest[doc.Spine.Toc]; ok {
			pkg.NCXPath = item.Href
		}
	}

	for _, ref := range doc.Guide.References {
		pkg.Guide = append(pkg.Guide, GuideReference{
			Type:  ref.Type,
			Title: ref.Title,
			Href:  joinPath(opfDir, ref.Href),
		})
	}

	return pkg, nil
}

// parseMetadata extracts title and language with three levels of fallback:
// dc-namespaced tags, unprefixed tags of the same local name, and finally a
// scan of the whole metadata subtree for elements whose tag merely ends in
// "title"/"language".
func parseMetadata(meta *pkgMetadata, raw []byte) Metadata {
	md := Metadata{
		Title:    first(meta.Title),
		Language: first(meta.Language),
	}
	md.Identifier = first(meta.Identifier)
	md.Creators = append(md.Creators, meta.Creator...)
	md.Publisher = first(meta.Publisher)
	md.Date = first(meta.Date)

	for _, m := range meta.Meta {
		if m.Name == "cover" && m.Content != "" {
			md.CoverID = m.Content
			break
		}
	}

	if md.Title == "" || md.Language == "" {
		scanMetadataSubtree(&md, raw)
	}
	return md
}

// scanMetadataSubtree walks the metadata element with etree, which does not
// care about namespaces or schema shape, and fills whatever is still empty.
func scanMetadataSubtree(md *Metadata, raw []byte) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return
	}
	root := doc.Root()
	if root == nil {
		return
	}
	meta := root.FindElement("metadata")
	if meta == nil {
		return
	}
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		tag := strings.ToLower(el.Tag)
		text := strings.TrimSpace(el.Text())
		if md.Title == "" && strings.HasSuffix(tag, "title") && text != "" {
			md.Title = text
		}
		if md.Language == "" && strings.HasSuffix(tag, "language") && text != "" {
			md.Language = text
		}
		for _, child := range el.ChildElements() {
			walk(child)
		}
	}
	walk(meta)
}

func first(vals []string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// joinPath resolves a package-relative href against the package directory.
func joinPath(base, rel string) string {
	if base == "" || base == "." {
		return filepath.ToSlash(filepath.Clean(rel))
	}
	return filepath.ToSlash(filepath.Clean(filepath.Join(base, rel)))
}
