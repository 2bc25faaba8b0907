package epub

import (
	"path"
	"strings"
)

// FindCover locates the cover image in the manifest. Detection methods in
// priority order: the EPUB 3 cover-image property, the EPUB 2 meta
// name="cover" id, a guide reference of type cover that points at an image,
// and finally any image whose basename contains "cover".
func (p *Package) FindCover() (ManifestItem, bool) {
	for _, id := range p.ManifestOrder {
		item := p.Manifest[id]
		for _, prop := range item.Properties {
			if prop == "cover-image" {
				return item, true
			}
		}
	}

	if p.Metadata.CoverID != "" {
		if item, ok := p.Manifest[p.Metadata.CoverID]; ok {
			return item, true
		}
	}

	for _, ref := range p.Guide {
		if ref.Type != "cover" {
			continue
		}
		href, _ := SplitFragment(ref.Href)
		for _, id := range p.ManifestOrder {
			item := p.Manifest[id]
			if isRasterImage(item.MediaType) && item.Href == href {
				return item, true
			}
		}
	}

	for _, id := range p.ManifestOrder {
		item := p.Manifest[id]
		if !isRasterImage(item.MediaType) {
			continue
		}
		if strings.Contains(strings.ToLower(path.Base(item.Href)), "cover") {
			return item, true
		}
	}

	return ManifestItem{}, false
}

// isRasterImage reports whether a media type is a decodable raster image.
// SVG is excluded: it cannot feed the thumbnail pipeline.
func isRasterImage(mediaType string) bool {
	if mediaType == "image/svg+xml" {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}
