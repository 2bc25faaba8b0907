package epub

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// ParseNCX parses a legacy navigation document (NCX) into a NavPoint forest.
// etree is used instead of encoding/xml because NCX files in the wild carry
// inconsistent namespaces and stray elements; a plain DOM walk shrugs those
// off.
func ParseNCX(data []byte) ([]NavPoint, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse ncx: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parse ncx: empty document")
	}
	navMap := findChildByTag(root, "navMap")
	if navMap == nil {
		return nil, fmt.Errorf("parse ncx: no navMap element")
	}
	return parseNavPoints(navMap), nil
}

func parseNavPoints(parent *etree.Element) []NavPoint {
	var points []NavPoint
	for _, el := range parent.ChildElements() {
		if !strings.EqualFold(el.Tag, "navPoint") {
			continue
		}
		np := NavPoint{
			ID: el.SelectAttrValue("id", ""),
		}
		if po := el.SelectAttrValue("playOrder", ""); po != "" {
			if n, err := strconv.Atoi(po); err == nil {
				np.PlayOrder = n
			}
		}
		if label := findChildByTag(el, "navLabel"); label != nil {
			if text := findChildByTag(label, "text"); text != nil {
				np.Label = strings.TrimSpace(text.Text())
			}
		}
		if content := findChildByTag(el, "content"); content != nil {
			np.Src = content.SelectAttrValue("src", "")
		}
		np.Children = parseNavPoints(el)
		points = append(points, np)
	}
	return points
}

// findChildByTag returns the first direct child with the given local tag
// name, ignoring case and namespace prefixes.
func findChildByTag(el *etree.Element, tag string) *etree.Element {
	for _, child := range el.ChildElements() {
		if strings.EqualFold(child.Tag, tag) {
			return child
		}
	}
	return nil
}
