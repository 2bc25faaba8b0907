package epub

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseNav parses an EPUB 3 navigation document into a NavPoint forest.
// Used when the archive has no NCX. The toc nav element is preferred; when
// no nav carries epub:type="toc", the first nav in the document is taken.
func ParseNav(data []byte) ([]NavPoint, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse nav document: %w", err)
	}

	nav := selectTocNav(doc)
	if nav == nil {
		return nil, fmt.Errorf("parse nav document: no nav element")
	}
	list := nav.Find("ol").First()
	if list.Length() == 0 {
		return nil, fmt.Errorf("parse nav document: nav has no ol list")
	}
	return parseNavList(list), nil
}

func selectTocNav(doc *goquery.Document) *goquery.Selection {
	var toc *goquery.Selection
	doc.Find("nav").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		typ, _ := s.Attr("epub:type")
		if typ == "toc" || s.AttrOr("role", "") == "doc-toc" {
			toc = s
			return false
		}
		return true
	})
	if toc != nil {
		return toc
	}
	if first := doc.Find("nav").First(); first.Length() > 0 {
		return first
	}
	return nil
}

func parseNavList(list *goquery.Selection) []NavPoint {
	var points []NavPoint
	list.ChildrenFiltered("li").Each(func(i int, li *goquery.Selection) {
		np := NavPoint{PlayOrder: i + 1}
		if a := li.ChildrenFiltered("a").First(); a.Length() > 0 {
			np.Label = strings.TrimSpace(a.Text())
			np.Src = a.AttrOr("href", "")
			np.ID = a.AttrOr("id", "")
		} else if span := li.ChildrenFiltered("span").First(); span.Length() > 0 {
			// Headings without targets still label their subtree.
			np.Label = strings.TrimSpace(span.Text())
		}
		if nested := li.ChildrenFiltered("ol").First(); nested.Length() > 0 {
			np.Children = parseNavList(nested)
		}
		points = append(points, np)
	})
	return points
}
