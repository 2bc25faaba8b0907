package epub

import (
	"encoding/xml"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// container.xml structure (META-INF/container.xml)
type container struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

// LocatePackage finds the package document inside an extracted archive and
// returns its path relative to root. Correct archives declare it in
// META-INF/container.xml; broken ones fall back to a recursive walk where
// the first *.opf in lexical order wins.
func LocatePackage(root string) (string, error) {
	if p, ok := locateViaContainer(root); ok {
		return p, nil
	}
	return locateByWalk(root)
}

func locateViaContainer(root string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(root, "META-INF", "container.xml"))
	if err != nil {
		return "", false
	}
	var c container
	if err := xml.Unmarshal(data, &c); err != nil {
		return "", false
	}
	for _, rf := range c.Rootfiles.Rootfile {
		if rf.MediaType != "application/oebps-package+xml" && rf.MediaType != "" {
			continue
		}
		rel := filepath.FromSlash(strings.TrimPrefix(rf.FullPath, "./"))
		if _, err := os.Stat(filepath.Join(root, rel)); err == nil {
			return rel, true
		}
	}
	return "", false
}

func locateByWalk(root string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep looking elsewhere
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".opf") {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil || found == "" {
		return "", ErrPackageNotFound
	}
	rel, err := filepath.Rel(root, found)
	if err != nil {
		return "", ErrPackageNotFound
	}
	return rel, nil
}
