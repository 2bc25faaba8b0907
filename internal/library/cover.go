package library

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Thumbnail bounding box. Covers keep their aspect ratio inside it.
const (
	thumbWidth  = 400
	thumbHeight = 600
)

// RenderCoverThumb decodes the cover image at srcPath, fits it into the
// thumbnail box, and writes it as JPEG under coverDir named by the record
// id. Returns the written path.
func RenderCoverThumb(srcPath, coverDir, id string) (string, error) {
	img, err := imaging.Open(srcPath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode cover %s: %w", srcPath, err)
	}
	thumb := imaging.Fit(img, thumbWidth, thumbHeight, imaging.Lanczos)

	if err := os.MkdirAll(coverDir, 0o755); err != nil {
		return "", fmt.Errorf("cover dir: %w", err)
	}
	dst := filepath.Join(coverDir, id+".jpg")
	if err := imaging.Save(thumb, dst, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("save cover thumb: %w", err)
	}
	return dst, nil
}
