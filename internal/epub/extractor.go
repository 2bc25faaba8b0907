package epub

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// scratchPrefix names the per-import scratch directories so stale ones can
// be recognized and swept.
const scratchPrefix = "epubtree-"

// staleAfter is how old a scratch directory must be before the sweep removes
// it. Younger directories may belong to a concurrent import.
const staleAfter = time.Hour

// Extraction is an unpacked archive in a scratch directory. The caller owns
// the directory and removes it with Close when the reading session ends.
type Extraction struct {
	Root string // scratch directory containing the unpacked archive
}

// Close removes the scratch directory and everything under it.
func (e *Extraction) Close() error {
	if e.Root == "" {
		return nil
	}
	return os.RemoveAll(e.Root)
}

// ResolveSource turns a source locator into a readable local file path.
// It accepts a plain path, a file:// URI, and URL-encoded forms of either.
// A locator that fails as given is retried once in a normalized form before
// the whole resolution fails.
func ResolveSource(loc string) (string, error) {
	p, err := resolveOnce(loc)
	if err == nil {
		return p, nil
	}
	if alt := normalizeLocator(loc); alt != loc {
		if p, retryErr := resolveOnce(alt); retryErr == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: cannot resolve source %q: %v", ErrExtraction, loc, err)
}

func resolveOnce(loc string) (string, error) {
	path := loc
	if strings.Contains(loc, "://") {
		u, err := url.Parse(loc)
		if err != nil {
			return "", err
		}
		if u.Scheme != "file" {
			return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
		}
		path = u.Path
	} else if decoded, err := url.PathUnescape(loc); err == nil && decoded != loc {
		// URL-encoded plain path: prefer the decoded form if it exists.
		if _, statErr := os.Stat(decoded); statErr == nil {
			path = decoded
		}
	}

	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// normalizeLocator produces the retry form of a locator: a bare path gains a
// file:// prefix, a file:// URI loses it.
func normalizeLocator(loc string) string {
	if strings.HasPrefix(loc, "file://") {
		return strings.TrimPrefix(loc, "file://")
	}
	if !strings.Contains(loc, "://") {
		return "file://" + loc
	}
	return loc
}

// Extract resolves loc, sweeps stale scratch directories under workRoot, and
// unpacks the archive into a fresh uniquely named directory there. Each call
// gets its own directory, so concurrent imports never share a scratch path.
func Extract(ctx context.Context, loc, workRoot string, log *zap.Logger) (*Extraction, error) {
	path, err := ResolveSource(loc)
	if err != nil {
		return nil, err
	}
	return extractFile(ctx, path, workRoot, log)
}

// ExtractReader serves source handles that only support sequential reads:
// the bytes are copied into the scratch area first, then unpacked as usual.
func ExtractReader(ctx context.Context, r io.Reader, workRoot string, log *zap.Logger) (*Extraction, error) {
	if err := os.MkdirAll(workRoot, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	tmp, err := os.CreateTemp(workRoot, scratchPrefix+"copy-*.epub")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: copy-before-read: %v", ErrExtraction, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return extractFile(ctx, tmp.Name(), workRoot, log)
}

func extractFile(ctx context.Context, path, workRoot string, log *zap.Logger) (*Extraction, error) {
	if err := os.MkdirAll(workRoot, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	sweepStale(workRoot, log)

	dir, err := os.MkdirTemp(workRoot, scratchPrefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	if err := unzip(ctx, path, dir); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return &Extraction{Root: dir}, nil
}

// sweepStale removes leftover scratch directories from previous failed runs.
// Only directories carrying our prefix and older than staleAfter are touched.
func sweepStale(workRoot string, log *zap.Logger) {
	entries, err := os.ReadDir(workRoot)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-staleAfter)
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), scratchPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		full := filepath.Join(workRoot, e.Name())
		if err := os.RemoveAll(full); err != nil {
			log.Warn("failed to remove stale scratch directory",
				zap.String("dir", full), zap.Error(err))
		} else {
			log.Debug("removed stale scratch directory", zap.String("dir", full))
		}
	}
}

// unzip unpacks the archive at src into dstDir, refusing entry names that
// would escape the destination.
func unzip(ctx context.Context, src, dstDir string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrExtraction, err)
		}
		name := filepath.FromSlash(strings.TrimPrefix(f.Name, "./"))
		dst := filepath.Join(dstDir, name)
		if !strings.HasPrefix(dst, filepath.Clean(dstDir)+string(os.PathSeparator)) {
			return fmt.Errorf("%w: entry %q escapes the scratch directory", ErrExtraction, f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return fmt.Errorf("%w: %v", ErrExtraction, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("%w: %v", ErrExtraction, err)
		}
		if err := writeEntry(f, dst); err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: open %q: %v", ErrExtraction, f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("%w: write %q: %v", ErrExtraction, dst, err)
	}
	return nil
}
