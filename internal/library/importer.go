package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/awataru/epubtree/internal/content"
	"github.com/awataru/epubtree/internal/epub"
	"github.com/awataru/epubtree/internal/lang"
	"github.com/awataru/epubtree/internal/markup"
	"github.com/awataru/epubtree/internal/style"
)

// ContentDocument pairs one spine document's archive path with its parsed
// tree. Documents appear in BookRecord.Content in exact spine order.
type ContentDocument struct {
	Path string
	Tree *markup.Tree
}

// BookRecord is the pipeline's final output: everything a renderer needs to
// present the book. Immutable once returned; Close releases the scratch
// directory when the reading session ends.
type BookRecord struct {
	ID              string
	Title           string
	BasePath        string // scratch directory holding the unpacked archive
	Language        string
	Content         []ContentDocument
	Styles          map[string]style.Props
	TableOfContents []epub.NavPoint

	extraction *epub.Extraction
}

// Close removes the unpacked archive. Call it when the reading session is
// over; content image paths are dead afterwards.
func (b *BookRecord) Close() error {
	if b.extraction == nil {
		return nil
	}
	return b.extraction.Close()
}

// ImportOptions configures an Importer.
type ImportOptions struct {
	WorkDir  string // scratch area for extractions
	CoverDir string // where cover thumbnails are written; empty disables them
}

// Importer runs the whole ingestion pipeline: extraction, package and
// navigation parsing, markup and stylesheet resolution, normalization,
// language resolution, duplicate detection, and metadata persistence.
type Importer struct {
	store *MetadataStore // may be nil: no persistence, no duplicate check
	langs *lang.Resolver
	opts  ImportOptions
	log   *zap.Logger
}

// NewImporter wires an importer. store may be nil for one-shot use.
func NewImporter(store *MetadataStore, langs *lang.Resolver, opts ImportOptions, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	if langs == nil {
		langs = lang.NewResolver(nil, log)
	}
	if opts.WorkDir == "" {
		opts.WorkDir = filepath.Join(os.TempDir(), "epubtree")
	}
	return &Importer{store: store, langs: langs, opts: opts, log: log}
}

// Import ingests the archive behind loc and returns its BookRecord. Only
// extraction and package-document failures are fatal; individual content
// documents, stylesheets, covers, and language detection degrade with a
// warning.
func (im *Importer) Import(ctx context.Context, loc string) (*BookRecord, error) {
	path, err := epub.ResolveSource(loc)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", epub.ErrExtraction, err)
	}

	// Duplicate detection runs before extraction: a known book reuses its
	// record and the freshly picked duplicate file is dropped.
	var known *BookMetadataRecord
	if im.store != nil {
		known, err = im.store.FindDuplicate(path, fi.Size())
		if err != nil {
			im.log.Warn("duplicate check failed", zap.Error(err))
		}
		if known != nil {
			im.log.Info("duplicate book detected, reusing existing record",
				zap.String("id", known.ID), zap.String("path", path))
			if !samePath(path, known.FilePath) {
				if _, statErr := os.Stat(known.FilePath); statErr == nil {
					if rmErr := os.Remove(path); rmErr != nil {
						im.log.Warn("could not remove duplicate file", zap.Error(rmErr))
					}
					path = known.FilePath
				}
			}
		}
	}

	ext, err := epub.Extract(ctx, path, im.opts.WorkDir, im.log)
	if err != nil {
		return nil, err
	}
	book, err := im.build(ctx, ext, path, fi, known)
	if err != nil {
		ext.Close()
		return nil, err
	}
	return book, nil
}

func (im *Importer) build(ctx context.Context, ext *epub.Extraction, path string, fi os.FileInfo, known *BookMetadataRecord) (*BookRecord, error) {
	opfRel, err := epub.LocatePackage(ext.Root)
	if err != nil {
		return nil, err
	}
	opfData, err := os.ReadFile(filepath.Join(ext.Root, opfRel))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", epub.ErrPackageNotFound, err)
	}
	pkg, err := epub.ParsePackage(opfData, filepath.ToSlash(filepath.Dir(opfRel)))
	if err != nil {
		return nil, err
	}

	docs := im.loadSpine(ctx, ext.Root, pkg)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", epub.ErrExtraction, err)
	}

	styles := im.resolveStyles(ext.Root, pkg, docs)
	toc := im.assembleTOC(ext.Root, pkg, docs)

	var fullText strings.Builder
	for _, d := range docs {
		if d.tree != nil {
			fullText.WriteString(content.ExtractText(d.tree))
			fullText.WriteString("\n\n")
		}
	}
	language := im.langs.Resolve(ctx, pkg.Metadata.Language, fullText.String())

	title := strings.TrimSpace(pkg.Metadata.Title)
	if title == "" {
		title = fileStem(path)
	}

	digest := ""
	id := ""
	if known != nil {
		id, digest = known.ID, known.Digest
	}
	if id == "" {
		if digest, err = Digest(path); err != nil {
			im.log.Warn("content digest failed, falling back to sanitized name",
				zap.Error(err))
			id = SanitizeID(path)
		} else {
			id = DeriveID(digest)
		}
	}

	coverPath := im.renderCover(ext.Root, pkg, id)

	if im.store != nil {
		rec := BookMetadataRecord{
			ID:           id,
			LegacyID:     SanitizeID(path),
			FilePath:     path,
			Title:        title,
			CoverPath:    coverPath,
			LastModified: fi.ModTime(),
			FileSize:     fi.Size(),
			LastRead:     time.Now(),
			Digest:       digest,
		}
		if err := im.store.Upsert(rec); err != nil {
			im.log.Warn("metadata persistence failed", zap.Error(err))
		}
	}

	book := &BookRecord{
		ID:              id,
		Title:           title,
		BasePath:        ext.Root,
		Language:        language,
		Styles:          styles.Rules(),
		TableOfContents: toc,
		extraction:      ext,
	}
	for _, d := range docs {
		if d.tree == nil {
			continue // document failed to parse, contributes nothing
		}
		book.Content = append(book.Content, ContentDocument{Path: d.scan.Path, Tree: d.tree})
	}
	return book, nil
}

// spineDoc is one spine item mid-pipeline.
type spineDoc struct {
	scan *epub.ContentDoc
	tree *markup.Tree
}

// loadSpine reads and parses every spine content document. Reads fan out
// concurrently; each writes a distinct slot, so spine order is preserved in
// the join. A document that cannot be read or parsed is logged and left
// nil.
func (im *Importer) loadSpine(ctx context.Context, root string, pkg *epub.Package) []spineDoc {
	type task struct {
		idx  int
		item epub.ManifestItem
	}
	var tasks []task
	for _, si := range pkg.Spine {
		item, ok := pkg.Manifest[si.IDRef]
		if !ok {
			im.log.Warn("spine idref missing from manifest, skipping",
				zap.String("idref", si.IDRef))
			continue
		}
		if !isMarkup(item.MediaType, item.Href) {
			continue
		}
		tasks = append(tasks, task{idx: len(tasks), item: item})
	}

	docs := make([]spineDoc, len(tasks))
	var wg sync.WaitGroup
	for _, t := range tasks {
		wg.Add(1)
		go func(t task) {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(t.item.Href)))
			if err != nil {
				im.log.Warn("cannot read content document, skipping",
					zap.String("href", t.item.Href), zap.Error(err))
				return
			}
			scan := epub.ScanContent(t.item.ID, t.item.Href, raw)
			tree := markup.Parse(raw)
			content.RewriteImageSources(tree, t.item.Href)
			docs[t.idx] = spineDoc{scan: scan, tree: tree}
		}(t)
	}
	wg.Wait()

	// Drop slots whose read failed while keeping relative order.
	out := docs[:0]
	for _, d := range docs {
		if d.scan != nil {
			out = append(out, d)
		}
	}
	return out
}

// resolveStyles merges every stylesheet the book carries: manifest CSS
// items first, then <style> blocks per document. Sheet failures only cost
// that sheet's rules.
func (im *Importer) resolveStyles(root string, pkg *epub.Package, docs []spineDoc) *style.Resolver {
	resolver := style.NewResolver(im.log)

	for _, id := range pkg.ManifestOrder {
		item := pkg.Manifest[id]
		if !isCSS(item.MediaType, item.Href) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(item.Href)))
		if err != nil {
			im.log.Warn("cannot read stylesheet, skipping",
				zap.String("href", item.Href), zap.Error(err))
			continue
		}
		resolver.AddSheet(style.Sheet{Path: item.Href, Text: string(data)})
	}

	for _, d := range docs {
		for i, css := range d.scan.InlineCSS {
			resolver.AddSheet(style.Sheet{
				Path: fmt.Sprintf("%s#style-%d", d.scan.Path, i),
				Text: css,
			})
		}
	}
	return resolver
}

// assembleTOC builds the table of contents: NCX first, EPUB 3 nav document
// second, synthesized spine entries last. Cover and title pages are dropped
// from the TOC (they stay in the content tree). NavPoints are correlated
// back into the trees via node NavIDs for deep-linking.
func (im *Importer) assembleTOC(root string, pkg *epub.Package, docs []spineDoc) []epub.NavPoint {
	var points []epub.NavPoint

	if ncxPath := findNCXPath(pkg); ncxPath != "" {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(ncxPath)))
		if err == nil {
			if parsed, perr := epub.ParseNCX(data); perr == nil {
				points = rebaseNavPoints(parsed, filepath.ToSlash(filepath.Dir(ncxPath)))
			} else {
				im.log.Warn("ncx parse failed", zap.String("path", ncxPath), zap.Error(perr))
			}
		} else {
			im.log.Warn("ncx unreadable", zap.String("path", ncxPath), zap.Error(err))
		}
	}

	if len(points) == 0 {
		if navPath := findNavDocPath(pkg); navPath != "" {
			data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(navPath)))
			if err == nil {
				if parsed, perr := epub.ParseNav(data); perr == nil {
					points = rebaseNavPoints(parsed, filepath.ToSlash(filepath.Dir(navPath)))
				} else {
					im.log.Warn("nav document parse failed",
						zap.String("path", navPath), zap.Error(perr))
				}
			}
		}
	}

	if len(points) == 0 {
		points = synthesizeTOC(docs)
	}

	points = excludeFrontMatter(points)
	im.correlateNavIDs(points, docs)
	return points
}

// findNCXPath resolves the NCX location: the spine toc attribute, else any
// manifest item with the NCX media type or extension.
func findNCXPath(pkg *epub.Package) string {
	if pkg.NCXPath != "" {
		return pkg.NCXPath
	}
	for _, id := range pkg.ManifestOrder {
		item := pkg.Manifest[id]
		if item.MediaType == "application/x-dtbncx+xml" ||
			strings.EqualFold(filepath.Ext(item.Href), ".ncx") {
			return item.Href
		}
	}
	return ""
}

// findNavDocPath locates the EPUB 3 nav document by manifest property.
func findNavDocPath(pkg *epub.Package) string {
	for _, id := range pkg.ManifestOrder {
		item := pkg.Manifest[id]
		for _, prop := range item.Properties {
			if prop == "nav" {
				return item.Href
			}
		}
	}
	return ""
}

// synthesizeTOC makes one flat entry per spine document when the book has no
// navigation document at all. Labels come from the document's heading or
// title, else from the filename.
func synthesizeTOC(docs []spineDoc) []epub.NavPoint {
	points := make([]epub.NavPoint, 0, len(docs))
	for i, d := range docs {
		label := d.scan.Title
		if label == "" {
			label = fileStem(d.scan.Path)
		}
		points = append(points, epub.NavPoint{
			ID:        fmt.Sprintf("spine-%d", i+1),
			PlayOrder: i + 1,
			Label:     label,
			Src:       d.scan.Path,
		})
	}
	return points
}

// rebaseNavPoints resolves NavPoint srcs (relative to the navigation
// document) into archive-root-relative paths.
func rebaseNavPoints(points []epub.NavPoint, baseDir string) []epub.NavPoint {
	for i := range points {
		p, frag := epub.SplitFragment(points[i].Src)
		if p != "" && !strings.Contains(p, "://") && !strings.HasPrefix(p, "/") {
			p = filepath.ToSlash(filepath.Clean(filepath.Join(baseDir, p)))
		}
		if frag != "" {
			points[i].Src = p + "#" + frag
		} else {
			points[i].Src = p
		}
		points[i].Children = rebaseNavPoints(points[i].Children, baseDir)
	}
	return points
}

// frontMatterMarkers identify cover and title pages by label or href
// substring. Matching entries leave the TOC but not the content tree.
var frontMatterMarkers = []string{"cover", "titlepage", "title page", "title-page"}

func excludeFrontMatter(points []epub.NavPoint) []epub.NavPoint {
	var out []epub.NavPoint
	for _, p := range points {
		if isFrontMatter(p) {
			continue
		}
		p.Children = excludeFrontMatter(p.Children)
		out = append(out, p)
	}
	return out
}

func isFrontMatter(p epub.NavPoint) bool {
	label := strings.ToLower(p.Label)
	href := strings.ToLower(p.Src)
	for _, m := range frontMatterMarkers {
		if strings.Contains(label, m) || strings.Contains(href, m) {
			return true
		}
	}
	return false
}

// correlateNavIDs writes each NavPoint's id onto the node it targets: the
// fragment's element when given, else the first root node of the target
// document.
func (im *Importer) correlateNavIDs(points []epub.NavPoint, docs []spineDoc) {
	byPath := make(map[string]*markup.Tree, len(docs))
	for _, d := range docs {
		if d.tree != nil {
			byPath[d.scan.Path] = d.tree
		}
	}
	var visit func(points []epub.NavPoint)
	visit = func(points []epub.NavPoint) {
		for _, p := range points {
			path, frag := epub.SplitFragment(p.Src)
			tree, ok := byPath[path]
			if ok && p.ID != "" {
				if frag != "" {
					if id, found := tree.FindByAttrID(frag); found {
						tree.Node(id).NavID = p.ID
					}
				} else if len(tree.Roots) > 0 {
					tree.Node(tree.Roots[0]).NavID = p.ID
				}
			}
			visit(p.Children)
		}
	}
	visit(points)
}

func isMarkup(mediaType, href string) bool {
	if strings.Contains(mediaType, "html") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(href))
	return mediaType == "" && (ext == ".html" || ext == ".xhtml" || ext == ".htm")
}

func isCSS(mediaType, href string) bool {
	return mediaType == "text/css" || strings.EqualFold(filepath.Ext(href), ".css")
}

func (im *Importer) renderCover(root string, pkg *epub.Package, id string) string {
	if im.opts.CoverDir == "" {
		return ""
	}
	item, ok := pkg.FindCover()
	if !ok {
		return ""
	}
	src := filepath.Join(root, filepath.FromSlash(item.Href))
	thumb, err := RenderCoverThumb(src, im.opts.CoverDir, id)
	if err != nil {
		im.log.Warn("cover thumbnail failed", zap.String("href", item.Href), zap.Error(err))
		return ""
	}
	return thumb
}

func fileStem(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func samePath(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return a == b
	}
	return aa == bb
}

// IsFatal reports whether an import error belongs to one of the two fatal
// classes (extraction, package). Everything else the pipeline already
// degraded around.
func IsFatal(err error) bool {
	return errors.Is(err, epub.ErrExtraction) ||
		errors.Is(err, epub.ErrPackageNotFound) ||
		errors.Is(err, epub.ErrPackageMalformed)
}
