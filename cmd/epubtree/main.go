package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/awataru/epubtree/internal/epub"
	"github.com/awataru/epubtree/internal/lang"
	"github.com/awataru/epubtree/internal/library"
)

var rootCmd = &cobra.Command{
	Use:   "epubtree [flags] BOOK.epub",
	Short: "Import an EPUB into a normalized, style-annotated content tree",
	Long: `epubtree unpacks an EPUB container, parses its package and navigation
documents, builds a normalized content tree with resolved styles, and
records the book in a local metadata store.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		workDir, _ := cmd.Flags().GetString("workdir")
		dbPath, _ := cmd.Flags().GetString("db")
		coverDir, _ := cmd.Flags().GetString("covers")
		asJSON, _ := cmd.Flags().GetBool("json")

		logger, err := buildLogger(verbose)
		if err != nil {
			return err
		}
		defer logger.Sync()

		var store *library.MetadataStore
		if dbPath != "" {
			store, err = library.OpenStore(dbPath, logger)
			if err != nil {
				return err
			}
			defer store.Close()
		}

		importer := library.NewImporter(store,
			lang.NewResolver(nil, logger),
			library.ImportOptions{WorkDir: workDir, CoverDir: coverDir},
			logger)

		book, err := importer.Import(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		defer book.Close()

		if asJSON {
			return printJSON(book)
		}
		printSummary(book)
		return nil
	},
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	return cfg.Build()
}

func printSummary(book *library.BookRecord) {
	fmt.Printf("Title:     %s\n", book.Title)
	fmt.Printf("Language:  %s\n", book.Language)
	fmt.Printf("Documents: %d\n", len(book.Content))
	fmt.Printf("Selectors: %d\n", len(book.Styles))
	fmt.Println("Table of contents:")
	printTOC(book.TableOfContents, 1)
}

func printTOC(points []epub.NavPoint, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, p := range points {
		fmt.Printf("%s%s\n", indent, p.Label)
		printTOC(p.Children, depth+1)
	}
}

func printJSON(book *library.BookRecord) error {
	type tocEntry struct {
		Label    string     `json:"label"`
		Src      string     `json:"src"`
		Children []tocEntry `json:"children,omitempty"`
	}
	var convert func(points []epub.NavPoint) []tocEntry
	convert = func(points []epub.NavPoint) []tocEntry {
		out := make([]tocEntry, 0, len(points))
		for _, p := range points {
			out = append(out, tocEntry{Label: p.Label, Src: p.Src, Children: convert(p.Children)})
		}
		return out
	}
	payload := map[string]any{
		"id":       book.ID,
		"title":    book.Title,
		"language": book.Language,
		"basePath": book.BasePath,
		"toc":      convert(book.TableOfContents),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func init() {
	rootCmd.Flags().String("workdir", filepath.Join(os.TempDir(), "epubtree"), "Scratch directory for extraction")
	rootCmd.Flags().String("db", "", "Metadata database path (empty: no persistence)")
	rootCmd.Flags().String("covers", "", "Cover thumbnail directory (empty: no thumbnails)")
	rootCmd.Flags().Bool("json", false, "Print the imported book as JSON")
	rootCmd.Flags().BoolP("verbose", "v", false, "Verbose logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
