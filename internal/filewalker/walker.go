package filewalker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"dotstrings/internal/parser"

	"github.com/rs/zerolog/log"
)

// SupportedExtensions lists file types handled by the tool.
var SupportedExtensions = map[string]bool{
	".strings": true,
}

// skipDirs are never descended into: VCS metadata, dependency checkouts and
// build output hold copies of resources rather than the project's own.
var skipDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	"Pods":         true,
	"Carthage":     true,
	"DerivedData":  true,
	"node_modules": true,
}

// SkipDir reports whether a directory with this name is excluded from discovery.
func SkipDir(name string) bool { return skipDirs[name] }

// Walker traverses directories and dispatches files to the correct parser.
type Walker struct {
	parsers []parser.Parser
}

// NewWalker creates a Walker with default parsers.
func NewWalker() *Walker {
	return &Walker{
		parsers: []parser.Parser{
			parser.NewDotStringsParser(),
		},
	}
}

// FileEntry represents a discovered file ready for processing.
type FileEntry struct {
	Path   string
	Ext    string
	Locale string
	Parser parser.Parser
}

// Walk discovers all supported files under the given root directory.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var entries []FileEntry

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}

		if d.IsDir() {
			if path != root && SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if entry, ok := w.Match(path); ok {
			entries = append(entries, entry)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered files")
	return entries, nil
}

// Match returns the FileEntry for path if a registered parser handles it.
func (w *Walker) Match(path string) (FileEntry, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if !SupportedExtensions[ext] {
		return FileEntry{}, false
	}

	for _, p := range w.parsers {
		if p.CanParse(ext) {
			return FileEntry{
				Path:   path,
				Ext:    ext,
				Locale: LocaleFromPath(path),
				Parser: p,
			}, true
		}
	}
	return FileEntry{}, false
}

// ParseFile parses a single file using the appropriate parser.
func (w *Walker) ParseFile(entry FileEntry) (*parser.ParseResult, error) {
	return entry.Parser.Parse(entry.Path)
}

// LocaleFromPath returns the locale of a resource inside an Xcode
// localization bundle, e.g. "pt-BR" for ".../pt-BR.lproj/Localizable.strings".
// Files outside a *.lproj directory have no locale.
func LocaleFromPath(path string) string {
	dir := filepath.Base(filepath.Dir(path))
	locale, ok := strings.CutSuffix(dir, ".lproj")
	if !ok {
		return ""
	}
	return locale
}
