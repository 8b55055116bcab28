// Package watch validates vCard files on disk, either once over a directory
// or continuously as files are created and modified.
package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/coolbeans/vcard/pkg/vcard"
)

// DefaultExtensions are the file suffixes validated when none are given.
var DefaultExtensions = []string{".vcf", ".vcard"}

// Result is the outcome of validating one file.
type Result struct {
	Path     string
	Document *vcard.Document
	Err      error
}

// OK reports whether the file holds a valid card.
func (r Result) OK() bool {
	return r.Err == nil
}

// Log writes r to logger: valid files at info level, invalid ones at warn
// level with the failing line and component.
func (r Result) Log(logger zerolog.Logger) {
	if r.OK() {
		logger.Info().
			Str("path", r.Path).
			Str("fn", r.Document.FormattedName()).
			Int("properties", r.Document.Len()).
			Msg("valid vcard")
		return
	}

	event := logger.Warn().Str("path", r.Path)
	var parseErr *vcard.ParseError
	if errors.As(r.Err, &parseErr) {
		event = event.Int("line", parseErr.Line).Str("component", string(parseErr.Component))
		if parseErr.Property != "" {
			event = event.Str("property", parseErr.Property)
		}
	}
	event.Err(r.Err).Msg("invalid vcard")
}

// ValidateFile parses the card stored at path.
func ValidateFile(parser *vcard.Parser, path string) Result {
	file, err := os.Open(path)
	if err != nil {
		return Result{Path: path, Err: fmt.Errorf("failed to open %s: %w", path, err)}
	}
	defer file.Close()

	doc, err := parser.Parse(file)
	return Result{Path: path, Document: doc, Err: err}
}

// ValidateDir validates every regular file directly inside dir whose suffix
// is one of extensions, in path order. A nil extensions uses
// DefaultExtensions.
func ValidateDir(parser *vcard.Parser, dir string, extensions []string) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	if extensions == nil {
		extensions = DefaultExtensions
	}

	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !hasExtension(entry.Name(), extensions) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	results := make([]Result, 0, len(paths))
	for _, path := range paths {
		results = append(results, ValidateFile(parser, path))
	}
	return results, nil
}

func hasExtension(name string, extensions []string) bool {
	fileExtension := filepath.Ext(name)
	for _, extension := range extensions {
		if strings.EqualFold(fileExtension, extension) {
			return true
		}
	}
	return false
}
