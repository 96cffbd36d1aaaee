package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cardcompass/credit-card-advisor/internal/core/domain"
)

// Loader reads the source corpus: a directory of plain-text files, one
// per category. Files are read in sorted name order so downstream id
// assignment is deterministic across runs.
type Loader struct {
	dir  string
	glob string
}

func New(dir string) *Loader {
	if dir == "" {
		dir = "./data"
	}
	return &Loader{dir: dir, glob: "*.md"}
}

func (l *Loader) Load(_ context.Context) ([]domain.RawDocument, error) {
	pattern := filepath.Join(l.dir, l.glob)
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob corpus files: %w", err)
	}
	if len(paths) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "load corpus",
			fmt.Errorf("no files matching %s", pattern))
	}
	sort.Strings(paths)

	out := make([]domain.RawDocument, 0, len(paths))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read corpus file %s: %w", path, err)
		}
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("corpus file %s is not valid utf-8", path)
		}
		text := string(raw)
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, domain.RawDocument{
			Text:        text,
			SourceLabel: path,
		})
	}
	return out, nil
}
