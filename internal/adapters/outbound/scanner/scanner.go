// Package scanner locates exported raw page sources on the local filesystem.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/openkraft/headeraudit/internal/domain"
)

var skipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	".git":         true,
	".headeraudit": true,
}

// FileScanner implements domain.SourceStore by searching a directory tree for
// files whose name contains the row ID. The tree is walked once, on first
// lookup.
type FileScanner struct {
	root      string
	ambiguity domain.AmbiguityPolicy
	log       *zap.Logger

	once    sync.Once
	files   []string // relative, slash-separated, sorted
	walkErr error
}

func New(root string, ambiguity domain.AmbiguityPolicy, log *zap.Logger) *FileScanner {
	if root == "" {
		root = "."
	}
	if ambiguity == "" {
		ambiguity = domain.AmbiguityFirst
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FileScanner{root: root, ambiguity: ambiguity, log: log}
}

// FromConfig creates a FileScanner from the source section of the config.
func FromConfig(cfg domain.SourceConfig, log *zap.Logger) *FileScanner {
	return New(cfg.Root, cfg.Ambiguity, log)
}

// Lookup returns the raw source for id. Zero matches is ErrSourceNotFound.
// Several matches resolve to the lexicographically first path, or
// ErrAmbiguousSource under the "error" policy.
func (s *FileScanner) Lookup(id string) (*domain.SourceDocument, error) {
	matches, err := s.Matches(id)
	if err != nil {
		return nil, err
	}

	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("%w: no file name contains %q under %s", domain.ErrSourceNotFound, id, s.root)
	case len(matches) > 1 && s.ambiguity == domain.AmbiguityError:
		return nil, fmt.Errorf("%w: %d files match %q: %s",
			domain.ErrAmbiguousSource, len(matches), id, strings.Join(matches, ", "))
	case len(matches) > 1:
		s.log.Warn("several raw sources match, using the first",
			zap.String("id", id),
			zap.Strings("matches", matches))
	}

	path := filepath.Join(s.root, filepath.FromSlash(matches[0]))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &domain.SourceDocument{Path: path, Content: string(data)}, nil
}

// Matches lists every candidate file for id in sorted order.
func (s *FileScanner) Matches(id string) ([]string, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty id", domain.ErrSourceNotFound)
	}
	s.once.Do(s.index)
	if s.walkErr != nil {
		return nil, fmt.Errorf("scanning %s: %w", s.root, s.walkErr)
	}

	var matches []string
	for _, f := range s.files {
		if strings.Contains(filepath.Base(f), id) {
			matches = append(matches, f)
		}
	}
	return matches, nil
}

func (s *FileScanner) index() {
	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		s.walkErr = err
		return
	}

	s.walkErr = filepath.WalkDir(absRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			s.log.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != absRoot && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, _ := filepath.Rel(absRoot, path)
		s.files = append(s.files, filepath.ToSlash(rel))
		return nil
	})
	sort.Strings(s.files)
	s.log.Debug("indexed raw sources", zap.String("root", s.root), zap.Int("files", len(s.files)))
}
