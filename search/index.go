package search

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// Index wraps a Bleve index of pages. All methods are safe for concurrent
// use; Rebuild takes an exclusive lock.
type Index struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Uses a discard logger if nil
}

// mappingVersion changes whenever the mapping does; a mismatch with the
// stored version file recreates the index on open.
const mappingVersion = "1"

// Open opens the index under opts.DataPath, creating it when missing,
// corrupt or built with an older mapping. The second result reports
// whether the index was created empty and needs a Rebuild.
func Open(opts Options) (*Index, bool, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
		return nil, false, fmt.Errorf("create index dir: %w", err)
	}

	indexPath := filepath.Join(opts.DataPath, "pages.bleve")
	versionPath := filepath.Join(opts.DataPath, "pages.version")

	var index bleve.Index
	recreate := false
	if _, err := os.Stat(indexPath); err == nil {
		existing, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			logger.Info("search index has no version file, recreating", "new_version", mappingVersion)
			recreate = true
		case string(existing) != mappingVersion:
			logger.Info("search index mapping version changed, recreating",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
			recreate = true
		default:
			index, err = bleve.Open(indexPath)
			if err != nil {
				logger.Warn("failed to open existing index, recreating", "path", indexPath, "error", err)
				recreate = true
			}
		}
	}
	if recreate {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, false, fmt.Errorf("remove old index: %w", err)
		}
	}

	created := false
	if index == nil {
		var err error
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, false, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created search index", "path", indexPath, "mapping_version", mappingVersion)
		created = true
	} else {
		logger.Info("opened search index", "path", indexPath)
	}

	return &Index{index: index, path: indexPath, logger: logger}, created, nil
}

// Close closes the index and releases resources.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexDocument adds or replaces a single page document.
func (s *Index) IndexDocument(doc *Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(doc.ID(), doc.ToMap())
}

// Delete removes the documents of the given page ids.
func (s *Index) Delete(pageIDs ...int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch := s.index.NewBatch()
	for _, id := range pageIDs {
		batch.Delete(DocID(id))
	}
	return s.index.Batch(batch)
}

// DocumentCount returns the number of indexed pages.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and indexes docs from scratch in batches.
func (s *Index) Rebuild(docs []*Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}
	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.index = index

	const batchSize = 500
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))
		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID(), doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID(), err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	s.logger.Info("rebuilt search index", "path", s.path, "documents", len(docs))
	return nil
}
