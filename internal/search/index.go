package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// TagIndex wraps a Bleve index of tag documents.
//
// All public methods are safe for concurrent use. The mutex guards the
// index handle, which Rebuild swaps out.
type TagIndex struct {
	index  bleve.Index
	path   string // empty for in-memory indexes
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the tag index.
type Options struct {
	DataPath string       // Directory for index storage
	InMemory bool         // Keep the index in memory only (tests)
	Logger   *slog.Logger // Uses discard if nil
}

// mappingVersion is incremented whenever the index mapping changes.
// A mismatch on startup drops the index so it can be rebuilt from the store.
const mappingVersion = "1"

// NewTagIndex creates or opens a tag index.
// The second return value reports whether the index was freshly created and
// therefore needs to be filled from the store.
func NewTagIndex(opts Options) (*TagIndex, bool, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if opts.InMemory {
		indexMapping, err := buildIndexMapping()
		if err != nil {
			return nil, false, fmt.Errorf("build mapping: %w", err)
		}
		index, err := bleve.NewMemOnly(indexMapping)
		if err != nil {
			return nil, false, fmt.Errorf("create in-memory index: %w", err)
		}
		return &TagIndex{index: index, logger: logger}, true, nil
	}

	if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
		return nil, false, fmt.Errorf("create index dir: %w", err)
	}

	indexPath := filepath.Join(opts.DataPath, "tags.bleve")
	versionPath := filepath.Join(opts.DataPath, "tags.version")

	var index bleve.Index
	if _, statErr := os.Stat(indexPath); statErr == nil {
		existingVersion, readErr := os.ReadFile(versionPath) //#nosec G304 -- path derived from configured data dir
		switch {
		case readErr != nil:
			logger.Info("tag index has no version file, rebuilding", "new_version", mappingVersion)
		case string(existingVersion) != mappingVersion:
			logger.Info("tag index mapping version changed, rebuilding",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
		default:
			var err error
			index, err = bleve.Open(indexPath)
			if err != nil {
				logger.Warn("failed to open existing tag index, recreating", "path", indexPath, "error", err)
				index = nil
			}
		}
	}

	if index != nil {
		logger.Info("opened existing tag index", "path", indexPath)
		return &TagIndex{index: index, path: indexPath, logger: logger}, false, nil
	}

	if err := os.RemoveAll(indexPath); err != nil {
		return nil, false, fmt.Errorf("remove old index: %w", err)
	}
	index, err := newDiskIndex(indexPath)
	if err != nil {
		return nil, false, err
	}
	if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil { //#nosec G306 -- not secret
		logger.Warn("failed to write tag index version file", "error", writeErr)
	}
	logger.Info("created new tag index", "path", indexPath, "mapping_version", mappingVersion)

	return &TagIndex{index: index, path: indexPath, logger: logger}, true, nil
}

func newDiskIndex(path string) (bleve.Index, error) {
	indexMapping, err := buildIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("build mapping: %w", err)
	}
	index, err := bleve.New(path, indexMapping)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return index, nil
}

// Close closes the index and releases resources.
func (s *TagIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexTag adds or replaces a single tag document.
func (s *TagIndex) IndexTag(doc *TagDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(doc.ID, doc.ToMap())
}

// IndexTags indexes documents in batches of 500.
func (s *TagIndex) IndexTags(docs []*TagDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DeleteTag removes a tag document. Unknown ids are ignored.
func (s *TagIndex) DeleteTag(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// DocumentCount returns the total number of indexed documents.
func (s *TagIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops every document and indexes docs from scratch.
// It blocks all other index operations while it runs.
func (s *TagIndex) Rebuild(docs []*TagDocument) error {
	s.mu.Lock()
	if err := s.index.Close(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("close index: %w", err)
	}

	var (
		index bleve.Index
		err   error
	)
	if s.path == "" {
		indexMapping, mapErr := buildIndexMapping()
		if mapErr != nil {
			s.mu.Unlock()
			return fmt.Errorf("build mapping: %w", mapErr)
		}
		index, err = bleve.NewMemOnly(indexMapping)
	} else {
		if err = os.RemoveAll(s.path); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("remove index: %w", err)
		}
		index, err = newDiskIndex(s.path)
	}
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("recreate index: %w", err)
	}
	s.index = index
	s.mu.Unlock()

	if err := s.IndexTags(docs); err != nil {
		return err
	}
	s.logger.Info("rebuilt tag index", "documents", len(docs))
	return nil
}

