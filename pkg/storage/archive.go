package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ArchiveConfig holds load-cache configuration
type ArchiveConfig struct {
	Path             string
	Retention        time.Duration // 0 keeps entries forever
	CompressionLevel int
}

// DefaultArchiveConfig returns default load-cache configuration
func DefaultArchiveConfig() *ArchiveConfig {
	return &ArchiveConfig{
		Path:             "./cache",
		Retention:        30 * 24 * time.Hour,
		CompressionLevel: DefaultCompressionLevel,
	}
}

// Archive caches parsed stores in BadgerDB, keyed by the source file's
// identity and the requested interest set, so a re-run skips CSV parsing.
type Archive struct {
	cfg *ArchiveConfig
	db  *badger.DB
	mu  sync.RWMutex
}

// SourceKey identifies one parse of one export file
type SourceKey struct {
	Path    string
	Size    int64
	ModTime time.Time
	Signals []string
}

// KeyForFile stats path and builds its cache key
func KeyForFile(path string, signals []string) (SourceKey, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return SourceKey{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return SourceKey{}, err
	}
	return SourceKey{
		Path:    abs,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Signals: signals,
	}, nil
}

// OpenArchive opens or creates the load cache
func OpenArchive(cfg *ArchiveConfig) (*Archive, error) {
	if cfg == nil {
		cfg = DefaultArchiveConfig()
	}

	opts := badger.DefaultOptions(filepath.Join(cfg.Path, "badger"))
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return &Archive{cfg: cfg, db: db}, nil
}

// Put stores a parsed table under key
func (a *Archive) Put(key SourceKey, s *Store) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	payload, err := s.MarshalSnapshot(a.cfg.CompressionLevel)
	if err != nil {
		return err
	}

	entry := badger.NewEntry(generateKey(key), payload)
	if a.cfg.Retention > 0 {
		entry = entry.WithTTL(a.cfg.Retention)
	}

	return a.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
}

// Get returns the table cached under key, if any
func (a *Archive) Get(key SourceKey) (*Store, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var payload []byte
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(generateKey(key))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	s, err := UnmarshalSnapshot(payload)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return s, true, nil
}

// Close closes the archive
func (a *Archive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// LoadCSVCached is LoadCSV backed by an archive. A nil archive disables caching.
// Cache failures are logged and never fail the load.
func LoadCSVCached(ctx context.Context, archive *Archive, path string, signals ...string) (*Store, error) {
	if archive == nil {
		return LoadCSV(ctx, path, signals...)
	}

	key, err := KeyForFile(path, signals)
	if err != nil {
		return nil, loadError(path, 0, err)
	}

	if s, ok, err := archive.Get(key); err != nil {
		slog.Warn("storage: cache lookup failed", "path", path, "err", err)
	} else if ok {
		slog.Debug("storage: cache hit", "path", path, "rows", s.Len())
		return s, nil
	}

	s, err := LoadCSV(ctx, path, signals...)
	if err != nil {
		return nil, err
	}

	if err := archive.Put(key, s); err != nil {
		slog.Warn("storage: cache store failed", "path", path, "err", err)
	}
	return s, nil
}

// generateKey generates a storage key for a source parse
func generateKey(key SourceKey) []byte {
	buf := new(bytes.Buffer)

	buf.WriteString("src/")
	buf.WriteString(key.Path)
	buf.WriteByte(0)

	binary.Write(buf, binary.BigEndian, key.Size)
	binary.Write(buf, binary.BigEndian, key.ModTime.UnixNano())
	binary.Write(buf, binary.BigEndian, fingerprint(key.Signals))

	return buf.Bytes()
}
