// Package cache stores fetched remote responses as one JSON record per key.
//
// The store never decides freshness: Get returns whatever was stored together
// with its storage time, and callers apply their own TTL with Entry.Fresh.
//
// There is no locking between processes. Records are replaced with a rename so
// a reader never sees a partial write, but two concurrent runs writing the same
// key race and the last writer wins. A single runner per cache directory is
// assumed.
package cache

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// NoExpiry is a TTL under which an entry never goes stale.
const NoExpiry = time.Duration(math.MaxInt64)

// Entry is one cached record.
type Entry struct {
	Key      string          `json:"-"`
	StoredAt time.Time       `json:"storedAt"`
	Payload  json.RawMessage `json:"payload"`
}

// Fresh reports whether the entry is younger than ttl at now.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	if ttl == NoExpiry {
		return true
	}
	return now.Sub(e.StoredAt) < ttl
}

// Decode unmarshals the payload into v.
func (e Entry) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to decode cache entry %s: %w", e.Key, err)
	}
	return nil
}

type Store struct {
	fs     afero.Fs
	dir    string
	clock  clockwork.Clock
	logger *zap.Logger
}

type StoreOption func(*Store)

func WithClock(clock clockwork.Clock) StoreOption {
	return func(s *Store) {
		s.clock = clock
	}
}

func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a store keeping records under dir on fs.
func NewStore(fs afero.Fs, dir string, opts ...StoreOption) *Store {
	s := &Store{
		fs:     fs,
		dir:    dir,
		clock:  clockwork.NewRealClock(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStoreFromPath creates a store on the OS filesystem, creating dir if needed.
func NewStoreFromPath(dir string, opts ...StoreOption) (*Store, error) {
	cleanDir := filepath.Clean(dir)
	if err := os.MkdirAll(cleanDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cleanDir, err)
	}
	return NewStore(afero.NewOsFs(), cleanDir, opts...), nil
}

// DefaultDir returns <user cache dir>/wallboard.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user cache directory: %w", err)
	}
	return filepath.Join(base, "wallboard"), nil
}

func (s *Store) recordPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get returns the record stored under key. Missing, unreadable and malformed
// records are all reported as a miss.
func (s *Store) Get(key string) (Entry, bool) {
	logger := s.logger.With(zap.String("cache_key", key))

	data, err := afero.ReadFile(s.fs, s.recordPath(key))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Debug("cache record unreadable, treating as miss", zap.Error(err))
		}
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		logger.Debug("cache record corrupted, treating as miss", zap.Error(err))
		return Entry{}, false
	}

	if entry.StoredAt.IsZero() || len(entry.Payload) == 0 || string(entry.Payload) == "null" {
		logger.Debug("cache record incomplete, treating as miss")
		return Entry{}, false
	}

	entry.Key = key
	return entry, true
}

// GetFresh returns the record under key only if it is fresh for ttl.
func (s *Store) GetFresh(key string, ttl time.Duration) (Entry, bool) {
	entry, ok := s.Get(key)
	if !ok || !entry.Fresh(s.clock.Now(), ttl) {
		return Entry{}, false
	}
	return entry, true
}

// Put stores payload under key stamped with the current time. Failures are
// logged and otherwise ignored: a value that cannot be cached is still usable
// for the current cycle.
func (s *Store) Put(key string, payload any) {
	if err := s.put(key, payload); err != nil {
		s.logger.Warn("failed to write cache record", zap.String("cache_key", key), zap.Error(err))
	}
}

func (s *Store) put(key string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	data, err := json.Marshal(Entry{StoredAt: s.clock.Now().UTC(), Payload: raw})
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary record: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write temporary record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to close temporary record: %w", err)
	}

	if err := s.fs.Rename(tmpName, s.recordPath(key)); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace record: %w", err)
	}

	return nil
}
