// Package state remembers reading positions and reveal preferences between
// runs in a bbolt database under XDG_STATE_HOME.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	dbFileName = "state.db"
	hashBytes  = 8192 // First 8KB for content hash
)

var (
	positionsBucket   = []byte("positions")
	preferencesBucket = []byte("preferences")
	preferencesKey    = []byte("reveal")
)

// ReadingState stores position for a single document
type ReadingState struct {
	WordIndex int       `json:"word_index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Preferences are the reveal settings restored on the next run.
type Preferences struct {
	WPM       int    `json:"wpm"`
	ChunkSize int    `json:"chunk_size"`
	Mode      string `json:"mode,omitempty"`
}

// Store manages persistent reading state
type Store struct {
	db *bolt.DB
}

// DefaultPath returns XDG_STATE_HOME/pacer/state.db or ~/.local/state/pacer/state.db
func DefaultPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "pacer", dbFileName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "pacer", dbFileName)
}

// Open creates or opens the database at path. Another process holding the
// database makes Open fail after a second rather than hang.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open state db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{positionsBucket, preferencesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// ComputeHash generates a content hash for document identity
func ComputeHash(data []byte) string {
	if len(data) > hashBytes {
		data = data[:hashBytes]
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16]) // First 16 bytes = 32 hex chars
}

// GetPosition returns saved position for a document, or 0 if not found
func (s *Store) GetPosition(hash string) int {
	var st ReadingState
	if err := s.get(positionsBucket, []byte(hash), &st); err != nil {
		return 0
	}
	return st.WordIndex
}

// SetPosition saves position for a document
func (s *Store) SetPosition(hash string, wordIndex int) error {
	return s.put(positionsBucket, []byte(hash), ReadingState{WordIndex: wordIndex, UpdatedAt: time.Now()})
}

// Clear removes saved position for a document
func (s *Store) Clear(hash string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(positionsBucket).Delete([]byte(hash))
	})
}

// Preferences returns the saved preferences. ok is false when none were saved.
func (s *Store) Preferences() (p Preferences, ok bool, err error) {
	err = s.get(preferencesBucket, preferencesKey, &p)
	if errors.Is(err, errNotFound) {
		return Preferences{}, false, nil
	}
	if err != nil {
		return Preferences{}, false, err
	}
	return p, true, nil
}

// SavePreferences stores p.
func (s *Store) SavePreferences(p Preferences) error {
	return s.put(preferencesBucket, preferencesKey, p)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

var errNotFound = errors.New("not found")

func (s *Store) get(bucket, key []byte, v any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucket).Get(key)
		if data == nil {
			return errNotFound
		}
		return json.Unmarshal(data, v)
	})
}

func (s *Store) put(bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(key, data)
	})
}
