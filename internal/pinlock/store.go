package pinlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.etcd.io/bbolt"
)

var ErrNoPin = errors.New("no pin stored")

var (
	lockBucket = []byte("lock")
	pinKey     = []byte("pin_hash")
)

// PinStore keeps the hash of the local PIN on the client device.
type PinStore interface {
	// LoadHash returns ErrNoPin when nothing is stored.
	LoadHash() ([]byte, error)
	SaveHash(hash []byte) error
	Clear() error
}

// BoltStore is a PinStore backed by a local bbolt file.
type BoltStore struct {
	db *bbolt.DB
}

var _ PinStore = (*BoltStore)(nil)

// OpenBoltStore opens or creates the lock file at path, creating its parent
// directory if needed.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening lock db: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) LoadHash() ([]byte, error) {
	var hash []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(lockBucket)
		if b == nil {
			return ErrNoPin
		}
		v := b.Get(pinKey)
		if v == nil {
			return ErrNoPin
		}
		// v is only valid inside the transaction.
		hash = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hash, nil
}

func (s *BoltStore) SaveHash(hash []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(lockBucket)
		if err != nil {
			return err
		}
		return b.Put(pinKey, hash)
	})
}

func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(lockBucket)
		if b == nil {
			return nil
		}
		return b.Delete(pinKey)
	})
}

// MemoryStore keeps the hash for the life of the process.
type MemoryStore struct {
	mu   sync.Mutex
	hash []byte
}

var _ PinStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoadHash() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hash == nil {
		return nil, ErrNoPin
	}
	return append([]byte(nil), s.hash...), nil
}

func (s *MemoryStore) SaveHash(hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hash = append([]byte(nil), hash...)
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hash = nil
	return nil
}
