package boltdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/authgate/internal/client/storage"
)

var (
	// BoltDB bucket names
	bucketAuth    = []byte("auth")
	bucketCookies = []byte("cookies")
)

// lockTimeout ограничивает ожидание file lock, если БД открыта другим процессом
const lockTimeout = 2 * time.Second

// Storage represents BoltDB storage implementation for client
type Storage struct {
	db       *bbolt.DB
	watchers map[uint64]func(storage.ChangeEvent)
	nextID   uint64
	mu       sync.RWMutex
}

// Compile-time checks
var (
	_ storage.CredentialStorage = (*Storage)(nil)
	_ storage.CookieStorage     = (*Storage)(nil)
)

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Открываем BoltDB
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{
		db:       db,
		watchers: make(map[uint64]func(storage.ChangeEvent)),
	}

	// Инициализируем buckets
	if err := s.initBuckets(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// Close closes the database connection. Calling Close twice is a no-op.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.watchers = nil
	return err
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		// Создаем bucket для credential
		if _, err := tx.CreateBucketIfNotExists(bucketAuth); err != nil {
			return fmt.Errorf("failed to create auth bucket: %w", err)
		}

		// Создаем bucket для cookies (refresh session, csrf)
		if _, err := tx.CreateBucketIfNotExists(bucketCookies); err != nil {
			return fmt.Errorf("failed to create cookies bucket: %w", err)
		}

		return nil
	})
}

// handle returns the open database or ErrStorageClosed
func (s *Storage) handle() (*bbolt.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}
	return s.db, nil
}
