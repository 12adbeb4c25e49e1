package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/authgate/internal/client/storage"
)

// SaveCookies replaces the cookies stored for host
func (s *Storage) SaveCookies(ctx context.Context, host string, cookies []storage.StoredCookie) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	return db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCookies)
		if bucket == nil {
			return fmt.Errorf("cookies bucket not found")
		}

		if len(cookies) == 0 {
			return bucket.Delete([]byte(host))
		}

		// Сериализуем данные в JSON
		data, err := json.Marshal(cookies)
		if err != nil {
			return fmt.Errorf("failed to marshal cookies: %w", err)
		}

		if err := bucket.Put([]byte(host), data); err != nil {
			return fmt.Errorf("failed to save cookies: %w", err)
		}

		return nil
	})
}

// LoadCookies returns cookies stored for host
func (s *Storage) LoadCookies(ctx context.Context, host string) ([]storage.StoredCookie, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	cookies := []storage.StoredCookie{}
	err = db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCookies)
		if bucket == nil {
			return fmt.Errorf("cookies bucket not found")
		}

		data := bucket.Get([]byte(host))
		if data == nil {
			return nil
		}

		if err := json.Unmarshal(data, &cookies); err != nil {
			return fmt.Errorf("failed to unmarshal cookies: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cookies, nil
}

// DeleteCookies removes everything stored for host
func (s *Storage) DeleteCookies(ctx context.Context, host string) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	return db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketCookies)
		if bucket == nil {
			return fmt.Errorf("cookies bucket not found")
		}
		return bucket.Delete([]byte(host))
	})
}
