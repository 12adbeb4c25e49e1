package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/authgate/internal/client/storage"
)

var credentialKey = []byte(storage.KeyAccessToken)

// SaveCredential stores the access token and notifies watchers if it changed
func (s *Storage) SaveCredential(ctx context.Context, token string) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	changed := false
	err = db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return fmt.Errorf("auth bucket not found")
		}

		changed = string(bucket.Get(credentialKey)) != token

		// Сохраняем в bucket
		if err := bucket.Put(credentialKey, []byte(token)); err != nil {
			return fmt.Errorf("failed to save credential: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	if changed {
		s.notify(storage.ChangeEvent{Key: storage.KeyAccessToken, Value: token})
	}
	return nil
}

// GetCredential retrieves the stored access token
func (s *Storage) GetCredential(ctx context.Context) (string, error) {
	db, err := s.handle()
	if err != nil {
		return "", err
	}

	var token string
	err = db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return fmt.Errorf("auth bucket not found")
		}

		data := bucket.Get(credentialKey)
		if data == nil {
			return storage.ErrCredentialNotFound
		}

		// bbolt память валидна только внутри транзакции
		token = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

// DeleteCredential removes the stored access token (logout, failed refresh)
func (s *Storage) DeleteCredential(ctx context.Context) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketAuth)
		if bucket == nil {
			return fmt.Errorf("auth bucket not found")
		}

		// Проверяем существование данных
		if bucket.Get(credentialKey) == nil {
			return storage.ErrCredentialNotFound
		}

		if err := bucket.Delete(credentialKey); err != nil {
			return fmt.Errorf("failed to delete credential: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.notify(storage.ChangeEvent{Key: storage.KeyAccessToken, Deleted: true})
	return nil
}
