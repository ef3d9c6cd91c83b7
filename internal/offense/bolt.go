package offense

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketOffenses = []byte("offenses")

// BoltStore keeps records as JSON values in a bbolt file, one key per user.
// Update runs inside a single write transaction.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("offense: create dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("offense: bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketOffenses)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("offense: create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(_ context.Context, userID string) (Record, error) {
	rec := Record{UserID: userID}
	err := s.db.View(func(tx *bolt.Tx) error {
		return decodeRecord(tx.Bucket(bucketOffenses).Get([]byte(userID)), &rec)
	})
	if err != nil {
		return Record{}, storageErr("get", userID, err)
	}
	return rec, nil
}

func (s *BoltStore) Update(_ context.Context, userID string, fn func(*Record)) (Record, error) {
	rec := Record{UserID: userID}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketOffenses)
		if err := decodeRecord(b.Get([]byte(userID)), &rec); err != nil {
			return err
		}
		fn(&rec)
		rec.UserID = userID
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(userID), data)
	})
	if err != nil {
		return Record{}, storageErr("update", userID, err)
	}
	return rec, nil
}

func (s *BoltStore) Put(_ context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return storageErr("put", rec.UserID, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketOffenses).Put([]byte(rec.UserID), data)
	})
	if err != nil {
		return storageErr("put", rec.UserID, err)
	}
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// decodeRecord leaves rec untouched when v is nil. v is only valid inside
// the transaction, which json.Unmarshal respects by copying.
func decodeRecord(v []byte, rec *Record) error {
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(v, rec); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}
