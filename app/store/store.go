// Package store keeps reader's durable state in a bolt db: display preferences and saved (favorite) articles
package store

import (
	"fmt"
	"os"
	"path"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

const (
	bucketPreferences = "Preferences"
	bucketSaved       = "SavedArticles"
)

// BoltStore wraps bolt db shared by Prefs and Saved
type BoltStore struct {
	DB *bolt.DB
}

// WriteError reports failed persistence of a preference or a saved article
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Key, e.Err)
}

// Unwrap returns the underlying bolt error
func (e *WriteError) Unwrap() error { return e.Err }

// Cause returns the underlying bolt error for errors.Cause
func (e *WriteError) Cause() error { return e.Err }

// NewBoltStore makes persistent store, creates parent dirs and all buckets
func NewBoltStore(dbFile string) (*BoltStore, error) {
	log.Printf("[INFO] bolt (persistent) store, %s", dbFile)
	if err := os.MkdirAll(path.Dir(dbFile), 0700); err != nil {
		return nil, errors.Wrapf(err, "can't make directory for %s", dbFile)
	}

	db, err := bolt.Open(dbFile, 0600, &bolt.Options{Timeout: 1 * time.Second}) // nolint
	if err != nil {
		return nil, errors.Wrapf(err, "can't open bolt db %s", dbFile)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range []string{bucketPreferences, bucketSaved} {
			if _, e := tx.CreateBucketIfNotExists([]byte(bucket)); e != nil {
				return errors.Wrapf(e, "can't create bucket %s", bucket)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStore{DB: db}, nil
}

// Close bolt db
func (b *BoltStore) Close() error {
	return b.DB.Close()
}
