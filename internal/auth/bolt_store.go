package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/fivetwenty-io/libadmin/internal/constants"
	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
)

const boltOpenTimeout = time.Second

// BoltStore persists the session in a bbolt file so it survives restarts.
// Every Set and Clear commits (and fsyncs) before returning.
type BoltStore struct {
	db   *bbolt.DB
	path string
}

// NewBoltStore opens or creates the session database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	db, err := bbolt.Open(path, constants.SessionFilePerm, &bbolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(constants.SessionBucket))

		return err
	})
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("initializing session bucket: %w", err)
	}

	return &BoltStore{db: db, path: path}, nil
}

// Path returns the database file location.
func (s *BoltStore) Path() string {
	return s.path
}

// Get returns the stored session, or nil.
func (s *BoltStore) Get(_ context.Context) (*libadmin.Session, error) {
	var session *libadmin.Session

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(constants.SessionBucket)).Get([]byte(constants.SessionKey))
		if data == nil {
			return nil
		}

		var stored libadmin.Session

		err := json.Unmarshal(data, &stored)
		if err != nil {
			return fmt.Errorf("decoding session: %w", err)
		}

		session = &stored

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	return session, nil
}

// Set replaces the stored session.
func (s *BoltStore) Set(_ context.Context, session libadmin.Session) error {
	err := session.Validate()
	if err != nil {
		return err
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(constants.SessionBucket)).Put([]byte(constants.SessionKey), data)
	})
	if err != nil {
		return fmt.Errorf("writing session: %w", err)
	}

	return nil
}

// Clear removes the stored session.
func (s *BoltStore) Clear(_ context.Context) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(constants.SessionBucket)).Delete([]byte(constants.SessionKey))
	})
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	return nil
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
