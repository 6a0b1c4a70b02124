package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"dev.rubentxu.mr-harness/internal/core/domain/run"
	"github.com/boltdb/bolt"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// BoltRunStore persiste los resultados como JSON en un bucket de bolt,
// con el ID de la ejecución como clave.
type BoltRunStore struct {
	db     *bolt.DB
	bucket string
}

func NewBoltRunStore(file string, mode os.FileMode, bucket string) (*BoltRunStore, error) {
	db, err := bolt.Open(file, mode, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", file)
	}
	s := &BoltRunStore{db: db, bucket: bucket}
	if err := s.createBucket(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *BoltRunStore) createBucket() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(s.bucket)); err != nil {
			return fmt.Errorf("create bucket %s: %s", s.bucket, err)
		}
		return nil
	})
}

func (s *BoltRunStore) Save(result *run.Result) error {
	buf, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "failed to encode run result")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(s.bucket)).Put([]byte(result.ID.String()), buf)
	})
}

func (s *BoltRunStore) Get(id uuid.UUID) (*run.Result, error) {
	var result run.Result
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(s.bucket)).Get([]byte(id.String()))
		if raw == nil {
			return fmt.Errorf("run %s not found", id)
		}
		return json.Unmarshal(raw, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *BoltRunStore) List() ([]*run.Result, error) {
	var runs []*run.Result
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(s.bucket)).ForEach(func(k, v []byte) error {
			var r run.Result
			if err := json.Unmarshal(v, &r); err != nil {
				return errors.Wrapf(err, "unable to decode run %s", k)
			}
			runs = append(runs, &r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortByStart(runs)
	return runs, nil
}

func (s *BoltRunStore) Delete(id uuid.UUID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(s.bucket))
		if b.Get([]byte(id.String())) == nil {
			return fmt.Errorf("run %s not found", id)
		}
		return b.Delete([]byte(id.String()))
	})
}

func (s *BoltRunStore) Close() error {
	return s.db.Close()
}
