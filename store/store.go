// Package store keeps dictionaries in a bbolt database.
//
// Each dictionary gets its own top-level bucket. Inside it, the "entries"
// sub-bucket maps the 8-byte big-endian tag of every entry to its JSON
// record, so a cursor walk returns entries in tag order, and the "meta" key
// holds a JSON summary. Writes are transactional: replacing a dictionary
// either fully succeeds or leaves the previous version untouched.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/coregx/actrie/dict"
	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned when a named dictionary does not exist.
var ErrNotFound = errors.New("store: dictionary not found")

var (
	bucketEntries = []byte("entries")
	keyMeta       = []byte("meta")
)

// Store is a dictionary database.
type Store struct {
	db *bolt.DB
}

// Info summarizes a stored dictionary.
type Info struct {
	Name     string    `json:"name"`
	Entries  int       `json:"entries"`
	Imported time.Time `json:"imported"`
}

// record is the stored form of one entry.
type record struct {
	Keyword string `json:"k"`
	Extra   string `json:"x,omitempty"`
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores d under name, replacing any previous version.
func (s *Store) Put(name string, d *dict.Dict) error {
	if name == "" {
		return errors.New("store: empty dictionary name")
	}
	if d == nil {
		d = dict.New()
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	meta, err := json.Marshal(Info{Name: name, Entries: d.Len(), Imported: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("store: marshal meta: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(name)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket([]byte(name))
		if err != nil {
			return err
		}
		if err := b.Put(keyMeta, meta); err != nil {
			return err
		}
		eb, err := b.CreateBucket(bucketEntries)
		if err != nil {
			return err
		}
		// Keys are appended in order, so a full fill factor wastes no space.
		eb.FillPercent = 1.0

		var key [8]byte
		for _, e := range d.Entries {
			v, err := json.Marshal(record{Keyword: e.Keyword, Extra: e.Extra})
			if err != nil {
				return fmt.Errorf("marshal entry %d: %w", e.Tag, err)
			}
			binary.BigEndian.PutUint64(key[:], uint64(e.Tag))
			if err := eb.Put(key[:], v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get loads the dictionary stored under name.
func (s *Store) Get(name string) (*dict.Dict, error) {
	d := dict.New()
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(name))
		if b == nil {
			return ErrNotFound
		}
		eb := b.Bucket(bucketEntries)
		if eb == nil {
			return nil
		}
		// Unmarshal copies the strings out, so nothing outlives the tx.
		return eb.ForEach(func(k, v []byte) error {
			var r record
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("unmarshal entry %x: %w", k, err)
			}
			_, err := d.Add(r.Keyword, r.Extra)
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store: get %q: %w", name, err)
	}
	return d, nil
}

// Stat returns the summary of the dictionary stored under name.
func (s *Store) Stat(name string) (Info, error) {
	var info Info
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(name))
		if b == nil {
			return ErrNotFound
		}
		return json.Unmarshal(b.Get(keyMeta), &info)
	})
	if err != nil {
		return Info{}, fmt.Errorf("store: stat %q: %w", name, err)
	}
	return info, nil
}

// List returns the names of all stored dictionaries, sorted.
func (s *Store) List() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the dictionary stored under name. Deleting a missing
// dictionary is not an error.
func (s *Store) Delete(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(name)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		return nil
	})
}
