package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lantianz/lantz-tmail/lib"
	bolt "go.etcd.io/bbolt"
)

const (
	metadataBucket  = "metadata"
	addressBucket   = "address"
	versionKey      = "version"
	boltFileVersion = 1
)

var ErrAddressNotFound = errors.New("address not found in the local store")

// Entry is one temporary address kept in the local address book, so the token
// can be reused from the command line without pasting it around.
type Entry struct {
	Address     string
	AccessToken string
	CreatedAt   time.Time
}

// BoltStore is the local address book, one bucket of gob-encoded entries
// keyed by address.
type BoltStore struct {
	dbFile string
	db     *bolt.DB
	log    lib.Logger
}

func NewBoltStore(filename string) (*BoltStore, error) {
	return NewBoltStoreWithLogger(filename, nil)
}

func NewBoltStoreWithLogger(filename string, logger lib.Logger) (*BoltStore, error) {
	if logger == nil {
		logger = &lib.NoLog{}
	}
	options := bolt.DefaultOptions
	options.Timeout = 10 * time.Second

	err := os.MkdirAll(filepath.Dir(filename), 0700)
	if err != nil {
		return nil, fmt.Errorf("cannot open %q: %w", filename, err)
	}

	db, err := bolt.Open(filename, 0600, options)
	if err != nil {
		return nil, err
	}

	store := &BoltStore{
		dbFile: filename,
		db:     db,
		log:    logger,
	}
	if err = store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *BoltStore) init() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(metadataBucket))
		if err != nil {
			return err
		}
		version, err := SerializeInt(boltFileVersion)
		if err != nil {
			return err
		}
		if err = bucket.Put([]byte(versionKey), version); err != nil {
			return err
		}
		_, err = tx.CreateBucketIfNotExists([]byte(addressBucket))
		return err
	})
}

func (s *BoltStore) Exists() bool {
	_, err := os.Stat(s.dbFile)
	return err == nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Save stores an entry, replacing any previous one for the same address.
func (s *BoltStore) Save(entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(addressBucket))
		if bucket == nil {
			return fmt.Errorf("bucket %q not found", addressBucket)
		}
		data, err := SerializeObject(&entry)
		if err != nil {
			return err
		}
		s.log.Printf("saving address %s", entry.Address)
		return bucket.Put([]byte(entry.Address), data)
	})
}

func (s *BoltStore) Get(address string) (Entry, error) {
	var entry Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(addressBucket))
		if bucket == nil {
			return fmt.Errorf("bucket %q not found", addressBucket)
		}
		data := bucket.Get([]byte(address))
		if data == nil {
			return fmt.Errorf("%w: %q", ErrAddressNotFound, address)
		}
		decoded, err := DeserializeObject[Entry](data)
		if err != nil {
			return err
		}
		entry = *decoded
		return nil
	})
	return entry, err
}

// List returns every saved entry, newest first.
func (s *BoltStore) List() ([]Entry, error) {
	entries := make([]Entry, 0, 10)
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(addressBucket))
		if bucket == nil {
			return fmt.Errorf("bucket %q not found", addressBucket)
		}
		return bucket.ForEach(func(key, data []byte) error {
			decoded, err := DeserializeObject[Entry](data)
			if err != nil {
				return err
			}
			entries = append(entries, *decoded)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

func (s *BoltStore) Delete(address string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(addressBucket))
		if bucket == nil {
			return fmt.Errorf("bucket %q not found", addressBucket)
		}
		if bucket.Get([]byte(address)) == nil {
			return fmt.Errorf("%w: %q", ErrAddressNotFound, address)
		}
		s.log.Printf("deleting address %s", address)
		return bucket.Delete([]byte(address))
	})
}

// Latest returns the most recently created entry, the default address used by
// commands when none is given.
func (s *BoltStore) Latest() (Entry, error) {
	entries, err := s.List()
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, ErrAddressNotFound
	}
	return entries[0], nil
}
