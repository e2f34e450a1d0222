package credentials

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Well-known keys the credentials are persisted under.
const (
	accessKey  = "auth:access"
	renewalKey = "auth:refresh"
)

var _ Store = (*BadgerStore)(nil)

// BadgerStore persists credentials in a BadgerDB database so they survive
// process restarts. Store operations never fail from the caller's point of
// view: persistence errors are logged and the operation degrades to the
// in-memory state where possible.
type BadgerStore struct {
	db  *badger.DB
	log zerolog.Logger
}

// OpenBadger opens (or creates) the credential database in dir.
func OpenBadger(dir string, log zerolog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "credentials.OpenBadger")
	}
	return NewBadgerStore(db, log), nil
}

// NewBadgerStore wraps an already-open BadgerDB database.
func NewBadgerStore(db *badger.DB, log zerolog.Logger) *BadgerStore {
	return &BadgerStore{db: db, log: log}
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) Get() Credentials {
	var creds Credentials
	err := s.db.View(func(txn *badger.Txn) error {
		creds.Access = readString(txn, accessKey)
		creds.Renewal = readString(txn, renewalKey)
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Msg("credential store read failed")
		return Credentials{}
	}
	return creds
}

func (s *BadgerStore) SetAccess(access string) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(accessKey), []byte(access))
	})
	if err != nil {
		s.log.Error().Err(err).Msg("credential store write failed")
	}
}

func (s *BadgerStore) SetBoth(access, renewal string) {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(accessKey), []byte(access)); err != nil {
			return err
		}
		return txn.Set([]byte(renewalKey), []byte(renewal))
	})
	if err != nil {
		s.log.Error().Err(err).Msg("credential store write failed")
	}
}

// Clear erases the persisted credentials, not just an in-memory mirror.
func (s *BadgerStore) Clear() {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(accessKey)); err != nil {
			return err
		}
		return txn.Delete([]byte(renewalKey))
	})
	if err != nil {
		s.log.Error().Err(err).Msg("credential store clear failed")
	}
}

func readString(txn *badger.Txn, key string) string {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return ""
	}
	var value string
	_ = item.Value(func(val []byte) error {
		value = string(val)
		return nil
	})
	return value
}
