// Package pourdb stores the dispenser settings in a bbolt database.
package pourdb

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-errors/errors"
	"go.etcd.io/bbolt"
)

const (
	dbName           = "pour.db"
	dbFilePermission = 0600
)

var (
	settingsBucket = []byte("settings")

	nameKey    = []byte("name")
	portionKey = []byte("portion")
)

type DB struct {
	*bbolt.DB
	dbPath string
}

// Open opens or creates the settings database in dataDir.
func Open(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, errors.Errorf("Could not create data directory: %v", err)
	}

	path := filepath.Join(dataDir, dbName)

	bdb, err := bbolt.Open(path, dbFilePermission, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Errorf("Could not open %v: %v", path, err)
	}

	db := &DB{
		DB:     bdb,
		dbPath: path,
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(settingsBucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, errors.Errorf("Could not initialize %v: %v", path, err)
	}

	return db, nil
}

func (db *DB) Path() string {
	return db.dbPath
}
