// Package jsondb keeps the persisted client state (token and user snapshot)
// in a JSON file. The whole state is cached in memory and written back to the
// file on every mutation, so a fresh login survives an abrupt exit.
package jsondb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

type CacheStruct struct {
	Values map[string]string
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"Values": {}
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	return nil
}

func parseJSONFile(fileName string, cache *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	err = decoder.Decode(cache)
	if err != nil {
		return err
	}

	return nil
}

// New opens the state file, creating an empty one when it does not exist.
func New(fileName string) (*JSONDB, error) {
	db := &JSONDB{
		fileName: fileName,
		Cache:    CacheStruct{},
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(fileName), 0700); err != nil {
			return nil, err
		}
		err := initDBFile(fileName)
		if err != nil {
			return nil, err
		}
		err = parseJSONFile(db.fileName, &db.Cache)
		if err != nil {
			return nil, err
		}
	}
	if db.Cache.Values == nil {
		db.Cache.Values = map[string]string{}
	}

	return db, nil
}

// NewInMemory returns a JSONDB which never touches the filesystem.
func NewInMemory() *JSONDB {
	return &JSONDB{
		Cache: CacheStruct{
			Values: map[string]string{},
		},
	}
}

func (db *JSONDB) flush() error {
	if db.fileName == "" {
		return nil
	}

	return writeToJSONFile(db.fileName, db.Cache)
}

func (db *JSONDB) Get(ctx context.Context, key string) (string, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	value, found := db.Cache.Values[key]

	return value, found, nil
}

func (db *JSONDB) Set(ctx context.Context, key, value string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.Cache.Values[key] = value

	return db.flush()
}

// Remove deletes the given keys; missing keys are ignored.
func (db *JSONDB) Remove(ctx context.Context, keys ...string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, key := range keys {
		delete(db.Cache.Values, key)
	}

	return db.flush()
}

func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.flush()
}
