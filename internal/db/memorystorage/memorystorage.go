package memorystorage

import (
	"context"

	"github.com/patric-chuzhbe/linkkeeper/internal/db/jsondb"
)

// MemoryStorage keeps the client state for the lifetime of the process only.
type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: jsondb.NewInMemory(),
	}, nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
