package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/Layr-Labs/hww-signer-go/pkg/persistence"
	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

// Key prefixes for namespacing
const (
	keyPrefixBackup      = "backup:"
	keySchemaVersion     = "metadata:schema_version"
	currentSchemaVersion = "v1"
)

// BadgerPersistence stores backups on disk using Badger.
type BadgerPersistence struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

var _ persistence.IBackupPersistence = (*BadgerPersistence)(nil)

// NewBadgerPersistence opens (or creates) a Badger database at dataPath with
// SyncWrites enabled and starts a background value log GC.
func NewBadgerPersistence(dataPath string, logger *zap.Logger) (*BadgerPersistence, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bp := &BadgerPersistence{
		db:     db,
		logger: logger,
	}

	if err := bp.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bp.gcCancel = cancel
	bp.gcWg.Add(1)
	go bp.runGC(ctx)

	logger.Sugar().Infow("Badger persistence initialized", "path", absPath)

	return bp, nil
}

// initSchema initializes or validates the schema version
func (b *BadgerPersistence) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}

		if existingVersion != currentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
		}
		return nil
	})
}

// runGC runs periodic garbage collection in the background
func (b *BadgerPersistence) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && err != badgerdb.ErrNoRewrite {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// SaveBackup stores a backup.
func (b *BadgerPersistence) SaveBackup(record *persistence.BackupRecord) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	data, err := persistence.MarshalBackupRecord(record)
	if err != nil {
		return fmt.Errorf("failed to marshal BackupRecord: %w", err)
	}

	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(keyPrefixBackup+record.ID), data)
	})
}

// LoadBackup retrieves a backup by ID.
func (b *BadgerPersistence) LoadBackup(id string) (*persistence.BackupRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	var data []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keyPrefixBackup + id))
		if err == badgerdb.ErrKeyNotFound {
			return nil // Not found is not an error
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...) // Copy value
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load BackupRecord: %w", err)
	}

	if data == nil {
		return nil, nil
	}

	record, err := persistence.UnmarshalBackupRecord(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal BackupRecord: %w", err)
	}
	return record, nil
}

// ListBackups returns all backups, newest first.
func (b *BadgerPersistence) ListBackups() ([]*persistence.BackupRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	records := []*persistence.BackupRecord{}

	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefixBackup)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			var data []byte
			err := item.Value(func(val []byte) error {
				data = append([]byte{}, val...) // Copy value
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to read value: %w", err)
			}

			record, err := persistence.UnmarshalBackupRecord(data)
			if err != nil {
				b.logger.Sugar().Warnw("Failed to unmarshal BackupRecord, skipping",
					"key", string(item.Key()), "error", err)
				continue
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list BackupRecords: %w", err)
	}

	persistence.SortBackups(records)
	return records, nil
}

// DeleteBackup removes a backup.
func (b *BadgerPersistence) DeleteBackup(id string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete([]byte(keyPrefixBackup + id))
	})
}

// Close shuts down the persistence layer
func (b *BadgerPersistence) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil // Already closed, idempotent
	}
	b.closed = true
	b.mu.Unlock()

	if b.gcCancel != nil {
		b.gcCancel()
	}
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}

	b.logger.Sugar().Info("Badger persistence closed")
	return nil
}

// HealthCheck verifies the persistence layer is operational
func (b *BadgerPersistence) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return fmt.Errorf("schema version not found - database may be corrupted")
		}
		return err
	})
}
