package memory

import (
	"fmt"
	"sync"

	"github.com/Layr-Labs/hww-signer-go/pkg/persistence"
	"go.uber.org/zap"
)

// MemoryPersistence is an in-memory implementation of IBackupPersistence.
// This implementation is intended for emulators and tests.
//
// All data is stored in memory and will be lost when the process exits.
// Records are deep copied in both directions.
type MemoryPersistence struct {
	mu      sync.RWMutex
	backups map[string]*persistence.BackupRecord
	closed  bool
}

var _ persistence.IBackupPersistence = (*MemoryPersistence)(nil)

// NewMemoryPersistence creates a new in-memory persistence layer and warns
// that backups will not survive a restart.
func NewMemoryPersistence(logger *zap.Logger) *MemoryPersistence {
	if logger != nil {
		logger.Sugar().Warnw("Using in-memory persistence, backups are lost on restart",
			"hint", "set HWW_PERSISTENCE_TYPE=badger to keep them")
	}
	return &MemoryPersistence{
		backups: make(map[string]*persistence.BackupRecord),
	}
}

// SaveBackup stores a backup.
func (m *MemoryPersistence) SaveBackup(record *persistence.BackupRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("cannot save BackupRecord without ID")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	m.backups[record.ID] = record.Clone()
	return nil
}

// LoadBackup retrieves a backup by ID.
func (m *MemoryPersistence) LoadBackup(id string) (*persistence.BackupRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	record, exists := m.backups[id]
	if !exists {
		return nil, nil // Not found is not an error
	}
	return record.Clone(), nil
}

// ListBackups returns all backups, newest first.
func (m *MemoryPersistence) ListBackups() ([]*persistence.BackupRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	result := make([]*persistence.BackupRecord, 0, len(m.backups))
	for _, record := range m.backups {
		result = append(result, record.Clone())
	}
	persistence.SortBackups(result)
	return result, nil
}

// DeleteBackup removes a backup.
func (m *MemoryPersistence) DeleteBackup(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	if record, ok := m.backups[id]; ok {
		clear(record.Ciphertext)
		delete(m.backups, id)
	}
	return nil
}

// Close marks the store closed and drops all records.
func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	for id, record := range m.backups {
		clear(record.Ciphertext)
		delete(m.backups, id)
	}
	return nil
}

// HealthCheck verifies the persistence layer is operational.
func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}
	return nil
}
