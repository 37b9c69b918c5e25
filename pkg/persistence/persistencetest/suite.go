// Package persistencetest holds the behaviour every IBackupPersistence
// implementation must show.
package persistencetest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/hww-signer-go/pkg/persistence"
)

// RunSuite runs the shared tests. newStore must return a fresh, empty store.
func RunSuite(t *testing.T, newStore func(t *testing.T) persistence.IBackupPersistence) {
	t.Run("SaveAndLoad", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		record := newRecord("wallet", 1700000000)
		require.NoError(t, store.SaveBackup(record))

		loaded, err := store.LoadBackup(record.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, record, loaded)
	})

	t.Run("LoadNotFound", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		loaded, err := store.LoadBackup(uuid.NewString())
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("Overwrite", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		record := newRecord("first", 1)
		require.NoError(t, store.SaveBackup(record))
		record.Name = "second"
		require.NoError(t, store.SaveBackup(record))

		loaded, err := store.LoadBackup(record.ID)
		require.NoError(t, err)
		assert.Equal(t, "second", loaded.Name)
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		empty, err := store.ListBackups()
		require.NoError(t, err)
		assert.Empty(t, empty)

		for i, ts := range []uint32{20, 30, 10} {
			require.NoError(t, store.SaveBackup(newRecord(fmt.Sprintf("b%d", i), ts)))
		}

		records, err := store.ListBackups()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []uint32{30, 20, 10}, []uint32{records[0].Timestamp, records[1].Timestamp, records[2].Timestamp})
	})

	t.Run("Delete", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		record := newRecord("wallet", 1)
		require.NoError(t, store.SaveBackup(record))
		require.NoError(t, store.DeleteBackup(record.ID))
		require.NoError(t, store.DeleteBackup(record.ID), "delete is idempotent")

		loaded, err := store.LoadBackup(record.ID)
		require.NoError(t, err)
		assert.Nil(t, loaded)

		records, err := store.ListBackups()
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("RejectsMissingID", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		assert.Error(t, store.SaveBackup(nil))
		assert.Error(t, store.SaveBackup(&persistence.BackupRecord{Name: "x"}))
	})

	t.Run("Concurrent", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, store.SaveBackup(newRecord(fmt.Sprintf("w%d", i), uint32(i))))
				_, err := store.ListBackups()
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		records, err := store.ListBackups()
		require.NoError(t, err)
		assert.Len(t, records, 10)
	})

	t.Run("Close", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.HealthCheck())
		require.NoError(t, store.Close())
		require.NoError(t, store.Close(), "close is idempotent")

		assert.Error(t, store.HealthCheck())
		assert.Error(t, store.SaveBackup(newRecord("late", 1)))
		_, err := store.ListBackups()
		assert.Error(t, err)
	})
}

func newRecord(name string, timestamp uint32) *persistence.BackupRecord {
	return &persistence.BackupRecord{
		ID:         uuid.NewString(),
		Name:       name,
		Timestamp:  timestamp,
		Ciphertext: []byte{0xde, 0xad, 0xbe, 0xef},
	}
}
