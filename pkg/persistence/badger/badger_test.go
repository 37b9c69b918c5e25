package badger

import (
	"testing"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/hww-signer-go/pkg/logger"
	"github.com/Layr-Labs/hww-signer-go/pkg/persistence"
	"github.com/Layr-Labs/hww-signer-go/pkg/persistence/persistencetest"
)

func newTestPersistence(t *testing.T, dir string) *BadgerPersistence {
	t.Helper()
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	bp, err := NewBadgerPersistence(dir, testLogger)
	require.NoError(t, err)
	return bp
}

func TestBadgerPersistence(t *testing.T) {
	persistencetest.RunSuite(t, func(t *testing.T) persistence.IBackupPersistence {
		return newTestPersistence(t, t.TempDir())
	})
}

func TestBadgerPersistence_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	bp := newTestPersistence(t, dir)
	record := &persistence.BackupRecord{ID: "id-1", Name: "wallet", Timestamp: 42, Ciphertext: []byte{1, 2, 3}}
	require.NoError(t, bp.SaveBackup(record))
	require.NoError(t, bp.Close())

	reopened := newTestPersistence(t, dir)
	defer func() { _ = reopened.Close() }()

	loaded, err := reopened.LoadBackup("id-1")
	require.NoError(t, err)
	assert.Equal(t, record, loaded)
}

func TestBadgerPersistence_SkipsCorruptRecords(t *testing.T) {
	bp := newTestPersistence(t, t.TempDir())
	defer func() { _ = bp.Close() }()

	require.NoError(t, bp.SaveBackup(&persistence.BackupRecord{ID: "good", Name: "wallet"}))
	require.NoError(t, bp.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(keyPrefixBackup+"bad"), []byte("not json"))
	}))

	records, err := bp.ListBackups()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "good", records[0].ID)
}
