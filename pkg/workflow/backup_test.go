package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/hww-signer-go/pkg/encryption"
	"github.com/Layr-Labs/hww-signer-go/pkg/errkind"
	"github.com/Layr-Labs/hww-signer-go/pkg/keystore"
	"github.com/Layr-Labs/hww-signer-go/pkg/persistence"
	"github.com/Layr-Labs/hww-signer-go/pkg/persistence/memory"
	"github.com/Layr-Labs/hww-signer-go/pkg/types"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

var testKDF = encryption.KDFParams{Time: 1, MemoryKB: 64, Threads: 1}

type mockConfirmer struct {
	mock.Mock
}

func (m *mockConfirmer) Confirm(ctx context.Context, params ConfirmParams) bool {
	return m.Called(params.Title).Bool(0)
}

func (m *mockConfirmer) VerifyRecipient(ctx context.Context, recipient, amount string) bool {
	return m.Called(recipient, amount).Bool(0)
}

func (m *mockConfirmer) VerifyTotalFee(ctx context.Context, total, fee string) bool {
	return m.Called(total, fee).Bool(0)
}

type failingStore struct {
	persistence.IBackupPersistence
}

func (failingStore) ListBackups() ([]*persistence.BackupRecord, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) LoadBackup(string) (*persistence.BackupRecord, error) {
	return nil, errors.New("disk on fire")
}

func newSeededKeystore(t *testing.T) *keystore.KeyStore {
	t.Helper()
	ks := keystore.NewKeyStore(nil)
	require.NoError(t, ks.LoadMnemonic(testMnemonic, ""))
	return ks
}

func newTestBackupService(ks SeedStore, store persistence.IBackupPersistence, confirmer Confirmer) *BackupService {
	return NewBackupService(ks, store, encryption.NewBackupEncryption(testKDF), []byte("hunter2"), confirmer, nil)
}

func TestBackup_CreateListRestore(t *testing.T) {
	ctx := context.Background()
	ks := newSeededKeystore(t)
	store := memory.NewMemoryPersistence(nil)
	svc := newTestBackupService(ks, store, NewAutoConfirmer(true, nil))

	_, err := svc.Create(ctx, &types.CreateBackupRequest{Name: "first", Timestamp: 100})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &types.CreateBackupRequest{Name: "second", Timestamp: 200})
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list.Backups, 2)
	assert.Equal(t, "second", list.Backups[0].Name)
	assert.Equal(t, uint32(200), list.Backups[0].Timestamp)
	assert.Equal(t, "first", list.Backups[1].Name)

	original, err := ks.CopySeed()
	require.NoError(t, err)

	// restore into a fresh device
	fresh := keystore.NewKeyStore(nil)
	restoreSvc := newTestBackupService(fresh, store, NewAutoConfirmer(true, nil))
	_, err = restoreSvc.Restore(ctx, &types.RestoreBackupRequest{ID: list.Backups[1].ID})
	require.NoError(t, err)

	restored, err := fresh.CopySeed()
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestBackup_StoresOnlyCiphertext(t *testing.T) {
	ctx := context.Background()
	ks := newSeededKeystore(t)
	store := memory.NewMemoryPersistence(nil)
	svc := newTestBackupService(ks, store, NewAutoConfirmer(true, nil))

	_, err := svc.Create(ctx, &types.CreateBackupRequest{Name: "wallet", Timestamp: 1})
	require.NoError(t, err)

	records, err := store.ListBackups()
	require.NoError(t, err)
	require.Len(t, records, 1)

	seed, err := ks.CopySeed()
	require.NoError(t, err)
	assert.NotContains(t, string(records[0].Ciphertext), string(seed))
}

func TestBackup_CreateErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("not seeded", func(t *testing.T) {
		svc := newTestBackupService(keystore.NewKeyStore(nil), memory.NewMemoryPersistence(nil), NewAutoConfirmer(true, nil))
		_, err := svc.Create(ctx, &types.CreateBackupRequest{Name: "wallet"})
		assert.Equal(t, errkind.InvalidState, errkind.Of(err))
	})

	for _, name := range []string{"", "line\nbreak", string(make([]byte, MaxBackupNameLen+1)), "\xff"} {
		t.Run("invalid name", func(t *testing.T) {
			svc := newTestBackupService(newSeededKeystore(t), memory.NewMemoryPersistence(nil), NewAutoConfirmer(true, nil))
			_, err := svc.Create(ctx, &types.CreateBackupRequest{Name: name})
			assert.Equal(t, errkind.InvalidInput, errkind.Of(err))
		})
	}

	t.Run("duplicate name", func(t *testing.T) {
		svc := newTestBackupService(newSeededKeystore(t), memory.NewMemoryPersistence(nil), NewAutoConfirmer(true, nil))
		_, err := svc.Create(ctx, &types.CreateBackupRequest{Name: "wallet", Timestamp: 1})
		require.NoError(t, err)
		_, err = svc.Create(ctx, &types.CreateBackupRequest{Name: "wallet", Timestamp: 2})
		assert.ErrorIs(t, err, ErrBackupDuplicate)
		assert.Equal(t, errkind.Duplicate, errkind.Of(err))
	})

	t.Run("rejected", func(t *testing.T) {
		confirmer := &mockConfirmer{}
		confirmer.On("Confirm", "Create backup").Return(false).Once()
		store := memory.NewMemoryPersistence(nil)
		svc := newTestBackupService(newSeededKeystore(t), store, confirmer)

		_, err := svc.Create(ctx, &types.CreateBackupRequest{Name: "wallet"})
		assert.Equal(t, errkind.UserAbort, errkind.Of(err))
		confirmer.AssertExpectations(t)

		records, err := store.ListBackups()
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("storage failure", func(t *testing.T) {
		svc := newTestBackupService(newSeededKeystore(t), failingStore{}, NewAutoConfirmer(true, nil))
		_, err := svc.Create(ctx, &types.CreateBackupRequest{Name: "wallet"})
		assert.Equal(t, errkind.Generic, errkind.Of(err))
	})
}

func TestBackup_RestoreFailuresAreGeneric(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemoryPersistence(nil)
	creator := newTestBackupService(newSeededKeystore(t), store, NewAutoConfirmer(true, nil))
	_, err := creator.Create(ctx, &types.CreateBackupRequest{Name: "wallet", Timestamp: 1})
	require.NoError(t, err)
	list, err := creator.List(ctx)
	require.NoError(t, err)
	id := list.Backups[0].ID

	t.Run("unknown id", func(t *testing.T) {
		svc := newTestBackupService(keystore.NewKeyStore(nil), store, NewAutoConfirmer(true, nil))
		_, err := svc.Restore(ctx, &types.RestoreBackupRequest{ID: "nope"})
		assert.Equal(t, errkind.Generic, errkind.Of(err))
	})

	t.Run("rejected", func(t *testing.T) {
		confirmer := &mockConfirmer{}
		confirmer.On("Confirm", "Restore backup").Return(false).Once()
		ks := keystore.NewKeyStore(nil)
		svc := newTestBackupService(ks, store, confirmer)
		_, err := svc.Restore(ctx, &types.RestoreBackupRequest{ID: id})
		assert.Equal(t, errkind.Generic, errkind.Of(err))
		assert.False(t, ks.IsSeeded())
		confirmer.AssertExpectations(t)
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		ks := keystore.NewKeyStore(nil)
		svc := NewBackupService(ks, store, encryption.NewBackupEncryption(testKDF), []byte("other"), NewAutoConfirmer(true, nil), nil)
		_, err := svc.Restore(ctx, &types.RestoreBackupRequest{ID: id})
		assert.Equal(t, errkind.Generic, errkind.Of(err))
		assert.False(t, ks.IsSeeded())
	})

	t.Run("storage failure", func(t *testing.T) {
		svc := newTestBackupService(keystore.NewKeyStore(nil), failingStore{}, NewAutoConfirmer(true, nil))
		_, err := svc.Restore(ctx, &types.RestoreBackupRequest{ID: id})
		assert.Equal(t, errkind.Generic, errkind.Of(err))
	})
}

func TestBackup_ListStorageFailure(t *testing.T) {
	svc := newTestBackupService(newSeededKeystore(t), failingStore{}, NewAutoConfirmer(true, nil))
	_, err := svc.List(context.Background())
	assert.Equal(t, errkind.Generic, errkind.Of(err))
}

func TestAutoConfirmer(t *testing.T) {
	ctx := context.Background()
	assert.True(t, NewAutoConfirmer(true, nil).Confirm(ctx, ConfirmParams{Title: "x"}))
	assert.False(t, NewAutoConfirmer(false, nil).Confirm(ctx, ConfirmParams{Title: "x"}))
	assert.True(t, NewAutoConfirmer(false, nil).Confirm(ctx, ConfirmParams{Title: "x", AcceptOnly: true}))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	a := NewAutoConfirmer(true, nil)
	assert.False(t, a.Confirm(cancelled, ConfirmParams{}))
	assert.False(t, a.VerifyRecipient(cancelled, "addr", "1 BTC"))
	assert.False(t, a.VerifyTotalFee(cancelled, "1 BTC", "0.1 BTC"))
}
