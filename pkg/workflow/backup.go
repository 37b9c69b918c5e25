package workflow

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Layr-Labs/hww-signer-go/pkg/encryption"
	"github.com/Layr-Labs/hww-signer-go/pkg/errkind"
	"github.com/Layr-Labs/hww-signer-go/pkg/persistence"
	"github.com/Layr-Labs/hww-signer-go/pkg/types"
)

// MaxBackupNameLen bounds backup names in bytes.
const MaxBackupNameLen = 64

var (
	ErrBackupNameInvalid = fmt.Errorf("%w: backup name must be 1-%d printable characters", errkind.InvalidInput, MaxBackupNameLen)
	ErrBackupDuplicate   = fmt.Errorf("%w: a backup with this name exists", errkind.Duplicate)
	ErrBackupNotFound    = fmt.Errorf("%w: backup not found", errkind.Generic)
	ErrRestoreFailed     = fmt.Errorf("%w: restore failed", errkind.Generic)
)

// SeedStore is the part of the key store backups need.
type SeedStore interface {
	IsSeeded() bool
	CopySeed() ([]byte, error)
	LoadSeed(seed []byte) error
}

// BackupService creates, lists and restores encrypted seed backups.
type BackupService struct {
	seeds      SeedStore
	store      persistence.IBackupPersistence
	encryption *encryption.BackupEncryption
	passphrase []byte
	confirmer  Confirmer
	logger     *zap.Logger
}

// NewBackupService copies passphrase; the caller may clear its own copy.
func NewBackupService(
	seeds SeedStore,
	store persistence.IBackupPersistence,
	enc *encryption.BackupEncryption,
	passphrase []byte,
	confirmer Confirmer,
	logger *zap.Logger,
) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{
		seeds:      seeds,
		store:      store,
		encryption: enc,
		passphrase: append([]byte(nil), passphrase...),
		confirmer:  confirmer,
		logger:     logger,
	}
}

// List returns the stored backups, newest first.
func (b *BackupService) List(ctx context.Context) (*types.ListBackupsResponse, error) {
	records, err := b.store.ListBackups()
	if err != nil {
		b.logger.Sugar().Errorw("Failed to list backups", "error", err)
		return nil, fmt.Errorf("%w: %v", errkind.Generic, err)
	}
	resp := &types.ListBackupsResponse{Backups: make([]types.BackupInfo, 0, len(records))}
	for _, record := range records {
		resp.Backups = append(resp.Backups, record.Info())
	}
	return resp, nil
}

// Create encrypts the current seed and stores it under a fresh ID.
func (b *BackupService) Create(ctx context.Context, req *types.CreateBackupRequest) (*types.SuccessResponse, error) {
	if !b.seeds.IsSeeded() {
		return nil, fmt.Errorf("%w: device is not seeded", errkind.InvalidState)
	}
	if !validBackupName(req.Name) {
		return nil, ErrBackupNameInvalid
	}

	existing, err := b.store.ListBackups()
	if err != nil {
		b.logger.Sugar().Errorw("Failed to list backups", "error", err)
		return nil, fmt.Errorf("%w: %v", errkind.Generic, err)
	}
	for _, record := range existing {
		if record.Name == req.Name {
			return nil, ErrBackupDuplicate
		}
	}

	if !b.confirmer.Confirm(ctx, ConfirmParams{
		Title: "Create backup",
		Body:  fmt.Sprintf("%s\n%s", req.Name, formatTimestamp(req.Timestamp)),
	}) {
		return nil, errkind.UserAbort
	}

	seed, err := b.seeds.CopySeed()
	if err != nil {
		return nil, err
	}
	defer clear(seed)

	id := uuid.NewString()
	ciphertext, err := b.encryption.Seal(seed, b.passphrase, []byte(id))
	if err != nil {
		b.logger.Sugar().Errorw("Failed to encrypt backup", "error", err)
		return nil, fmt.Errorf("%w: %v", errkind.Generic, err)
	}

	record := &persistence.BackupRecord{
		ID:         id,
		Name:       req.Name,
		Timestamp:  req.Timestamp,
		Ciphertext: ciphertext,
	}
	if err := b.store.SaveBackup(record); err != nil {
		b.logger.Sugar().Errorw("Failed to store backup", "error", err)
		return nil, fmt.Errorf("%w: %v", errkind.Generic, err)
	}

	b.logger.Sugar().Infow("Backup created", "id", id)
	return &types.SuccessResponse{}, nil
}

// Restore loads a backup into the key store, replacing the current seed.
// Every failure, rejection included, is reported as Generic.
func (b *BackupService) Restore(ctx context.Context, req *types.RestoreBackupRequest) (*types.SuccessResponse, error) {
	record, err := b.store.LoadBackup(req.ID)
	if err != nil {
		b.logger.Sugar().Errorw("Failed to load backup", "error", err)
		return nil, ErrRestoreFailed
	}
	if record == nil {
		return nil, ErrBackupNotFound
	}
	defer clear(record.Ciphertext)

	body := fmt.Sprintf("%s\n%s", record.Name, formatTimestamp(record.Timestamp))
	if b.seeds.IsSeeded() {
		body += "\nThis replaces the current wallet."
	}
	if !b.confirmer.Confirm(ctx, ConfirmParams{Title: "Restore backup", Body: body}) {
		return nil, ErrRestoreFailed
	}

	seed, err := b.encryption.Open(record.Ciphertext, b.passphrase, []byte(record.ID))
	if err != nil {
		b.logger.Sugar().Warnw("Failed to decrypt backup", "id", record.ID, "error", err)
		return nil, ErrRestoreFailed
	}
	defer clear(seed)

	if err := b.seeds.LoadSeed(seed); err != nil {
		b.logger.Sugar().Errorw("Failed to load restored seed", "error", err)
		return nil, ErrRestoreFailed
	}

	b.logger.Sugar().Infow("Backup restored", "id", record.ID)
	return &types.SuccessResponse{}, nil
}

// Close clears the backup passphrase.
func (b *BackupService) Close() {
	clear(b.passphrase)
}

func validBackupName(name string) bool {
	if name == "" || len(name) > MaxBackupNameLen || !utf8.ValidString(name) {
		return false
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}

func formatTimestamp(ts uint32) string {
	return time.Unix(int64(ts), 0).UTC().Format("2006-01-02 15:04 UTC")
}
