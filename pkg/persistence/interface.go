package persistence

// IBackupPersistence stores encrypted seed backups.
// All implementations must be thread-safe.
type IBackupPersistence interface {
	// SaveBackup stores a backup under its ID, overwriting any existing
	// record with the same ID.
	SaveBackup(record *BackupRecord) error

	// LoadBackup retrieves a backup by ID.
	// Returns nil if the backup doesn't exist, error only on storage failure.
	LoadBackup(id string) (*BackupRecord, error)

	// ListBackups returns all backups, newest first.
	// Returns empty slice if no backups exist.
	ListBackups() ([]*BackupRecord, error)

	// DeleteBackup removes a backup. Idempotent.
	DeleteBackup(id string) error

	// Close cleanly shuts down the persistence layer.
	// Idempotent - safe to call multiple times.
	Close() error

	// HealthCheck verifies the persistence layer is operational.
	HealthCheck() error
}
