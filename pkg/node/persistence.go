package node

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Layr-Labs/hww-signer-go/pkg/config"
	"github.com/Layr-Labs/hww-signer-go/pkg/persistence"
	"github.com/Layr-Labs/hww-signer-go/pkg/persistence/badger"
	"github.com/Layr-Labs/hww-signer-go/pkg/persistence/memory"
	"github.com/Layr-Labs/hww-signer-go/pkg/persistence/redis"
)

// NewPersistence opens the backup store cfg names and checks it is usable.
func NewPersistence(cfg config.PersistenceConfig, logger *zap.Logger) (persistence.IBackupPersistence, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		store persistence.IBackupPersistence
		err   error
	)
	switch cfg.Type {
	case config.PersistenceMemory, "":
		store = memory.NewMemoryPersistence(logger)
	case config.PersistenceBadger:
		store, err = badger.NewBadgerPersistence(cfg.DataPath, logger)
	case config.PersistenceRedis:
		store, err = redis.NewRedisPersistence(&cfg.Redis, logger)
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s persistence: %w", cfg.Type, err)
	}

	if err := store.HealthCheck(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("persistence health check failed: %w", err)
	}
	return store, nil
}
