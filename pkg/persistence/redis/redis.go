package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Layr-Labs/hww-signer-go/pkg/config"
	"github.com/Layr-Labs/hww-signer-go/pkg/persistence"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Key prefixes for namespacing in Redis
const (
	keyPrefixBackup      = "hww:backup:"
	keySchemaVersion     = "hww:metadata:schema_version"
	currentSchemaVersion = "v1"

	// Redis has no prefix iteration, so IDs are tracked in a set.
	keySetBackups = "hww:backups:index"

	operationTimeout = 5 * time.Second
)

// RedisPersistence stores backups in Redis, for emulators that share a
// backup store.
type RedisPersistence struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

var _ persistence.IBackupPersistence = (*RedisPersistence)(nil)

// NewRedisPersistence connects to Redis and validates the schema version.
// cfg.KeyPrefix, if set, is prepended to every key.
func NewRedisPersistence(cfg *config.RedisConfig, logger *zap.Logger) (*RedisPersistence, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rp := &RedisPersistence{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rp.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis persistence initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)

	return rp, nil
}

func (r *RedisPersistence) prefixKey(key string) string {
	return r.keyPrefix + key
}

// initSchema initializes or validates the schema version
func (r *RedisPersistence) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}
	return nil
}

// SaveBackup stores a backup and indexes its ID in one transaction.
func (r *RedisPersistence) SaveBackup(record *persistence.BackupRecord) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	data, err := persistence.MarshalBackupRecord(record)
	if err != nil {
		return fmt.Errorf("failed to marshal BackupRecord: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.prefixKey(keyPrefixBackup+record.ID), data, 0)
	pipe.SAdd(ctx, r.prefixKey(keySetBackups), record.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save BackupRecord: %w", err)
	}
	return nil
}

// LoadBackup retrieves a backup by ID.
func (r *RedisPersistence) LoadBackup(id string) (*persistence.BackupRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.prefixKey(keyPrefixBackup+id)).Bytes()
	if err == redis.Nil {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load BackupRecord: %w", err)
	}

	record, err := persistence.UnmarshalBackupRecord(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal BackupRecord: %w", err)
	}
	return record, nil
}

// ListBackups returns all backups, newest first.
func (r *RedisPersistence) ListBackups() ([]*persistence.BackupRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	indexKey := r.prefixKey(keySetBackups)
	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list backup ids: %w", err)
	}

	records := []*persistence.BackupRecord{}
	if len(ids) == 0 {
		return records, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.prefixKey(keyPrefixBackup + id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch BackupRecords: %w", err)
	}

	for i, val := range values {
		if val == nil {
			// indexed but gone, drop it from the index
			r.client.SRem(ctx, indexKey, ids[i])
			continue
		}

		data, ok := val.(string)
		if !ok {
			r.logger.Sugar().Warnw("Unexpected value type for BackupRecord", "key", keys[i])
			continue
		}

		record, err := persistence.UnmarshalBackupRecord([]byte(data))
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal BackupRecord, skipping",
				"key", keys[i], "error", err)
			continue
		}
		records = append(records, record)
	}

	persistence.SortBackups(records)
	return records, nil
}

// DeleteBackup removes a backup and its index entry.
func (r *RedisPersistence) DeleteBackup(id string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.prefixKey(keyPrefixBackup+id))
	pipe.SRem(ctx, r.prefixKey(keySetBackups), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete BackupRecord: %w", err)
	}
	return nil
}

// Close shuts down the persistence layer
func (r *RedisPersistence) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil // Already closed, idempotent
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis persistence closed")
	return nil
}

// HealthCheck pings Redis and checks the schema version key.
func (r *RedisPersistence) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	_, err := r.client.Get(ctx, r.prefixKey(keySchemaVersion)).Result()
	if err == redis.Nil {
		return fmt.Errorf("schema version not found - database may not be properly initialized")
	}
	if err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}
	return nil
}
