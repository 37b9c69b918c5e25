// Package node runs an emulated signing device: a commander wired to a key
// store, backup storage and an HTTP transport.
package node

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Layr-Labs/hww-signer-go/pkg/codec"
	"github.com/Layr-Labs/hww-signer-go/pkg/commander"
	"github.com/Layr-Labs/hww-signer-go/pkg/config"
	"github.com/Layr-Labs/hww-signer-go/pkg/encryption"
	"github.com/Layr-Labs/hww-signer-go/pkg/keystore"
	"github.com/Layr-Labs/hww-signer-go/pkg/persistence"
	"github.com/Layr-Labs/hww-signer-go/pkg/workflow"
)

// Version is reported by DeviceInfo. Overridden at build time with
// -ldflags "-X github.com/Layr-Labs/hww-signer-go/pkg/node.Version=...".
var Version = "dev"

// Node is one emulated device.
type Node struct {
	DeviceName string
	Port       int

	keyStore  *keystore.KeyStore
	store     persistence.IBackupPersistence
	backups   *workflow.BackupService
	commander *commander.Commander
	server    *Server
	registry  *prometheus.Registry
	logger    *zap.Logger
}

// Options override collaborators, mainly for tests.
type Options struct {
	// Confirmer replaces the auto confirmer built from cfg.AutoConfirm.
	Confirmer workflow.Confirmer
	// Store replaces the store built from cfg.Persistence.
	Store persistence.IBackupPersistence
	// KDFParams replaces encryption.DefaultKDFParams.
	KDFParams *encryption.KDFParams
}

// NewNode builds a device from cfg. The config must have passed Validate.
func NewNode(cfg *config.SignerConfig, opts Options, logger *zap.Logger) (*Node, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ks := keystore.NewKeyStore(logger)
	if cfg.Mnemonic != "" {
		if err := ks.LoadMnemonic(cfg.Mnemonic, ""); err != nil {
			return nil, fmt.Errorf("failed to load mnemonic: %w", err)
		}
	} else {
		logger.Sugar().Warnw("No mnemonic configured, device starts unseeded")
	}

	confirmer := opts.Confirmer
	if confirmer == nil {
		confirmer = workflow.NewAutoConfirmer(cfg.AutoConfirm, logger)
	}

	store := opts.Store
	if store == nil {
		var err error
		if store, err = NewPersistence(cfg.Persistence, logger); err != nil {
			return nil, err
		}
	}

	var backups *workflow.BackupService
	if cfg.Capabilities.Backup {
		kdf := encryption.DefaultKDFParams
		if opts.KDFParams != nil {
			kdf = *opts.KDFParams
		}
		backups = workflow.NewBackupService(ks, store, encryption.NewBackupEncryption(kdf),
			[]byte(cfg.BackupPassphrase), confirmer, logger)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cmd := commander.NewCommander(&commander.Config{
		Codec:        codec.MustNewCBOR(),
		Capabilities: cfg.Capabilities,
		Limits:       cfg.Limits,
		Keystore:     ks,
		Confirmer:    confirmer,
		Backups:      backups,
		DeviceName:   cfg.DeviceName,
		Version:      Version,
		Registerer:   registry,
	}, logger)

	n := &Node{
		DeviceName: cfg.DeviceName,
		Port:       cfg.Port,
		keyStore:   ks,
		store:      store,
		backups:    backups,
		commander:  cmd,
		registry:   registry,
		logger:     logger,
	}
	n.server = NewServer(n, cfg.Port, cfg.RateLimit)

	logger.Sugar().Infow("Device initialized",
		"name", cfg.DeviceName,
		"capabilities", cfg.Capabilities.List(),
		"max_inputs", cfg.Limits.MaxInputs,
		"max_outputs", cfg.Limits.MaxOutputs,
		"persistence", cfg.Persistence.Type,
	)
	return n, nil
}

// Start starts the node's HTTP server
func (n *Node) Start() error {
	return n.server.Start()
}

// Stop resets the device, stops the server and closes storage. Secrets
// are erased.
func (n *Node) Stop() error {
	n.commander.Reset()
	serverErr := n.server.Stop()
	if n.backups != nil {
		n.backups.Close()
	}
	n.keyStore.Lock()
	if err := n.store.Close(); err != nil {
		return fmt.Errorf("failed to close persistence: %w", err)
	}
	return serverErr
}

// Reset aborts any signing session, as a device reset would.
func (n *Node) Reset() {
	n.commander.Reset()
}

// GetHandler returns the HTTP handler (for testing)
func (n *Node) GetHandler() http.Handler {
	return n.server.GetHandler()
}
