package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/hww-signer-go/pkg/config"
	"github.com/Layr-Labs/hww-signer-go/pkg/keystore"
	"github.com/Layr-Labs/hww-signer-go/pkg/logger"
	"github.com/Layr-Labs/hww-signer-go/pkg/node"
)

func main() {
	app := &cli.App{
		Name:  "hww-emulator",
		Usage: "Software hardware-wallet signer",
		Description: `Runs the signer's command processor behind an HTTP transport.

Hosts POST encoded requests to /api and receive one encoded response each.
Bitcoin and Litecoin transactions are signed through a streaming protocol,
Ethereum legacy transactions in a single request. Seed backups are kept
encrypted in memory, on disk (badger) or in redis.`,
		Version: node.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file; flags override its values",
				EnvVars: []string{config.EnvHWWConfigFile},
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   config.DefaultPort,
				Usage:   "HTTP server port",
				EnvVars: []string{config.EnvHWWPort},
			},
			&cli.StringFlag{
				Name:    "device-name",
				Value:   config.DefaultDeviceName,
				Usage:   "Name reported by DeviceInfo",
				EnvVars: []string{config.EnvHWWDeviceName},
			},
			&cli.StringFlag{
				Name:    "mnemonic",
				Usage:   "BIP39 mnemonic to seed the device with",
				EnvVars: []string{config.EnvHWWMnemonic},
			},
			&cli.BoolFlag{
				Name:  "generate-mnemonic",
				Usage: "Seed the device with a fresh 24-word mnemonic and print it",
			},
			&cli.StringFlag{
				Name:    "backup-passphrase",
				Usage:   "Passphrase protecting stored backups",
				EnvVars: []string{config.EnvHWWBackupPassphrase},
			},
			&cli.StringFlag{
				Name:    "persistence",
				Value:   string(config.PersistenceMemory),
				Usage:   "Backup storage: memory, badger or redis",
				EnvVars: []string{config.EnvHWWPersistenceType},
			},
			&cli.StringFlag{
				Name:    "data-path",
				Usage:   "Badger data directory",
				EnvVars: []string{config.EnvHWWDataPath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis address (host:port)",
				EnvVars: []string{config.EnvHWWRedisAddress},
			},
			&cli.BoolFlag{
				Name:    "auto-confirm",
				Usage:   "Accept every on-device confirmation",
				EnvVars: []string{config.EnvHWWAutoConfirm},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvHWWVerbose},
			},
		},
		Action: runEmulator,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runEmulator(c *cli.Context) error {
	cfg, err := parseSignerConfig(c)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Verbose})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	if c.Bool("generate-mnemonic") {
		mnemonic, err := keystore.GenerateMnemonic()
		if err != nil {
			return fmt.Errorf("failed to generate mnemonic: %w", err)
		}
		cfg.Mnemonic = mnemonic
		fmt.Println(mnemonic)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	n, err := node.NewNode(cfg, node.Options{}, l)
	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}

	if err := n.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	l.Sugar().Infow("Device running", "name", cfg.DeviceName, "port", cfg.Port)
	l.Sugar().Infow("Available endpoints",
		"api", "POST /api",
		"health", "GET /healthz",
		"metrics", "GET /metrics")
	l.Sugar().Info("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	l.Sugar().Infow("Shutting down device")
	return n.Stop()
}

// parseSignerConfig layers explicitly set flags over the config file, and
// the config file over the defaults.
func parseSignerConfig(c *cli.Context) (*config.SignerConfig, error) {
	cfg := config.DefaultSignerConfig()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}
	if c.IsSet("device-name") {
		cfg.DeviceName = c.String("device-name")
	}
	if c.IsSet("mnemonic") {
		cfg.Mnemonic = c.String("mnemonic")
	}
	if c.IsSet("backup-passphrase") {
		cfg.BackupPassphrase = c.String("backup-passphrase")
	}
	if c.IsSet("persistence") {
		cfg.Persistence.Type = config.PersistenceType(c.String("persistence"))
	}
	if c.IsSet("data-path") {
		cfg.Persistence.DataPath = c.String("data-path")
	}
	if c.IsSet("redis-address") {
		cfg.Persistence.Redis.Address = c.String("redis-address")
	}
	if c.IsSet("auto-confirm") {
		cfg.AutoConfirm = c.Bool("auto-confirm")
	}
	if c.IsSet("verbose") {
		cfg.Verbose = c.Bool("verbose")
		cfg.Debug = cfg.Verbose
	}
	return cfg, nil
}
