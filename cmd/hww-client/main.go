package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/hww-signer-go/pkg/client"
	"github.com/Layr-Labs/hww-signer-go/pkg/config"
	"github.com/Layr-Labs/hww-signer-go/pkg/logger"
)

func main() {
	keypathFlag := &cli.StringFlag{
		Name:     "keypath",
		Usage:    "BIP32 keypath, e.g. m/84'/0'/0'/0/0",
		Required: true,
	}
	displayFlag := &cli.BoolFlag{
		Name:  "display",
		Usage: "Show the result on the device for verification",
	}

	app := &cli.App{
		Name:  "hww-client",
		Usage: "Host client for a hardware-wallet signer",
		Description: `Talks to a signer over its HTTP transport.

This client can:
- Query device information
- Derive Bitcoin, Litecoin and Ethereum xpubs and addresses
- Sign Bitcoin transactions described in a YAML file
- Sign Ethereum legacy transactions
- Create, list and restore encrypted seed backups`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "device-url",
				Usage:   "Base URL of the device",
				Value:   fmt.Sprintf("http://localhost:%d", config.DefaultPort),
				EnvVars: []string{config.EnvHWWDeviceURL},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvHWWVerbose},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "info",
				Usage:  "Show device name, version and capabilities",
				Action: infoCommand,
			},
			{
				Name:  "btc-pub",
				Usage: "Get a bitcoin-family xpub or address",
				Flags: []cli.Flag{
					keypathFlag,
					displayFlag,
					&cli.StringFlag{Name: "coin", Value: "btc", Usage: "btc, tbtc, ltc or tltc"},
					&cli.StringFlag{Name: "script-type", Value: "p2wpkh", Usage: "p2wpkh or p2wpkh-p2sh"},
					&cli.BoolFlag{Name: "xpub", Usage: "Return the account xpub instead of an address"},
				},
				Action: btcPubCommand,
			},
			{
				Name:  "btc-sign",
				Usage: "Sign a bitcoin-family transaction described in a YAML file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tx", Usage: "Path to the transaction file", Required: true},
				},
				Action: btcSignCommand,
			},
			{
				Name:  "eth-pub",
				Usage: "Get an Ethereum xpub or address",
				Flags: []cli.Flag{
					keypathFlag,
					displayFlag,
					&cli.StringFlag{Name: "network", Value: "mainnet", Usage: "mainnet or sepolia"},
					&cli.BoolFlag{Name: "xpub", Usage: "Return the account xpub instead of an address"},
				},
				Action: ethPubCommand,
			},
			{
				Name:  "eth-sign",
				Usage: "Sign an Ethereum legacy transaction",
				Flags: []cli.Flag{
					keypathFlag,
					&cli.StringFlag{Name: "network", Value: "mainnet", Usage: "mainnet or sepolia"},
					&cli.Uint64Flag{Name: "nonce", Usage: "Account nonce"},
					&cli.StringFlag{Name: "gas-price", Usage: "Gas price in wei (decimal)", Required: true},
					&cli.Uint64Flag{Name: "gas-limit", Value: 21000, Usage: "Gas limit"},
					&cli.StringFlag{Name: "to", Usage: "Recipient address (0x...)", Required: true},
					&cli.StringFlag{Name: "value", Value: "0", Usage: "Value in wei (decimal)"},
					&cli.StringFlag{Name: "data", Usage: "Call data (hex)"},
				},
				Action: ethSignCommand,
			},
			{
				Name:  "backup",
				Usage: "Manage seed backups",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List stored backups",
						Action: backupListCommand,
					},
					{
						Name:  "create",
						Usage: "Back up the device seed",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "name", Usage: "Backup name", Required: true},
						},
						Action: backupCreateCommand,
					},
					{
						Name:  "restore",
						Usage: "Restore the device seed from a backup",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "id", Usage: "Backup ID", Required: true},
						},
						Action: backupRestoreCommand,
					},
				},
			},
			{
				Name:   "abort",
				Usage:  "Abort the device's signing session",
				Action: abortCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// createClient creates a new device client from CLI context
func createClient(c *cli.Context) (*client.Client, func(), error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	dc, err := client.NewClient(&client.ClientConfig{
		DeviceURL: c.String("device-url"),
		Logger:    l,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create client: %w", err)
	}
	return dc, func() { _ = l.Sync() }, nil
}
