package main

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/Layr-Labs/hww-signer-go/pkg/types"
	"github.com/Layr-Labs/hww-signer-go/pkg/util"
)

func infoCommand(c *cli.Context) error {
	dc, done, err := createClient(c)
	if err != nil {
		return err
	}
	defer done()

	info, err := dc.DeviceInfo(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("Name:         %s\n", info.Name)
	fmt.Printf("Version:      %s\n", info.Version)
	fmt.Printf("Seeded:       %t\n", info.Seeded)
	caps := make([]string, 0, len(info.Capabilities))
	for _, capability := range info.Capabilities {
		caps = append(caps, string(capability))
	}
	fmt.Printf("Capabilities: %s\n", strings.Join(caps, ", "))
	return nil
}

func btcPubCommand(c *cli.Context) error {
	keypath, err := util.ParseKeypath(c.String("keypath"))
	if err != nil {
		return err
	}
	coin, err := parseBtcCoin(c.String("coin"))
	if err != nil {
		return err
	}
	scriptType, err := parseScriptType(c.String("script-type"))
	if err != nil {
		return err
	}
	kind := types.PubAddress
	if c.Bool("xpub") {
		kind = types.PubXpub
	}

	dc, done, err := createClient(c)
	if err != nil {
		return err
	}
	defer done()

	pub, err := dc.BtcPub(c.Context, &types.BtcPubRequest{
		Coin:       coin,
		Keypath:    keypath,
		Kind:       kind,
		ScriptType: scriptType,
		Display:    c.Bool("display"),
	})
	if err != nil {
		return err
	}
	fmt.Println(pub)
	return nil
}

func btcSignCommand(c *cli.Context) error {
	tx, err := loadTxFile(c.String("tx"))
	if err != nil {
		return err
	}

	dc, done, err := createClient(c)
	if err != nil {
		return err
	}
	defer done()

	sigs, err := dc.BtcSign(c.Context, tx)
	if err != nil {
		return err
	}
	for i, sig := range sigs {
		fmt.Printf("input %d: %s\n", i, hex.EncodeToString(sig))
	}
	return nil
}

func ethPubCommand(c *cli.Context) error {
	keypath, err := util.ParseKeypath(c.String("keypath"))
	if err != nil {
		return err
	}
	coin, err := parseEthCoin(c.String("network"))
	if err != nil {
		return err
	}
	kind := types.PubAddress
	if c.Bool("xpub") {
		kind = types.PubXpub
	}

	dc, done, err := createClient(c)
	if err != nil {
		return err
	}
	defer done()

	pub, err := dc.EthPub(c.Context, &types.EthPubRequest{
		Coin:    coin,
		Keypath: keypath,
		Kind:    kind,
		Display: c.Bool("display"),
	})
	if err != nil {
		return err
	}
	fmt.Println(pub)
	return nil
}

func ethSignCommand(c *cli.Context) error {
	req, err := parseEthSign(c)
	if err != nil {
		return err
	}

	dc, done, err := createClient(c)
	if err != nil {
		return err
	}
	defer done()

	sig, err := dc.EthSign(c.Context, req)
	if err != nil {
		return err
	}
	fmt.Printf("r:     0x%x\n", sig[:32])
	fmt.Printf("s:     0x%x\n", sig[32:64])
	fmt.Printf("recid: %d\n", sig[64])
	return nil
}

func parseEthSign(c *cli.Context) (*types.EthSignRequest, error) {
	keypath, err := util.ParseKeypath(c.String("keypath"))
	if err != nil {
		return nil, err
	}
	coin, err := parseEthCoin(c.String("network"))
	if err != nil {
		return nil, err
	}
	to := c.String("to")
	if !common.IsHexAddress(to) {
		return nil, fmt.Errorf("invalid recipient address %q", to)
	}
	gasPrice, err := parseWei("gas-price", c.String("gas-price"))
	if err != nil {
		return nil, err
	}
	value, err := parseWei("value", c.String("value"))
	if err != nil {
		return nil, err
	}
	var data []byte
	if raw := c.String("data"); raw != "" {
		if data, err = hex.DecodeString(strings.TrimPrefix(raw, "0x")); err != nil {
			return nil, fmt.Errorf("invalid data: %w", err)
		}
	}

	return &types.EthSignRequest{
		Coin:      coin,
		Keypath:   keypath,
		Nonce:     new(big.Int).SetUint64(c.Uint64("nonce")).Bytes(),
		GasPrice:  gasPrice.Bytes(),
		GasLimit:  new(big.Int).SetUint64(c.Uint64("gas-limit")).Bytes(),
		Recipient: common.HexToAddress(to).Bytes(),
		Value:     value.Bytes(),
		Data:      data,
	}, nil
}

func parseWei(name, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}

func backupListCommand(c *cli.Context) error {
	dc, done, err := createClient(c)
	if err != nil {
		return err
	}
	defer done()

	backups, err := dc.ListBackups(c.Context)
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		fmt.Println("No backups")
		return nil
	}
	for _, b := range backups {
		created := time.Unix(int64(b.Timestamp), 0).UTC().Format(time.RFC3339)
		fmt.Printf("%s  %s  %s\n", b.ID, created, b.Name)
	}
	return nil
}

func backupCreateCommand(c *cli.Context) error {
	dc, done, err := createClient(c)
	if err != nil {
		return err
	}
	defer done()

	if err := dc.CreateBackup(c.Context, c.String("name"), time.Now()); err != nil {
		return err
	}
	fmt.Println("Backup created")
	return nil
}

func backupRestoreCommand(c *cli.Context) error {
	dc, done, err := createClient(c)
	if err != nil {
		return err
	}
	defer done()

	if err := dc.RestoreBackup(c.Context, c.String("id")); err != nil {
		return err
	}
	fmt.Println("Backup restored")
	return nil
}

func abortCommand(c *cli.Context) error {
	dc, done, err := createClient(c)
	if err != nil {
		return err
	}
	defer done()

	return dc.AbortSigning(c.Context)
}
