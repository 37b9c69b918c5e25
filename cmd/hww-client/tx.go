package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Layr-Labs/hww-signer-go/pkg/client"
	"github.com/Layr-Labs/hww-signer-go/pkg/types"
	"github.com/Layr-Labs/hww-signer-go/pkg/util"
)

// txFile is the YAML description of a transaction to sign:
//
//	coin: btc
//	scriptType: p2wpkh
//	account: m/84'/0'/0'
//	version: 2
//	inputs:
//	  - prevOutHash: 4141...41   # 32 bytes, serialization byte order
//	    prevOutIndex: 0
//	    value: 5000
//	    keypath: m/84'/0'/0'/0/0
//	outputs:
//	  - type: p2wpkh
//	    hash: 4242...42
//	    value: 4000
//	  - change: true
//	    keypath: m/84'/0'/0'/1/0
//	    value: 900
type txFile struct {
	Coin       string     `yaml:"coin"`
	ScriptType string     `yaml:"scriptType"`
	Account    string     `yaml:"account"`
	Version    uint32     `yaml:"version"`
	Locktime   uint32     `yaml:"locktime"`
	Inputs     []txInput  `yaml:"inputs"`
	Outputs    []txOutput `yaml:"outputs"`
}

type txInput struct {
	PrevOutHash  string  `yaml:"prevOutHash"`
	PrevOutIndex uint32  `yaml:"prevOutIndex"`
	Value        uint64  `yaml:"value"`
	Sequence     *uint32 `yaml:"sequence"`
	Keypath      string  `yaml:"keypath"`
}

type txOutput struct {
	Change  bool   `yaml:"change"`
	Type    string `yaml:"type"`
	Hash    string `yaml:"hash"`
	Value   uint64 `yaml:"value"`
	Keypath string `yaml:"keypath"`
}

func loadTxFile(path string) (*client.BtcTransaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction file: %w", err)
	}
	var f txFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse transaction file %s: %w", path, err)
	}
	return f.toTransaction()
}

func (f *txFile) toTransaction() (*client.BtcTransaction, error) {
	coin, err := parseBtcCoin(f.Coin)
	if err != nil {
		return nil, err
	}
	scriptType, err := parseScriptType(f.ScriptType)
	if err != nil {
		return nil, err
	}
	account, err := util.ParseKeypath(f.Account)
	if err != nil {
		return nil, err
	}

	tx := &client.BtcTransaction{
		Coin:         coin,
		ScriptConfig: types.BtcScriptConfig{ScriptType: scriptType, Keypath: account},
		Version:      f.Version,
		Locktime:     f.Locktime,
	}
	if tx.Version == 0 {
		tx.Version = 2
	}

	for i, in := range f.Inputs {
		hash, err := hex.DecodeString(in.PrevOutHash)
		if err != nil {
			return nil, fmt.Errorf("input %d: invalid prevOutHash: %w", i, err)
		}
		keypath, err := util.ParseKeypath(in.Keypath)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		sequence := uint32(0xffffffff)
		if in.Sequence != nil {
			sequence = *in.Sequence
		}
		tx.Inputs = append(tx.Inputs, types.BtcSignInputRequest{
			PrevOutHash:  hash,
			PrevOutIndex: in.PrevOutIndex,
			PrevOutValue: in.Value,
			Sequence:     sequence,
			Keypath:      keypath,
		})
	}

	for i, out := range f.Outputs {
		req := types.BtcSignOutputRequest{Ours: out.Change, Value: out.Value}
		if out.Change {
			if req.Keypath, err = util.ParseKeypath(out.Keypath); err != nil {
				return nil, fmt.Errorf("output %d: %w", i, err)
			}
		} else {
			if req.Type, err = parseOutputType(out.Type); err != nil {
				return nil, fmt.Errorf("output %d: %w", i, err)
			}
			if req.Hash, err = hex.DecodeString(out.Hash); err != nil {
				return nil, fmt.Errorf("output %d: invalid hash: %w", i, err)
			}
		}
		tx.Outputs = append(tx.Outputs, req)
	}
	return tx, nil
}

func parseBtcCoin(s string) (types.BtcCoin, error) {
	for _, coin := range []types.BtcCoin{types.BtcCoinBTC, types.BtcCoinTBTC, types.BtcCoinLTC, types.BtcCoinTLTC} {
		if strings.EqualFold(s, coin.String()) {
			return coin, nil
		}
	}
	return 0, fmt.Errorf("unknown coin %q", s)
}

func parseScriptType(s string) (types.BtcScriptType, error) {
	switch strings.ToLower(s) {
	case "p2wpkh", "":
		return types.ScriptP2WPKH, nil
	case "p2wpkh-p2sh":
		return types.ScriptP2WPKHP2SH, nil
	}
	return 0, fmt.Errorf("unknown script type %q", s)
}

func parseOutputType(s string) (types.BtcOutputType, error) {
	switch strings.ToLower(s) {
	case "p2pkh":
		return types.OutputP2PKH, nil
	case "p2sh":
		return types.OutputP2SH, nil
	case "p2wpkh":
		return types.OutputP2WPKH, nil
	case "p2wsh":
		return types.OutputP2WSH, nil
	case "p2tr":
		return types.OutputP2TR, nil
	}
	return 0, fmt.Errorf("unknown output type %q", s)
}

func parseEthCoin(s string) (types.EthCoin, error) {
	switch strings.ToLower(s) {
	case "mainnet", "":
		return types.EthCoinMainnet, nil
	case "sepolia":
		return types.EthCoinSepolia, nil
	}
	return 0, fmt.Errorf("unknown network %q", s)
}
