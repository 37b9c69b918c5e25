package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/Layr-Labs/hww-signer-go/pkg/types"
)

// Environment variable names for the emulator and host client
const (
	EnvHWWConfigFile       = "HWW_CONFIG_FILE"
	EnvHWWPort             = "HWW_PORT"
	EnvHWWDeviceName       = "HWW_DEVICE_NAME"
	EnvHWWMnemonic         = "HWW_MNEMONIC"
	EnvHWWBackupPassphrase = "HWW_BACKUP_PASSPHRASE"
	EnvHWWPersistenceType  = "HWW_PERSISTENCE_TYPE"
	EnvHWWDataPath         = "HWW_DATA_PATH"
	EnvHWWRedisAddress     = "HWW_REDIS_ADDRESS"
	EnvHWWAutoConfirm      = "HWW_AUTO_CONFIRM"
	EnvHWWDeviceURL        = "HWW_DEVICE_URL"
	EnvHWWVerbose          = "HWW_VERBOSE"
)

const (
	// DefaultMaxInputs and DefaultMaxOutputs bound a signing session unless
	// the configuration says otherwise.
	DefaultMaxInputs  = 128
	DefaultMaxOutputs = 128

	// HardMaxInputs and HardMaxOutputs cap what a configuration may ask for.
	HardMaxInputs  = 1024
	HardMaxOutputs = 1024

	DefaultPort       = 7575
	DefaultDeviceName = "hww-emulator"
)

type ChainId uint

const (
	ChainId_EthereumMainnet ChainId = 1
	ChainId_EthereumSepolia ChainId = 11155111
)

type ChainName string

const (
	ChainName_EthereumMainnet ChainName = "mainnet"
	ChainName_EthereumSepolia ChainName = "sepolia"
)

var ChainIdToName = map[ChainId]ChainName{
	ChainId_EthereumMainnet: ChainName_EthereumMainnet,
	ChainId_EthereumSepolia: ChainName_EthereumSepolia,
}

type PersistenceType string

const (
	PersistenceMemory PersistenceType = "memory"
	PersistenceBadger PersistenceType = "badger"
	PersistenceRedis  PersistenceType = "redis"
)

// Capabilities is the device's capability table. A disabled capability
// makes every request that needs it fail with "function disabled".
type Capabilities struct {
	Bitcoin  bool `json:"bitcoin" yaml:"bitcoin"`
	Litecoin bool `json:"litecoin" yaml:"litecoin"`
	Ethereum bool `json:"ethereum" yaml:"ethereum"`
	Backup   bool `json:"backup" yaml:"backup"`
}

// AllCapabilities enables every feature family.
func AllCapabilities() Capabilities {
	return Capabilities{Bitcoin: true, Litecoin: true, Ethereum: true, Backup: true}
}

// Enabled reports whether c is switched on. Unknown capabilities are off.
func (c Capabilities) Enabled(capability types.Capability) bool {
	switch capability {
	case types.CapabilityBitcoin:
		return c.Bitcoin
	case types.CapabilityLitecoin:
		return c.Litecoin
	case types.CapabilityEthereum:
		return c.Ethereum
	case types.CapabilityBackup:
		return c.Backup
	default:
		return false
	}
}

// List returns the enabled capabilities in a stable order.
func (c Capabilities) List() []types.Capability {
	var out []types.Capability
	for _, capability := range []types.Capability{
		types.CapabilityBitcoin,
		types.CapabilityLitecoin,
		types.CapabilityEthereum,
		types.CapabilityBackup,
	} {
		if c.Enabled(capability) {
			out = append(out, capability)
		}
	}
	return out
}

// SigningLimits bounds the size of a streamed transaction.
type SigningLimits struct {
	MaxInputs  uint32 `json:"max_inputs" yaml:"maxInputs"`
	MaxOutputs uint32 `json:"max_outputs" yaml:"maxOutputs"`
}

type RedisConfig struct {
	Address   string `json:"address" yaml:"address"`
	Password  string `json:"password" yaml:"password"`
	DB        int    `json:"db" yaml:"db"`
	KeyPrefix string `json:"key_prefix" yaml:"keyPrefix"`
}

type PersistenceConfig struct {
	Type     PersistenceType `json:"type" yaml:"type"`
	DataPath string          `json:"data_path" yaml:"dataPath"`
	Redis    RedisConfig     `json:"redis" yaml:"redis"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requestsPerSecond"`
	Burst             int     `json:"burst" yaml:"burst"`
}

// SignerConfig represents the complete configuration of a software device
type SignerConfig struct {
	DeviceName string `json:"device_name" yaml:"deviceName"`
	Port       int    `json:"port" yaml:"port"`

	Capabilities Capabilities  `json:"capabilities" yaml:"capabilities"`
	Limits       SigningLimits `json:"limits" yaml:"limits"`

	// Seed material. Only meant for emulators and tests.
	Mnemonic         string `json:"mnemonic" yaml:"mnemonic"`
	BackupPassphrase string `json:"backup_passphrase" yaml:"backupPassphrase"`

	Persistence PersistenceConfig `json:"persistence" yaml:"persistence"`
	RateLimit   RateLimitConfig   `json:"rate_limit" yaml:"rateLimit"`

	// AutoConfirm accepts every on-device confirmation.
	AutoConfirm bool `json:"auto_confirm" yaml:"autoConfirm"`

	Debug   bool `json:"debug" yaml:"debug"`
	Verbose bool `json:"verbose" yaml:"verbose"`
}

// DefaultSignerConfig returns a config with every capability enabled,
// in-memory backups and default signing limits.
func DefaultSignerConfig() *SignerConfig {
	return &SignerConfig{
		DeviceName:   DefaultDeviceName,
		Port:         DefaultPort,
		Capabilities: AllCapabilities(),
		Limits: SigningLimits{
			MaxInputs:  DefaultMaxInputs,
			MaxOutputs: DefaultMaxOutputs,
		},
		Persistence: PersistenceConfig{
			Type: PersistenceMemory,
			Redis: RedisConfig{
				Address:   "localhost:6379",
				KeyPrefix: "hww:",
			},
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
		},
	}
}

// LoadFromFile reads a YAML config on top of the defaults.
func LoadFromFile(path string) (*SignerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultSignerConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate validates the signer configuration
func (c *SignerConfig) Validate() error {
	var allErrors field.ErrorList

	if c.DeviceName == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("deviceName"), "deviceName is required"))
	}
	if c.Port < 1 || c.Port > 65535 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("port"), c.Port, "port must be between 1-65535"))
	}

	limits := field.NewPath("limits")
	if c.Limits.MaxInputs < 1 || c.Limits.MaxInputs > HardMaxInputs {
		allErrors = append(allErrors, field.Invalid(limits.Child("maxInputs"), c.Limits.MaxInputs,
			fmt.Sprintf("must be between 1 and %d", HardMaxInputs)))
	}
	if c.Limits.MaxOutputs < 1 || c.Limits.MaxOutputs > HardMaxOutputs {
		allErrors = append(allErrors, field.Invalid(limits.Child("maxOutputs"), c.Limits.MaxOutputs,
			fmt.Sprintf("must be between 1 and %d", HardMaxOutputs)))
	}

	persistence := field.NewPath("persistence")
	switch c.Persistence.Type {
	case PersistenceMemory:
	case PersistenceBadger:
		if c.Persistence.DataPath == "" {
			allErrors = append(allErrors, field.Required(persistence.Child("dataPath"), "dataPath is required for badger"))
		}
	case PersistenceRedis:
		if c.Persistence.Redis.Address == "" {
			allErrors = append(allErrors, field.Required(persistence.Child("redis", "address"), "address is required for redis"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(persistence.Child("type"), c.Persistence.Type,
			[]PersistenceType{PersistenceMemory, PersistenceBadger, PersistenceRedis}))
	}

	if c.Capabilities.Backup && c.BackupPassphrase == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("backupPassphrase"), "backupPassphrase is required when backups are enabled"))
	}

	if c.RateLimit.RequestsPerSecond < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("rateLimit", "requestsPerSecond"), c.RateLimit.RequestsPerSecond, "must not be negative"))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}
