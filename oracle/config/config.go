package config

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/kcmikee/orbit/oracle/log"
	"github.com/kcmikee/orbit/oracle/types"
)

// Keys understood by the viper overlay. Flags are bound to the same names.
const (
	KeyPrivateKey     = "private_key"
	KeyStorkAPIKey    = "stork_api_key"
	KeyRPCURL         = "chain.rpc_url"
	KeyGasLimit       = "gas.limit"
	KeyReceiptMaxWait = "receipt.max_wait"
	KeyStorkAsset     = "stork.asset"
	KeyPythPriceID    = "pyth.price_id"
	KeyStaleAfter     = "verify.stale_after"
)

type configData struct {
	Chain   chainConfig   `toml:"chain"`
	Stork   storkConfig   `toml:"stork"`
	Pyth    pythConfig    `toml:"pyth"`
	Gas     gasConfig     `toml:"gas"`
	Receipt receiptConfig `toml:"receipt"`
	Verify  verifyConfig  `toml:"verify"`
}

type chainConfig struct {
	RPCURL  string `toml:"rpc_url"`
	ChainID uint64 `toml:"chain_id"`
}

type storkConfig struct {
	APIURL   string `toml:"api_url"`
	Contract string `toml:"contract"`
	Asset    string `toml:"asset"`
}

type pythConfig struct {
	HermesURL string `toml:"hermes_url"`
	Contract  string `toml:"contract"`
	PriceID   string `toml:"price_id"`
}

type gasConfig struct {
	Limit uint64 `toml:"limit"`
}

type receiptConfig struct {
	MaxWait      string `toml:"max_wait"`
	PollInterval string `toml:"poll_interval"`
}

type verifyConfig struct {
	StaleAfter string `toml:"stale_after"`
}

// Config is loaded once at startup and never mutated afterwards.
type Config struct {
	home string
	data configData

	maxWait      time.Duration
	pollInterval time.Duration
	staleAfter   time.Duration

	privateKey  string
	storkAPIKey string
}

func defaultConfig() configData {
	return configData{
		Chain: chainConfig{
			RPCURL:  "https://rpc.testnet.arc.network",
			ChainID: 5042002,
		},
		Stork: storkConfig{
			APIURL:   "https://rest.jp.stork-oracle.network/v1",
			Contract: "0xacC0a0cF13571d30B4b8637996F5D6D774d4fd62",
			Asset:    "ETHUSD",
		},
		Pyth: pythConfig{
			HermesURL: "https://hermes.pyth.network",
			Contract:  "0x2880aB155794e7179c9eE2e38200202908C17B43",
			PriceID:   "0xff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace",
		},
		Gas: gasConfig{
			Limit: 2000000,
		},
		Receipt: receiptConfig{
			MaxWait:      "2m",
			PollInterval: "1s",
		},
		Verify: verifyConfig{
			StaleAfter: "1h",
		},
	}
}

// DefaultHome is ~/.pricepush.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + types.AppName
	}

	return filepath.Join(home, "."+types.AppName)
}

// Load reads <home>/config.toml, creating it with defaults when missing, then
// applies .env files and the viper overlay (env vars and bound flags).
// overlay may be nil.
func Load(home string, overlay *viper.Viper) (*Config, error) {
	if home == "" {
		home = DefaultHome()
	}

	loadDotEnv(home)

	path := filepath.Join(home, "config.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefaultConfig(path); err != nil {
			return nil, errorsmod.Wrap(types.ErrConfig, err.Error())
		}
		log.Infof("Created default config at %s", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrConfig, "failed to read config file: %v", err)
	}

	data := defaultConfig()
	if err := toml.Unmarshal(raw, &data); err != nil {
		return nil, errorsmod.Wrapf(types.ErrConfig, "failed to parse TOML %s: %v", path, err)
	}

	if overlay == nil {
		overlay = viper.New()
	}
	BindEnv(overlay)

	cfg, err := build(home, data, overlay)
	if err != nil {
		return nil, err
	}

	log.Debugf("Loaded config from %s", path)
	return cfg, nil
}

// BindEnv maps the environment variables used by the original scripts onto
// overlay keys.
func BindEnv(v *viper.Viper) {
	_ = v.BindEnv(KeyPrivateKey, "PRIVATE_KEY")
	_ = v.BindEnv(KeyStorkAPIKey, "STORK_API_KEY")
	_ = v.BindEnv(KeyRPCURL, "ARC_TESTNET_RPC_URL")
}

func loadDotEnv(home string) {
	for _, path := range []string{".env", filepath.Join(home, ".env")} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			log.Warnf("Failed to load %s: %v", path, err)
			continue
		}
		log.Debugf("Loaded environment from %s", path)
	}
}

func createDefaultConfig(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := toml.Marshal(defaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal TOML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func build(home string, data configData, v *viper.Viper) (*Config, error) {
	if v.IsSet(KeyRPCURL) && v.GetString(KeyRPCURL) != "" {
		data.Chain.RPCURL = v.GetString(KeyRPCURL)
	}
	if v.IsSet(KeyStorkAsset) && v.GetString(KeyStorkAsset) != "" {
		data.Stork.Asset = v.GetString(KeyStorkAsset)
	}
	if v.IsSet(KeyPythPriceID) && v.GetString(KeyPythPriceID) != "" {
		data.Pyth.PriceID = v.GetString(KeyPythPriceID)
	}
	if v.IsSet(KeyGasLimit) {
		limit, err := cast.ToUint64E(v.Get(KeyGasLimit))
		if err != nil {
			return nil, errorsmod.Wrapf(types.ErrConfig, "invalid gas limit: %v", err)
		}
		if limit != 0 {
			data.Gas.Limit = limit
		}
	}
	if v.IsSet(KeyReceiptMaxWait) && v.GetString(KeyReceiptMaxWait) != "" {
		data.Receipt.MaxWait = v.GetString(KeyReceiptMaxWait)
	}
	if v.IsSet(KeyStaleAfter) && v.GetString(KeyStaleAfter) != "" {
		data.Verify.StaleAfter = v.GetString(KeyStaleAfter)
	}

	cfg := &Config{
		home:        home,
		data:        data,
		privateKey:  strings.TrimSpace(v.GetString(KeyPrivateKey)),
		storkAPIKey: strings.TrimSpace(v.GetString(KeyStorkAPIKey)),
	}

	var err error
	if cfg.maxWait, err = cast.ToDurationE(data.Receipt.MaxWait); err != nil {
		return nil, errorsmod.Wrapf(types.ErrConfig, "invalid receipt.max_wait %q", data.Receipt.MaxWait)
	}
	if cfg.pollInterval, err = cast.ToDurationE(data.Receipt.PollInterval); err != nil {
		return nil, errorsmod.Wrapf(types.ErrConfig, "invalid receipt.poll_interval %q", data.Receipt.PollInterval)
	}
	if cfg.staleAfter, err = cast.ToDurationE(data.Verify.StaleAfter); err != nil {
		return nil, errorsmod.Wrapf(types.ErrConfig, "invalid verify.stale_after %q", data.Verify.StaleAfter)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.data.Chain.RPCURL == "" {
		return errorsmod.Wrap(types.ErrConfig, "chain rpc_url is required")
	}

	if c.data.Gas.Limit == 0 {
		return errorsmod.Wrap(types.ErrConfig, "gas limit is required")
	}

	if c.maxWait <= 0 {
		return errorsmod.Wrap(types.ErrConfig, "receipt max_wait must be positive")
	}

	if c.pollInterval <= 0 {
		return errorsmod.Wrap(types.ErrConfig, "receipt poll_interval must be positive")
	}

	for name, addr := range map[string]string{
		"stork contract": c.data.Stork.Contract,
		"pyth contract":  c.data.Pyth.Contract,
	} {
		if !common.IsHexAddress(addr) {
			return errorsmod.Wrapf(types.ErrConfig, "invalid %s address %q", name, addr)
		}
	}

	return nil
}

func (c *Config) Print() {
	log.Infof("%-15s: %s", "Home", c.Home())
	log.Infof("%-15s: %s", "RPC URL", c.RPCURL())
	log.Infof("%-15s: %d", "Chain ID", c.ChainID())
	log.Infof("%-15s: %s", "Stork API", c.StorkAPIURL())
	log.Infof("%-15s: %s", "Stork Contract", c.StorkContract().Hex())
	log.Infof("%-15s: %s", "Stork Asset", c.StorkAsset())
	log.Infof("%-15s: %s", "Hermes URL", c.HermesURL())
	log.Infof("%-15s: %s", "Pyth Contract", c.PythContract().Hex())
	log.Infof("%-15s: %s", "Pyth Price ID", c.PythPriceID())
	log.Infof("%-15s: %d", "Gas Limit", c.GasLimit())
	log.Infof("%-15s: %s", "Receipt Wait", c.ReceiptMaxWait())
	log.Infof("%-15s: %s", "Stale After", c.StaleAfter())
	if key, err := c.PrivateKey(); err == nil {
		log.Infof("%-15s: %s", "Address", crypto.PubkeyToAddress(key.PublicKey).Hex())
	}
}

func (c *Config) Home() string {
	return c.home
}

func (c *Config) RPCURL() string {
	return c.data.Chain.RPCURL
}

// ChainID is the expected chain id; 0 means trust the node.
func (c *Config) ChainID() uint64 {
	return c.data.Chain.ChainID
}

func (c *Config) StorkAPIURL() string {
	return strings.TrimRight(c.data.Stork.APIURL, "/")
}

func (c *Config) StorkContract() common.Address {
	return common.HexToAddress(c.data.Stork.Contract)
}

func (c *Config) StorkAsset() string {
	return c.data.Stork.Asset
}

func (c *Config) HermesURL() string {
	return strings.TrimRight(c.data.Pyth.HermesURL, "/")
}

func (c *Config) PythContract() common.Address {
	return common.HexToAddress(c.data.Pyth.Contract)
}

func (c *Config) PythPriceID() string {
	return c.data.Pyth.PriceID
}

func (c *Config) GasLimit() uint64 {
	return c.data.Gas.Limit
}

func (c *Config) ReceiptMaxWait() time.Duration {
	return c.maxWait
}

func (c *Config) ReceiptPollInterval() time.Duration {
	return c.pollInterval
}

func (c *Config) StaleAfter() time.Duration {
	return c.staleAfter
}

// StorkAPIKey returns the Stork credential or ErrConfig when unset.
func (c *Config) StorkAPIKey() (string, error) {
	if c.storkAPIKey == "" {
		return "", errorsmod.Wrap(types.ErrConfig, "STORK_API_KEY not found in environment or arguments")
	}

	return c.storkAPIKey, nil
}

// PrivateKey parses the signing key or returns ErrConfig when unset or
// malformed.
func (c *Config) PrivateKey() (*ecdsa.PrivateKey, error) {
	if c.privateKey == "" {
		return nil, errorsmod.Wrap(types.ErrConfig, "PRIVATE_KEY not found in environment")
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(c.privateKey, "0x"))
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrConfig, "invalid PRIVATE_KEY: %v", err)
	}

	return key, nil
}

// NewForTesting builds a Config without touching the filesystem.
func NewForTesting(rpcURL, storkURL, hermesURL, privateKey, storkAPIKey string) *Config {
	data := defaultConfig()
	data.Chain.RPCURL = rpcURL
	data.Stork.APIURL = storkURL
	data.Pyth.HermesURL = hermesURL

	return &Config{
		home:         os.TempDir(),
		data:         data,
		maxWait:      5 * time.Second,
		pollInterval: 10 * time.Millisecond,
		staleAfter:   time.Hour,
		privateKey:   privateKey,
		storkAPIKey:  storkAPIKey,
	}
}
