package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kcmikee/orbit/oracle/config"
)

const (
	flagHome           = "home"
	flagLogLevel       = "log-level"
	flagLogFile        = "log-file"
	flagDryRun         = "dry-run"
	flagRPCURL         = "rpc-url"
	flagGasLimit       = "gas-limit"
	flagReceiptTimeout = "receipt-timeout"
	flagPrivateKey     = "private-key"

	flagAsset   = "asset"
	flagAPIKey  = "api-key"
	flagAssetID = "asset-id"
	flagPriceID = "price-id"
)

// flagKeys maps flag names to the viper keys they override. Flags not
// listed are read straight from the command.
var flagKeys = map[string]string{
	flagHome:           flagHome,
	flagLogLevel:       flagLogLevel,
	flagLogFile:        flagLogFile,
	flagDryRun:         flagDryRun,
	flagRPCURL:         config.KeyRPCURL,
	flagGasLimit:       config.KeyGasLimit,
	flagReceiptTimeout: config.KeyReceiptMaxWait,
	flagPrivateKey:     config.KeyPrivateKey,
	flagAsset:          config.KeyStorkAsset,
	flagAPIKey:         config.KeyStorkAPIKey,
	flagPriceID:        config.KeyPythPriceID,
}

// bindFlags binds the flags of the command being executed. Several
// subcommands define the same flag name, so binding happens per run rather
// than at construction.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		err = v.BindPFlag(key, f)
	})

	return err
}
