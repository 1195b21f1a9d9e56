package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kcmikee/orbit/oracle/config"
	"github.com/kcmikee/orbit/oracle/log"
	"github.com/kcmikee/orbit/oracle/pipeline"
	"github.com/kcmikee/orbit/oracle/types"
)

// app carries what the subcommands share once the root has loaded config.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	dryRun bool
}

func (a *app) pipeline() *pipeline.Pipeline {
	return pipeline.New(a.cfg, pipeline.WithDryRun(a.dryRun))
}

// NewRootCmd builds the pricepush command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{v: viper.New()})
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           types.AppName,
		Short:         "Push signed oracle prices to EVM contracts and read them back",
		Version:       types.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := bindFlags(a.v, cmd); err != nil {
				return err
			}

			if err := log.SetLevel(a.v.GetString(flagLogLevel)); err != nil {
				return err
			}

			home := a.v.GetString(flagHome)
			if a.v.GetBool(flagLogFile) {
				log.ResetLogger(home)
			}

			cfg, err := config.Load(home, a.v)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.dryRun = a.v.GetBool(flagDryRun)

			return nil
		},
	}

	f := cmd.PersistentFlags()
	f.String(flagHome, config.DefaultHome(), "directory holding config.toml and .env")
	f.String(flagLogLevel, "info", "log level (debug, info, warn, error)")
	f.Bool(flagLogFile, false, "also write logs under <home>/logs")
	f.Bool(flagDryRun, false, "stop before signing and print the encoded call")
	f.String(flagRPCURL, "", "EVM JSON-RPC endpoint (overrides chain.rpc_url)")
	f.Uint64(flagGasLimit, 0, "gas limit for the update transaction (overrides gas.limit)")
	f.String(flagReceiptTimeout, "", "how long to wait for the receipt, e.g. 2m (overrides receipt.max_wait)")
	f.String(flagPrivateKey, "", "hex private key of the sender (defaults to $PRIVATE_KEY)")

	cmd.AddCommand(
		GetStorkCmd(a),
		GetPythCmd(a),
		GetConfigCmd(a),
	)

	return cmd
}
