package main

import (
	"github.com/spf13/cobra"

	"github.com/kcmikee/orbit/oracle/log"
	"github.com/kcmikee/orbit/oracle/types"
)

// GetPythCmd returns the pyth command group
func GetPythCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   types.OraclePyth,
		Short: "Pyth price feed commands",
	}

	cmd.AddCommand(
		GetCmdPythPush(a),
		GetCmdPythRead(a),
	)

	return cmd
}

// GetCmdPythPush implements the pyth push command
func GetCmdPythPush(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Fetch the latest update from Hermes and push it on-chain, paying the update fee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := a.pipeline()
			defer p.Close()

			res, err := p.RunPyth(cmd.Context(), a.cfg.PythPriceID())
			if err != nil {
				return err
			}

			if !a.dryRun {
				log.Infof("Done: %s (fee %s wei, verified: %t)", res.TxHash.Hex(), res.Fee, res.Verified)
			}
			return nil
		},
	}

	addPriceIDFlag(cmd)
	return cmd
}

// GetCmdPythRead implements the pyth read command
func GetCmdPythRead(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read the price stored in the Pyth contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := a.pipeline()
			defer p.Close()

			_, err := p.ReadPyth(cmd.Context(), a.cfg.PythPriceID())
			return err
		},
	}

	addPriceIDFlag(cmd)
	return cmd
}

func addPriceIDFlag(cmd *cobra.Command) {
	cmd.Flags().String(flagPriceID, "", "Pyth price feed id (overrides pyth.price_id)")
}
