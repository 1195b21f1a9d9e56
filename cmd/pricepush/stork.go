package main

import (
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/kcmikee/orbit/oracle/contract"
	"github.com/kcmikee/orbit/oracle/log"
	"github.com/kcmikee/orbit/oracle/types"
)

// GetStorkCmd returns the stork command group
func GetStorkCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   types.OracleStork,
		Short: "Stork signed price commands",
	}

	cmd.AddCommand(
		GetCmdStorkPush(a),
		GetCmdStorkRead(a),
	)

	return cmd
}

// GetCmdStorkPush implements the stork push command
func GetCmdStorkPush(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Fetch the latest signed price from Stork and push it on-chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := a.pipeline()
			defer p.Close()

			res, err := p.RunStork(cmd.Context(), a.cfg.StorkAsset())
			if err != nil {
				return err
			}

			if !a.dryRun {
				log.Infof("Done: %s (verified: %t)", res.TxHash.Hex(), res.Verified)
			}
			return nil
		},
	}

	cmd.Flags().String(flagAsset, "", "asset pair, e.g. ETHUSD (overrides stork.asset)")
	cmd.Flags().String(flagAPIKey, "", "Stork API key (defaults to $STORK_API_KEY)")

	return cmd
}

// GetCmdStorkRead implements the stork read command
func GetCmdStorkRead(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read the value stored in the Stork contract",
		Long: `Read getTemporalNumericValueV1 from the Stork contract. The asset id is
taken from --asset-id, or derived from --asset (keccak256 of the pair).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			assetID, err := resolveAssetID(cmd.Flag(flagAssetID).Value.String(), a.cfg.StorkAsset())
			if err != nil {
				return err
			}

			p := a.pipeline()
			defer p.Close()

			_, err = p.ReadStork(cmd.Context(), assetID)
			return err
		},
	}

	cmd.Flags().String(flagAssetID, "", "encoded asset id (32-byte hex)")
	cmd.Flags().String(flagAsset, "", "asset pair, e.g. ETHUSD (overrides stork.asset)")

	return cmd
}

func resolveAssetID(raw, assetPair string) (common.Hash, error) {
	if raw == "" {
		id := contract.StorkAssetID(assetPair)
		log.Debugf("asset id for %s: %s", assetPair, id.Hex())
		return id, nil
	}

	if !strings.HasPrefix(raw, "0x") {
		raw = "0x" + raw
	}
	b, err := hexutil.Decode(raw)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, errorsmod.Wrapf(types.ErrConfig, "invalid asset id %q", raw)
	}

	return common.BytesToHash(b), nil
}
