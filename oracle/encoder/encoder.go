// Package encoder turns fetched oracle payloads into contract call arguments.
package encoder

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/kcmikee/orbit/oracle/contract"
	"github.com/kcmikee/orbit/oracle/types"
)

// Stork builds the single-element argument for updateTemporalNumericValuesV1.
func Stork(rec types.SignedPriceRecord) ([]contract.TemporalNumericValueInput, error) {
	if !contract.FitsInt192(rec.QuantizedValue) {
		return nil, errorsmod.Wrapf(types.ErrEncode, "%s: quantized value %v out of int192 range", rec.AssetPair, rec.QuantizedValue)
	}

	return []contract.TemporalNumericValueInput{{
		TemporalNumericValue: contract.TemporalNumericValue{
			TimestampNs:    rec.TimestampNs,
			QuantizedValue: rec.QuantizedValue,
		},
		ID:                  rec.AssetID,
		PublisherMerkleRoot: rec.PublisherMerkleRoot,
		ValueComputeAlgHash: rec.ValueComputeAlgHash,
		R:                   rec.Signature.R,
		S:                   rec.Signature.S,
		V:                   rec.Signature.V,
	}}, nil
}

// StorkCallData is Stork followed by ABI packing.
func StorkCallData(rec types.SignedPriceRecord) ([]byte, error) {
	updates, err := Stork(rec)
	if err != nil {
		return nil, err
	}

	return contract.PackStorkUpdate(updates)
}

// Pyth wraps the update blob as the bytes[] argument of updatePriceFeeds.
// The blob is passed through untouched.
func Pyth(update types.PythUpdate) ([][]byte, error) {
	if len(update.Data) == 0 {
		return nil, errorsmod.Wrap(types.ErrEncode, "empty pyth update")
	}

	return [][]byte{update.Data}, nil
}
