// Package contracttest ABI-encodes contract return values so tests can fake
// eth_call responses from the Stork and Pyth contracts.
package contracttest

import (
	"math/big"

	errorsmod "cosmossdk.io/errors"

	"github.com/kcmikee/orbit/oracle/contract"
	"github.com/kcmikee/orbit/oracle/types"
)

// StorkValue encodes a getTemporalNumericValueV1 return value.
func StorkValue(v types.TemporalNumericValue) ([]byte, error) {
	if v.QuantizedValue == nil {
		return nil, errorsmod.Wrap(types.ErrEncode, "quantized value is nil")
	}

	method := contract.StorkABI().Methods[contract.StorkReadMethod]
	data, err := method.Outputs.Pack(contract.TemporalNumericValue{
		TimestampNs:    v.TimestampNs,
		QuantizedValue: v.QuantizedValue,
	})
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrEncode, "%s output: %v", contract.StorkReadMethod, err)
	}

	return data, nil
}

// Fee encodes a getUpdateFee return value.
func Fee(fee *big.Int) ([]byte, error) {
	if fee == nil {
		return nil, errorsmod.Wrap(types.ErrEncode, "fee is nil")
	}

	data, err := contract.PythABI().Methods[contract.PythFeeMethod].Outputs.Pack(fee)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrEncode, "%s output: %v", contract.PythFeeMethod, err)
	}

	return data, nil
}

// PythPrice encodes a getPrice/getPriceUnsafe return value.
func PythPrice(p types.PythPrice) ([]byte, error) {
	if p.PublishTime == nil {
		return nil, errorsmod.Wrap(types.ErrEncode, "publish time is nil")
	}

	data, err := contract.PythABI().Methods[contract.PythPriceMethod].Outputs.Pack(contract.Price{
		Price:       p.Price,
		Conf:        p.Conf,
		Expo:        p.Expo,
		PublishTime: p.PublishTime,
	})
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrEncode, "%s output: %v", contract.PythPriceMethod, err)
	}

	return data, nil
}
