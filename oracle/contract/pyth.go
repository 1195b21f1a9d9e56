package contract

import (
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/pkg/errors"

	"github.com/kcmikee/orbit/oracle/types"
)

// Price matches PythStructs.Price.
type Price struct {
	Price       int64
	Conf        uint64
	Expo        int32
	PublishTime *big.Int
}

// PackPythUpdate encodes a call to updatePriceFeeds(updateData).
func PackPythUpdate(updateData [][]byte) ([]byte, error) {
	data, err := pythABI.Pack(PythUpdateMethod, updateData)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrEncode, "%s: %v", PythUpdateMethod, err)
	}

	return data, nil
}

// UnpackPythUpdate decodes updatePriceFeeds call data back into its argument.
func UnpackPythUpdate(data []byte) ([][]byte, error) {
	method := pythABI.Methods[PythUpdateMethod]
	if len(data) < 4 || string(data[:4]) != string(method.ID) {
		return nil, errorsmod.Wrapf(types.ErrEncode, "call data is not %s", PythUpdateMethod)
	}

	values, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, errors.Wrap(err, "unpack pyth update")
	}
	if len(values) != 1 {
		return nil, errors.Errorf("unexpected argument count %d", len(values))
	}

	updateData, ok := values[0].([][]byte)
	if !ok {
		return nil, errors.Errorf("unexpected argument type %T", values[0])
	}

	return updateData, nil
}

// PackPythFee encodes a call to getUpdateFee(updateData).
func PackPythFee(updateData [][]byte) ([]byte, error) {
	data, err := pythABI.Pack(PythFeeMethod, updateData)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrEncode, "%s: %v", PythFeeMethod, err)
	}

	return data, nil
}

// UnpackFee decodes the getUpdateFee result in wei.
func UnpackFee(data []byte) (*big.Int, error) {
	out, err := pythABI.Unpack(PythFeeMethod, data)
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s", PythFeeMethod)
	}
	if len(out) != 1 {
		return nil, errors.Errorf("unpack %s: unexpected output count %d", PythFeeMethod, len(out))
	}

	fee, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.Errorf("unpack %s: unexpected output type %T", PythFeeMethod, out[0])
	}

	return fee, nil
}

// PackPythPrice encodes getPrice(id), or getPriceUnsafe(id) when unsafe is
// set. getPrice reverts on feeds older than the contract's valid period.
func PackPythPrice(id [32]byte, unsafe bool) ([]byte, error) {
	method := PythPriceMethod
	if unsafe {
		method = PythPriceUnsafeMethod
	}

	data, err := pythABI.Pack(method, id)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrEncode, "%s: %v", method, err)
	}

	return data, nil
}

// UnpackPythPrice decodes a getPrice/getPriceUnsafe result.
func UnpackPythPrice(data []byte) (types.PythPrice, error) {
	// both getters share the output layout
	out, err := pythABI.Unpack(PythPriceMethod, data)
	if err != nil {
		return types.PythPrice{}, errors.Wrapf(err, "unpack %s", PythPriceMethod)
	}
	if len(out) != 1 {
		return types.PythPrice{}, errors.Errorf("unpack %s: unexpected output count %d", PythPriceMethod, len(out))
	}

	price := *abi.ConvertType(out[0], new(Price)).(*Price)

	return types.PythPrice{
		Price:       price.Price,
		Conf:        price.Conf,
		Expo:        price.Expo,
		PublishTime: price.PublishTime,
	}, nil
}
