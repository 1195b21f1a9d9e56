package contract

import (
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/kcmikee/orbit/oracle/types"
)

// TemporalNumericValue matches StorkStructs.TemporalNumericValue.
type TemporalNumericValue struct {
	TimestampNs    uint64
	QuantizedValue *big.Int
}

// TemporalNumericValueInput matches StorkStructs.TemporalNumericValueInput.
// Field order follows the ABI tuple.
type TemporalNumericValueInput struct {
	TemporalNumericValue TemporalNumericValue
	ID                   [32]byte `abi:"id"`
	PublisherMerkleRoot  [32]byte
	ValueComputeAlgHash  [32]byte
	R                    [32]byte
	S                    [32]byte
	V                    uint8
}

// int192 bounds
var (
	maxInt192 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 191), big.NewInt(1))
	minInt192 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 191))
)

// FitsInt192 reports whether v is representable as a Solidity int192.
func FitsInt192(v *big.Int) bool {
	return v != nil && v.Cmp(minInt192) >= 0 && v.Cmp(maxInt192) <= 0
}

// PackStorkUpdate encodes a call to updateTemporalNumericValuesV1.
func PackStorkUpdate(updates []TemporalNumericValueInput) ([]byte, error) {
	for i, u := range updates {
		if !FitsInt192(u.TemporalNumericValue.QuantizedValue) {
			return nil, errorsmod.Wrapf(types.ErrEncode, "update %d: quantized value %v out of int192 range", i, u.TemporalNumericValue.QuantizedValue)
		}
	}

	data, err := storkABI.Pack(StorkUpdateMethod, updates)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrEncode, "%s: %v", StorkUpdateMethod, err)
	}

	return data, nil
}

// UnpackStorkUpdate decodes updateTemporalNumericValuesV1 call data back into
// its argument.
func UnpackStorkUpdate(data []byte) ([]TemporalNumericValueInput, error) {
	method := storkABI.Methods[StorkUpdateMethod]
	if len(data) < 4 || string(data[:4]) != string(method.ID) {
		return nil, errorsmod.Wrapf(types.ErrEncode, "call data is not %s", StorkUpdateMethod)
	}

	values, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, errors.Wrap(err, "unpack stork update")
	}
	if len(values) != 1 {
		return nil, errors.Errorf("unexpected argument count %d", len(values))
	}

	return *abi.ConvertType(values[0], new([]TemporalNumericValueInput)).(*[]TemporalNumericValueInput), nil
}

// StorkAssetID is the encoded asset id Stork uses on-chain for a pair such
// as "ETHUSD": keccak256 of the pair's bytes.
func StorkAssetID(assetPair string) common.Hash {
	return crypto.Keccak256Hash([]byte(assetPair))
}

// PackStorkRead encodes a call to getTemporalNumericValueV1(id).
func PackStorkRead(id [32]byte) ([]byte, error) {
	data, err := storkABI.Pack(StorkReadMethod, id)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrEncode, "%s: %v", StorkReadMethod, err)
	}

	return data, nil
}

// UnpackTemporalNumericValue decodes the getTemporalNumericValueV1 result.
func UnpackTemporalNumericValue(data []byte) (types.TemporalNumericValue, error) {
	out, err := storkABI.Unpack(StorkReadMethod, data)
	if err != nil {
		return types.TemporalNumericValue{}, errors.Wrapf(err, "unpack %s", StorkReadMethod)
	}
	if len(out) != 1 {
		return types.TemporalNumericValue{}, errors.Errorf("unpack %s: unexpected output count %d", StorkReadMethod, len(out))
	}

	value := *abi.ConvertType(out[0], new(TemporalNumericValue)).(*TemporalNumericValue)

	return types.TemporalNumericValue{
		TimestampNs:    value.TimestampNs,
		QuantizedValue: value.QuantizedValue,
	}, nil
}
