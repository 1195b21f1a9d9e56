package fetcher

import (
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/tidwall/gjson"

	"github.com/kcmikee/orbit/oracle/types"
)

// bigIntField reads an integer that may be encoded as a JSON string or a
// bare number. The raw text is parsed so values beyond 2^53 stay exact.
func bigIntField(r gjson.Result, path string) (*big.Int, error) {
	v := r.Get(path)

	var text string
	switch v.Type {
	case gjson.String:
		text = v.Str
	case gjson.Number:
		text = v.Raw
	default:
		return nil, errorsmod.Wrapf(types.ErrOracleResponse, "%s: missing or not an integer", path)
	}

	n, ok := new(big.Int).SetString(strings.TrimSpace(text), 10)
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrOracleResponse, "%s: invalid integer %q", path, text)
	}

	return n, nil
}

func uint64Field(r gjson.Result, path string) (uint64, error) {
	n, err := bigIntField(r, path)
	if err != nil {
		return 0, err
	}

	if !n.IsUint64() {
		return 0, errorsmod.Wrapf(types.ErrOracleResponse, "%s: %s does not fit in uint64", path, n)
	}

	return n.Uint64(), nil
}

// uint8Field reads a small integer sent as a JSON number, a decimal string
// or a 0x-prefixed hex string. Fractions, exponents and values above 255 are
// rejected; a leading zero is still decimal.
func uint8Field(r gjson.Result, path string) (uint8, error) {
	v := r.Get(path)

	var text string
	base := 10
	switch v.Type {
	case gjson.Number:
		text = v.Raw
	case gjson.String:
		text = strings.TrimSpace(v.Str)
		if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
			text, base = text[2:], 16
		}
	default:
		return 0, errorsmod.Wrapf(types.ErrOracleResponse, "%s: missing or not an integer", path)
	}

	n, err := strconv.ParseUint(text, base, 8)
	if err != nil {
		return 0, errorsmod.Wrapf(types.ErrOracleResponse, "%s: invalid uint8 %q", path, v.Raw)
	}

	return uint8(n), nil
}

// hexBytes decodes a hex string with or without the 0x prefix.
func hexBytes(r gjson.Result, path string) ([]byte, error) {
	v := r.Get(path)
	if v.Type != gjson.String {
		return nil, errorsmod.Wrapf(types.ErrOracleResponse, "%s: missing or not a string", path)
	}

	s := strings.TrimPrefix(strings.TrimPrefix(v.Str, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrOracleResponse, "%s: invalid hex: %v", path, err)
	}

	return b, nil
}

// bytes32Field requires exactly 32 bytes of hex.
func bytes32Field(r gjson.Result, path string) (common.Hash, error) {
	b, err := hexBytes(r, path)
	if err != nil {
		return common.Hash{}, err
	}

	if len(b) != common.HashLength {
		return common.Hash{}, errorsmod.Wrapf(types.ErrOracleResponse, "%s: expected 32 bytes, got %d", path, len(b))
	}

	return common.BytesToHash(b), nil
}

// paddedBytes32Field accepts up to 32 bytes of hex, right-padded with zeros
// the way Solidity widens a shorter bytesN.
func paddedBytes32Field(r gjson.Result, path string) (common.Hash, error) {
	b, err := hexBytes(r, path)
	if err != nil {
		return common.Hash{}, err
	}

	if len(b) == 0 || len(b) > common.HashLength {
		return common.Hash{}, errorsmod.Wrapf(types.ErrOracleResponse, "%s: expected 1 to 32 bytes, got %d", path, len(b))
	}

	var h common.Hash
	copy(h[:], b)
	return h, nil
}
