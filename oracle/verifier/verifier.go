// Package verifier reads pushed values back from the oracle contracts.
package verifier

import (
	"context"
	"math/big"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/kcmikee/orbit/oracle/chain"
	"github.com/kcmikee/orbit/oracle/contract"
	"github.com/kcmikee/orbit/oracle/log"
	"github.com/kcmikee/orbit/oracle/types"
)

// StorkDecimals is the fixed scale of Stork quantized values.
const StorkDecimals = 18

type Verifier struct {
	client     chain.Client
	staleAfter time.Duration
	now        func() time.Time
}

func New(client chain.Client, staleAfter time.Duration) *Verifier {
	return &Verifier{
		client:     client,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// VerifyStork reads getTemporalNumericValueV1(assetID) from the Stork
// contract at addr.
func (v *Verifier) VerifyStork(ctx context.Context, addr common.Address, assetID common.Hash) (types.TemporalNumericValue, error) {
	log.Infof("Verifying on-chain value...")

	call, err := contract.PackStorkRead(assetID)
	if err != nil {
		return types.TemporalNumericValue{}, err
	}

	ret, err := v.call(ctx, addr, call)
	if err != nil {
		return types.TemporalNumericValue{}, errorsmod.Wrapf(types.ErrVerify, "%s(%s): %v", contract.StorkReadMethod, assetID.Hex(), err)
	}

	value, err := contract.UnpackTemporalNumericValue(ret)
	if err != nil {
		return types.TemporalNumericValue{}, errorsmod.Wrap(types.ErrVerify, err.Error())
	}

	staleness := types.Staleness(v.now(), value.PublishedAt())
	log.Infof("On-chain value: %s", value.QuantizedValue)
	log.Infof("On-chain timestamp: %d", value.TimestampNs)
	log.Infof("Price: %s (published %s, %s ago)",
		FormatPrice(value.QuantizedValue, -StorkDecimals), value.PublishedAt().UTC().Format(time.RFC3339), staleness.Round(time.Second))
	v.warnIfStale(staleness)

	return value, nil
}

// VerifyPyth reads getPrice(priceID), or getPriceUnsafe when unsafe is set,
// from the Pyth contract at addr.
func (v *Verifier) VerifyPyth(ctx context.Context, addr common.Address, priceID common.Hash, unsafe bool) (types.PythPrice, error) {
	log.Infof("Verifying on-chain price...")

	call, err := contract.PackPythPrice(priceID, unsafe)
	if err != nil {
		return types.PythPrice{}, err
	}

	ret, err := v.call(ctx, addr, call)
	if err != nil {
		return types.PythPrice{}, errorsmod.Wrapf(types.ErrVerify, "price %s: %v", priceID.Hex(), err)
	}

	price, err := contract.UnpackPythPrice(ret)
	if err != nil {
		return types.PythPrice{}, errorsmod.Wrap(types.ErrVerify, err.Error())
	}

	staleness := types.Staleness(v.now(), price.PublishedAt())
	log.Infof("On-chain price: %s (raw %d, expo %d)", FormatPrice(big.NewInt(price.Price), price.Expo), price.Price, price.Expo)
	log.Infof("Confidence: ±%s", FormatPrice(new(big.Int).SetUint64(price.Conf), price.Expo))
	log.Infof("Publish time: %s", price.PublishTime)
	log.Infof("Staleness: %s", staleness.Round(time.Second))
	v.warnIfStale(staleness)

	return price, nil
}

func (v *Verifier) call(ctx context.Context, addr common.Address, data []byte) ([]byte, error) {
	return v.client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: data}, nil)
}

func (v *Verifier) warnIfStale(staleness time.Duration) {
	if IsStale(staleness, v.staleAfter) {
		log.Warnf("value is stale: published %s ago, threshold %s", staleness.Round(time.Second), v.staleAfter)
	}
}

// IsStale reports whether staleness exceeds threshold. A zero threshold
// disables the check.
func IsStale(staleness, threshold time.Duration) bool {
	return threshold > 0 && staleness > threshold
}

// FormatPrice renders value * 10^expo as an exact decimal with -expo
// fractional digits, e.g. (250000, -2) is "2500.00".
func FormatPrice(value *big.Int, expo int32) string {
	if value == nil {
		return "0"
	}

	if expo >= 0 {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(expo)), nil)
		return new(big.Int).Mul(value, scale).String()
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-expo)), nil)
	return new(big.Rat).SetFrac(value, scale).FloatString(int(-expo))
}
