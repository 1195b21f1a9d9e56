package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	errorsmod "cosmossdk.io/errors"
	"github.com/tidwall/gjson"

	"github.com/kcmikee/orbit/oracle/contract"
	"github.com/kcmikee/orbit/oracle/log"
	"github.com/kcmikee/orbit/oracle/types"
)

// StorkFetcher reads signed prices from the Stork REST API.
type StorkFetcher struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewStorkFetcher(baseURL, apiKey string) *StorkFetcher {
	return &StorkFetcher{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  executorClient(),
	}
}

// Fetch returns the latest signed price for assetPair, e.g. "ETHUSD".
func (f *StorkFetcher) Fetch(ctx context.Context, assetPair string) (types.SignedPriceRecord, error) {
	log.Infof("Fetching price for %s from Stork API...", assetPair)

	endpoint := fmt.Sprintf("%s/prices/latest?assets=%s", f.baseURL, url.QueryEscape(assetPair))
	body, err := fetchRawData(ctx, f.client, endpoint, map[string]string{
		"Authorization": "Basic " + f.apiKey,
	})
	if err != nil {
		return types.SignedPriceRecord{}, err
	}

	record, err := ParseStorkResponse(body, assetPair)
	if err != nil {
		return types.SignedPriceRecord{}, err
	}

	log.Infof("Stork %s: value=%s timestampNs=%d id=%s", assetPair, record.QuantizedValue, record.TimestampNs, record.AssetID.Hex())
	return record, nil
}

// ParseStorkResponse extracts the signed price for assetPair from a
// /prices/latest body shaped {"data": {<pair>: {"stork_signed_price": {...}}}}.
// The entry keyed by assetPair wins; a map holding a single entry is accepted
// under any key.
func ParseStorkResponse(body []byte, assetPair string) (types.SignedPriceRecord, error) {
	if !gjson.ValidBytes(body) {
		return types.SignedPriceRecord{}, errorsmod.Wrap(types.ErrOracleResponse, "response is not valid JSON")
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsObject() {
		return types.SignedPriceRecord{}, errorsmod.Wrap(types.ErrOracleResponse, "response has no data object")
	}

	var (
		entry    gjson.Result
		only     gjson.Result
		onlyKey  string
		count    int
		matchKey string
	)
	data.ForEach(func(key, value gjson.Result) bool {
		count++
		only, onlyKey = value, key.String()
		if key.String() == assetPair {
			entry, matchKey = value, key.String()
		}
		return true
	})

	switch {
	case entry.Exists():
	case count == 1:
		log.Debugf("asset %q not keyed in response, using sole entry %q", assetPair, onlyKey)
		entry, matchKey = only, onlyKey
	default:
		return types.SignedPriceRecord{}, errorsmod.Wrapf(types.ErrAssetNotFound, "%q (response holds %d assets)", assetPair, count)
	}

	signed := entry.Get("stork_signed_price")
	if !signed.IsObject() {
		return types.SignedPriceRecord{}, errorsmod.Wrapf(types.ErrOracleResponse, "%s: stork_signed_price missing", matchKey)
	}

	return parseSignedPrice(signed, matchKey)
}

func parseSignedPrice(signed gjson.Result, assetPair string) (types.SignedPriceRecord, error) {
	record := types.SignedPriceRecord{AssetPair: assetPair}

	var err error
	if record.QuantizedValue, err = bigIntField(signed, "price"); err != nil {
		return types.SignedPriceRecord{}, err
	}
	if !contract.FitsInt192(record.QuantizedValue) {
		return types.SignedPriceRecord{}, errorsmod.Wrapf(types.ErrOracleResponse, "price %s out of int192 range", record.QuantizedValue)
	}

	if record.TimestampNs, err = uint64Field(signed, "timestamped_signature.timestamp"); err != nil {
		return types.SignedPriceRecord{}, err
	}

	if record.AssetID, err = bytes32Field(signed, "encoded_asset_id"); err != nil {
		return types.SignedPriceRecord{}, err
	}
	if record.PublisherMerkleRoot, err = bytes32Field(signed, "publisher_merkle_root"); err != nil {
		return types.SignedPriceRecord{}, err
	}
	if record.ValueComputeAlgHash, err = paddedBytes32Field(signed, "calculation_alg.checksum"); err != nil {
		return types.SignedPriceRecord{}, err
	}

	sig := signed.Get("timestamped_signature.signature")
	if record.Signature.R, err = bytes32Field(sig, "r"); err != nil {
		return types.SignedPriceRecord{}, err
	}
	if record.Signature.S, err = bytes32Field(sig, "s"); err != nil {
		return types.SignedPriceRecord{}, err
	}

	if !sig.Get("v").Exists() {
		return types.SignedPriceRecord{}, errorsmod.Wrap(types.ErrOracleResponse, "signature.v missing")
	}
	// v arrives as 27, "27" or "0x1b" depending on the API version
	if record.Signature.V, err = uint8Field(sig, "v"); err != nil {
		return types.SignedPriceRecord{}, err
	}

	return record, nil
}
