package fetcher

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"

	"github.com/kcmikee/orbit/oracle/log"
	"github.com/kcmikee/orbit/oracle/types"
)

// HermesFetcher reads Pyth price updates from a Hermes endpoint.
type HermesFetcher struct {
	baseURL string
	client  *http.Client
}

func NewHermesFetcher(baseURL string) *HermesFetcher {
	return &HermesFetcher{
		baseURL: baseURL,
		client:  executorClient(),
	}
}

// Fetch returns the latest update blob for priceID (hex, 0x optional).
func (f *HermesFetcher) Fetch(ctx context.Context, priceID string) (types.PythUpdate, error) {
	log.Infof("Fetching update from Hermes...")

	id, err := ParsePriceID(priceID)
	if err != nil {
		return types.PythUpdate{}, err
	}

	endpoint := fmt.Sprintf("%s/v2/updates/price/latest?ids[]=%s", f.baseURL, id.Hex())
	body, err := fetchRawData(ctx, f.client, endpoint, nil)
	if err != nil {
		return types.PythUpdate{}, err
	}

	update, err := ParseHermesResponse(body)
	if err != nil {
		return types.PythUpdate{}, err
	}
	update.PriceID = id

	if p := update.Preview; p != nil {
		log.Infof("Hermes quote: price=%d conf=%d expo=%d publishTime=%s", p.Price, p.Conf, p.Expo, p.PublishTime)
	}
	log.Debugf("update blob: %d bytes", len(update.Data))

	return update, nil
}

// ParsePriceID validates a 32-byte Pyth feed id.
func ParsePriceID(priceID string) (common.Hash, error) {
	s := strings.TrimPrefix(strings.TrimSpace(priceID), "0x")
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, errorsmod.Wrapf(types.ErrConfig, "invalid price id %q", priceID)
	}

	return common.BytesToHash(b), nil
}

// ParseHermesResponse extracts binary.data[0] and, when present, the parsed
// quote of the first feed.
func ParseHermesResponse(body []byte) (types.PythUpdate, error) {
	if !gjson.ValidBytes(body) {
		return types.PythUpdate{}, errorsmod.Wrap(types.ErrOracleResponse, "response is not valid JSON")
	}

	res := gjson.ParseBytes(body)

	if enc := res.Get("binary.encoding"); enc.Exists() && enc.String() != "hex" {
		return types.PythUpdate{}, errorsmod.Wrapf(types.ErrOracleResponse, "unsupported binary encoding %q", enc.String())
	}

	blob, err := hexBytes(res, "binary.data.0")
	if err != nil {
		return types.PythUpdate{}, err
	}
	if len(blob) == 0 {
		return types.PythUpdate{}, errorsmod.Wrap(types.ErrOracleResponse, "binary.data.0 is empty")
	}

	update := types.PythUpdate{Data: blob}

	if parsed := res.Get("parsed.0.price"); parsed.IsObject() {
		preview, err := parsePythPrice(parsed)
		if err != nil {
			return types.PythUpdate{}, err
		}
		update.Preview = &preview
	}

	return update, nil
}

func parsePythPrice(r gjson.Result) (types.PythPrice, error) {
	price, err := strconv.ParseInt(r.Get("price").String(), 10, 64)
	if err != nil {
		return types.PythPrice{}, errorsmod.Wrapf(types.ErrOracleResponse, "parsed price: %v", err)
	}

	conf, err := strconv.ParseUint(r.Get("conf").String(), 10, 64)
	if err != nil {
		return types.PythPrice{}, errorsmod.Wrapf(types.ErrOracleResponse, "parsed conf: %v", err)
	}

	expo, err := cast.ToInt32E(r.Get("expo").Value())
	if err != nil {
		return types.PythPrice{}, errorsmod.Wrapf(types.ErrOracleResponse, "parsed expo: %v", err)
	}

	publishTime, err := bigIntField(r, "publish_time")
	if err != nil {
		return types.PythPrice{}, err
	}

	return types.PythPrice{
		Price:       price,
		Conf:        conf,
		Expo:        expo,
		PublishTime: publishTime,
	}, nil
}
