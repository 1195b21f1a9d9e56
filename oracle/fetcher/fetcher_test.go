package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/sjson"

	"github.com/kcmikee/orbit/oracle/log"
	"github.com/kcmikee/orbit/oracle/types"
)

const (
	testAssetID    = "0x7404e3d104ea7841c3d9e6fd20adfe99b4ad586bc08d8f3bd3afef894cf184de"
	testMerkleRoot = "0xe5ff773b0316059c04aa157898766731017610dcbeede7d7f169bfeaab7cc318"
	testAlgHash    = "0x9be7e9f9ed459417d96112a7467bd0b27575a2c7847195c68f805b70ce1795ba"
	testSigR       = "0xb9b3c9f80a355bd0cd6f609fff4a4b15fa4e3b4632adabb74c020f5bcd240741"
	testSigS       = "0x16fab526529ac795108d201832cff8c2d2b1c710da6711fe9f7ab288a7149758"
	testPriceID    = "0xff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace"
	testVAA        = "504e41550100000003b801000000040d00"
)

type FetcherTestSuite struct {
	suite.Suite
	server *httptest.Server

	storkBody  string
	hermesBody string
	status     int
	lastReq    *http.Request
}

func TestFetcherTestSuite(t *testing.T) {
	suite.Run(t, new(FetcherTestSuite))
}

func (suite *FetcherTestSuite) SetupSuite() {
	log.InitLogger()

	suite.server = httptest.NewServer(http.HandlerFunc(suite.handler))
}

func (suite *FetcherTestSuite) TearDownSuite() {
	if suite.server != nil {
		suite.server.Close()
	}
}

func (suite *FetcherTestSuite) SetupTest() {
	suite.storkBody = storkFixture(suite.T(), "ETHUSD", "300000000000", "1700000000000000000", 27)
	suite.hermesBody = hermesFixture(suite.T())
	suite.status = http.StatusOK
	suite.lastReq = nil
}

func (suite *FetcherTestSuite) handler(w http.ResponseWriter, r *http.Request) {
	suite.lastReq = r.Clone(context.Background())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(suite.status)

	switch r.URL.Path {
	case "/v1/prices/latest":
		w.Write([]byte(suite.storkBody))
	case "/v2/updates/price/latest":
		w.Write([]byte(suite.hermesBody))
	default:
		w.Write([]byte(`{"error":"not found"}`))
	}
}

// storkFixture builds a /prices/latest body holding one signed price.
func storkFixture(t *testing.T, pair, price, timestamp string, v interface{}) string {
	t.Helper()

	body := `{"data":{}}`
	prefix := "data." + pair + ".stork_signed_price."

	var err error
	set := func(path string, value interface{}) {
		if err != nil {
			return
		}
		body, err = sjson.Set(body, prefix+path, value)
	}
	set("encoded_asset_id", testAssetID)
	set("price", price)
	set("timestamped_signature.signature.r", testSigR)
	set("timestamped_signature.signature.s", testSigS)
	set("timestamped_signature.signature.v", v)
	set("timestamped_signature.timestamp", timestamp)
	set("publisher_merkle_root", testMerkleRoot)
	set("calculation_alg.type", "median")
	set("calculation_alg.checksum", testAlgHash)
	if err != nil {
		t.Fatal(err)
	}

	return body
}

func hermesFixture(t *testing.T) string {
	t.Helper()

	body, err := sjson.Set(`{}`, "binary.encoding", "hex")
	if err == nil {
		body, err = sjson.SetRaw(body, "binary.data", `["`+testVAA+`"]`)
	}
	if err == nil {
		body, err = sjson.SetRaw(body, "parsed", `[{"id":"ff61491a","price":{"price":"250000","conf":"150","expo":-2,"publish_time":1700000000}}]`)
	}
	if err != nil {
		t.Fatal(err)
	}

	return body
}

func (suite *FetcherTestSuite) TestStorkFetch() {
	f := NewStorkFetcher(suite.server.URL+"/v1", "secret-key")

	record, err := f.Fetch(context.Background(), "ETHUSD")
	suite.Require().NoError(err)

	suite.Equal("ETHUSD", record.AssetPair)
	suite.Equal("300000000000", record.QuantizedValue.String())
	suite.Equal(uint64(1700000000000000000), record.TimestampNs)
	suite.Equal(common.HexToHash(testAssetID), record.AssetID)
	suite.Equal(common.HexToHash(testMerkleRoot), record.PublisherMerkleRoot)
	suite.Equal(common.HexToHash(testAlgHash), record.ValueComputeAlgHash)
	suite.Equal(common.HexToHash(testSigR), record.Signature.R)
	suite.Equal(common.HexToHash(testSigS), record.Signature.S)
	suite.Equal(uint8(27), record.Signature.V)

	suite.Require().NotNil(suite.lastReq)
	suite.Equal("Basic secret-key", suite.lastReq.Header.Get("Authorization"))
	suite.Equal("ETHUSD", suite.lastReq.URL.Query().Get("assets"))
}

func (suite *FetcherTestSuite) TestStorkFetch_HTTPError() {
	suite.status = http.StatusUnauthorized
	suite.storkBody = `{"error":"invalid api key"}`

	f := NewStorkFetcher(suite.server.URL+"/v1", "bad")
	_, err := f.Fetch(context.Background(), "ETHUSD")

	suite.Require().Error(err)
	suite.ErrorIs(err, types.ErrOracleAPI)
	suite.Contains(err.Error(), "invalid api key")
	suite.Equal(3, types.ExitCode(err))
}

func (suite *FetcherTestSuite) TestParseStorkResponse() {
	huge := "123456789012345678901234567890"
	// 2^192 - 1
	overflow := "6277101735386680763835789423207666416102355444464034512895"

	testCases := []struct {
		name    string
		body    string
		pair    string
		wantErr error
		check   func(types.SignedPriceRecord)
	}{
		{
			name: "price beyond float precision",
			body: storkFixture(suite.T(), "ETHUSD", huge, "1700000000000000000", 27),
			pair: "ETHUSD",
			check: func(r types.SignedPriceRecord) {
				suite.Equal(huge, r.QuantizedValue.String())
			},
		},
		{
			name: "numeric price and timestamp",
			body: strings.Replace(
				strings.Replace(storkFixture(suite.T(), "ETHUSD", "300000000000", "1700000000000000000", 27),
					`"300000000000"`, `300000000000`, 1),
				`"1700000000000000000"`, `1700000000000000000`, 1),
			pair: "ETHUSD",
			check: func(r types.SignedPriceRecord) {
				suite.Equal(int64(300000000000), r.QuantizedValue.Int64())
				suite.Equal(uint64(1700000000000000000), r.TimestampNs)
			},
		},
		{
			name: "v as string",
			body: storkFixture(suite.T(), "ETHUSD", "1", "1", "28"),
			pair: "ETHUSD",
			check: func(r types.SignedPriceRecord) {
				suite.Equal(uint8(28), r.Signature.V)
			},
		},
		{
			name: "v as hex string",
			body: storkFixture(suite.T(), "ETHUSD", "1", "1", "0x1b"),
			pair: "ETHUSD",
			check: func(r types.SignedPriceRecord) {
				suite.Equal(uint8(27), r.Signature.V)
			},
		},
		{
			name: "v with leading zero is decimal",
			body: storkFixture(suite.T(), "ETHUSD", "1", "1", "027"),
			pair: "ETHUSD",
			check: func(r types.SignedPriceRecord) {
				suite.Equal(uint8(27), r.Signature.V)
			},
		},
		{
			name: "short checksum is right-padded",
			body: strings.Replace(storkFixture(suite.T(), "ETHUSD", "300000000000", "1700000000000000000", 27), testAlgHash, "deadbeef", 1),
			pair: "ETHUSD",
			check: func(r types.SignedPriceRecord) {
				suite.Equal(common.HexToHash("0xdeadbeef00000000000000000000000000000000000000000000000000000000"), r.ValueComputeAlgHash)
				suite.Equal(int64(300000000000), r.QuantizedValue.Int64())
				suite.Equal(common.HexToHash(testAssetID), r.AssetID)
			},
		},
		{
			name:    "checksum longer than 32 bytes",
			body:    strings.Replace(storkFixture(suite.T(), "ETHUSD", "1", "1", 27), testAlgHash, testAlgHash+"00", 1),
			pair:    "ETHUSD",
			wantErr: types.ErrOracleResponse,
		},
		{
			name:    "empty checksum",
			body:    strings.Replace(storkFixture(suite.T(), "ETHUSD", "1", "1", 27), testAlgHash, "", 1),
			pair:    "ETHUSD",
			wantErr: types.ErrOracleResponse,
		},
		{
			name:    "v number above 255",
			body:    storkFixture(suite.T(), "ETHUSD", "1", "1", 283),
			pair:    "ETHUSD",
			wantErr: types.ErrOracleResponse,
		},
		{
			name:    "v string above 255",
			body:    storkFixture(suite.T(), "ETHUSD", "1", "1", "283"),
			pair:    "ETHUSD",
			wantErr: types.ErrOracleResponse,
		},
		{
			name:    "v fractional",
			body:    storkFixture(suite.T(), "ETHUSD", "1", "1", 27.9),
			pair:    "ETHUSD",
			wantErr: types.ErrOracleResponse,
		},
		{
			name:    "v negative",
			body:    storkFixture(suite.T(), "ETHUSD", "1", "1", -1),
			pair:    "ETHUSD",
			wantErr: types.ErrOracleResponse,
		},
		{
			name:    "v boolean",
			body:    storkFixture(suite.T(), "ETHUSD", "1", "1", true),
			pair:    "ETHUSD",
			wantErr: types.ErrOracleResponse,
		},
		{
			name: "single entry under another key",
			body: storkFixture(suite.T(), "BTCUSD", "1", "1", 27),
			pair: "ETHUSD",
			check: func(r types.SignedPriceRecord) {
				suite.Equal("BTCUSD", r.AssetPair)
			},
		},
		{
			name:    "asset missing among several",
			body:    mergeAssets(suite.T(), storkFixture(suite.T(), "BTCUSD", "1", "1", 27), "SOLUSD"),
			pair:    "ETHUSD",
			wantErr: types.ErrAssetNotFound,
		},
		{
			name:    "empty data",
			body:    `{"data":{}}`,
			pair:    "ETHUSD",
			wantErr: types.ErrAssetNotFound,
		},
		{
			name:    "no data object",
			body:    `{"result":[]}`,
			pair:    "ETHUSD",
			wantErr: types.ErrOracleResponse,
		},
		{
			name:    "not json",
			body:    `<html>`,
			pair:    "ETHUSD",
			wantErr: types.ErrOracleResponse,
		},
		{
			name:    "short signature",
			body:    strings.Replace(storkFixture(suite.T(), "ETHUSD", "1", "1", 27), testSigR, "0xb9b3", 1),
			pair:    "ETHUSD",
			wantErr: types.ErrOracleResponse,
		},
		{
			name:    "price overflows int192",
			body:    storkFixture(suite.T(), "ETHUSD", overflow, "1", 27),
			pair:    "ETHUSD",
			wantErr: types.ErrOracleResponse,
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			record, err := ParseStorkResponse([]byte(tc.body), tc.pair)
			if tc.wantErr != nil {
				suite.ErrorIs(err, tc.wantErr)
				return
			}
			suite.Require().NoError(err)
			tc.check(record)
		})
	}
}

// mergeAssets adds a bare entry under pair.
func mergeAssets(t *testing.T, body, pair string) string {
	t.Helper()

	out, err := sjson.SetRaw(body, "data."+pair, `{"stork_signed_price":{}}`)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func (suite *FetcherTestSuite) TestHermesFetch() {
	f := NewHermesFetcher(suite.server.URL)

	update, err := f.Fetch(context.Background(), testPriceID)
	suite.Require().NoError(err)

	suite.Equal(common.HexToHash(testPriceID), update.PriceID)
	suite.Equal(common.FromHex(testVAA), update.Data)
	suite.Require().NotNil(update.Preview)
	suite.Equal(int64(250000), update.Preview.Price)
	suite.Equal(uint64(150), update.Preview.Conf)
	suite.Equal(int32(-2), update.Preview.Expo)
	suite.Equal(int64(1700000000), update.Preview.PublishTime.Int64())

	suite.Require().NotNil(suite.lastReq)
	suite.Empty(suite.lastReq.Header.Get("Authorization"))
	suite.Equal([]string{testPriceID}, suite.lastReq.URL.Query()["ids[]"])
}

func (suite *FetcherTestSuite) TestHermesFetch_HTTPError() {
	suite.status = http.StatusNotFound
	suite.hermesBody = `{"message":"price id not found"}`

	_, err := NewHermesFetcher(suite.server.URL).Fetch(context.Background(), testPriceID)
	suite.ErrorIs(err, types.ErrOracleAPI)
	suite.Contains(err.Error(), "price id not found")
}

func (suite *FetcherTestSuite) TestHermesFetch_InvalidPriceID() {
	_, err := NewHermesFetcher(suite.server.URL).Fetch(context.Background(), "0x1234")
	suite.ErrorIs(err, types.ErrConfig)
	suite.Nil(suite.lastReq)
}

func (suite *FetcherTestSuite) TestParseHermesResponse() {
	update, err := ParseHermesResponse([]byte(`{"binary":{"encoding":"hex","data":["0x0102"]}}`))
	suite.Require().NoError(err)
	suite.Equal([]byte{0x01, 0x02}, update.Data)
	suite.Nil(update.Preview)

	_, err = ParseHermesResponse([]byte(`{"binary":{"encoding":"hex","data":[]}}`))
	suite.ErrorIs(err, types.ErrOracleResponse)

	_, err = ParseHermesResponse([]byte(`{"binary":{"encoding":"base64","data":["AQI="]}}`))
	suite.ErrorIs(err, types.ErrOracleResponse)

	_, err = ParseHermesResponse([]byte(`{"binary":{"data":["zz"]}}`))
	suite.ErrorIs(err, types.ErrOracleResponse)
}
