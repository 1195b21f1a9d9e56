package contract

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"github.com/kcmikee/orbit/oracle/types"
)

type ContractTestSuite struct {
	suite.Suite
}

func TestContractTestSuite(t *testing.T) {
	suite.Run(t, new(ContractTestSuite))
}

func (suite *ContractTestSuite) storkInput(value *big.Int) TemporalNumericValueInput {
	return TemporalNumericValueInput{
		TemporalNumericValue: TemporalNumericValue{
			TimestampNs:    1700000000000000000,
			QuantizedValue: value,
		},
		ID:                  common.HexToHash("0x1234"),
		PublisherMerkleRoot: common.HexToHash("0x5678"),
		ValueComputeAlgHash: common.HexToHash("0xdeadbeef"),
		R:                   common.HexToHash("0xaa"),
		S:                   common.HexToHash("0xbb"),
		V:                   27,
	}
}

func (suite *ContractTestSuite) TestABIMethods() {
	for _, name := range []string{StorkUpdateMethod, StorkReadMethod} {
		_, ok := StorkABI().Methods[name]
		suite.True(ok, name)
	}
	for _, name := range []string{PythUpdateMethod, PythFeeMethod, PythPriceMethod, PythPriceUnsafeMethod} {
		_, ok := PythABI().Methods[name]
		suite.True(ok, name)
	}

	suite.True(StorkABI().Methods[StorkUpdateMethod].IsPayable())
	suite.True(PythABI().Methods[PythUpdateMethod].IsPayable())
	suite.Equal("updateTemporalNumericValuesV1(((uint64,int192),bytes32,bytes32,bytes32,bytes32,bytes32,uint8)[])",
		StorkABI().Methods[StorkUpdateMethod].Sig)
}

func (suite *ContractTestSuite) TestStorkUpdate_RoundTrip() {
	big1, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	suite.Require().True(ok)

	testCases := []struct {
		name  string
		value *big.Int
	}{
		{"small positive", big.NewInt(300000000000)},
		{"beyond float precision", big1},
		{"negative", big.NewInt(-42)},
		{"max int192", new(big.Int).Set(maxInt192)},
		{"min int192", new(big.Int).Set(minInt192)},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			input := suite.storkInput(tc.value)

			data, err := PackStorkUpdate([]TemporalNumericValueInput{input})
			suite.Require().NoError(err)
			suite.Equal(StorkABI().Methods[StorkUpdateMethod].ID, data[:4])

			decoded, err := UnpackStorkUpdate(data)
			suite.Require().NoError(err)
			suite.Require().Len(decoded, 1)

			got := decoded[0]
			suite.Equal(input.TemporalNumericValue.TimestampNs, got.TemporalNumericValue.TimestampNs)
			suite.Equal(0, input.TemporalNumericValue.QuantizedValue.Cmp(got.TemporalNumericValue.QuantizedValue))
			suite.Equal(input.ID, got.ID)
			suite.Equal(input.PublisherMerkleRoot, got.PublisherMerkleRoot)
			suite.Equal(input.ValueComputeAlgHash, got.ValueComputeAlgHash)
			suite.Equal(input.R, got.R)
			suite.Equal(input.S, got.S)
			suite.Equal(input.V, got.V)
		})
	}
}

func (suite *ContractTestSuite) TestStorkUpdate_OutOfRange() {
	tooBig := new(big.Int).Add(maxInt192, big.NewInt(1))

	_, err := PackStorkUpdate([]TemporalNumericValueInput{suite.storkInput(tooBig)})
	suite.ErrorIs(err, types.ErrEncode)

	_, err = PackStorkUpdate([]TemporalNumericValueInput{suite.storkInput(nil)})
	suite.ErrorIs(err, types.ErrEncode)
}

func (suite *ContractTestSuite) TestUnpackStorkUpdate_WrongSelector() {
	data, err := PackPythUpdate([][]byte{{0x01}})
	suite.Require().NoError(err)

	_, err = UnpackStorkUpdate(data)
	suite.ErrorIs(err, types.ErrEncode)
}

func (suite *ContractTestSuite) TestPackStorkRead() {
	id := common.HexToHash("0x1234")
	call, err := PackStorkRead(id)
	suite.Require().NoError(err)
	suite.Len(call, 4+32)
	suite.Equal(StorkABI().Methods[StorkReadMethod].ID, call[:4])
	suite.Equal(id.Bytes(), call[4:])
}

func (suite *ContractTestSuite) TestPythUpdate_RoundTrip() {
	blob := []byte{0x50, 0x4e, 0x41, 0x55, 0x01, 0x00}

	data, err := PackPythUpdate([][]byte{blob})
	suite.Require().NoError(err)

	decoded, err := UnpackPythUpdate(data)
	suite.Require().NoError(err)
	suite.Equal([][]byte{blob}, decoded)

	fee, err := PackPythFee([][]byte{blob})
	suite.Require().NoError(err)
	suite.Equal(PythABI().Methods[PythFeeMethod].ID, fee[:4])
	// same argument encoding, different selector
	suite.Equal(data[4:], fee[4:])
}

func (suite *ContractTestSuite) TestUnpackFee_ShortData() {
	_, err := UnpackFee([]byte{0x01})
	suite.Error(err)
}

func (suite *ContractTestSuite) TestPackPythPrice_Selectors() {
	safe, err := PackPythPrice(common.HexToHash("0xff"), false)
	suite.Require().NoError(err)
	unsafe, err := PackPythPrice(common.HexToHash("0xff"), true)
	suite.Require().NoError(err)
	suite.Equal(PythABI().Methods[PythPriceMethod].ID, safe[:4])
	suite.Equal(PythABI().Methods[PythPriceUnsafeMethod].ID, unsafe[:4])
	suite.Equal(safe[4:], unsafe[4:])
}

func (suite *ContractTestSuite) TestStorkAssetID() {
	eth := StorkAssetID("ETHUSD")
	suite.NotEqual(common.Hash{}, eth)
	suite.NotEqual(eth, StorkAssetID("BTCUSD"))
	suite.Equal(eth, StorkAssetID("ETHUSD"))
}
