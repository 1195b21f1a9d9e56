package contract

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Function names on the target contracts.
const (
	StorkUpdateMethod = "updateTemporalNumericValuesV1"
	StorkReadMethod   = "getTemporalNumericValueV1"

	PythUpdateMethod      = "updatePriceFeeds"
	PythFeeMethod         = "getUpdateFee"
	PythPriceMethod       = "getPrice"
	PythPriceUnsafeMethod = "getPriceUnsafe"
)

const storkABIJSON = `[
  {
    "inputs": [
      {
        "components": [
          {
            "components": [
              {"internalType": "uint64", "name": "timestampNs", "type": "uint64"},
              {"internalType": "int192", "name": "quantizedValue", "type": "int192"}
            ],
            "internalType": "struct StorkStructs.TemporalNumericValue",
            "name": "temporalNumericValue",
            "type": "tuple"
          },
          {"internalType": "bytes32", "name": "id", "type": "bytes32"},
          {"internalType": "bytes32", "name": "publisherMerkleRoot", "type": "bytes32"},
          {"internalType": "bytes32", "name": "valueComputeAlgHash", "type": "bytes32"},
          {"internalType": "bytes32", "name": "r", "type": "bytes32"},
          {"internalType": "bytes32", "name": "s", "type": "bytes32"},
          {"internalType": "uint8", "name": "v", "type": "uint8"}
        ],
        "internalType": "struct StorkStructs.TemporalNumericValueInput[]",
        "name": "updateData",
        "type": "tuple[]"
      }
    ],
    "name": "updateTemporalNumericValuesV1",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "bytes32", "name": "id", "type": "bytes32"}],
    "name": "getTemporalNumericValueV1",
    "outputs": [
      {
        "components": [
          {"internalType": "uint64", "name": "timestampNs", "type": "uint64"},
          {"internalType": "int192", "name": "quantizedValue", "type": "int192"}
        ],
        "internalType": "struct StorkStructs.TemporalNumericValue",
        "name": "value",
        "type": "tuple"
      }
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

const pythPriceTuple = `[
  {
    "components": [
      {"internalType": "int64", "name": "price", "type": "int64"},
      {"internalType": "uint64", "name": "conf", "type": "uint64"},
      {"internalType": "int32", "name": "expo", "type": "int32"},
      {"internalType": "uint256", "name": "publishTime", "type": "uint256"}
    ],
    "internalType": "struct PythStructs.Price",
    "name": "price",
    "type": "tuple"
  }
]`

const pythABIJSON = `[
  {
    "inputs": [{"internalType": "bytes[]", "name": "updateData", "type": "bytes[]"}],
    "name": "updatePriceFeeds",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "bytes[]", "name": "updateData", "type": "bytes[]"}],
    "name": "getUpdateFee",
    "outputs": [{"internalType": "uint256", "name": "feeAmount", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "bytes32", "name": "id", "type": "bytes32"}],
    "name": "getPrice",
    "outputs": ` + pythPriceTuple + `,
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "bytes32", "name": "id", "type": "bytes32"}],
    "name": "getPriceUnsafe",
    "outputs": ` + pythPriceTuple + `,
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	storkABI = mustParse(storkABIJSON)
	pythABI  = mustParse(pythABIJSON)
)

func mustParse(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}

	return parsed
}

// StorkABI returns the parsed Stork contract ABI.
func StorkABI() abi.ABI {
	return storkABI
}

// PythABI returns the parsed Pyth contract ABI.
func PythABI() abi.ABI {
	return pythABI
}
