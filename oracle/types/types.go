package types

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Signature is the publisher's secp256k1 signature over a Stork price.
type Signature struct {
	R common.Hash
	S common.Hash
	V uint8
}

// SignedPriceRecord is one signed Stork price as returned by the REST API.
// It is immutable once fetched.
type SignedPriceRecord struct {
	AssetPair           string
	AssetID             common.Hash
	QuantizedValue      *big.Int
	TimestampNs         uint64
	PublisherMerkleRoot common.Hash
	ValueComputeAlgHash common.Hash
	Signature           Signature
}

// PublishedAt converts the nanosecond timestamp to wall-clock time.
func (r SignedPriceRecord) PublishedAt() time.Time {
	return time.Unix(0, int64(r.TimestampNs))
}

func (r SignedPriceRecord) String() string {
	return fmt.Sprintf("%s(%s) value=%s ts=%d", r.AssetPair, r.AssetID.Hex(), r.QuantizedValue, r.TimestampNs)
}

// PythUpdate is a Hermes price update: an opaque VAA blob plus the parsed
// quote Hermes sends alongside it, if any.
type PythUpdate struct {
	PriceID common.Hash
	Data    []byte
	Preview *PythPrice
}

// TemporalNumericValue is what the Stork contract stores per asset id.
type TemporalNumericValue struct {
	TimestampNs    uint64
	QuantizedValue *big.Int
}

func (v TemporalNumericValue) PublishedAt() time.Time {
	return time.Unix(0, int64(v.TimestampNs))
}

// PythPrice mirrors PythStructs.Price. PublishTime is in unix seconds.
type PythPrice struct {
	Price       int64
	Conf        uint64
	Expo        int32
	PublishTime *big.Int
}

func (p PythPrice) PublishedAt() time.Time {
	if p.PublishTime == nil {
		return time.Time{}
	}
	return time.Unix(p.PublishTime.Int64(), 0)
}

// Staleness is now minus the publish time.
func Staleness(now, published time.Time) time.Duration {
	return now.Sub(published)
}
