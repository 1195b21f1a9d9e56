package submitter

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/kcmikee/orbit/oracle/chain"
	"github.com/kcmikee/orbit/oracle/contract"
	"github.com/kcmikee/orbit/oracle/log"
	"github.com/kcmikee/orbit/oracle/types"
)

// Submitter handles the creation, signing, and broadcasting of oracle update
// transactions from a single externally owned account.
type Submitter struct {
	client   chain.Client
	key      *ecdsa.PrivateKey
	from     common.Address
	gasLimit uint64
	chainID  *big.Int // fetched on first sign
}

// New creates a Submitter sending from the address of key.
func New(client chain.Client, key *ecdsa.PrivateKey, gasLimit uint64) *Submitter {
	return &Submitter{
		client:   client,
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		gasLimit: gasLimit,
	}
}

// NewReadOnly creates a Submitter that can quote fees but not sign.
func NewReadOnly(client chain.Client) *Submitter {
	return &Submitter{client: client}
}

// From returns the sender address.
func (s *Submitter) From() common.Address {
	return s.from
}

// QuoteFee performs a read-only call to a fee getter such as getUpdateFee and
// returns the quoted amount in wei.
func (s *Submitter) QuoteFee(ctx context.Context, to common.Address, feeCallData []byte) (*big.Int, error) {
	ret, err := s.client.CallContract(ctx, ethereum.CallMsg{
		From: s.from,
		To:   &to,
		Data: feeCallData,
	}, nil)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrRPC, "fee quote from %s: %v", to.Hex(), err)
	}

	fee, err := contract.UnpackFee(ret)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrRPC, "fee quote from %s: %v", to.Hex(), err)
	}

	log.Infof("Update fee: %s wei", fee)
	return fee, nil
}

// BuildTransaction creates an unsigned legacy transaction calling to with
// data and value, using the pending nonce and the node's suggested gas price.
func (s *Submitter) BuildTransaction(ctx context.Context, to common.Address, data []byte, value *big.Int) (*ethtypes.Transaction, error) {
	nonce, err := s.client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrRPC, "failed to get nonce for %s: %v", s.from.Hex(), err)
	}

	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrRPC, "failed to get gas price: %v", err)
	}

	if value == nil {
		value = new(big.Int)
	}

	log.Debugf("tx: from=%s to=%s nonce=%d gas=%d gasPrice=%s value=%s", s.from.Hex(), to.Hex(), nonce, s.gasLimit, gasPrice, value)

	return ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      s.gasLimit,
		To:       &to,
		Value:    value,
		Data:     data,
	}), nil
}

// SignTransaction signs tx for the connected chain.
func (s *Submitter) SignTransaction(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Transaction, error) {
	if s.key == nil {
		return nil, errorsmod.Wrap(types.ErrConfig, "no signing key")
	}

	if s.chainID == nil {
		chainID, err := s.client.ChainID(ctx)
		if err != nil {
			return nil, errorsmod.Wrapf(types.ErrRPC, "failed to get chain id: %v", err)
		}
		s.chainID = chainID
	}

	signed, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrRPC, "failed to sign transaction: %v", err)
	}

	return signed, nil
}

// BroadcastTransaction sends a signed transaction and returns its hash. A
// rejection by the node is returned with the node's message intact.
func (s *Submitter) BroadcastTransaction(ctx context.Context, signed *ethtypes.Transaction) (common.Hash, error) {
	log.Infof("Sending transaction...")

	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, errorsmod.Wrapf(types.ErrRPC, "failed to broadcast transaction: %v", err)
	}

	log.Infof("Transaction sent: %s", signed.Hash().Hex())
	return signed.Hash(), nil
}

// Submit builds, signs and broadcasts in one step.
func (s *Submitter) Submit(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	tx, err := s.BuildTransaction(ctx, to, data, value)
	if err != nil {
		return common.Hash{}, err
	}

	signed, err := s.SignTransaction(ctx, tx)
	if err != nil {
		return common.Hash{}, err
	}

	return s.BroadcastTransaction(ctx, signed)
}
