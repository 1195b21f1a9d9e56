package chain

import (
	"context"
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/kcmikee/orbit/oracle/log"
	"github.com/kcmikee/orbit/oracle/types"
)

//go:generate mockgen -destination=../mocks/mock_chain_client.go -package=mocks github.com/kcmikee/orbit/oracle/chain Client

// Client is the subset of ethclient.Client the pipeline needs.
type Client interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	Close()
}

var _ Client = (*ethclient.Client)(nil)

// Dial connects to rpcURL and checks the node answers eth_chainId. When
// expectedChainID is non-zero it must match the node's.
func Dial(ctx context.Context, rpcURL string, expectedChainID uint64) (Client, *big.Int, error) {
	log.Debugf("dialing %s", rpcURL)

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, errorsmod.Wrapf(types.ErrRPC, "could not connect to %s: %v", rpcURL, err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, nil, errorsmod.Wrapf(types.ErrRPC, "could not connect to %s: %v", rpcURL, err)
	}

	if expectedChainID != 0 && chainID.Uint64() != expectedChainID {
		client.Close()
		return nil, nil, errorsmod.Wrapf(types.ErrConfig, "chain id mismatch: node reports %s, config expects %d", chainID, expectedChainID)
	}

	log.Infof("Connected to %s (chain id %s)", rpcURL, chainID)
	return client, chainID, nil
}
