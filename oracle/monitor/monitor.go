package monitor

import (
	"context"
	"errors"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/kcmikee/orbit/oracle/chain"
	"github.com/kcmikee/orbit/oracle/log"
	"github.com/kcmikee/orbit/oracle/retry"
	"github.com/kcmikee/orbit/oracle/types"
)

// Monitor watches the chain for the receipt of a broadcast transaction.
type Monitor struct {
	client  chain.Client
	policy  *retry.RetryConfig
	maxWait time.Duration
}

// New polls every pollInterval at first, backing off to 5s, and gives up
// after maxWait.
func New(client chain.Client, maxWait, pollInterval time.Duration) *Monitor {
	policy := retry.ReceiptRetryConfig(maxWait)
	if pollInterval > 0 {
		policy = policy.WithBaseDelay(pollInterval)
	}

	return &Monitor{
		client:  client,
		policy:  policy,
		maxWait: maxWait,
	}
}

// WaitReceipt blocks until hash is mined, for at most maxWait including time
// spent inside receipt calls. A mined receipt whose status is not successful
// is returned together with ErrTxFailed.
func (m *Monitor) WaitReceipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	log.Infof("Waiting for receipt of %s...", hash.Hex())
	start := time.Now()

	if m.maxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.maxWait)
		defer cancel()
	}

	var receipt *ethtypes.Receipt
	err := retry.Do(ctx, m.policy, func() error {
		r, err := m.client.TransactionReceipt(ctx, hash)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	}, isPending)

	switch {
	case err == nil:
	case errors.Is(err, ethereum.NotFound), errors.Is(err, context.DeadlineExceeded):
		return nil, errorsmod.Wrapf(types.ErrReceiptTimeout, "%s not mined after %v", hash.Hex(), time.Since(start).Round(time.Millisecond))
	case errors.Is(err, context.Canceled):
		return nil, err
	default:
		return nil, errorsmod.Wrapf(types.ErrRPC, "receipt for %s: %v", hash.Hex(), err)
	}

	log.Infof("Mined in block %s, gas used %d, status %d", receipt.BlockNumber, receipt.GasUsed, receipt.Status)
	log.Debugf("receipt: %s", spew.Sdump(receipt))

	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return receipt, errorsmod.Wrapf(types.ErrTxFailed, "%s reverted in block %s", hash.Hex(), receipt.BlockNumber)
	}

	return receipt, nil
}

// isPending: an unknown receipt means the tx is not mined yet.
func isPending(err error) bool {
	return errors.Is(err, ethereum.NotFound)
}
