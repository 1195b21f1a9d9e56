// Package pipeline runs one oracle push end to end:
// FETCH → ENCODE → ESTIMATE_FEE → SIGN_AND_SEND → AWAIT_RECEIPT → VERIFY.
// Every stage is attempted once; the first failure ends the run.
package pipeline

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/kcmikee/orbit/oracle/chain"
	"github.com/kcmikee/orbit/oracle/config"
	"github.com/kcmikee/orbit/oracle/contract"
	"github.com/kcmikee/orbit/oracle/encoder"
	"github.com/kcmikee/orbit/oracle/fetcher"
	"github.com/kcmikee/orbit/oracle/log"
	"github.com/kcmikee/orbit/oracle/monitor"
	"github.com/kcmikee/orbit/oracle/submitter"
	"github.com/kcmikee/orbit/oracle/types"
	"github.com/kcmikee/orbit/oracle/verifier"
)

// Stage names used to wrap errors.
const (
	StageFetch   = "fetch"
	StageEncode  = "encode"
	StageFee     = "estimate fee"
	StageSend    = "sign and send"
	StageReceipt = "await receipt"
	StageVerify  = "verify"
	StageConnect = "connect"
	StageSecrets = "load secrets"
	StageResolve = "resolve asset"
)

// Dialer opens the chain connection. chain.Dial in production.
type Dialer func(ctx context.Context, rpcURL string, expectedChainID uint64) (chain.Client, *big.Int, error)

// StorkSource fetches signed Stork prices.
type StorkSource interface {
	Fetch(ctx context.Context, assetPair string) (types.SignedPriceRecord, error)
}

// PythSource fetches Hermes price updates.
type PythSource interface {
	Fetch(ctx context.Context, priceID string) (types.PythUpdate, error)
}

// Result describes a finished push. Receipt is set whenever the transaction
// was mined, including when it reverted.
type Result struct {
	TxHash   common.Hash
	Receipt  *ethtypes.Receipt
	Fee      *big.Int
	CallData []byte
	Verified bool
}

type Pipeline struct {
	cfg    *config.Config
	dial   Dialer
	stork  StorkSource
	pyth   PythSource
	dryRun bool

	client chain.Client
}

type Option func(*Pipeline)

func WithDialer(d Dialer) Option {
	return func(p *Pipeline) { p.dial = d }
}

func WithStorkSource(s StorkSource) Option {
	return func(p *Pipeline) { p.stork = s }
}

func WithPythSource(s PythSource) Option {
	return func(p *Pipeline) { p.pyth = s }
}

// WithDryRun stops a push after ENCODE (Stork) or ESTIMATE_FEE (Pyth).
func WithDryRun(dryRun bool) Option {
	return func(p *Pipeline) { p.dryRun = dryRun }
}

func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:  cfg,
		dial: chain.Dial,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Close releases the chain connection if one was opened.
func (p *Pipeline) Close() {
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
}

// connect dials on first use so that fetch failures never touch the chain.
func (p *Pipeline) connect(ctx context.Context) (chain.Client, error) {
	if p.client != nil {
		return p.client, nil
	}

	client, _, err := p.dial(ctx, p.cfg.RPCURL(), p.cfg.ChainID())
	if err != nil {
		return nil, errorsmod.Wrap(err, StageConnect)
	}
	p.client = client

	return client, nil
}

func (p *Pipeline) signingKey() (*ecdsa.PrivateKey, error) {
	if p.dryRun {
		return nil, nil
	}

	key, err := p.cfg.PrivateKey()
	if err != nil {
		return nil, errorsmod.Wrap(err, StageSecrets)
	}
	return key, nil
}

// RunStork pushes the latest signed Stork price for assetPair.
func (p *Pipeline) RunStork(ctx context.Context, assetPair string) (*Result, error) {
	key, err := p.signingKey()
	if err != nil {
		return nil, err
	}

	source := p.stork
	if source == nil {
		apiKey, err := p.cfg.StorkAPIKey()
		if err != nil {
			return nil, errorsmod.Wrap(err, StageSecrets)
		}
		source = fetcher.NewStorkFetcher(p.cfg.StorkAPIURL(), apiKey)
	}

	record, err := source.Fetch(ctx, assetPair)
	if err != nil {
		return nil, errorsmod.Wrap(err, StageFetch)
	}

	data, err := encoder.StorkCallData(record)
	if err != nil {
		return nil, errorsmod.Wrap(err, StageEncode)
	}

	res := &Result{CallData: data}
	if p.dryRun {
		log.Debugf("signed price: %s", spew.Sdump(record))
		log.Infof("Dry run: %s calldata for %s: %s", contract.StorkUpdateMethod, p.cfg.StorkContract().Hex(), hexutil.Encode(data))
		return res, nil
	}

	client, err := p.connect(ctx)
	if err != nil {
		return nil, err
	}

	if err := p.send(ctx, client, key, p.cfg.StorkContract(), data, nil, res); err != nil {
		return res, err
	}

	_, err = verifier.New(client, p.cfg.StaleAfter()).VerifyStork(ctx, p.cfg.StorkContract(), record.AssetID)
	p.finishVerify(res, err)

	return res, nil
}

// RunPyth pushes the latest Hermes update for priceID, paying the fee quoted
// by getUpdateFee.
func (p *Pipeline) RunPyth(ctx context.Context, priceID string) (*Result, error) {
	key, err := p.signingKey()
	if err != nil {
		return nil, err
	}

	source := p.pyth
	if source == nil {
		source = fetcher.NewHermesFetcher(p.cfg.HermesURL())
	}

	update, err := source.Fetch(ctx, priceID)
	if err != nil {
		return nil, errorsmod.Wrap(err, StageFetch)
	}

	updateData, err := encoder.Pyth(update)
	if err != nil {
		return nil, errorsmod.Wrap(err, StageEncode)
	}
	data, err := contract.PackPythUpdate(updateData)
	if err != nil {
		return nil, errorsmod.Wrap(err, StageEncode)
	}
	feeCall, err := contract.PackPythFee(updateData)
	if err != nil {
		return nil, errorsmod.Wrap(err, StageEncode)
	}

	client, err := p.connect(ctx)
	if err != nil {
		return nil, err
	}

	// the fee quote is a read; any key works as the caller
	var quoter *submitter.Submitter
	if key != nil {
		quoter = submitter.New(client, key, p.cfg.GasLimit())
	} else {
		quoter = submitter.NewReadOnly(client)
	}

	fee, err := quoter.QuoteFee(ctx, p.cfg.PythContract(), feeCall)
	if err != nil {
		return nil, errorsmod.Wrap(err, StageFee)
	}

	res := &Result{CallData: data, Fee: fee}
	if p.dryRun {
		log.Infof("Dry run: %s calldata for %s (fee %s wei): %s", contract.PythUpdateMethod, p.cfg.PythContract().Hex(), fee, hexutil.Encode(data))
		return res, nil
	}

	if err := p.send(ctx, client, key, p.cfg.PythContract(), data, fee, res); err != nil {
		return res, err
	}

	_, err = verifier.New(client, p.cfg.StaleAfter()).VerifyPyth(ctx, p.cfg.PythContract(), update.PriceID, false)
	p.finishVerify(res, err)

	return res, nil
}

// send covers SIGN_AND_SEND and AWAIT_RECEIPT, filling res as it goes.
func (p *Pipeline) send(ctx context.Context, client chain.Client, key *ecdsa.PrivateKey, to common.Address, data []byte, value *big.Int, res *Result) error {
	sub := submitter.New(client, key, p.cfg.GasLimit())

	hash, err := sub.Submit(ctx, to, data, value)
	if err != nil {
		return errorsmod.Wrap(err, StageSend)
	}
	res.TxHash = hash

	receipt, err := monitor.New(client, p.cfg.ReceiptMaxWait(), p.cfg.ReceiptPollInterval()).WaitReceipt(ctx, hash)
	res.Receipt = receipt
	if err != nil {
		return errorsmod.Wrap(err, StageReceipt)
	}

	log.Infof("Transaction confirmed in block %s", receipt.BlockNumber)
	return nil
}

// finishVerify records the read-back. The update already landed, so a failed
// read is reported but does not fail the run.
func (p *Pipeline) finishVerify(res *Result, err error) {
	if err != nil {
		log.Warnf("%s: %v", StageVerify, err)
		return
	}
	res.Verified = true
}

// ReadStork reads the stored value for assetID without sending anything.
func (p *Pipeline) ReadStork(ctx context.Context, assetID common.Hash) (types.TemporalNumericValue, error) {
	client, err := p.connect(ctx)
	if err != nil {
		return types.TemporalNumericValue{}, err
	}

	value, err := verifier.New(client, p.cfg.StaleAfter()).VerifyStork(ctx, p.cfg.StorkContract(), assetID)
	if err != nil {
		return types.TemporalNumericValue{}, errorsmod.Wrap(err, StageVerify)
	}

	return value, nil
}

// ReadPyth reads the stored price for priceID with getPriceUnsafe, so an old
// price is still shown rather than reverting.
func (p *Pipeline) ReadPyth(ctx context.Context, priceID string) (types.PythPrice, error) {
	id, err := fetcher.ParsePriceID(priceID)
	if err != nil {
		return types.PythPrice{}, errorsmod.Wrap(err, StageResolve)
	}

	client, err := p.connect(ctx)
	if err != nil {
		return types.PythPrice{}, err
	}

	price, err := verifier.New(client, p.cfg.StaleAfter()).VerifyPyth(ctx, p.cfg.PythContract(), id, true)
	if err != nil {
		return types.PythPrice{}, errorsmod.Wrap(err, StageVerify)
	}

	return price, nil
}
