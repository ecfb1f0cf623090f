// Package publisher creates HelloWorld tokens with a wallet and submits them to an overlay.
package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/wallet"

	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/client"
	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/evidence"
	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/token"
	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/types"
)

// DefaultSatoshis is the value locked in each HelloWorld token output.
const DefaultSatoshis = 1

// Static error variables for err113 compliance
var (
	errWalletRequired    = errors.New("wallet is required")
	errSubmitterRequired = errors.New("submitter is required")
	errSatoshisInvalid   = errors.New("token value must be at least one satoshi")
	errNoTransaction     = errors.New("wallet returned no transaction")
	errOutputNotFound    = errors.New("token output not found in created transaction")
)

// Submitter sends token evidence to an overlay. *client.Client implements it.
type Submitter interface {
	Submit(ctx context.Context, ev types.TokenEvidence) (*client.SubmitResponse, error)
}

// Result describes a published token.
type Result struct {
	TxID          string                 `json:"txid"`
	OutputIndex   uint32                 `json:"outputIndex"`
	Satoshis      uint64                 `json:"satoshis"`
	LockingScript string                 `json:"lockingScript"`
	Response      *client.SubmitResponse `json:"-"`
}

// Publisher creates and submits HelloWorld tokens.
type Publisher struct {
	wallet     wallet.Interface
	submitter  Submitter
	scope      types.Scope
	satoshis   uint64
	originator string
	logger     *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher) error

// WithScope derives token keys under scope instead of the default helloworld scope.
func WithScope(scope types.Scope) Option {
	return func(p *Publisher) error {
		if err := scope.Validate(); err != nil {
			return err
		}
		p.scope = scope
		return nil
	}
}

// WithSatoshis sets the value locked in each token output.
func WithSatoshis(satoshis uint64) Option {
	return func(p *Publisher) error {
		if satoshis == 0 {
			return errSatoshisInvalid
		}
		p.satoshis = satoshis
		return nil
	}
}

// WithOriginator sets the originator passed to wallet calls.
func WithOriginator(originator string) Option {
	return func(p *Publisher) error {
		p.originator = originator
		return nil
	}
}

// WithLogger sets the publisher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) error {
		p.logger = logger
		return nil
	}
}

// New creates a Publisher that funds tokens from w and submits them through s.
func New(w wallet.Interface, s Submitter, opts ...Option) (*Publisher, error) {
	if w == nil {
		return nil, errWalletRequired
	}
	if s == nil {
		return nil, errSubmitterRequired
	}

	p := &Publisher{
		wallet:    w,
		submitter: s,
		scope:     types.DefaultScope(),
		satoshis:  DefaultSatoshis,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Publish locks message in a new token output, has the wallet create and sign the
// transaction, and submits it to the overlay under tm_helloworld.
func (p *Publisher) Publish(ctx context.Context, message string) (*Result, error) {
	codec := token.NewCodec(p.wallet, p.scope).WithOriginator(p.originator)
	lockingScript, err := codec.Encode(ctx, message)
	if err != nil {
		return nil, err
	}

	randomize := false
	action, err := p.wallet.CreateAction(ctx, wallet.CreateActionArgs{
		Description: "Create a HelloWorld token",
		Outputs: []wallet.CreateActionOutput{{
			LockingScript:     lockingScript.Bytes(),
			Satoshis:          p.satoshis,
			OutputDescription: "HelloWorld token",
		}},
		Options: &wallet.CreateActionOptions{RandomizeOutputs: &randomize},
	}, p.originator)
	if err != nil {
		return nil, fmt.Errorf("failed to create action for HelloWorld token: %w", err)
	}
	if action == nil || len(action.Tx) == 0 {
		return nil, fmt.Errorf("%w: %w", types.ErrConversion, errNoTransaction)
	}

	tx, err := transaction.NewTransactionFromBEEF(action.Tx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse created transaction: %w", types.ErrConversion, err)
	}
	if tx == nil {
		return nil, fmt.Errorf("%w: %w", types.ErrConversion, errNoTransaction)
	}

	outputIndex, err := findOutput(tx, lockingScript.Bytes())
	if err != nil {
		return nil, err
	}

	beef, err := evidence.FromTransaction(tx)
	if err != nil {
		return nil, err
	}

	txid := tx.TxID().String()
	p.logger.InfoContext(ctx, "submitting HelloWorld token", "txid", txid, "outputIndex", outputIndex)

	resp, err := p.submitter.Submit(ctx, types.FlatEvidence(beef))
	if err != nil {
		return nil, err
	}

	return &Result{
		TxID:          txid,
		OutputIndex:   outputIndex,
		Satoshis:      tx.Outputs[outputIndex].Satoshis,
		LockingScript: lockingScript.String(),
		Response:      resp,
	}, nil
}

func findOutput(tx *transaction.Transaction, lockingScript []byte) (uint32, error) {
	for i, output := range tx.Outputs {
		if output.LockingScript != nil && bytes.Equal(output.LockingScript.Bytes(), lockingScript) {
			return uint32(i), nil //nolint:gosec // output count fits in uint32
		}
	}
	return 0, fmt.Errorf("%w: %w", types.ErrConversion, errOutputNotFound)
}
