package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/overlay/lookup"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"golang.org/x/sync/errgroup"

	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/token"
	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/types"
)

var (
	errOutputsInvalid     = errors.New("output-list outputs is not an array")
	errOutputInvalid      = errors.New("output entry is malformed")
	errBeefInvalid        = errors.New("output BEEF cannot be parsed")
	errOutputIndexInvalid = errors.New("output index out of range")
)

// lookupRequest is the body posted to {overlayURL}/lookup.
type lookupRequest struct {
	Service string      `json:"service"`
	Query   types.Query `json:"query"`
}

// LookupResult is the outcome of decoding one output of a lookup answer.
// Exactly one of Token and Err is set.
type LookupResult struct {
	Index int
	Token *types.Token
	Err   error
}

// Lookup queries ls_helloworld and returns the tokens that decode successfully, in the
// order the overlay listed them. Answers other than an output list yield no tokens.
func (c *Client) Lookup(ctx context.Context, q types.Query) ([]*types.Token, error) {
	results, err := c.LookupResults(ctx, q)
	if err != nil {
		return nil, err
	}

	tokens := make([]*types.Token, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			c.logger.Warn("skipping lookup output", "index", r.Index, "error", r.Err)
			continue
		}
		tokens = append(tokens, r.Token)
	}
	return tokens, nil
}

// LookupResults queries ls_helloworld and reports one result per listed output, in overlay
// order, so callers can see which outputs failed and why.
func (c *Client) LookupResults(ctx context.Context, q types.Query) ([]LookupResult, error) {
	body, err := json.Marshal(lookupRequest{
		Service: types.Service,
		Query:   q,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal lookup question: %w", types.ErrTransport, err)
	}

	resp, err := c.post(ctx, lookupPath, map[string]string{
		headerContentType: contentTypeJSON,
	}, body)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup failed: %w", types.ErrTransport, err)
	}

	raw, err := c.checkResponse(lookupPath, resp)
	if err != nil {
		return nil, err
	}

	outputs, err := outputList(raw)
	if err != nil {
		c.metrics.observeRequest(lookupPath, outcomeFormatError)
		return nil, err
	}
	c.metrics.observeRequest(lookupPath, outcomeOK)

	return c.decodeOutputs(outputs), nil
}

// outputList extracts the outputs of an output-list answer. Any other answer type, or a
// body that is not a JSON object, yields no outputs.
func outputList(raw json.RawMessage) ([]json.RawMessage, error) {
	var answer map[string]json.RawMessage
	if err := json.Unmarshal(raw, &answer); err != nil {
		return nil, nil
	}

	var answerType lookup.AnswerType
	if err := json.Unmarshal(answer["type"], &answerType); err != nil || answerType != lookup.AnswerTypeOutputList {
		return nil, nil
	}

	rawOutputs, ok := answer["outputs"]
	if !ok {
		return nil, nil
	}
	var outputs []json.RawMessage
	if err := json.Unmarshal(rawOutputs, &outputs); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", types.ErrResponseFormat, errOutputsInvalid, err)
	}
	return outputs, nil
}

// decodeOutputs decodes every output concurrently. Results are addressed by index so
// their order never depends on completion order.
func (c *Client) decodeOutputs(outputs []json.RawMessage) []LookupResult {
	results := make([]LookupResult, len(outputs))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, rawOutput := range outputs {
		g.Go(func() error {
			results[i] = LookupResult{Index: i}
			var ref types.OutputReference
			if err := json.Unmarshal(rawOutput, &ref); err != nil {
				results[i].Err = fmt.Errorf("%w: %w: %w", types.ErrResponseFormat, errOutputInvalid, err)
			} else {
				results[i].Token, results[i].Err = DecodeOutput(ref)
			}

			if results[i].Err != nil {
				c.metrics.observeOutput(outcomeSkipped)
			} else {
				c.metrics.observeOutput(outcomeDecoded)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// DecodeOutput reconstructs the token held by output ref.OutputIndex of the transaction in
// ref.Beef.
func DecodeOutput(ref types.OutputReference) (*types.Token, error) {
	tx, err := transaction.NewTransactionFromBEEF(ref.Beef)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", types.ErrResponseFormat, errBeefInvalid, err)
	}
	if tx == nil {
		return nil, fmt.Errorf("%w: %w", types.ErrResponseFormat, errBeefInvalid)
	}
	if int(ref.OutputIndex) >= len(tx.Outputs) {
		return nil, fmt.Errorf("%w: %w: %d of %d", types.ErrResponseFormat, errOutputIndexInvalid, ref.OutputIndex, len(tx.Outputs))
	}

	output := tx.Outputs[ref.OutputIndex]
	message, err := token.Decode(output.LockingScript)
	if err != nil {
		return nil, err
	}

	return &types.Token{
		Message:       message,
		Satoshis:      output.Satoshis,
		TxID:          tx.TxID().String(),
		OutputIndex:   ref.OutputIndex,
		LockingScript: output.LockingScript.String(),
	}, nil
}
