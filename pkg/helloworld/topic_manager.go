// Package helloworld implements the overlay side of HelloWorld tokens: the tm_helloworld
// topic manager that admits token outputs, and the ls_helloworld lookup service that
// tracks them in storage and answers queries by message.
package helloworld

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bsv-blockchain/go-overlay-services/pkg/core/engine"
	"github.com/bsv-blockchain/go-sdk/overlay"
	"github.com/bsv-blockchain/go-sdk/transaction"

	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/token"
	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/types"
	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/utils"
)

// TopicManager admits HelloWorld token outputs to the tm_helloworld topic.
type TopicManager struct {
	logger *slog.Logger
}

// Compile-time verification that TopicManager implements engine.TopicManager
var _ engine.TopicManager = (*TopicManager)(nil)

// NewTopicManager creates a HelloWorld topic manager. A nil logger means slog.Default().
func NewTopicManager(logger *slog.Logger) *TopicManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &TopicManager{logger: logger}
}

// IdentifyAdmissibleOutputs admits every output of the transaction in beef that holds a
// valid HelloWorld token. HelloWorld tokens never depend on previous coins, so none are retained.
func (tm *TopicManager) IdentifyAdmissibleOutputs(ctx context.Context, beef []byte, _ map[uint32]*transaction.TransactionOutput) (overlay.AdmittanceInstructions, error) {
	tx, err := transaction.NewTransactionFromBEEF(beef)
	if err != nil {
		return overlay.AdmittanceInstructions{}, fmt.Errorf("failed to parse BEEF: %w", err)
	}

	outputsToAdmit := make([]uint32, 0, len(tx.Outputs))
	for i, output := range tx.Outputs {
		if err := ValidateOutput(output); err != nil {
			tm.logger.DebugContext(ctx, "output not admitted", "txid", tx.TxID().String(), "index", i, "error", err)
			continue
		}
		outputsToAdmit = append(outputsToAdmit, uint32(i)) //nolint:gosec // output count fits in uint32
	}

	if len(outputsToAdmit) > 0 {
		tm.logger.InfoContext(ctx, "admitting HelloWorld outputs", "txid", tx.TxID().String(), "outputs", outputsToAdmit)
	}

	return overlay.AdmittanceInstructions{
		OutputsToAdmit: outputsToAdmit,
		CoinsToRetain:  []uint32{},
	}, nil
}

// IdentifyNeededInputs returns no inputs: admission looks only at the outputs.
func (tm *TopicManager) IdentifyNeededInputs(_ context.Context, _ []byte) ([]*transaction.Outpoint, error) {
	return nil, nil
}

// GetDocumentation returns the topic manager documentation.
func (tm *TopicManager) GetDocumentation() string {
	return TopicManagerDocumentation
}

// GetMetaData returns metadata associated with this topic manager
func (tm *TopicManager) GetMetaData() *overlay.MetaData {
	return &overlay.MetaData{
		Name:        "HelloWorld Topic Manager",
		Description: "Manages HelloWorld message tokens.",
	}
}

// ValidateOutput reports why output is not a valid HelloWorld token, or nil when it is.
func ValidateOutput(output *transaction.TransactionOutput) error {
	if output == nil {
		return fmt.Errorf("%w: %w", types.ErrDecode, errOutputNil)
	}

	fields, err := token.DecodeFields(output.LockingScript)
	if err != nil {
		return err
	}
	if len(fields.Raw) < 2 {
		return fmt.Errorf("%w: %w: got %d", types.ErrDecode, errTooFewFields, len(fields.Raw))
	}
	if !signatureLinked(fields) {
		return fmt.Errorf("%w: %w", types.ErrDecode, errSignatureNotLinked)
	}
	return nil
}

// signatureLinked verifies the token signature. An empty message is pushed as OP_0 and
// decodes as a single zero byte, so that form is also checked against the empty message.
func signatureLinked(fields *token.Fields) bool {
	if utils.IsTokenSignatureCorrectlyLinked(fields.LockingPublicKey, fields.Raw) {
		return true
	}
	if fields.Message != "" || len(fields.Raw) != 2 {
		return false
	}
	return utils.IsTokenSignatureCorrectlyLinked(fields.LockingPublicKey, [][]byte{{}, fields.Signature()})
}
