// Package evidence normalizes token evidence into the BEEF bytes overlays accept.
package evidence

import (
	"errors"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"

	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/types"
)

// Static error variables for err113 compliance
var (
	errEvidenceNil       = errors.New("token evidence is nil")
	errUnknownEvidence   = errors.New("unsupported token evidence type")
	errRawTxInvalid      = errors.New("envelope rawTx is not a valid transaction")
	errTxIDMismatch      = errors.New("envelope txid does not match rawTx")
	errProofInvalid      = errors.New("envelope proof is not a valid merkle path")
	errProofMismatch     = errors.New("envelope proof does not include the transaction")
	errInputMissing      = errors.New("envelope is missing the source of an input")
	errInputTxIDMismatch = errors.New("input envelope txid does not match its key")
	errEnvelopeCycle     = errors.New("envelope inputs reference each other in a cycle")
	errTransactionNil    = errors.New("transaction is nil")
)

// ToFlatEvidence returns the BEEF form of ev. Flat evidence is returned unchanged.
func ToFlatEvidence(ev types.TokenEvidence) ([]byte, error) {
	switch e := ev.(type) {
	case nil:
		return nil, fmt.Errorf("%w: %w", types.ErrConversion, errEvidenceNil)
	case types.FlatEvidence:
		return []byte(e), nil
	case types.Envelope:
		return envelopeBEEF(&e)
	case *types.Envelope:
		if e == nil {
			return nil, fmt.Errorf("%w: %w", types.ErrConversion, errEvidenceNil)
		}
		return envelopeBEEF(e)
	default:
		return nil, fmt.Errorf("%w: %w: %T", types.ErrConversion, errUnknownEvidence, ev)
	}
}

func envelopeBEEF(env *types.Envelope) ([]byte, error) {
	tx, err := FromEnvelope(env)
	if err != nil {
		return nil, err
	}
	return FromTransaction(tx)
}

// FromTransaction serializes tx and its ancestry as BEEF.
func FromTransaction(tx *transaction.Transaction) ([]byte, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: %w", types.ErrConversion, errTransactionNil)
	}
	beef, err := tx.BEEF()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to serialize BEEF: %w", types.ErrConversion, err)
	}
	return beef, nil
}

// FromEnvelope rebuilds the transaction described by env, linking every input to its
// source transaction. An input needs a source in env.Inputs unless env carries a proof.
func FromEnvelope(env *types.Envelope) (*transaction.Transaction, error) {
	return fromEnvelope(env, map[string]*transaction.Transaction{}, map[string]bool{})
}

func fromEnvelope(env *types.Envelope, built map[string]*transaction.Transaction, visiting map[string]bool) (*transaction.Transaction, error) {
	tx, err := transaction.NewTransactionFromHex(env.RawTx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", types.ErrConversion, errRawTxInvalid, err)
	}

	txid := tx.TxID().String()
	if env.TxID != "" && !sameTxID(env.TxID, tx.TxID()) {
		return nil, fmt.Errorf("%w: %w: expected %s, computed %s", types.ErrConversion, errTxIDMismatch, env.TxID, txid)
	}
	if existing, ok := built[txid]; ok {
		return existing, nil
	}
	if visiting[txid] {
		return nil, fmt.Errorf("%w: %w: %s", types.ErrConversion, errEnvelopeCycle, txid)
	}
	visiting[txid] = true
	defer delete(visiting, txid)

	if env.Proof != "" {
		merklePath, err := transaction.NewMerklePathFromHex(env.Proof)
		if err != nil {
			return nil, fmt.Errorf("%w: %w: %w", types.ErrConversion, errProofInvalid, err)
		}
		if !provesTransaction(merklePath, tx.TxID()) {
			return nil, fmt.Errorf("%w: %w: %s", types.ErrConversion, errProofMismatch, txid)
		}
		if err := tx.AddMerkleProof(merklePath); err != nil {
			return nil, fmt.Errorf("%w: %w: %w", types.ErrConversion, errProofMismatch, err)
		}
		// A proven transaction terminates the ancestry.
		built[txid] = tx
		return tx, nil
	}

	for i, input := range tx.Inputs {
		sourceTxID := input.SourceTXID.String()
		sourceEnv := findInput(env.Inputs, input.SourceTXID)
		if sourceEnv == nil {
			return nil, fmt.Errorf("%w: %w: input %d spends %s", types.ErrConversion, errInputMissing, i, sourceTxID)
		}
		if sourceEnv.TxID != "" && !sameTxID(sourceEnv.TxID, input.SourceTXID) {
			return nil, fmt.Errorf("%w: %w: %s", types.ErrConversion, errInputTxIDMismatch, sourceTxID)
		}

		// Nested envelopes may omit inputs that the outer envelope already carries.
		merged := sourceEnv
		if len(sourceEnv.Inputs) == 0 && len(env.Inputs) > 0 {
			clone := *sourceEnv
			clone.Inputs = env.Inputs
			merged = &clone
		}

		sourceTx, err := fromEnvelope(merged, built, visiting)
		if err != nil {
			return nil, err
		}
		if !sourceTx.TxID().IsEqual(input.SourceTXID) {
			return nil, fmt.Errorf("%w: %w: %s", types.ErrConversion, errInputTxIDMismatch, sourceTxID)
		}
		input.SourceTransaction = sourceTx
	}

	built[txid] = tx
	return tx, nil
}

// provesTransaction reports whether the lowest level of mp holds txid. Duplicate
// elements carry no hash and never match.
func provesTransaction(mp *transaction.MerklePath, txid *chainhash.Hash) bool {
	if mp == nil || len(mp.Path) == 0 {
		return false
	}
	for _, element := range mp.Path[0] {
		if element != nil && element.Hash != nil && element.Hash.IsEqual(txid) {
			return true
		}
	}
	return false
}

// findInput returns the envelope keyed by txid, matching keys in any hex case.
func findInput(inputs map[string]*types.Envelope, txid *chainhash.Hash) *types.Envelope {
	if env, ok := inputs[txid.String()]; ok {
		return env
	}
	for key, env := range inputs {
		if sameTxID(key, txid) {
			return env
		}
	}
	return nil
}

// sameTxID compares a hex txid with a computed one, ignoring hex case.
func sameTxID(txidHex string, txid *chainhash.Hash) bool {
	parsed, err := chainhash.NewHashFromHex(txidHex)
	if err != nil {
		return false
	}
	return parsed.IsEqual(txid)
}
