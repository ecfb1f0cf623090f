package types

// TokenEvidence is transaction evidence accepted for submission.
// It is implemented only by FlatEvidence and Envelope (by value or pointer).
type TokenEvidence interface {
	isTokenEvidence()
}

// FlatEvidence is transaction evidence already in BEEF form.
type FlatEvidence []byte

func (FlatEvidence) isTokenEvidence() {}

// Envelope is the structured form of transaction evidence: a raw transaction, its
// optional merkle proof, and the envelopes of the transactions its inputs spend,
// keyed by txid.
type Envelope struct {
	RawTx  string               `json:"rawTx"`
	TxID   string               `json:"txid,omitempty"`
	Proof  string               `json:"proof,omitempty"`
	Inputs map[string]*Envelope `json:"inputs,omitempty"`
}

func (Envelope) isTokenEvidence() {}
