// Package types holds the data model shared by the HelloWorld codec, evidence normalizer,
// overlay client and overlay services.
package types

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/wallet"
)

const (
	// Topic is the overlay topic HelloWorld tokens are submitted under.
	Topic = "tm_helloworld"
	// Service is the overlay lookup service answering HelloWorld queries.
	Service = "ls_helloworld"
	// ProtocolID is the wallet protocol the token locking key is derived under.
	ProtocolID = "helloworld"
	// KeyID is the wallet key identifier the token locking key is derived under.
	KeyID = "1"
	// FindAllQuery is the wire sentinel that matches every token.
	FindAllQuery = "findAll"
)

// Static error variables for err113 compliance
var (
	errScopeProtocolEmpty = errors.New("scope protocol identifier cannot be empty")
	errScopeKeyEmpty      = errors.New("scope key identifier cannot be empty")
	errBinaryDataInvalid  = errors.New("binary data must be a byte array or base64 string")
)

// Scope is the wallet key scope a token is locked under.
type Scope struct {
	SecurityLevel wallet.SecurityLevel `json:"securityLevel"`
	ProtocolID    string               `json:"protocolID"`
	KeyID         string               `json:"keyID"`
}

// DefaultScope returns the HelloWorld scope: protocol "helloworld", key "1".
func DefaultScope() Scope {
	return Scope{
		SecurityLevel: wallet.SecurityLevelEveryAppAndCounterparty,
		ProtocolID:    ProtocolID,
		KeyID:         KeyID,
	}
}

// Protocol converts the scope to a wallet protocol.
func (s Scope) Protocol() wallet.Protocol {
	return wallet.Protocol{
		SecurityLevel: s.SecurityLevel,
		Protocol:      s.ProtocolID,
	}
}

// Validate reports whether the scope can be used for key derivation.
func (s Scope) Validate() error {
	if strings.TrimSpace(s.ProtocolID) == "" {
		return errScopeProtocolEmpty
	}
	if s.KeyID == "" {
		return errScopeKeyEmpty
	}
	return nil
}

// Token is a HelloWorld message reconstructed from overlay evidence.
type Token struct {
	Message       string `json:"message"`
	Satoshis      uint64 `json:"satoshis"`
	TxID          string `json:"txid"`
	OutputIndex   uint32 `json:"outputIndex"`
	LockingScript string `json:"lockingScript"`
}

// Outpoint returns the token's spend coordinates, or nil if the txid is not valid hex.
func (t *Token) Outpoint() *transaction.Outpoint {
	txid, err := chainhash.NewHashFromHex(t.TxID)
	if err != nil {
		return nil
	}
	return &transaction.Outpoint{
		Txid:  *txid,
		Index: t.OutputIndex,
	}
}

// BinaryData is a byte slice that accepts the encodings overlays use on the wire:
// an array of byte values or a base64 string.
type BinaryData []byte

// UnmarshalJSON implements json.Unmarshaler.
func (b *BinaryData) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*b = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var values []int
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("%w: %w", errBinaryDataInvalid, err)
		}
		out := make([]byte, len(values))
		for i, v := range values {
			if v < 0 || v > 255 {
				return fmt.Errorf("%w: value %d at index %d", errBinaryDataInvalid, v, i)
			}
			out[i] = byte(v)
		}
		*b = out
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("%w: %w", errBinaryDataInvalid, err)
	}
	decoded, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return fmt.Errorf("%w: %w", errBinaryDataInvalid, err)
	}
	*b = decoded
	return nil
}

// OutputReference identifies one output of one transaction in a lookup answer.
type OutputReference struct {
	Beef        BinaryData `json:"beef"`
	OutputIndex uint32     `json:"outputIndex"`
}

// Query selects which tokens a lookup returns.
// The zero value matches every token.
type Query struct {
	message string
	byText  bool
}

// FindAll returns the query that matches every token.
func FindAll() Query {
	return Query{}
}

// ByMessage returns a query matching tokens whose message contains text.
func ByMessage(text string) Query {
	return Query{message: text, byText: true}
}

// IsAll reports whether q matches every token.
func (q Query) IsAll() bool {
	return !q.byText
}

// Message returns the filter text of a ByMessage query.
func (q Query) Message() string {
	return q.message
}

// String returns the wire form of the query.
func (q Query) String() string {
	if q.IsAll() {
		return FindAllQuery
	}
	return q.message
}

// MarshalJSON encodes the query as the JSON string overlays expect.
func (q Query) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

// HelloWorldRecord is a HelloWorld token tracked by the lookup service.
type HelloWorldRecord struct {
	Outpoint    string    `json:"outpoint" bson:"outpoint"`
	Txid        string    `json:"txid" bson:"txid"`
	OutputIndex uint32    `json:"outputIndex" bson:"outputIndex"`
	Message     string    `json:"message" bson:"message"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}

// NewHelloWorldRecord builds the record stored for an admitted output.
func NewHelloWorldRecord(outpoint *transaction.Outpoint, message string, createdAt time.Time) *HelloWorldRecord {
	return &HelloWorldRecord{
		Outpoint:    outpoint.String(),
		Txid:        outpoint.Txid.String(),
		OutputIndex: outpoint.Index,
		Message:     message,
		CreatedAt:   createdAt,
	}
}

// SortOrder orders lookup results by creation time.
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// HelloWorldQuery represents a structured query for HelloWorld records
type HelloWorldQuery struct {
	Message   *string   `json:"message,omitempty"`
	FindAll   *bool     `json:"findAll,omitempty"`
	Limit     *int      `json:"limit,omitempty"`
	Skip      *int      `json:"skip,omitempty"`
	SortOrder SortOrder `json:"sortOrder,omitempty"`
}
