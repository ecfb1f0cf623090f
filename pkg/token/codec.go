// Package token encodes HelloWorld messages into PushDrop locking scripts and decodes them back.
//
// A HelloWorld locking script has the lock-before PushDrop layout:
//
//	<locking pubkey> OP_CHECKSIG <message> <signature> OP_2DROP
//
// The locking key is derived by the wallet under the codec's scope with counterparty "self",
// and the signature covers the message bytes.
package token

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction/template/pushdrop"
	"github.com/bsv-blockchain/go-sdk/wallet"

	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/types"
	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/utils"
)

// Static error variables for err113 compliance
var (
	errWalletRequired   = errors.New("wallet is required to encode")
	errScriptEmpty      = errors.New("locking script cannot be empty")
	errNotPushDrop      = errors.New("script is not a PushDrop locking script")
	errNoFields         = errors.New("PushDrop script carries no fields")
	errMessageNotUTF8   = errors.New("message field is not valid UTF-8")
	errInvalidScriptHex = errors.New("locking script is not valid hex")

	errFieldsTruncated   = errors.New("script ends inside the fields")
	errFieldNotPush      = errors.New("field is not a data push")
	errDropsMissing      = errors.New("fields are not followed by OP_DROP or OP_2DROP")
	errTrailingOpcode    = errors.New("unexpected opcode after the fields")
	errDropCountMismatch = errors.New("drops do not remove every field")
)

// Codec encodes messages under a fixed wallet scope.
type Codec struct {
	wallet     wallet.Interface
	scope      types.Scope
	originator string
}

// NewCodec creates a codec that derives locking keys from w under scope.
func NewCodec(w wallet.Interface, scope types.Scope) *Codec {
	return &Codec{
		wallet: w,
		scope:  scope,
	}
}

// WithOriginator returns a copy of the codec that passes originator to the wallet.
func (c *Codec) WithOriginator(originator string) *Codec {
	clone := *c
	clone.originator = originator
	return &clone
}

// Scope returns the scope the codec locks under.
func (c *Codec) Scope() types.Scope {
	return c.scope
}

// Encode returns a locking script committing to message.
func (c *Codec) Encode(ctx context.Context, message string) (*script.Script, error) {
	if c.wallet == nil {
		return nil, fmt.Errorf("%w: %w", types.ErrEncode, errWalletRequired)
	}
	if err := c.scope.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrEncode, err)
	}

	pd := pushdrop.PushDrop{
		Wallet:     c.wallet,
		Originator: c.originator,
	}
	lockingScript, err := pd.Lock(
		ctx,
		[][]byte{[]byte(message)},
		c.scope.Protocol(),
		c.scope.KeyID,
		wallet.Counterparty{Type: wallet.CounterpartyTypeSelf},
		true, // forSelf
		true, // includeSignature
		pushdrop.LockBefore,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create locking script: %w", types.ErrEncode, err)
	}
	return lockingScript, nil
}

// EncodeHex returns the hex form of Encode.
func (c *Codec) EncodeHex(ctx context.Context, message string) (string, error) {
	lockingScript, err := c.Encode(ctx, message)
	if err != nil {
		return "", err
	}
	return lockingScript.String(), nil
}

// Decode returns the message committed by s.
func (c *Codec) Decode(s *script.Script) (string, error) {
	return Decode(s)
}

// Fields is the decoded shape of a HelloWorld locking script.
type Fields struct {
	Message          string
	LockingPublicKey *ec.PublicKey
	// Raw holds every pushed field, the signature last when present.
	Raw [][]byte
}

// Signature returns the trailing signature field, or nil when the script has only the message.
func (f *Fields) Signature() []byte {
	if len(f.Raw) < 2 {
		return nil
	}
	return f.Raw[len(f.Raw)-1]
}

// Decode returns the message committed by a HelloWorld locking script.
func Decode(s *script.Script) (string, error) {
	fields, err := DecodeFields(s)
	if err != nil {
		return "", err
	}
	return fields.Message, nil
}

// DecodeHex parses a hex locking script and decodes it. Surrounding whitespace and a 0x
// prefix are ignored.
func DecodeHex(scriptHex string) (string, error) {
	raw, err := utils.HexToBytes(scriptHex)
	if err != nil {
		return "", fmt.Errorf("%w: %w: %w", types.ErrDecode, errInvalidScriptHex, err)
	}
	return Decode(script.NewFromBytes(raw))
}

// DecodeFields decodes every part of a HelloWorld locking script.
func DecodeFields(s *script.Script) (*Fields, error) {
	if s == nil || len(*s) == 0 {
		return nil, fmt.Errorf("%w: %w", types.ErrDecode, errScriptEmpty)
	}

	result := pushdrop.Decode(s)
	if result == nil || result.LockingPublicKey == nil {
		return nil, fmt.Errorf("%w: %w", types.ErrDecode, errNotPushDrop)
	}
	if len(result.Fields) == 0 {
		return nil, fmt.Errorf("%w: %w", types.ErrDecode, errNoFields)
	}
	if err := checkDropLayout(s, len(result.Fields)); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", types.ErrDecode, errNotPushDrop, err)
	}

	message := fieldToMessage(result.Fields[0])
	if !utf8.ValidString(message) {
		return nil, fmt.Errorf("%w: %w", types.ErrDecode, errMessageNotUTF8)
	}

	return &Fields{
		Message:          message,
		LockingPublicKey: result.LockingPublicKey,
		Raw:              result.Fields,
	}, nil
}

// checkDropLayout verifies the lock-before layout
// <pubkey> OP_CHECKSIG <field>... OP_2DROP... [OP_DROP]: every field is a data push, and
// the drops that end the script remove exactly fieldCount items.
func checkDropLayout(s *script.Script, fieldCount int) error {
	chunks, err := s.Chunks()
	if err != nil {
		return err
	}
	if len(chunks) < 2+fieldCount {
		return errFieldsTruncated
	}

	for i, chunk := range chunks[2 : 2+fieldCount] {
		if !isPush(chunk.Op) {
			return fmt.Errorf("%w: field %d has opcode 0x%02x", errFieldNotPush, i, chunk.Op)
		}
	}

	drops := chunks[2+fieldCount:]
	if len(drops) == 0 {
		return errDropsMissing
	}
	dropped := 0
	for _, chunk := range drops {
		switch chunk.Op {
		case script.Op2DROP:
			dropped += 2
		case script.OpDROP:
			dropped++
		default:
			return fmt.Errorf("%w: opcode 0x%02x", errTrailingOpcode, chunk.Op)
		}
	}
	if dropped != fieldCount {
		return fmt.Errorf("%w: %d fields, %d dropped", errDropCountMismatch, fieldCount, dropped)
	}
	return nil
}

func isPush(op byte) bool {
	return op <= script.OpPUSHDATA4 || op == script.Op1NEGATE || (op >= script.Op1 && op <= script.Op16)
}

// fieldToMessage maps the OP_0 push back to the empty message it was encoded from.
func fieldToMessage(field []byte) string {
	if len(field) == 1 && field[0] == 0 {
		return ""
	}
	return string(field)
}
