package helloworld

import (
	"context"
	"fmt"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/transaction/template/pushdrop"
	"github.com/bsv-blockchain/go-sdk/wallet"
	"github.com/stretchr/testify/require"

	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/token"
	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/types"
)

const TxID = "bdf1e48e845a65ba8c139c9b94844de30716f38d53787ba0a435e8705c4216d5"

func newTestWallet(t *testing.T) *wallet.CompletedProtoWallet {
	t.Helper()
	key, err := ec.NewPrivateKey()
	require.NoError(t, err)
	w, err := wallet.NewCompletedProtoWallet(key)
	require.NoError(t, err)
	return w
}

func newTestCodec(t *testing.T) *token.Codec {
	t.Helper()
	return token.NewCodec(newTestWallet(t), types.DefaultScope())
}

func tokenScript(t *testing.T, codec *token.Codec, message string) *script.Script {
	t.Helper()
	s, err := codec.Encode(context.Background(), message)
	require.NoError(t, err)
	return s
}

// pushDropScript builds a lock-before PushDrop script from a raw key and fields.
func pushDropScript(t *testing.T, pub *ec.PublicKey, fields [][]byte) *script.Script {
	t.Helper()
	s := &script.Script{}
	require.NoError(t, s.AppendPushData(pub.Compressed()))
	require.NoError(t, s.AppendOpcodes(script.OpCHECKSIG))
	for _, field := range fields {
		require.NoError(t, s.AppendPushData(field))
	}

	notYetDropped := len(fields)
	for notYetDropped > 1 {
		require.NoError(t, s.AppendOpcodes(script.Op2DROP))
		notYetDropped -= 2
	}
	if notYetDropped != 0 {
		require.NoError(t, s.AppendOpcodes(script.OpDROP))
	}
	return s
}

// unsignedScript locks a single field without a signature.
func unsignedScript(t *testing.T, w wallet.Interface, message string) *script.Script {
	t.Helper()
	pd := pushdrop.PushDrop{Wallet: w}
	s, err := pd.Lock(
		context.Background(),
		[][]byte{[]byte(message)},
		types.DefaultScope().Protocol(),
		types.KeyID,
		wallet.Counterparty{Type: wallet.CounterpartyTypeSelf},
		true,
		false,
		pushdrop.LockBefore,
	)
	require.NoError(t, err)
	return s
}

func p2pkhScript(t *testing.T) *script.Script {
	t.Helper()
	key, err := ec.NewPrivateKey()
	require.NoError(t, err)
	address, err := script.NewAddressFromPublicKey(key.PubKey(), true)
	require.NoError(t, err)
	tx := transaction.NewTransaction()
	require.NoError(t, tx.PayToAddress(address.AddressString, 1))
	return tx.Outputs[0].LockingScript
}

// txWithOutputs returns a zero-input transaction locking one satoshi to each script, plus its BEEF.
func txWithOutputs(t *testing.T, scripts ...*script.Script) (*transaction.Transaction, []byte) {
	t.Helper()
	tx := transaction.NewTransaction()
	for _, s := range scripts {
		tx.Outputs = append(tx.Outputs, &transaction.TransactionOutput{
			Satoshis:      1,
			LockingScript: s,
		})
	}
	beef, err := tx.BEEF()
	require.NoError(t, err)
	return tx, beef
}

func testOutpoint(t *testing.T, index uint32) *transaction.Outpoint {
	t.Helper()
	outpoint, err := transaction.OutpointFromString(fmt.Sprintf("%s.%d", TxID, index))
	require.NoError(t, err)
	return outpoint
}
