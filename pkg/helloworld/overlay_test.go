package helloworld

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bsv-blockchain/go-overlay-services/pkg/core/engine"
	"github.com/bsv-blockchain/go-sdk/overlay/lookup"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/client"
	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/types"
)

// memoryStorage keeps records in insertion order.
type memoryStorage struct {
	mu      sync.Mutex
	records []types.HelloWorldRecord
}

func (m *memoryStorage) EnsureIndexes(context.Context) error { return nil }

func (m *memoryStorage) StoreRecord(_ context.Context, outpoint *transaction.Outpoint, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	createdAt := time.Unix(int64(1700000000+len(m.records)), 0)
	m.records = append(m.records, *types.NewHelloWorldRecord(outpoint, message, createdAt))
	return nil
}

func (m *memoryStorage) DeleteRecord(_ context.Context, outpoint *transaction.Outpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = slices.DeleteFunc(m.records, func(r types.HelloWorldRecord) bool {
		return r.Outpoint == outpoint.String()
	})
	return nil
}

func (m *memoryStorage) FindByMessage(ctx context.Context, message string, opts FindOptions) ([]*transaction.Outpoint, error) {
	return m.find(func(r types.HelloWorldRecord) bool {
		return strings.Contains(strings.ToLower(r.Message), strings.ToLower(message))
	}, opts)
}

func (m *memoryStorage) FindAll(_ context.Context, opts FindOptions) ([]*transaction.Outpoint, error) {
	return m.find(func(types.HelloWorldRecord) bool { return true }, opts)
}

func (m *memoryStorage) find(match func(types.HelloWorldRecord) bool, opts FindOptions) ([]*transaction.Outpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]*transaction.Outpoint, 0)
	for _, r := range m.records {
		if !match(r) {
			continue
		}
		outpoint, err := transaction.OutpointFromString(r.Outpoint)
		if err != nil {
			return nil, err
		}
		results = append(results, outpoint)
	}
	if opts.SortOrder != types.SortOrderAsc {
		slices.Reverse(results)
	}
	return results, nil
}

// testOverlay serves /submit and /lookup from a topic manager and lookup service, the way an
// overlay engine would: admitted outputs are recorded and formula answers are hydrated with BEEF.
type testOverlay struct {
	tm      *TopicManager
	ls      *LookupService
	storage *memoryStorage

	mu   sync.Mutex
	beef map[string][]byte
}

func newTestOverlay(t *testing.T) (*testOverlay, *httptest.Server) {
	t.Helper()
	storage := &memoryStorage{}
	ls, err := NewLookupService(storage, nil)
	require.NoError(t, err)

	o := &testOverlay{
		tm:      NewTopicManager(nil),
		ls:      ls,
		storage: storage,
		beef:    make(map[string][]byte),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /submit", o.handleSubmit)
	mux.HandleFunc("POST /lookup", o.handleLookup)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return o, server
}

func (o *testOverlay) handleSubmit(w http.ResponseWriter, r *http.Request) {
	beef, err := io.ReadAll(r.Body)
	if err != nil || r.Header.Get("Content-Type") != "application/octet-stream" {
		http.Error(w, `{"message":"bad request"}`, http.StatusBadRequest)
		return
	}

	var topics []string
	if err := json.Unmarshal([]byte(r.Header.Get("X-Topics")), &topics); err != nil {
		http.Error(w, `{"message":"invalid X-Topics"}`, http.StatusBadRequest)
		return
	}

	steak := map[string]any{}
	for _, topic := range topics {
		if topic != types.Topic {
			continue
		}

		instructions, err := o.tm.IdentifyAdmissibleOutputs(r.Context(), beef, nil)
		if err != nil {
			http.Error(w, `{"message":"invalid BEEF"}`, http.StatusBadRequest)
			return
		}

		tx, err := transaction.NewTransactionFromBEEF(beef)
		if err != nil {
			http.Error(w, `{"message":"invalid BEEF"}`, http.StatusBadRequest)
			return
		}

		for _, index := range instructions.OutputsToAdmit {
			outpoint := &transaction.Outpoint{Txid: *tx.TxID(), Index: index}
			o.mu.Lock()
			o.beef[outpoint.String()] = beef
			o.mu.Unlock()

			if err := o.ls.OutputAdmittedByTopic(r.Context(), &engine.OutputAdmittedByTopic{
				Topic:         topic,
				Outpoint:      outpoint,
				LockingScript: tx.Outputs[index].LockingScript,
			}); err != nil {
				http.Error(w, `{"message":"storage failure"}`, http.StatusInternalServerError)
				return
			}
		}

		steak[topic] = map[string]any{
			"outputsToAdmit": instructions.OutputsToAdmit,
			"coinsToRetain":  instructions.CoinsToRetain,
			"coinsRemoved":   []uint32{},
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(steak)
}

func (o *testOverlay) handleLookup(w http.ResponseWriter, r *http.Request) {
	var question struct {
		Service string          `json:"service"`
		Query   json.RawMessage `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&question); err != nil {
		http.Error(w, `{"message":"invalid question"}`, http.StatusBadRequest)
		return
	}

	answer, err := o.ls.Lookup(r.Context(), &lookup.LookupQuestion{Service: question.Service, Query: question.Query})
	if err != nil {
		http.Error(w, `{"message":"lookup failed"}`, http.StatusBadRequest)
		return
	}

	type outputEntry struct {
		Beef        []byte `json:"beef"`
		OutputIndex uint32 `json:"outputIndex"`
	}
	outputs := make([]outputEntry, 0, len(answer.Formulas))
	o.mu.Lock()
	for _, formula := range answer.Formulas {
		outputs = append(outputs, outputEntry{
			Beef:        o.beef[formula.Outpoint.String()],
			OutputIndex: formula.Outpoint.Index,
		})
	}
	o.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":    lookup.AnswerTypeOutputList,
		"outputs": outputs,
	})
}

func TestOverlayHelloBlockchain(t *testing.T) {
	ctx := context.Background()
	overlay, server := newTestOverlay(t)
	codec := newTestCodec(t)

	c, err := client.New(server.URL)
	require.NoError(t, err)

	tx, beef := txWithOutputs(t, tokenScript(t, codec, "Hello, Blockchain!"))

	resp, err := c.Submit(ctx, types.FlatEvidence(beef))
	require.NoError(t, err)

	steak, err := resp.Steak()
	require.NoError(t, err)
	require.Contains(t, steak, types.Topic)
	assert.Equal(t, []uint32{0}, steak[types.Topic].OutputsToAdmit)

	tokens, err := c.Lookup(ctx, types.ByMessage("hello"))
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "Hello, Blockchain!", tokens[0].Message)
	assert.Equal(t, tx.TxID().String(), tokens[0].TxID)
	assert.Equal(t, uint32(0), tokens[0].OutputIndex)
	assert.Equal(t, uint64(1), tokens[0].Satoshis)

	none, err := c.Lookup(ctx, types.ByMessage("goodbye"))
	require.NoError(t, err)
	assert.Empty(t, none)

	// Spending the token removes it from lookups.
	require.NoError(t, overlay.ls.OutputSpent(ctx, &engine.OutputSpent{
		Topic:    types.Topic,
		Outpoint: &transaction.Outpoint{Txid: *tx.TxID(), Index: 0},
	}))
	gone, err := c.Lookup(ctx, types.FindAll())
	require.NoError(t, err)
	assert.Empty(t, gone)
}

func TestOverlaySubmitMixedTransaction(t *testing.T) {
	ctx := context.Background()
	_, server := newTestOverlay(t)
	codec := newTestCodec(t)

	c, err := client.New(server.URL)
	require.NoError(t, err)

	_, beef := txWithOutputs(t,
		p2pkhScript(t),
		tokenScript(t, codec, "first"),
		unsignedScript(t, newTestWallet(t), "unsigned"),
		tokenScript(t, codec, "second"),
	)

	resp, err := c.Submit(ctx, types.FlatEvidence(beef))
	require.NoError(t, err)
	steak, err := resp.Steak()
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 3}, steak[types.Topic].OutputsToAdmit)

	tokens, err := c.Lookup(ctx, types.FindAll())
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	// Newest first; both outputs were admitted in index order.
	assert.Equal(t, "second", tokens[0].Message)
	assert.Equal(t, "first", tokens[1].Message)
}

func TestOverlayEnvelopeSubmission(t *testing.T) {
	ctx := context.Background()
	_, server := newTestOverlay(t)
	codec := newTestCodec(t)

	c, err := client.New(server.URL)
	require.NoError(t, err)

	tx, _ := txWithOutputs(t, tokenScript(t, codec, "enveloped"))
	_, err = c.Submit(ctx, &types.Envelope{RawTx: tx.Hex(), TxID: tx.TxID().String()})
	require.NoError(t, err)

	tokens, err := c.Lookup(ctx, types.ByMessage("ENVELOPED"))
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "enveloped", tokens[0].Message)
}

func TestOverlayRejectsEmptyMessageQuery(t *testing.T) {
	_, server := newTestOverlay(t)

	c, err := client.New(server.URL)
	require.NoError(t, err)

	_, err = c.Lookup(context.Background(), types.ByMessage(""))
	require.ErrorIs(t, err, types.ErrTransport)
}
