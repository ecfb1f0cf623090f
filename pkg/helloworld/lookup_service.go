package helloworld

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bsv-blockchain/go-overlay-services/pkg/core/engine"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/overlay"
	"github.com/bsv-blockchain/go-sdk/overlay/lookup"
	"github.com/bsv-blockchain/go-sdk/transaction"

	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/token"
	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/types"
	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/utils"
)

// LookupService implements the BSV overlay LookupService interface for HelloWorld tokens.
// It records admitted tokens in storage and answers ls_helloworld queries with their outpoints.
type LookupService struct {
	storage Storage
	logger  *slog.Logger
}

// Compile-time verification that LookupService implements engine.LookupService
var _ engine.LookupService = (*LookupService)(nil)

// NewLookupService creates a HelloWorld lookup service backed by storage.
// A nil logger means slog.Default().
func NewLookupService(storage Storage, logger *slog.Logger) (*LookupService, error) {
	if storage == nil {
		return nil, errStorageNil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LookupService{storage: storage, logger: logger}, nil
}

// OutputAdmittedByTopic stores a record for an output admitted to tm_helloworld.
// Outputs admitted to other topics are ignored.
func (s *LookupService) OutputAdmittedByTopic(ctx context.Context, payload *engine.OutputAdmittedByTopic) error {
	if payload.Topic != types.Topic {
		return nil
	}

	message, err := token.Decode(payload.LockingScript)
	if err != nil {
		return fmt.Errorf("failed to decode HelloWorld token %s: %w", payload.Outpoint, err)
	}

	if err := s.storage.StoreRecord(ctx, payload.Outpoint, message); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "stored HelloWorld record", "outpoint", payload.Outpoint.String())
	return nil
}

// OutputSpent removes the record of a spent tm_helloworld output.
func (s *LookupService) OutputSpent(ctx context.Context, payload *engine.OutputSpent) error {
	if payload.Topic != types.Topic {
		return nil
	}
	return s.storage.DeleteRecord(ctx, payload.Outpoint)
}

// OutputEvicted removes the record of an evicted output.
func (s *LookupService) OutputEvicted(ctx context.Context, outpoint *transaction.Outpoint) error {
	return s.storage.DeleteRecord(ctx, outpoint)
}

// OutputNoLongerRetainedInHistory is a no-op: HelloWorld keeps no history.
func (s *LookupService) OutputNoLongerRetainedInHistory(_ context.Context, _ *transaction.Outpoint, _ string) error {
	return nil
}

// OutputBlockHeightUpdated is a no-op: records do not track block heights.
func (s *LookupService) OutputBlockHeightUpdated(_ context.Context, _ *chainhash.Hash, _ uint32, _ uint64) error {
	return nil
}

// Lookup answers an ls_helloworld question.
//
// Supported query formats:
//   - String "findAll": every tracked token
//   - Any other non-empty string: tokens whose message contains it, ignoring case
//   - Object with HelloWorldQuery fields: message filter or findAll, with pagination
func (s *LookupService) Lookup(ctx context.Context, question *lookup.LookupQuestion) (*lookup.LookupAnswer, error) {
	if question == nil || len(bytes.TrimSpace(question.Query)) == 0 {
		return nil, errValidQueryMustBeProvided
	}
	if !utils.IsValidTopicOrServiceName(question.Service) {
		return nil, fmt.Errorf("%w: invalid service name '%s'", errLookupServiceNotSupported, question.Service)
	}
	if question.Service != types.Service {
		return nil, fmt.Errorf("%w: expected '%s', got '%s'", errLookupServiceNotSupported, types.Service, question.Service)
	}

	query, err := ParseQuery(question.Query)
	if err != nil {
		return nil, err
	}

	opts := FindOptions{Limit: query.Limit, Skip: query.Skip, SortOrder: query.SortOrder}

	var outpoints []*transaction.Outpoint
	if query.Message == nil || (query.FindAll != nil && *query.FindAll) {
		outpoints, err = s.storage.FindAll(ctx, opts)
	} else {
		outpoints, err = s.storage.FindByMessage(ctx, *query.Message, opts)
	}
	if err != nil {
		return nil, err
	}

	return formulaAnswer(outpoints), nil
}

// ParseQuery converts the JSON query of an ls_helloworld question into a validated
// HelloWorldQuery. A string query is shorthand for a message filter, except "findAll".
func ParseQuery(raw json.RawMessage) (*types.HelloWorldQuery, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errValidQueryMustBeProvided
	}

	var query types.HelloWorldQuery
	switch raw[0] {
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, fmt.Errorf("failed to parse query JSON: %w", err)
		}
		if text == types.FindAllQuery {
			findAll := true
			query.FindAll = &findAll
		} else {
			query.Message = &text
		}
	case '{':
		if err := json.Unmarshal(raw, &query); err != nil {
			return nil, fmt.Errorf("invalid query format: %w", err)
		}
	default:
		return nil, errQueryInvalid
	}

	if err := validateQuery(&query); err != nil {
		return nil, err
	}
	return &query, nil
}

func validateQuery(query *types.HelloWorldQuery) error {
	if query.Message != nil && *query.Message == "" {
		return errQueryMessageEmpty
	}
	if query.Limit != nil && *query.Limit < 0 {
		return errQueryLimitInvalid
	}
	if query.Skip != nil && *query.Skip < 0 {
		return errQuerySkipInvalid
	}
	switch query.SortOrder {
	case "", types.SortOrderAsc, types.SortOrderDesc:
	default:
		return errQuerySortOrderInvalid
	}
	return nil
}

// formulaAnswer lists outpoints for the engine to hydrate into an output list.
func formulaAnswer(outpoints []*transaction.Outpoint) *lookup.LookupAnswer {
	formulas := make([]lookup.LookupFormula, len(outpoints))
	for i, outpoint := range outpoints {
		formulas[i] = lookup.LookupFormula{Outpoint: outpoint}
	}

	return &lookup.LookupAnswer{
		Type:     lookup.AnswerTypeFormula,
		Formulas: formulas,
	}
}

// AdmissionMode reports that the service consumes locking scripts, not whole transactions.
func (s *LookupService) AdmissionMode() types.AdmissionMode {
	return types.AdmissionModeLockingScript
}

// SpendNotificationMode reports how the service learns of spends. Only the outpoint is needed
// to drop a record.
func (s *LookupService) SpendNotificationMode() types.SpendNotificationMode {
	return types.SpendNotificationModeNone
}

// GetDocumentation returns the service documentation.
func (s *LookupService) GetDocumentation() string {
	return LookupDocumentation
}

// GetMetaData returns the service metadata.
func (s *LookupService) GetMetaData() *overlay.MetaData {
	return &overlay.MetaData{
		Name:        "HelloWorld Lookup Service",
		Description: "Provides lookup capabilities for HelloWorld tokens.",
	}
}
