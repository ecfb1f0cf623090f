package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bsv-blockchain/go-sdk/overlay"
	"github.com/bsv-blockchain/go-sdk/util"
	"github.com/go-resty/resty/v2"

	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/evidence"
	"github.com/bsv-blockchain/go-overlay-helloworld/pkg/types"
)

const (
	headerContentType = "Content-Type"
	headerTopics      = "X-Topics"

	contentTypeBinary = "application/octet-stream"
	contentTypeJSON   = "application/json"
)

var errNotJSON = errors.New("overlay response is not valid JSON")

// topicsHeader is the X-Topics value sent with every submission.
var topicsHeader = mustMarshalTopics(types.Topic) //nolint:gochecknoglobals // constant header value

func mustMarshalTopics(topics ...string) string {
	data, err := json.Marshal(topics)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// SubmitResponse is the overlay's reply to a submission, kept verbatim.
type SubmitResponse struct {
	Raw json.RawMessage
}

// Decode unmarshals the response into v.
func (r *SubmitResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Raw, v); err != nil {
		return fmt.Errorf("%w: %w", types.ErrResponseFormat, err)
	}
	return nil
}

// Steak interprets the response as admittance instructions keyed by topic.
func (r *SubmitResponse) Steak() (overlay.Steak, error) {
	var steak overlay.Steak
	if err := r.Decode(&steak); err != nil {
		return nil, err
	}
	return steak, nil
}

// Submit posts ev to {overlayURL}/submit under the tm_helloworld topic and returns the
// overlay's JSON reply without interpreting it.
func (c *Client) Submit(ctx context.Context, ev types.TokenEvidence) (*SubmitResponse, error) {
	beef, err := evidence.ToFlatEvidence(ev)
	if err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, submitPath, map[string]string{
		headerContentType: contentTypeBinary,
		headerTopics:      topicsHeader,
	}, beef)
	if err != nil {
		return nil, fmt.Errorf("%w: submit failed: %w", types.ErrTransport, err)
	}

	body, err := c.checkResponse(submitPath, resp)
	if err != nil {
		return nil, err
	}
	c.metrics.observeRequest(submitPath, outcomeOK)
	return &SubmitResponse{Raw: body}, nil
}

// checkResponse rejects non-2xx statuses and non-JSON bodies.
func (c *Client) checkResponse(path string, resp *resty.Response) (json.RawMessage, error) {
	body := resp.Body()
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		c.metrics.observeRequest(path, outcomeHTTPError)
		return nil, fmt.Errorf("%w: %s: %w", types.ErrTransport, path, &util.HTTPError{
			StatusCode: resp.StatusCode(),
			Err:        errors.New(truncate(body, 512)), //nolint:err113 // overlay message
		})
	}
	if !json.Valid(body) {
		c.metrics.observeRequest(path, outcomeFormatError)
		return nil, fmt.Errorf("%w: %s: %w", types.ErrResponseFormat, path, errNotJSON)
	}
	return json.RawMessage(body), nil
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
