package quickstats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the production QuickStats API root.
const DefaultBaseURL = "https://quickstats.nass.usda.gov/api"

// keyParam is the reserved query-string parameter carrying the API key.
const keyParam = "key"

// Endpoints served by the QuickStats API. Each returns its result under
// a different field of the response object: get_param_values under the
// parameter name itself, the others under the literal fields below.
const (
	endpointParamValues = "/get_param_values/"
	endpointCounts      = "/get_counts/"
	endpointData        = "/api_GET/"

	fieldCount = "count"
	fieldData  = "data"
)

// Row is a single result record, column name to decoded JSON value.
type Row map[string]any

// Client wraps the USDA NASS QuickStats API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a QuickStats client authenticated with apiKey.
func NewClient(apiKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("quickstats API key is required")
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	httpClient := options.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(options.baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Query creates an empty query bound to this client.
func (c *Client) Query() *Query {
	return &Query{client: c, params: url.Values{}}
}

// ParamValues returns every legal value for the given parameter name,
// as reported by the service. Values are not validated against any
// local enum.
func (c *Client) ParamValues(ctx context.Context, param string) ([]string, error) {
	if param == "" {
		return nil, fmt.Errorf("parameter name is required")
	}

	result, resp, err := c.do(ctx, endpointParamValues, url.Values{"param": {param}}, param)
	if err != nil {
		return nil, err
	}

	list, ok := result.([]any)
	if !ok {
		return nil, &UnexpectedResponseError{Body: result, Response: resp}
	}

	values := make([]string, 0, len(list))
	for _, item := range list {
		values = append(values, stringify(item))
	}
	return values, nil
}

// Count returns the number of rows the given filter set matches. The
// service reports the count as a JSON string, so the value is parsed
// here.
func (c *Client) Count(ctx context.Context, params url.Values) (int, error) {
	result, resp, err := c.do(ctx, endpointCounts, params, fieldCount)
	if err != nil {
		return 0, err
	}

	switch v := result.(type) {
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, &UnexpectedResponseError{Body: result, Response: resp}
		}
		return n, nil
	default:
		return 0, &UnexpectedResponseError{Body: result, Response: resp}
	}
}

// Fetch returns the full result rows for the given filter set. Row
// structure is whatever the service returns; columns are not mapped to
// a local schema.
func (c *Client) Fetch(ctx context.Context, params url.Values) ([]Row, error) {
	result, resp, err := c.do(ctx, endpointData, params, fieldData)
	if err != nil {
		return nil, err
	}

	list, ok := result.([]any)
	if !ok {
		return nil, &UnexpectedResponseError{Body: result, Response: resp}
	}

	rows := make([]Row, 0, len(list))
	for _, item := range list {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, &UnexpectedResponseError{Body: result, Response: resp}
		}
		rows = append(rows, Row(row))
	}
	return rows, nil
}

// do performs one authenticated GET and hands the decoded body to the
// shared interpretation step. The caller's params are copied, never
// mutated; the API key only ever lives in the copy.
func (c *Client) do(ctx context.Context, endpoint string, params url.Values, field string) (any, *Response, error) {
	query := url.Values{}
	for name, values := range params {
		query[name] = append([]string(nil), values...)
	}
	query.Set(keyParam, c.apiKey)

	requestURL := c.baseURL + endpoint + "?" + query.Encode()

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("params", len(params)).
		Msg("Making QuickStats API request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &NetworkError{Err: err}
	}

	snapshot := &Response{StatusCode: resp.StatusCode, Body: body}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, snapshot, &InvalidJSONError{Response: snapshot}
	}

	value, err := interpret(decoded, snapshot, field)
	if err != nil {
		return nil, snapshot, err
	}
	return value, snapshot, nil
}

// interpret applies the shared decision procedure to a decoded body.
// Order matters: a structured error wins over a non-200 status, which
// wins over a missing field.
func interpret(decoded any, resp *Response, field string) (any, error) {
	object, isObject := decoded.(map[string]any)

	if isObject {
		if raw, ok := object["error"]; ok {
			if err := errorFromMessages(errorMessages(raw), resp); err != nil {
				return nil, err
			}
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Response: resp}
	}

	if !isObject {
		return nil, &UnexpectedResponseError{Body: decoded, Response: resp}
	}

	value, ok := object[field]
	if !ok {
		return nil, &UnexpectedResponseError{Body: decoded, Response: resp}
	}
	return value, nil
}

// errorMessages flattens the service's error list. The contract is a
// list of strings; any other shape under "error" is ignored and
// interpretation falls through to the status-code check.
func errorMessages(raw any) []string {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}

	messages := make([]string, 0, len(list))
	for _, item := range list {
		messages = append(messages, stringify(item))
	}
	return messages
}

// stringify renders a filter value or decoded JSON scalar the way the
// query string expects it.
func stringify(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprint(value)
	}
}
