// Package transport implements the HTTP layer behind every finder. It
// speaks HAL-flavored JSON over a retrying client and decodes documents
// into level-marked raw responses; turning non-success levels into
// errors is the caller's job.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/pkg/hal"
)

// AcceptHeader advertises HAL first with plain JSON as a fallback.
const AcceptHeader = "application/hal+json, application/json"

const defaultUserAgent = "hal-client/1.0"

// Client is the wire transport for HAL APIs.
type Client struct {
	baseURL      string
	http         *retryablehttp.Client
	headers      map[string]string
	userAgent    string
	logger       hal.Logger
	debug        bool
	interceptors *hal.InterceptorChain
}

var _ hal.Transport = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger used for debug output.
func WithLogger(logger hal.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug toggles request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the default User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithHeaders sets static headers attached to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// WithRetryConfig adjusts the retry budget and backoff window.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.http.RetryMax = retryMax
		c.http.RetryWaitMin = waitMin
		c.http.RetryWaitMax = waitMax
	}
}

// WithTimeout bounds each attempt, including connection setup.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.HTTPClient.Timeout = timeout
	}
}

// WithInterceptors installs the request/response interceptor chain.
func WithInterceptors(chain *hal.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates a transport rooted at baseURL. Transient failures
// (>=500 except 501, 429, connection errors) are retried with
// exponential backoff.
func NewClient(baseURL string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.Logger = nil
	// Exhausted retries must still hand the final response back for
	// classification instead of collapsing into an opaque error.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		http:      retryClient,
		userAgent: defaultUserAgent,
		logger:    hal.NoopLogger{},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// FetchFirst retrieves the first record matching params. An "id" filter
// addresses the record directly by path; all other parameters stay in
// the query string.
func (c *Client) FetchFirst(ctx context.Context, particle string, params *hal.Params) (*hal.RawResponse, error) {
	if id := firstIDFilter(params); id != "" {
		remaining := params.Clone()
		delete(remaining.Filters, "id")

		return c.get(ctx, particle, "/"+particle+"/"+url.PathEscape(id), remaining.ToValues())
	}

	return c.get(ctx, particle, "/"+particle, params.ToValues())
}

// FetchAll retrieves one page of the particle's collection.
func (c *Client) FetchAll(ctx context.Context, particle string, params *hal.Params) (*hal.RawResponse, error) {
	return c.get(ctx, particle, "/"+particle, params.ToValues())
}

// CreateOrUpdate submits a record to the collection endpoint.
func (c *Client) CreateOrUpdate(ctx context.Context, particle string, data hal.Record) (*hal.RawResponse, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	return c.do(ctx, http.MethodPost, particle, "/"+particle, nil, body)
}

func (c *Client) get(ctx context.Context, particle, path string, query url.Values) (*hal.RawResponse, error) {
	return c.do(ctx, http.MethodGet, particle, path, query, nil)
}

func (c *Client) do(ctx context.Context, method, particle, path string, query url.Values, body []byte) (*hal.RawResponse, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var payload interface{}
	if body != nil {
		payload = body
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, fullURL, payload)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Accept", AcceptHeader)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	intercepted := &hal.Request{
		Method:   method,
		Path:     path,
		Headers:  req.Header,
		Body:     body,
		Metadata: make(map[string]interface{}),
	}

	if c.interceptors != nil {
		if err := c.interceptors.ExecuteRequestInterceptors(ctx, intercepted); err != nil {
			return nil, err
		}
	}

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": method,
			"url":    fullURL,
		})
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		c.notifyFailure(ctx, intercepted, err)

		return nil, fmt.Errorf("executing request: %w", err)
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.notifyFailure(ctx, intercepted, err)

		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status": httpResp.StatusCode,
			"url":    fullURL,
		})
	}

	if c.interceptors != nil {
		response := &hal.Response{
			StatusCode: httpResp.StatusCode,
			Headers:    httpResp.Header,
			Body:       raw,
		}
		if err := c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, response); err != nil {
			return nil, err
		}
	}

	return decodeResponse(particle, httpResp.StatusCode, raw)
}

// notifyFailure runs response interceptors for a request that produced
// no response, so metrics still see the attempt.
func (c *Client) notifyFailure(ctx context.Context, req *hal.Request, cause error) {
	if c.interceptors == nil {
		return
	}

	_ = c.interceptors.ExecuteResponseInterceptors(ctx, req, &hal.Response{Error: cause})
}

func firstIDFilter(params *hal.Params) string {
	if params == nil {
		return ""
	}

	values := params.Filter("id")
	if len(values) == 0 {
		return ""
	}

	return values[0]
}

// decodeResponse maps a wire response to a level-marked raw response.
// 2xx decodes the document; 400 and 422 mark a validation rejection;
// everything else marks a failure. Non-success bodies are parsed as
// problem documents when possible.
func decodeResponse(particle string, statusCode int, body []byte) (*hal.RawResponse, error) {
	level := classifyStatus(statusCode)

	if level != hal.ResultSuccess {
		resp := hal.NewRawResponse(level, statusCode, nil, nil)
		if len(bytes.TrimSpace(body)) > 0 {
			if problem, err := hal.ParseProblem(body); err == nil {
				resp.SetProblem(problem)
			}
		}

		return resp, nil
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return hal.NewRawResponse(hal.ResultSuccess, statusCode, nil, nil), nil
	}

	elements, meta, err := decodeDocument(particle, trimmed)
	if err != nil {
		return nil, fmt.Errorf("decoding response document: %w", err)
	}

	return hal.NewRawResponse(hal.ResultSuccess, statusCode, elements, meta), nil
}

func classifyStatus(statusCode int) hal.ResultLevel {
	switch {
	case statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices:
		return hal.ResultSuccess
	case statusCode == http.StatusBadRequest || statusCode == http.StatusUnprocessableEntity:
		return hal.ResultValidation
	default:
		return hal.ResultFailure
	}
}

// decodeDocument splits a HAL document into elements. A document whose
// _embedded object carries an array under the particle's name is a
// collection; anything else is a single record.
func decodeDocument(particle string, body []byte) ([]hal.Element, *hal.CollectionMeta, error) {
	var root map[string]interface{}
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, nil, fmt.Errorf("unmarshaling document: %w", err)
	}

	if embedded, ok := root["_embedded"].(map[string]interface{}); ok {
		if items, ok := embedded[particle].([]interface{}); ok {
			elements := make([]hal.Element, 0, len(items))

			for _, item := range items {
				if element, ok := item.(map[string]interface{}); ok {
					elements = append(elements, hal.Element(element))
				}
			}

			return elements, collectionMeta(root), nil
		}
	}

	return []hal.Element{hal.Element(root)}, nil, nil
}

// collectionMeta lifts total_items and _links off a collection document.
// The legacy "prev" relation is normalized to "previous".
func collectionMeta(root map[string]interface{}) *hal.CollectionMeta {
	meta := &hal.CollectionMeta{Links: hal.Links{}}

	if total, ok := root["total_items"].(float64); ok {
		meta.TotalItems = int(total)
	}

	if links, ok := root["_links"].(map[string]interface{}); ok {
		for relation, value := range links {
			link, ok := value.(map[string]interface{})
			if !ok {
				continue
			}

			href, _ := link["href"].(string)
			if relation == "prev" {
				relation = hal.RelationPrevious
			}

			meta.Links[relation] = hal.Link{Href: href}
		}
	}

	return meta
}
