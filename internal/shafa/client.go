package shafa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	BaseURL    = "https://shafa.ua"
	APIPath    = "/api/v3/graphiql"
	BatchPath  = "/api/v3/graphiql-batch"
	refererURL = "https://shafa.ua/uk/new"

	appPlatform = "web"
	appVersion  = "v2025.12.31.3"
	userAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

	csrfCookieName = "csrftoken"
)

type ClientOpts struct {
	BaseURL   string
	BatchPath string
	Cookies   []*http.Cookie

	// RequestsPerSecond throttles all calls. Zero means one request per second.
	RequestsPerSecond float64
	Retries           int
	RetryWait         time.Duration
	Debug             bool
}

// Client talks to the marketplace GraphQL API with a logged-in browser
// session.
type Client struct {
	httpClient *resty.Client
	limiter    *rate.Limiter
	batchPath  string
	csrfToken  string
}

// NewClient returns ErrNoCSRFToken when the cookies carry no csrftoken.
func NewClient(opts ClientOpts) (*Client, error) {
	csrf := ""
	for _, c := range opts.Cookies {
		if c.Name == csrfCookieName && c.Value != "" {
			csrf = c.Value
		}
	}
	if csrf == "" {
		return nil, ErrNoCSRFToken
	}

	baseURL := BaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	batchPath := BatchPath
	if opts.BatchPath != "" {
		batchPath = opts.BatchPath
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	retryWait := opts.RetryWait
	if retryWait <= 0 {
		retryWait = 2 * time.Second
	}

	c := &Client{
		limiter:   rate.NewLimiter(rate.Limit(rps), 2),
		batchPath: batchPath,
		csrfToken: csrf,
	}
	c.httpClient = resty.New().
		SetDebug(opts.Debug).
		SetBaseURL(baseURL).
		SetTimeout(60 * time.Second).
		SetCookies(opts.Cookies).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(retryWait).
		AddRetryCondition(retryable).
		SetHeaders(map[string]string{
			"Origin":         BaseURL,
			"Referer":        refererURL,
			"User-Agent":     userAgent,
			"X-CSRFToken":    csrf,
			"x-app-platform": appPlatform,
			"x-app-version":  appVersion,
		})

	return c, nil
}

// retryable retries gateway errors of JSON requests. Multipart bodies are
// read once and cannot be resent.
func retryable(res *resty.Response, err error) bool {
	if res == nil || res.Request == nil || len(res.Request.FormData) > 0 {
		return false
	}
	switch res.StatusCode() {
	case 500, 502, 503, 504, 520, 521, 522, 524:
		return true
	}
	return false
}

type graphqlRequest struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Query         string         `json:"query"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors GraphQLErrors   `json:"errors"`
}

func (c *Client) req(ctx context.Context) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.httpClient.R().SetContext(ctx), nil
}

// graphql posts one operation and decodes its data into result.
func (c *Client) graphql(ctx context.Context, op, query string, vars map[string]any, result any) error {
	r, err := c.req(ctx)
	if err != nil {
		return err
	}
	res, err := handleError(r.
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetBody(graphqlRequest{OperationName: op, Variables: vars, Query: query}).
		Post(APIPath))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return decodeGraphQL(op, res.Body(), result)
}

// graphqlBatch posts a single operation through the batch endpoint, which
// answers with an array.
func (c *Client) graphqlBatch(ctx context.Context, op, query string, vars map[string]any, result any) error {
	r, err := c.req(ctx)
	if err != nil {
		return err
	}
	res, err := handleError(r.
		SetHeader("Accept", "*/*").
		SetHeader("Content-Type", "application/json").
		SetHeader("batch", "true").
		SetBody([]graphqlRequest{{OperationName: op, Variables: vars, Query: query}}).
		Post(c.batchPath))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	body := bytes.TrimSpace(res.Body())
	if len(body) > 0 && body[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return fmt.Errorf("%s: failed to decode batch response: %w", op, err)
		}
		if len(items) == 0 {
			return fmt.Errorf("%s: empty batch response", op)
		}
		body = items[0]
	}
	return decodeGraphQL(op, body, result)
}

func decodeGraphQL(op string, body []byte, result any) error {
	var env graphqlResponse
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%s: response is not valid JSON: %w", op, err)
	}
	if len(env.Errors) > 0 {
		log.Debug().Str("operation", op).Interface("errors", env.Errors).Msg("graphql errors")
		return env.Errors
	}
	if result == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("%s: failed to decode data: %w", op, err)
	}
	return nil
}

// handleError turns >399 responses into errors; resty leaves them nil.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s %s (status: %d)", res.Request.Method, res.Request.URL, res.StatusCode())
	}
	return res, nil
}

// flexID accepts ids encoded either as JSON numbers or strings.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = flexID(n.String())
	return nil
}
