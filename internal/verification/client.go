// Package verification submits contract sources to an Etherscan-compatible
// verification service and polls for the verdict.
package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Common errors returned by the client.
var (
	ErrMissingAPIKey = errors.New("verification api key is required")
	ErrPollTimeout   = errors.New("verification still pending after the last status check")
)

// Client talks to an Etherscan-compatible contract verification API.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithPollInterval sets the minimum delay between status checks.
func WithPollInterval(d time.Duration) Option {
	return func(client *Client) {
		client.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithMaxAttempts bounds the number of status checks.
func WithMaxAttempts(n int) Option {
	return func(client *Client) {
		if n > 0 {
			client.maxAttempts = n
		}
	}
}

// New creates a verification client for the API at baseURL.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:     rate.NewLimiter(rate.Every(3*time.Second), 1),
		maxAttempts: 20,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Submission is a request to verify one deployed contract.
type Submission struct {
	ChainID         uint64
	Address         string
	ContractName    string // fully qualified, "src/Token.sol:Token"
	CompilerVersion string // "0.8.6+commit.11564f7e", a leading "v" is added
	StandardJSON    []byte
	ConstructorArgs string // ABI-encoded hex, with or without 0x
}

// Status is the state of a verification request.
type Status string

const (
	StatusPending         Status = "pending"
	StatusPass            Status = "pass"
	StatusFail            Status = "fail"
	StatusAlreadyVerified Status = "already-verified"
)

// Verdict is the service's answer for one request.
type Verdict struct {
	GUID    string
	Status  Status
	Message string
}

// Verified reports whether the contract source is published.
func (v *Verdict) Verified() bool {
	return v.Status == StatusPass || v.Status == StatusAlreadyVerified
}

// APIError is a rejection reported by the service.
type APIError struct {
	Action  string
	Message string
	Result  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Action, e.Message, e.Result)
}

// apiResponse is the envelope of every Etherscan API response.
type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// Verify submits s and waits for the verdict.
func (c *Client) Verify(ctx context.Context, s Submission) (*Verdict, error) {
	v, err := c.Submit(ctx, s)
	if err != nil {
		return nil, err
	}
	if v.Status != StatusPending {
		return v, nil
	}
	return c.WaitForResult(ctx, s.ChainID, v.GUID)
}

// Submit sends the source for verification. The returned verdict is
// pending with a GUID, or already-verified.
func (c *Client) Submit(ctx context.Context, s Submission) (*Verdict, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	form := url.Values{}
	form.Set("module", "contract")
	form.Set("action", "verifysourcecode")
	form.Set("apikey", c.apiKey)
	form.Set("contractaddress", s.Address)
	form.Set("sourceCode", string(s.StandardJSON))
	form.Set("codeformat", "solidity-standard-json-input")
	form.Set("contractname", s.ContractName)
	form.Set("compilerversion", compilerVersion(s.CompilerVersion))
	// The misspelling is part of the API.
	form.Set("constructorArguements", strings.TrimPrefix(s.ConstructorArgs, "0x"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(s.ChainID, nil), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if resp.Status == "1" {
		return &Verdict{GUID: resp.Result, Status: StatusPending, Message: resp.Message}, nil
	}
	if isAlreadyVerified(resp.Result) {
		return &Verdict{Status: StatusAlreadyVerified, Message: resp.Result}, nil
	}
	return nil, &APIError{Action: "verifysourcecode", Message: resp.Message, Result: resp.Result}
}

// CheckStatus asks for the state of a submitted request.
func (c *Client) CheckStatus(ctx context.Context, chainID uint64, guid string) (*Verdict, error) {
	q := url.Values{}
	q.Set("module", "contract")
	q.Set("action", "checkverifystatus")
	q.Set("guid", guid)
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(chainID, q), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}

	v := &Verdict{GUID: guid, Message: resp.Result}
	switch {
	case strings.HasPrefix(resp.Result, "Pending"):
		v.Status = StatusPending
	case isAlreadyVerified(resp.Result):
		v.Status = StatusAlreadyVerified
	case strings.HasPrefix(resp.Result, "Pass"):
		v.Status = StatusPass
	case strings.HasPrefix(resp.Result, "Fail"):
		v.Status = StatusFail
	default:
		return nil, &APIError{Action: "checkverifystatus", Message: resp.Message, Result: resp.Result}
	}
	return v, nil
}

// WaitForResult polls until the request leaves the pending state, the
// attempts run out or ctx is done.
func (c *Client) WaitForResult(ctx context.Context, chainID uint64, guid string) (*Verdict, error) {
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		v, err := c.CheckStatus(ctx, chainID, guid)
		if err != nil {
			return nil, err
		}
		if v.Status != StatusPending {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w (guid %s)", ErrPollTimeout, guid)
}

func (c *Client) endpoint(chainID uint64, q url.Values) string {
	if q == nil {
		q = url.Values{}
	}
	if chainID != 0 {
		q.Set("chainid", strconv.FormatUint(chainID, 10))
	}
	if len(q) == 0 {
		return c.baseURL
	}
	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	return c.baseURL + sep + q.Encode()
}

func (c *Client) do(req *http.Request) (*apiResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("verification service returned %s", resp.Status)
	}

	var out apiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &out, nil
}

func compilerVersion(v string) string {
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

func isAlreadyVerified(result string) bool {
	return strings.Contains(strings.ToLower(result), "already verified")
}
