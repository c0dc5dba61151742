package verification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExplorer mimics the Etherscan contract API.
type fakeExplorer struct {
	mu        sync.Mutex
	submitted map[string]string
	query     map[string]string
	submit    map[string]any
	statuses  []map[string]any
	checks    int
}

func (f *fakeExplorer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.query = map[string]string{}
	for k := range r.URL.Query() {
		f.query[k] = r.URL.Query().Get(k)
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost:
		_ = r.ParseForm()
		f.submitted = map[string]string{}
		for k := range r.PostForm {
			f.submitted[k] = r.PostForm.Get(k)
		}
		_ = json.NewEncoder(w).Encode(f.submit)
	case r.URL.Query().Get("action") == "checkverifystatus":
		i := f.checks
		if i >= len(f.statuses) {
			i = len(f.statuses) - 1
		}
		f.checks++
		_ = json.NewEncoder(w).Encode(f.statuses[i])
	default:
		http.Error(w, "unexpected request", http.StatusBadRequest)
	}
}

func newTestClient(t *testing.T, f *fakeExplorer, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithPollInterval(time.Millisecond)}, opts...)
	return New(srv.URL, "SCANKEY", opts...)
}

func testSubmission() Submission {
	return Submission{
		ChainID:         137,
		Address:         "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		ContractName:    "src/Token.sol:Token",
		CompilerVersion: "0.8.6+commit.11564f7e",
		StandardJSON:    []byte(`{"language":"Solidity"}`),
		ConstructorArgs: "0x0000000000000000000000000000000000000000000000000000000000000001",
	}
}

func TestClient_Verify(t *testing.T) {
	f := &fakeExplorer{
		submit: map[string]any{"status": "1", "message": "OK", "result": "guid-123"},
		statuses: []map[string]any{
			{"status": "0", "message": "NOTOK", "result": "Pending in queue"},
			{"status": "0", "message": "NOTOK", "result": "Pending in queue"},
			{"status": "1", "message": "OK", "result": "Pass - Verified"},
		},
	}
	c := newTestClient(t, f)

	v, err := c.Verify(context.Background(), testSubmission())
	require.NoError(t, err)
	assert.Equal(t, StatusPass, v.Status)
	assert.True(t, v.Verified())
	assert.Equal(t, "guid-123", v.GUID)
	assert.Equal(t, 3, f.checks)

	assert.Equal(t, "verifysourcecode", f.submitted["action"])
	assert.Equal(t, "SCANKEY", f.submitted["apikey"])
	assert.Equal(t, "solidity-standard-json-input", f.submitted["codeformat"])
	assert.Equal(t, "src/Token.sol:Token", f.submitted["contractname"])
	assert.Equal(t, "v0.8.6+commit.11564f7e", f.submitted["compilerversion"])
	assert.Equal(t, `{"language":"Solidity"}`, f.submitted["sourceCode"])
	assert.Len(t, f.submitted["constructorArguements"], 64)
	assert.Equal(t, "137", f.query["chainid"])
	assert.Equal(t, "guid-123", f.query["guid"])
}

func TestClient_SubmitAlreadyVerified(t *testing.T) {
	f := &fakeExplorer{
		submit: map[string]any{"status": "0", "message": "NOTOK", "result": "Contract source code already verified"},
	}
	c := newTestClient(t, f)

	v, err := c.Verify(context.Background(), testSubmission())
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyVerified, v.Status)
	assert.True(t, v.Verified())
	assert.Zero(t, f.checks)
}

func TestClient_SubmitRejected(t *testing.T) {
	f := &fakeExplorer{
		submit: map[string]any{"status": "0", "message": "NOTOK", "result": "Invalid API Key"},
	}
	c := newTestClient(t, f)

	_, err := c.Submit(context.Background(), testSubmission())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid API Key", apiErr.Result)
}

func TestClient_VerificationFails(t *testing.T) {
	f := &fakeExplorer{
		submit:   map[string]any{"status": "1", "message": "OK", "result": "guid-9"},
		statuses: []map[string]any{{"status": "0", "message": "NOTOK", "result": "Fail - Unable to verify"}},
	}
	c := newTestClient(t, f)

	v, err := c.Verify(context.Background(), testSubmission())
	require.NoError(t, err)
	assert.Equal(t, StatusFail, v.Status)
	assert.False(t, v.Verified())
	assert.Equal(t, "Fail - Unable to verify", v.Message)
}

func TestClient_WaitForResultGivesUp(t *testing.T) {
	f := &fakeExplorer{
		statuses: []map[string]any{{"status": "0", "message": "NOTOK", "result": "Pending in queue"}},
	}
	c := newTestClient(t, f, WithMaxAttempts(3))

	_, err := c.WaitForResult(context.Background(), 137, "guid-1")
	assert.ErrorIs(t, err, ErrPollTimeout)
	assert.Equal(t, 3, f.checks)
}

func TestClient_WaitForResultCancelled(t *testing.T) {
	f := &fakeExplorer{
		statuses: []map[string]any{{"status": "0", "message": "NOTOK", "result": "Pending in queue"}},
	}
	c := newTestClient(t, f, WithPollInterval(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.WaitForResult(ctx, 137, "guid-1")
	assert.Error(t, err)
	assert.Equal(t, 1, f.checks, "first check is immediate, the second waits for the limiter")
}

func TestClient_MissingAPIKey(t *testing.T) {
	c := New("http://127.0.0.1:0", "")
	_, err := c.Submit(context.Background(), testSubmission())
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "SCANKEY")
	_, err := c.CheckStatus(context.Background(), 137, "guid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestCompilerVersion(t *testing.T) {
	assert.Equal(t, "v0.8.6+commit.11564f7e", compilerVersion("0.8.6+commit.11564f7e"))
	assert.Equal(t, "v0.8.6+commit.11564f7e", compilerVersion("v0.8.6+commit.11564f7e"))
	assert.Equal(t, "", compilerVersion(""))
}
