package evm

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendergraft/deployforge/internal/chains"
)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params []any           `json:"params"`
}

// newRPCServer serves canned JSON-RPC results keyed by method name.
func newRPCServer(t *testing.T, results map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		result, ok := results[req.Method]
		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0", "id": req.ID,
				"error": map[string]any{"code": -32601, "message": "method not found"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dialTest(t *testing.T, results map[string]any) *Client {
	t.Helper()
	srv := newRPCServer(t, results)
	c, err := Dial(context.Background(), srv.URL)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestClient_ChainID(t *testing.T) {
	c := dialTest(t, map[string]any{"eth_chainId": "0x89"})
	ctx := context.Background()

	id, err := c.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(137), id)

	assert.NoError(t, c.CheckChainID(ctx, 137))
	assert.NoError(t, c.CheckChainID(ctx, 0))
	err = c.CheckChainID(ctx, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serves chain 137")
}

func TestClient_BalanceAt(t *testing.T) {
	c := dialTest(t, map[string]any{"eth_getBalance": "0xde0b6b3a7640000"})

	bal, err := c.BalanceAt(context.Background(), common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1e18), bal)
}

func TestClient_RPCError(t *testing.T) {
	c := dialTest(t, map[string]any{})

	_, err := c.ChainID(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eth_chainId")
}

func TestClient_GetDeployedBytecode(t *testing.T) {
	ctx := context.Background()

	t.Run("returns code", func(t *testing.T) {
		c := dialTest(t, map[string]any{"eth_getCode": "0x60806040"})
		code, err := c.GetDeployedBytecode(ctx, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x60, 0x80, 0x60, 0x40}, code)
	})

	t.Run("empty account", func(t *testing.T) {
		c := dialTest(t, map[string]any{"eth_getCode": "0x"})
		_, err := c.GetDeployedBytecode(ctx, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no contract code")
	})

	t.Run("invalid address", func(t *testing.T) {
		c := dialTest(t, map[string]any{"eth_getCode": "0x60806040"})
		_, err := c.GetDeployedBytecode(ctx, "0x1234")
		assert.Error(t, err)
	})
}

func TestClient_VerifyDeployment(t *testing.T) {
	c := dialTest(t, map[string]any{"eth_getCode": "0x60806040"})
	ctx := context.Background()
	addr := "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

	result, err := c.VerifyDeployment(ctx, addr, &chains.Artifact{
		Name: "Token",
		EVM:  &chains.EVMArtifact{DeployedBytecode: "0x60806040"},
	}, nil)
	require.NoError(t, err)
	assert.True(t, result.Match)
	assert.Equal(t, "full", result.MatchType)

	_, err = c.VerifyDeployment(ctx, addr, &chains.Artifact{Name: "IToken", EVM: &chains.EVMArtifact{}}, nil)
	assert.Error(t, err)
}

func TestFormatEther(t *testing.T) {
	tests := []struct {
		wei  *big.Int
		want string
	}{
		{nil, "0"},
		{big.NewInt(0), "0"},
		{big.NewInt(1e18), "1"},
		{big.NewInt(1500000000000000000), "1.5"},
		{big.NewInt(1), "0.000000000000000001"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatEther(tt.wei))
		})
	}
}

func TestDetectBuilder(t *testing.T) {
	dir := t.TempDir()
	_, err := DetectBuilder(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "foundry.toml"), []byte("[profile.default]\n"), 0644))
	b, err := DetectBuilder(dir)
	require.NoError(t, err)
	assert.Equal(t, "foundry", b.Name())
}
