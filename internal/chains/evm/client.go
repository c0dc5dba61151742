// Package evm talks to EVM-compatible networks over JSON-RPC.
package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/pendergraft/deployforge/internal/chains"
	"github.com/pendergraft/deployforge/internal/validation"
)

// Client is a connection to one network's RPC endpoint.
type Client struct {
	eth *ethclient.Client
}

// Dial connects to rpcURL.
func Dial(ctx context.Context, rpcURL string) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to rpc endpoint: %w", err)
	}
	return &Client{eth: eth}, nil
}

// Close releases the connection.
func (c *Client) Close() {
	c.eth.Close()
}

// ChainID returns the network's chain id.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("eth_chainId: %w", err)
	}
	return id.Uint64(), nil
}

// CheckChainID fails when the endpoint serves a different chain than
// expected. An expected id of 0 skips the check.
func (c *Client) CheckChainID(ctx context.Context, expected uint64) error {
	if expected == 0 {
		return nil
	}
	got, err := c.ChainID(ctx)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("rpc endpoint serves chain %d, expected %d", got, expected)
	}
	return nil
}

// BalanceAt returns the latest balance of address in wei.
func (c *Client) BalanceAt(ctx context.Context, address common.Address) (*big.Int, error) {
	bal, err := c.eth.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance %s: %w", address.Hex(), err)
	}
	return bal, nil
}

// GetDeployedBytecode fetches the runtime code at address.
func (c *Client) GetDeployedBytecode(ctx context.Context, address string) ([]byte, error) {
	if err := validation.ValidateAddress(address); err != nil {
		return nil, err
	}
	code, err := c.eth.CodeAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("eth_getCode %s: %w", address, err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("no contract code at %s", address)
	}
	return code, nil
}

// VerifyDeployment compares the code at address with the artifact's
// deployed bytecode.
func (c *Client) VerifyDeployment(ctx context.Context, address string, artifact *chains.Artifact, libraries map[string]string) (*chains.VerifyResult, error) {
	if artifact.EVM == nil || artifact.EVM.DeployedBytecode == "" {
		return nil, fmt.Errorf("artifact %s has no deployed bytecode", artifact.Name)
	}
	deployed, err := c.GetDeployedBytecode(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get deployed bytecode: %w", err)
	}
	return CompareBytecode(deployed, artifact.EVM.DeployedBytecode, libraries), nil
}

// FormatEther renders a wei amount with 18 decimals, trimming trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	f := new(big.Float).SetPrec(256).SetInt(wei)
	f.Quo(f, big.NewFloat(1e18))
	s := f.Text('f', 18)
	for len(s) > 1 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
