// Package chains defines the artifact model shared by build tools and the
// network client.
package chains

import (
	"context"
	"encoding/json"

	"github.com/pendergraft/deployforge/internal/config"
)

// Builder compiles a project and parses the artifacts of a specific build tool
type Builder interface {
	// Metadata
	Name() string        // "foundry"
	DisplayName() string // "Foundry"

	// Detection
	Detect(dir string) (bool, error)
	ConfigFile() string // "foundry.toml"

	// Compilation
	Compile(ctx context.Context, dir string, settings config.CompilerSettings) error

	// Artifact handling
	Discover(dir string, opts DiscoverOptions) ([]string, error)
	Parse(artifactPath string) (*Artifact, error)
	FindArtifact(dir, ref string) (*Artifact, error)
	GetVerificationInput(dir, contractName, sourcePath string) (*VerificationInput, error)
}

// DiscoverOptions configures artifact discovery
type DiscoverOptions struct {
	// Contracts to include (empty = all)
	Contracts []string
	// Patterns to exclude (e.g., "Test*", "Mock*")
	Exclude []string
	// Source path fragments to exclude (e.g., "script/")
	ExcludePaths []string
	// Contracts outside src/ to include anyway
	IncludeDependencies []string
}

// VerifyResult contains bytecode comparison results
type VerifyResult struct {
	Match     bool   // Whether the bytecode matches
	MatchType string // "full", "partial", "none"
	Message   string // Human-readable explanation
}

// VerificationInput is what a verification service needs to rebuild a contract.
type VerificationInput struct {
	StandardJSON    []byte
	SolcLongVersion string // "0.8.6+commit.11564f7e"
}

// Artifact is one compiled contract
type Artifact struct {
	Name string       `json:"name"`
	EVM  *EVMArtifact `json:"evm,omitempty"`
}

// QualifiedName returns "<source path>:<name>", or just the name when the
// source path is unknown.
func (a *Artifact) QualifiedName() string {
	if a.EVM == nil || a.EVM.SourcePath == "" {
		return a.Name
	}
	return a.EVM.SourcePath + ":" + a.Name
}

// EVMArtifact contains EVM-specific contract data
type EVMArtifact struct {
	SourcePath       string          `json:"sourcePath"`
	License          string          `json:"license,omitempty"`
	ABI              json.RawMessage `json:"abi"`
	Bytecode         string          `json:"bytecode"`
	DeployedBytecode string          `json:"deployedBytecode"`
	Compiler         EVMCompiler     `json:"compiler"`
}

// EVMCompiler contains EVM compiler details
type EVMCompiler struct {
	Version    string          `json:"version"` // "0.8.6+commit.11564f7e"
	Optimizer  OptimizerConfig `json:"optimizer"`
	EVMVersion string          `json:"evmVersion"` // "berlin", "paris"
	ViaIR      bool            `json:"viaIR"`
}

// OptimizerConfig contains optimizer settings
type OptimizerConfig struct {
	Enabled bool `json:"enabled"`
	Runs    int  `json:"runs"`
}
