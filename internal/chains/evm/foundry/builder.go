// Package foundry provides the Foundry builder for EVM contracts.
package foundry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pendergraft/deployforge/internal/chains"
)

// Builder implements chains.Builder for Foundry projects
type Builder struct {
	runner Runner
}

// New creates a new Foundry builder that shells out to forge.
func New() *Builder {
	return &Builder{runner: execRunner{}}
}

// NewWithRunner creates a builder that runs commands through r.
func NewWithRunner(r Runner) *Builder {
	return &Builder{runner: r}
}

// Name returns the builder identifier
func (b *Builder) Name() string {
	return "foundry"
}

// DisplayName returns a human-readable name
func (b *Builder) DisplayName() string {
	return "Foundry"
}

// ConfigFile returns the config file name
func (b *Builder) ConfigFile() string {
	return "foundry.toml"
}

// Detect checks if a directory is a Foundry project
func (b *Builder) Detect(dir string) (bool, error) {
	_, err := os.Stat(filepath.Join(dir, b.ConfigFile()))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Discover finds contract artifacts under out/, keeping only contracts
// compiled from src/ unless listed in opts.IncludeDependencies.
func (b *Builder) Discover(dir string, opts chains.DiscoverOptions) ([]string, error) {
	outDir := filepath.Join(dir, "out")

	if _, err := os.Stat(outDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("out directory not found - run 'deployforge run compile' first")
	}
	if _, err := os.Stat(filepath.Join(outDir, "build-info")); os.IsNotExist(err) {
		return nil, fmt.Errorf("build-info directory not found - run 'deployforge run compile' first")
	}

	var artifacts []string
	seen := make(map[string]bool)

	err := filepath.WalkDir(outDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}

		// out/{Source}.sol/{Contract}.json
		if !strings.HasSuffix(d.Name(), ".json") || !strings.HasSuffix(filepath.Dir(path), ".sol") {
			return nil
		}

		contractName := strings.TrimSuffix(d.Name(), ".json")
		if seen[contractName] {
			return nil
		}
		if len(opts.Contracts) > 0 && !slices.Contains(opts.Contracts, contractName) {
			return nil
		}
		if excludedByName(contractName, opts.Exclude) {
			return nil
		}

		sourcePath, err := b.getArtifactSourcePath(path)
		if err != nil {
			return nil // unreadable artifacts are skipped
		}
		for _, pattern := range opts.ExcludePaths {
			if strings.Contains(sourcePath, pattern) {
				return nil
			}
			if matched, _ := filepath.Match(pattern, sourcePath); matched {
				return nil
			}
		}
		if !strings.HasPrefix(sourcePath, "src/") && !isIncludedDependency(contractName, opts.IncludeDependencies) {
			return nil
		}

		seen[contractName] = true
		artifacts = append(artifacts, path)
		return nil
	})

	return artifacts, err
}

// excludedByName matches prefixes ("Mock"), suffixes ("Test") and globs.
func excludedByName(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.HasSuffix(name, pattern) || strings.HasPrefix(name, pattern) {
			return true
		}
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// isIncludedDependency checks if a contract name matches any dependency (case-insensitive)
func isIncludedDependency(name string, deps []string) bool {
	for _, d := range deps {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}

// getArtifactSourcePath reads an artifact and returns its source path
func (b *Builder) getArtifactSourcePath(artifactPath string) (string, error) {
	data, err := os.ReadFile(artifactPath)
	if err != nil {
		return "", err
	}

	var raw Artifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", err
	}
	if raw.RawMetadata == "" {
		return "", fmt.Errorf("no metadata")
	}

	var metadata Metadata
	if err := json.Unmarshal([]byte(raw.RawMetadata), &metadata); err != nil {
		return "", err
	}
	return getFirstKey(metadata.Settings.CompilationTarget), nil
}

// Parse parses a Foundry artifact file
func (b *Builder) Parse(artifactPath string) (*chains.Artifact, error) {
	data, err := os.ReadFile(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	var raw Artifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing artifact JSON: %w", err)
	}

	// Interfaces and abstract contracts have no code
	if raw.Bytecode.Object == "" || raw.Bytecode.Object == "0x" {
		return nil, fmt.Errorf("contract has no bytecode (likely an interface)")
	}

	var metadata Metadata
	if raw.RawMetadata != "" {
		_ = json.Unmarshal([]byte(raw.RawMetadata), &metadata) // non-fatal
	}

	return &chains.Artifact{
		Name: strings.TrimSuffix(filepath.Base(artifactPath), ".json"),
		EVM: &chains.EVMArtifact{
			SourcePath:       getFirstKey(metadata.Settings.CompilationTarget),
			License:          metadata.Sources.FirstLicense(),
			ABI:              raw.ABI,
			Bytecode:         raw.Bytecode.Object,
			DeployedBytecode: raw.DeployedBytecode.Object,
			Compiler: chains.EVMCompiler{
				Version:    metadata.Compiler.Version,
				EVMVersion: metadata.Settings.EVMVersion,
				ViaIR:      metadata.Settings.ViaIR,
				Optimizer: chains.OptimizerConfig{
					Enabled: metadata.Settings.Optimizer.Enabled,
					Runs:    metadata.Settings.Optimizer.Runs,
				},
			},
		},
	}, nil
}

// FindArtifact resolves a contract reference, either "Name" or
// "src/Path.sol:Name", to its parsed artifact.
func (b *Builder) FindArtifact(dir, ref string) (*chains.Artifact, error) {
	sourcePath, name := "", ref
	if i := strings.LastIndex(ref, ":"); i >= 0 {
		sourcePath, name = ref[:i], ref[i+1:]
	}

	opts := chains.DiscoverOptions{Contracts: []string{name}}
	if sourcePath != "" && !strings.HasPrefix(sourcePath, "src/") {
		opts.IncludeDependencies = []string{name}
	}
	paths, err := b.Discover(dir, opts)
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		a, err := b.Parse(p)
		if err != nil {
			continue
		}
		if sourcePath == "" || a.EVM.SourcePath == sourcePath {
			return a, nil
		}
	}
	return nil, fmt.Errorf("no artifact found for contract %s", ref)
}

// getFirstKey returns the first key from a map
func getFirstKey(m map[string]string) string {
	for k := range m {
		return k
	}
	return ""
}
