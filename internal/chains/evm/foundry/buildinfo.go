package foundry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pendergraft/deployforge/internal/chains"
)

// buildInfoOutputContracts represents output.contracts from Solidity compiler output
type buildInfoOutputContracts map[string]map[string]json.RawMessage

// GetVerificationInput extracts Standard JSON Input and the full solc version
// from build-info. When sourcePath is set, only a build-info whose output
// contains contracts[sourcePath][contractName] matches; otherwise the first
// valid build-info is returned.
func (b *Builder) GetVerificationInput(dir, contractName, sourcePath string) (*chains.VerificationInput, error) {
	buildInfoDir := filepath.Join(dir, "out", "build-info")

	entries, err := os.ReadDir(buildInfoDir)
	if err != nil {
		return nil, fmt.Errorf("reading build-info directory: %w", err)
	}

	var firstMatch *chains.VerificationInput
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(buildInfoDir, entry.Name()))
		if err != nil {
			continue
		}

		var buildInfo BuildInfo
		if err := json.Unmarshal(data, &buildInfo); err != nil {
			continue
		}

		if sourcePath != "" && !buildInfo.produces(sourcePath, contractName) {
			continue
		}

		stdJSON, err := stripStandardJSONKeys(buildInfo.Input)
		if err != nil {
			continue
		}

		vi := &chains.VerificationInput{
			StandardJSON:    stdJSON,
			SolcLongVersion: buildInfo.SolcLongVersion,
		}
		if sourcePath != "" {
			return vi, nil
		}
		if firstMatch == nil {
			firstMatch = vi
		}
	}

	if firstMatch != nil {
		return firstMatch, nil
	}
	return nil, fmt.Errorf("build-info not found for contract %s", contractName)
}

func (bi BuildInfo) produces(sourcePath, contractName string) bool {
	var output struct {
		Contracts buildInfoOutputContracts `json:"contracts"`
	}
	if err := json.Unmarshal(bi.Output, &output); err != nil {
		return false
	}
	_, ok := output.Contracts[sourcePath][contractName]
	return ok
}

// standardJSONKeysToStrip are top-level keys forge adds that solc rejects.
// Standard JSON input only allows language, sources and settings.
var standardJSONKeysToStrip = []string{"allowPaths", "basePath", "includePaths", "version"}

func stripStandardJSONKeys(input json.RawMessage) ([]byte, error) {
	var m map[string]any
	if err := json.Unmarshal(input, &m); err != nil {
		return nil, err
	}
	for _, key := range standardJSONKeysToStrip {
		delete(m, key)
	}
	return json.Marshal(m)
}
