package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ProjectFiles is the search order for project config files
var ProjectFiles = []string{"deployforge.toml", "forge-deploy.toml"}

// FindProjectFile returns the first project file present in dir.
func FindProjectFile(dir string) (string, error) {
	for _, name := range ProjectFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", os.ErrNotExist
}

// LoadOverrides decodes a project file.
func LoadOverrides(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, fmt.Errorf("reading project file: %w", err)
	}

	var o Overrides
	md, err := toml.Decode(string(data), &o)
	if err != nil {
		return Overrides{}, &AssemblyError{Field: filepath.Base(path), Reason: fmt.Sprintf("parsing TOML: %v", err)}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Overrides{}, &AssemblyError{Field: undecoded[0].String(), Reason: "unknown key"}
	}
	return o, nil
}

// EncodeOverrides renders overrides as TOML.
func EncodeOverrides(o Overrides) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(o); err != nil {
		return nil, fmt.Errorf("encoding TOML: %w", err)
	}
	return buf.Bytes(), nil
}

// StarterOverrides is the project file written by `config init`: the Polygon
// deployment setup the project template ships with.
func StarterOverrides() Overrides {
	enabled := true
	runs := 200
	return Overrides{
		DefaultNetwork: "polygon",
		Compiler: CompilerOverride{
			Version: "0.8.6",
			Optimizer: OptimizerOverride{
				Enabled: &enabled,
				Runs:    &runs,
			},
		},
		Networks: map[string]NetworkOverride{
			"polygon": {
				URLSecret:      "POLYGON_RPC_URL",
				AccountSecrets: []string{"DEPLOYER_PRIVATE_KEY"},
				ChainID:        137,
			},
		},
		Verification: VerificationOverride{
			APIKeySecrets: map[string]string{
				"polygon": "POLYGONSCAN_API_KEY",
			},
		},
	}
}
