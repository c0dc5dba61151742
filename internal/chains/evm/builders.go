package evm

import (
	"fmt"

	"github.com/pendergraft/deployforge/internal/chains"
	"github.com/pendergraft/deployforge/internal/chains/evm/foundry"
)

// Builders returns every supported EVM build tool.
func Builders() []chains.Builder {
	return []chains.Builder{
		foundry.New(),
	}
}

// DetectBuilder detects which builder is used in the given directory
func DetectBuilder(dir string) (chains.Builder, error) {
	for _, b := range Builders() {
		detected, err := b.Detect(dir)
		if err != nil {
			continue
		}
		if detected {
			return b, nil
		}
	}
	return nil, fmt.Errorf("no supported build tool detected in %s (expected foundry.toml)", dir)
}
