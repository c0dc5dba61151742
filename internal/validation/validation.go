// Package validation checks network profiles and task inputs before anything
// is sent to a network or verification service.
package validation

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ValidateAddress validates an Ethereum address
func ValidateAddress(addr string) error {
	if len(addr) != 42 {
		return errors.New("invalid address length: must be 42 characters (0x + 40 hex)")
	}
	if !strings.HasPrefix(addr, "0x") {
		return errors.New("invalid address: must start with 0x")
	}
	if !common.IsHexAddress(addr) {
		return errors.New("invalid address: contains non-hex characters")
	}
	return nil
}

// ValidateHexData validates ABI-encoded data such as constructor arguments.
// An optional 0x prefix is accepted.
func ValidateHexData(data string) error {
	_, err := hexutil.Decode("0x" + strings.TrimPrefix(data, "0x"))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, hexutil.ErrOddLength):
		return errors.New("invalid hex data: odd length")
	default:
		return errors.New("invalid hex data: contains non-hex characters")
	}
}
