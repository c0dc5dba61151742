// Package signer turns network credentials into transaction signers.
package signer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/pendergraft/deployforge/internal/config"
)

// ErrUnknownNetwork is returned when signers are requested for a network that is not declared.
var ErrUnknownNetwork = errors.New("unknown network")

// Signer is an account able to authorize transactions on a network.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// FromPrivateKey parses a hex-encoded secp256k1 private key, with or without 0x.
func FromPrivateKey(hexKey string) (Signer, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return Signer{}, fmt.Errorf("parse private key: %w", err)
	}
	return Signer{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// Address returns the account address.
func (s Signer) Address() common.Address {
	return s.address
}

// PrivateKey returns the key for the network collaborator.
func (s Signer) PrivateKey() *ecdsa.PrivateKey {
	return s.key
}

// Provider returns the signers configured for a network, in credential order.
type Provider func(network string) ([]Signer, error)

// NewProvider builds a Provider backed by the assembled config. A network
// with no resolved credentials yields an empty list.
func NewProvider(cfg *config.Config) Provider {
	return func(network string) ([]Signer, error) {
		profile, ok := cfg.Network(network)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
		}

		signers := make([]Signer, 0, len(profile.Credentials))
		for i, cred := range profile.Credentials {
			s, err := FromPrivateKey(cred)
			if err != nil {
				// Never echo the credential itself.
				return nil, fmt.Errorf("network %s: account %d: invalid private key", network, i)
			}
			signers = append(signers, s)
		}
		return signers, nil
	}
}

// Addresses maps signers to their hex addresses.
func Addresses(signers []Signer) []string {
	out := make([]string, len(signers))
	for i, s := range signers {
		out[i] = s.Address().Hex()
	}
	return out
}
