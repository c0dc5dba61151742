package evm

import (
	"bytes"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/pendergraft/deployforge/internal/chains"
)

// CBOR metadata marker (Solidity >=0.6.0) - "ipfs" in CBOR
var metadataMarker = []byte{0xa2, 0x64, 0x69, 0x70, 0x66, 0x73}

// Library placeholder pattern: __$<34 hex chars>$__
var libraryPlaceholder = regexp.MustCompile(`__\$[a-f0-9]{34}\$__`)

// StripMetadata removes the CBOR metadata appended to bytecode
func StripMetadata(bytecode []byte) []byte {
	idx := bytes.LastIndex(bytecode, metadataMarker)
	if idx == -1 {
		return bytecode
	}
	if idx >= 2 {
		return bytecode[:idx-2]
	}
	return bytecode
}

// CompareBytecode compares deployed code to the hex-encoded artifact code.
// libraries maps fully qualified library names ("src/Lib.sol:Lib") to their
// deployed addresses.
func CompareBytecode(deployed []byte, artifactHex string, libraries map[string]string) *chains.VerifyResult {
	code := strings.TrimPrefix(strings.TrimSpace(artifactHex), "0x")
	if len(libraries) > 0 {
		code = LinkLibraries(code, libraries)
	}
	if HasLibraryPlaceholders(code) {
		return &chains.VerifyResult{
			Match:     false,
			MatchType: "none",
			Message:   "Artifact has unlinked library placeholders",
		}
	}

	artifact, err := hex.DecodeString(code)
	if err != nil {
		return &chains.VerifyResult{
			Match:     false,
			MatchType: "none",
			Message:   "Artifact bytecode is not valid hex",
		}
	}

	if bytes.Equal(deployed, artifact) {
		return &chains.VerifyResult{
			Match:     true,
			MatchType: "full",
			Message:   "Bytecode matches exactly including metadata",
		}
	}

	if bytes.Equal(StripMetadata(deployed), StripMetadata(artifact)) {
		return &chains.VerifyResult{
			Match:     true,
			MatchType: "partial",
			Message:   "Executable code matches, metadata differs (different source paths, comments, or build environment)",
		}
	}

	return &chains.VerifyResult{
		Match:     false,
		MatchType: "none",
		Message:   "Bytecode does not match",
	}
}

// LinkLibraries replaces the placeholder of each named library with its
// address. The placeholder is the first 17 bytes of keccak256(name).
func LinkLibraries(codeHex string, libraries map[string]string) string {
	for name, addr := range libraries {
		addr = strings.ToLower(strings.TrimPrefix(addr, "0x"))
		placeholder := "__$" + hex.EncodeToString(crypto.Keccak256([]byte(name)))[:34] + "$__"
		codeHex = strings.ReplaceAll(codeHex, placeholder, addr)
	}
	return codeHex
}

// HasLibraryPlaceholders checks if hex-encoded bytecode contains library placeholders
func HasLibraryPlaceholders(codeHex string) bool {
	return libraryPlaceholder.MatchString(codeHex)
}
