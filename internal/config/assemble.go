package config

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// Assemble merges defaults, project overrides and secrets into a Config.
//
// Networks whose secrets are missing are kept with an empty endpoint or
// credential list; use the validation package to find out which profiles are
// usable. Only malformed literal values return an *AssemblyError.
func Assemble(defaults Defaults, overrides Overrides, secrets SecretSource) (*Config, error) {
	if secrets == nil {
		secrets = MapSource{}
	}

	compiler, err := mergeCompiler(defaults.Compiler, overrides.Compiler)
	if err != nil {
		return nil, err
	}

	declared := make(map[string]NetworkOverride, len(defaults.Networks)+len(overrides.Networks))
	for name, n := range defaults.Networks {
		declared[name] = n
	}
	for name, n := range overrides.Networks {
		declared[name] = n
	}

	networks := make(map[string]NetworkProfile, len(declared))
	for _, name := range sortedNames(declared) {
		profile, err := resolveNetwork(name, declared[name], secrets)
		if err != nil {
			return nil, err
		}
		networks[name] = profile
	}

	if overrides.DefaultNetwork != "" {
		if _, ok := networks[overrides.DefaultNetwork]; !ok {
			return nil, assemblyErrorf("default_network", "network %q is not declared", overrides.DefaultNetwork)
		}
	}

	verification := VerificationCredential{
		ServiceKey: make(map[string]string, len(overrides.Verification.APIKeySecrets)),
		APIURL:     defaults.VerificationURL,
	}
	if overrides.Verification.APIURL != "" {
		verification.APIURL = overrides.Verification.APIURL
	}
	for _, network := range sortedNames(overrides.Verification.APIKeySecrets) {
		secretName := overrides.Verification.APIKeySecrets[network]
		if _, ok := networks[network]; !ok {
			return nil, assemblyErrorf("verification.api_key_secrets."+network, "network %q is not declared", network)
		}
		if strings.TrimSpace(secretName) == "" {
			return nil, assemblyErrorf("verification.api_key_secrets."+network, "secret name is empty")
		}
		if key, ok := secrets.Lookup(secretName); ok {
			verification.ServiceKey[network] = key
		}
	}

	return &Config{
		compiler:       compiler,
		networks:       networks,
		verification:   verification,
		defaultNetwork: overrides.DefaultNetwork,
	}, nil
}

// sortedNames returns the keys of m in sorted order, so the first malformed
// entry reported is the same on every run.
func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func mergeCompiler(base CompilerSettings, o CompilerOverride) (CompilerSettings, error) {
	out := base
	if o.Version != "" {
		out.LanguageVersion = o.Version
	}
	if o.Optimizer.Enabled != nil {
		out.Optimizer.Enabled = *o.Optimizer.Enabled
	}
	if o.Optimizer.Runs != nil {
		out.Optimizer.Runs = *o.Optimizer.Runs
	}

	if out.Optimizer.Runs < 0 {
		return CompilerSettings{}, assemblyErrorf("compiler.optimizer.runs", "must be >= 0, got %d", out.Optimizer.Runs)
	}
	if out.LanguageVersion != "" {
		if err := validateCompilerVersion(out.LanguageVersion); err != nil {
			return CompilerSettings{}, assemblyErrorf("compiler.version", "%v", err)
		}
	}
	return out, nil
}

// validateCompilerVersion accepts a plain X.Y.Z solc version, optionally
// prefixed with "v".
func validateCompilerVersion(v string) error {
	normalized := strings.TrimPrefix(v, "v")
	if !semver.IsValid("v"+normalized) || strings.Count(normalized, ".") != 2 {
		return fmt.Errorf("%q is not a X.Y.Z version", v)
	}
	return nil
}

func resolveNetwork(name string, decl NetworkOverride, secrets SecretSource) (NetworkProfile, error) {
	if strings.TrimSpace(name) == "" {
		return NetworkProfile{}, assemblyErrorf("networks", "network name is empty")
	}
	field := "networks." + name
	if decl.URL != "" && decl.URLSecret != "" {
		return NetworkProfile{}, assemblyErrorf(field, "set either url or url_secret, not both")
	}

	profile := NetworkProfile{
		Name:        name,
		RPCURL:      decl.URL,
		Credentials: []string{},
		ChainID:     decl.ChainID,
	}

	if decl.URLSecret != "" {
		if url, ok := secrets.Lookup(decl.URLSecret); ok {
			profile.RPCURL = url
		}
	}

	for i, secretName := range decl.AccountSecrets {
		if strings.TrimSpace(secretName) == "" {
			return NetworkProfile{}, assemblyErrorf(fmt.Sprintf("%s.account_secrets[%d]", field, i), "secret name is empty")
		}
		if key, ok := secrets.Lookup(secretName); ok {
			profile.Credentials = append(profile.Credentials, key)
		}
	}

	return profile, nil
}
