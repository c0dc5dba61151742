package config

import (
	"sort"
)

// DefaultVerificationURL is the Etherscan v2 multichain API endpoint.
const DefaultVerificationURL = "https://api.etherscan.io/v2/api"

// CompilerSettings are the parameters handed to the compiler collaborator.
type CompilerSettings struct {
	LanguageVersion string
	Optimizer       OptimizerSettings
}

// OptimizerSettings contains optimizer settings
type OptimizerSettings struct {
	Enabled bool
	Runs    int
}

// NetworkProfile is one named deployment target.
// An empty RPCURL means the endpoint secret was absent.
type NetworkProfile struct {
	Name        string
	RPCURL      string
	Credentials []string
	ChainID     uint64 // 0 when not declared
}

// HasEndpoint reports whether the profile resolved an RPC endpoint.
func (p NetworkProfile) HasEndpoint() bool {
	return p.RPCURL != ""
}

// HasCredentials reports whether at least one credential resolved.
func (p NetworkProfile) HasCredentials() bool {
	return len(p.Credentials) > 0
}

// Usable reports whether the profile can be used to send transactions.
func (p NetworkProfile) Usable() bool {
	return p.HasEndpoint() && p.HasCredentials()
}

// VerificationCredential holds the verification service keys per network.
type VerificationCredential struct {
	ServiceKey map[string]string
	APIURL     string
}

// Config is the assembled project configuration. It is immutable: accessors
// return copies, so a *Config can be shared by concurrent readers.
type Config struct {
	compiler       CompilerSettings
	networks       map[string]NetworkProfile
	verification   VerificationCredential
	defaultNetwork string
}

// Compiler returns the compiler settings.
func (c *Config) Compiler() CompilerSettings {
	return c.compiler
}

// Network returns the named profile.
func (c *Config) Network(name string) (NetworkProfile, bool) {
	p, ok := c.networks[name]
	if !ok {
		return NetworkProfile{}, false
	}
	return cloneProfile(p), true
}

// Networks returns every declared profile, ordered by name. Unusable
// profiles are included.
func (c *Config) Networks() []NetworkProfile {
	names := c.NetworkNames()
	profiles := make([]NetworkProfile, 0, len(names))
	for _, name := range names {
		profiles = append(profiles, cloneProfile(c.networks[name]))
	}
	return profiles
}

// NetworkNames returns the declared network names in sorted order.
func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.networks))
	for name := range c.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultNetwork returns the network used when none is selected explicitly.
// With no default_network and exactly one declared network, that network is the default.
func (c *Config) DefaultNetwork() string {
	if c.defaultNetwork != "" {
		return c.defaultNetwork
	}
	if len(c.networks) == 1 {
		for name := range c.networks {
			return name
		}
	}
	return ""
}

// VerificationKey returns the verification service key for a network.
func (c *Config) VerificationKey(network string) (string, bool) {
	key, ok := c.verification.ServiceKey[network]
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// VerificationURL returns the verification service API endpoint.
func (c *Config) VerificationURL() string {
	return c.verification.APIURL
}

func cloneProfile(p NetworkProfile) NetworkProfile {
	if p.Credentials != nil {
		creds := make([]string, len(p.Credentials))
		copy(creds, p.Credentials)
		p.Credentials = creds
	}
	return p
}

// Defaults is the hard-coded baseline a project file is layered on.
type Defaults struct {
	Compiler        CompilerSettings
	Networks        map[string]NetworkOverride
	VerificationURL string
}

// DefaultSettings returns the built-in baseline.
func DefaultSettings() Defaults {
	return Defaults{
		Compiler: CompilerSettings{
			Optimizer: OptimizerSettings{
				Enabled: false,
				Runs:    200,
			},
		},
		VerificationURL: DefaultVerificationURL,
	}
}

// Overrides are the literal values fixed in the project file (deployforge.toml).
// Optional scalars are pointers so an unset key keeps the default.
type Overrides struct {
	DefaultNetwork string                     `toml:"default_network,omitempty"`
	Compiler       CompilerOverride           `toml:"compiler,omitempty"`
	Networks       map[string]NetworkOverride `toml:"networks,omitempty"`
	Verification   VerificationOverride       `toml:"verification,omitempty"`
}

// CompilerOverride contains compiler settings from the project file
type CompilerOverride struct {
	Version   string            `toml:"version,omitempty"`
	Optimizer OptimizerOverride `toml:"optimizer,omitempty"`
}

// OptimizerOverride contains optimizer settings from the project file
type OptimizerOverride struct {
	Enabled *bool `toml:"enabled,omitempty"`
	Runs    *int  `toml:"runs,omitempty"`
}

// NetworkOverride declares a network. The endpoint is either a literal URL or
// the name of the secret holding it; accounts are always secret names.
type NetworkOverride struct {
	URL            string   `toml:"url,omitempty"`
	URLSecret      string   `toml:"url_secret,omitempty"`
	AccountSecrets []string `toml:"account_secrets,omitempty"`
	ChainID        uint64   `toml:"chain_id,omitempty"`
}

// VerificationOverride contains verification service settings from the project file
type VerificationOverride struct {
	APIURL        string            `toml:"api_url,omitempty"`
	APIKeySecrets map[string]string `toml:"api_key_secrets,omitempty"`
}
