package validation

import (
	"fmt"
	"strings"

	"github.com/pendergraft/deployforge/internal/config"
)

// Status is the usability of one network profile.
type Status string

const (
	StatusUsable             Status = "usable"
	StatusMissingEndpoint    Status = "missing-endpoint"
	StatusMissingCredentials Status = "missing-credentials"
	StatusBothMissing        Status = "both-missing"
)

// Finding is the validation result for a single network.
type Finding struct {
	Network string
	Status  Status
}

// Usable reports whether the network passed validation.
func (f Finding) Usable() bool {
	return f.Status == StatusUsable
}

// Missing names the fields that made the profile unusable.
func (f Finding) Missing() []string {
	switch f.Status {
	case StatusMissingEndpoint:
		return []string{"rpc endpoint"}
	case StatusMissingCredentials:
		return []string{"credentials"}
	case StatusBothMissing:
		return []string{"rpc endpoint", "credentials"}
	default:
		return nil
	}
}

// Message is a human-readable explanation of the finding.
func (f Finding) Message() string {
	if f.Usable() {
		return "ready"
	}
	return "missing " + strings.Join(f.Missing(), " and ")
}

// Report lists one finding per declared network, ordered by network name.
type Report struct {
	Findings []Finding
}

// Find returns the finding for a network.
func (r Report) Find(network string) (Finding, bool) {
	for _, f := range r.Findings {
		if f.Network == network {
			return f, true
		}
	}
	return Finding{}, false
}

// Usable reports whether the named network is declared and usable.
func (r Report) Usable(network string) bool {
	f, ok := r.Find(network)
	return ok && f.Usable()
}

// AllUsable reports whether every declared network is usable.
func (r Report) AllUsable() bool {
	for _, f := range r.Findings {
		if !f.Usable() {
			return false
		}
	}
	return true
}

// String renders the report one network per line.
func (r Report) String() string {
	var b strings.Builder
	for _, f := range r.Findings {
		fmt.Fprintf(&b, "%s: %s (%s)\n", f.Network, f.Status, f.Message())
	}
	return b.String()
}

// CheckProfile computes the status of a single profile.
func CheckProfile(p config.NetworkProfile) Finding {
	status := StatusUsable
	switch {
	case !p.HasEndpoint() && !p.HasCredentials():
		status = StatusBothMissing
	case !p.HasEndpoint():
		status = StatusMissingEndpoint
	case !p.HasCredentials():
		status = StatusMissingCredentials
	}
	return Finding{Network: p.Name, Status: status}
}

// ValidateProfiles checks every declared network. It never modifies cfg.
func ValidateProfiles(cfg *config.Config) Report {
	profiles := cfg.Networks()
	report := Report{Findings: make([]Finding, 0, len(profiles))}
	for _, p := range profiles {
		report.Findings = append(report.Findings, CheckProfile(p))
	}
	return report
}

// ValidateNetwork checks a single network. The boolean is false when the
// network is not declared at all.
func ValidateNetwork(cfg *config.Config, network string) (Finding, bool) {
	p, ok := cfg.Network(network)
	if !ok {
		return Finding{Network: network}, false
	}
	return CheckProfile(p), true
}
