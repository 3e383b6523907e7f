package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PolicyBundle holds the scheduling configuration of a run, loadable from a YAML file.
// String fields use empty string for "not set", which selects the default.
type PolicyBundle struct {
	Policy     string          `yaml:"policy"`
	QueueOrder string          `yaml:"queue_order"`
	Backfill   string          `yaml:"backfill"`
	Check      string          `yaml:"check"`
	Fairshare  FairshareConfig `yaml:"fairshare"`
}

// FairshareConfig holds the user weights of the fairshare and ostrich policies.
// Users missing from Shares get DefaultShare (1 when unset).
type FairshareConfig struct {
	DefaultShare *float64           `yaml:"default_share"`
	Shares       map[string]float64 `yaml:"shares"`
}

// Share returns the weight of user.
func (c FairshareConfig) Share(user string) float64 {
	if s, ok := c.Shares[user]; ok {
		return s
	}
	if c.DefaultShare != nil {
		return *c.DefaultShare
	}
	return 1
}

// LoadPolicyBundle reads and parses a YAML policy configuration file.
func LoadPolicyBundle(path string) (*PolicyBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy config: %w", err)
	}
	var bundle PolicyBundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("parsing policy config: %w", err)
	}
	return &bundle, nil
}

// ValidQueueOrders is the set of recognized queue order names.
// Shared by Validate() and NewQueueOrder() to avoid duplication.
var ValidQueueOrders = map[string]bool{"": true, "fcfs": true, "sjf": true, "lsf": true, "priority": true}

// ValidBackfillers is the set of recognized backfill policy names.
var ValidBackfillers = map[string]bool{"": true, "none": true, "easy": true, "aggressive": true}

// ValidCheckModes is the set of recognized consistency check modes.
var ValidCheckModes = map[string]bool{"": true, string(CheckOff): true, string(CheckCounts): true, string(CheckStrict): true}

// Validate checks that all names and parameter ranges in the bundle are valid.
// Policy names are checked against the registry, so sub-package policies must be
// linked in (blank import) before a bundle naming them validates.
func (b *PolicyBundle) Validate() error {
	if !IsValidPolicy(b.Policy) {
		return fmt.Errorf("unknown policy %q (registered: %v)", b.Policy, PolicyNames())
	}
	if !ValidQueueOrders[b.QueueOrder] {
		return fmt.Errorf("unknown queue order %q", b.QueueOrder)
	}
	if !ValidBackfillers[b.Backfill] {
		return fmt.Errorf("unknown backfill policy %q", b.Backfill)
	}
	if !ValidCheckModes[b.Check] {
		return fmt.Errorf("unknown check mode %q", b.Check)
	}
	if b.Fairshare.DefaultShare != nil && *b.Fairshare.DefaultShare <= 0 {
		return fmt.Errorf("default_share must be positive, got %f", *b.Fairshare.DefaultShare)
	}
	for user, share := range b.Fairshare.Shares {
		if share <= 0 {
			return fmt.Errorf("share of user %q must be positive, got %f", user, share)
		}
	}
	return nil
}

// CheckMode returns the consistency check mode, defaulting to counts.
func (b *PolicyBundle) CheckMode() CheckMode {
	if b.Check == "" {
		return CheckCounts
	}
	return CheckMode(b.Check)
}
