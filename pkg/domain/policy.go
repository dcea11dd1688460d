package domain

import (
	"fmt"
	"strings"
)

// Policy selects which account-integrity rule set is enforced.
type Policy string

const (
	// PolicyFlexible makes the RUT account optional but requires at least one
	// account of any kind per client.
	PolicyFlexible Policy = "flexible"
	// PolicyRutMandatory requires a RUT account from creation onwards; it can
	// only disappear with the client, and savings require an existing RUT.
	PolicyRutMandatory Policy = "rut_mandatory"
)

// DefaultPolicy is the rule set shipped when nothing is configured.
const DefaultPolicy = PolicyFlexible

// ParsePolicy resolves a configured policy name. Empty input yields DefaultPolicy.
func ParsePolicy(raw string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return DefaultPolicy, nil
	case string(PolicyFlexible), "a":
		return PolicyFlexible, nil
	case string(PolicyRutMandatory), "rut-mandatory", "b":
		return PolicyRutMandatory, nil
	default:
		return "", fmt.Errorf("unknown policy %q", raw)
	}
}

// Valid reports whether p names a known policy.
func (p Policy) Valid() bool {
	return p == PolicyFlexible || p == PolicyRutMandatory
}

// RequiresRut reports whether every client must hold a RUT account.
func (p Policy) RequiresRut() bool { return p == PolicyRutMandatory }

// AllowsRutDetach reports whether a RUT account may be removed without
// deleting the client.
func (p Policy) AllowsRutDetach() bool { return p != PolicyRutMandatory }

// SavingsRequireRut reports whether savings accounts may only be attached to
// clients that already hold a RUT account.
func (p Policy) SavingsRequireRut() bool { return p == PolicyRutMandatory }

func (p Policy) String() string { return string(p) }
