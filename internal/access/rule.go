// Package access implements the admission decision made before an inbound
// message is routed: allow/block rules with specificity-first, allow-biased
// conflict resolution, held in an in-memory cache backed by a durable store.
package access

import (
	"errors"
	"fmt"
	"strings"
)

type RuleType string

const (
	RuleAllow RuleType = "allow"
	RuleBlock RuleType = "block"
)

// WildcardSuffix marks a prefix pattern: "+1234*" matches every identifier
// starting with "+1234".
const WildcardSuffix = "*"

// Rule is one durable admission rule. An empty Scope means global; otherwise
// the rule only applies to checks against that instance.
type Rule struct {
	ID      string   `yaml:"id" json:"id"`
	Pattern string   `yaml:"pattern" json:"pattern"`
	Type    RuleType `yaml:"type" json:"type"`
	Scope   string   `yaml:"scope,omitempty" json:"scope,omitempty"`
}

// IsPrefix reports whether the pattern is a wildcard prefix match.
func (r Rule) IsPrefix() bool {
	return strings.HasSuffix(r.Pattern, WildcardSuffix)
}

// Prefix returns the pattern with the wildcard marker stripped.
func (r Rule) Prefix() string {
	return strings.TrimSuffix(r.Pattern, WildcardSuffix)
}

func (r Rule) Validate() error {
	pattern := strings.TrimSpace(r.Pattern)
	if pattern == "" {
		return errors.New("rule pattern cannot be empty")
	}
	if pattern == WildcardSuffix {
		return errors.New("rule pattern cannot be a bare wildcard")
	}
	if idx := strings.Index(pattern, WildcardSuffix); idx >= 0 && idx != len(pattern)-1 {
		return fmt.Errorf("wildcard is only allowed at the end of a pattern: %s", pattern)
	}

	switch r.Type {
	case RuleAllow, RuleBlock:
	default:
		return fmt.Errorf("invalid rule type: %s", r.Type)
	}
	return nil
}
