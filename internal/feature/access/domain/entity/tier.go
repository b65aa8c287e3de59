// Package entity defines the domain models for subscription tiers and access decisions.
package entity

import indentity "indicator_backend/internal/feature/indicators/domain/entity"

// DenialKind classifies why a request was refused.
type DenialKind string

const (
	// DenialNone marks an allowed request.
	DenialNone DenialKind = ""
	// DenialPolicy is a permanent rejection: the tier does not permit the indicator or span.
	DenialPolicy DenialKind = "policy"
	// DenialQuota is a retry-later rejection: the daily request budget is used up.
	DenialQuota DenialKind = "quota"
)

// Decision is the outcome of evaluating a request against a tier.
type Decision struct {
	Allowed bool
	Denial  DenialKind
	Reason  string
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a refusing decision of the given kind.
func Deny(kind DenialKind, reason string) Decision {
	return Decision{Denial: kind, Reason: reason}
}

// TierConfig is the capability and limit record of one subscription tier.
// Nil limits mean the tier is not restricted on that axis.
type TierConfig struct {
	Name              string
	Indicators        []indentity.Indicator
	MaxSpanDays       *int
	SpanLabel         string // Human wording of the span limit, e.g. "3 months"
	MaxRequestsPerDay *int
}

// Allows reports whether ind is in the tier's allowed set.
func (c TierConfig) Allows(ind indentity.Indicator) bool {
	for _, allowed := range c.Indicators {
		if allowed == ind {
			return true
		}
	}
	return false
}

// Table maps tier names to their configuration.
type Table map[string]TierConfig
