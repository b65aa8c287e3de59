// Package policy implements the tier-based admission policy.
//
// The policy is driven entirely by an entity.Table: introducing a tier means
// adding a record, not a branch. Evaluate performs no I/O and never mutates
// the table, so a single Policy is safe for concurrent use.
package policy

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"indicator_backend/internal/feature/access/domain/entity"
	indentity "indicator_backend/internal/feature/indicators/domain/entity"
)

// UnknownTierReason is returned for tiers missing from the table.
const UnknownTierReason = "Unknown subscription tier."

type tierRule struct {
	cfg     entity.TierConfig
	display string
	only    string
}

// Policy evaluates requests against a fixed tier table.
type Policy struct {
	rules map[string]tierRule
}

// New builds a Policy from table. The table is copied; later changes to it have no effect.
func New(table entity.Table) *Policy {
	title := cases.Title(language.English)
	rules := make(map[string]tierRule, len(table))
	for name, cfg := range table {
		cfg.Indicators = append([]indentity.Indicator(nil), cfg.Indicators...)
		if cfg.MaxSpanDays != nil {
			v := *cfg.MaxSpanDays
			cfg.MaxSpanDays = &v
		}
		if cfg.MaxRequestsPerDay != nil {
			v := *cfg.MaxRequestsPerDay
			cfg.MaxRequestsPerDay = &v
		}
		rules[name] = tierRule{
			cfg:     cfg,
			display: title.String(name),
			only:    onlyPhrase(cfg.Indicators),
		}
	}
	return &Policy{rules: rules}
}

// Evaluate decides whether a caller in tier may request ind over [start, end]
// having already made usage admitted requests today.
func (p *Policy) Evaluate(tier string, ind indentity.Indicator, start, end time.Time, usage int64) entity.Decision {
	rule, ok := p.rules[tier]
	if !ok {
		return entity.Deny(entity.DenialPolicy, UnknownTierReason)
	}
	cfg := rule.cfg

	if !cfg.Allows(ind) {
		return entity.Deny(entity.DenialPolicy, fmt.Sprintf("%s tier: %s", rule.display, rule.only))
	}

	if cfg.MaxSpanDays != nil {
		if SpanDays(start, end) > *cfg.MaxSpanDays {
			return entity.Deny(entity.DenialPolicy, fmt.Sprintf("%s tier: %s", rule.display, spanPhrase(cfg)))
		}
	}

	if cfg.MaxRequestsPerDay != nil && usage >= int64(*cfg.MaxRequestsPerDay) {
		return entity.Deny(entity.DenialQuota,
			fmt.Sprintf("%s tier: Max %d requests per day reached.", rule.display, *cfg.MaxRequestsPerDay))
	}

	return entity.Allow()
}

// DailyLimit returns the tier's request ceiling and whether one is configured.
func (p *Policy) DailyLimit(tier string) (int64, bool) {
	rule, ok := p.rules[tier]
	if !ok || rule.cfg.MaxRequestsPerDay == nil {
		return 0, false
	}
	return int64(*rule.cfg.MaxRequestsPerDay), true
}

// SpanDays returns the whole calendar days from start to end. Equal dates give 0.
func SpanDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}

func spanPhrase(cfg entity.TierConfig) string {
	if cfg.SpanLabel != "" {
		return fmt.Sprintf("Max %s of data allowed.", cfg.SpanLabel)
	}
	return fmt.Sprintf("Max %d days of data allowed.", *cfg.MaxSpanDays)
}

// onlyPhrase renders the allowed set as "Only SMA and EMA allowed." for two
// indicators and "Only SMA, EMA, RSI, MACD allowed." for more.
func onlyPhrase(inds []indentity.Indicator) string {
	if len(inds) == 0 {
		return "No indicators allowed."
	}
	labels := make([]string, len(inds))
	for i, ind := range inds {
		labels[i] = ind.Label()
	}
	sep := ", "
	if len(labels) == 2 {
		sep = " and "
	}
	return fmt.Sprintf("Only %s allowed.", strings.Join(labels, sep))
}
