package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"agency_ops/models"
)

// MatchRule returns the first rule, in the given order, whose range contains roas.
// Rules are expected sorted by MinRoas ascending, so overlapping tiers resolve to the
// lowest floor. It returns nil when roas falls in a gap.
func MatchRule(rules []models.CommissionRule, roas decimal.Decimal) *models.CommissionRule {
	for i := range rules {
		if rules[i].Contains(roas) {
			return &rules[i]
		}
	}
	return nil
}

// TierIssueKind classifies a coverage problem between two adjacent tiers.
type TierIssueKind string

const (
	TierGap     TierIssueKind = "gap"
	TierOverlap TierIssueKind = "overlap"
)

// TierIssue describes a ROAS range that is either covered by no rule or by more than one.
type TierIssue struct {
	Kind    TierIssueKind    `json:"kind"`
	From    decimal.Decimal  `json:"from"`
	To      *decimal.Decimal `json:"to"` // nil when the range is unbounded above
	RuleIDs []string         `json:"rule_ids"`
}

// TierCoverage summarises how a rule set partitions ROAS space.
type TierCoverage struct {
	RuleCount      int             `json:"rule_count"`
	StartsAtZero   bool            `json:"starts_at_zero"`
	UnboundedAbove bool            `json:"unbounded_above"`
	Issues         []TierIssue     `json:"issues"`
	Complete       bool            `json:"complete"` // [0, inf) covered with no gap or overlap
	Floor          decimal.Decimal `json:"floor"`
}

// CheckTierCoverage reports gaps and overlaps between the active rules.
// It never changes how MatchRule resolves a value.
func CheckTierCoverage(rules []models.CommissionRule) TierCoverage {
	active := make([]models.CommissionRule, 0, len(rules))
	for _, r := range rules {
		if r.IsActive {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].MinRoas.LessThan(active[j].MinRoas)
	})

	cov := TierCoverage{RuleCount: len(active), Issues: []TierIssue{}}
	if len(active) == 0 {
		return cov
	}

	cov.Floor = active[0].MinRoas
	cov.StartsAtZero = active[0].MinRoas.IsZero()

	// reach is the upper edge covered so far; nil means unbounded
	reach := active[0].MaxRoas
	reachID := active[0].ID
	for _, r := range active[1:] {
		if reach == nil {
			cov.Issues = append(cov.Issues, TierIssue{
				Kind: TierOverlap, From: r.MinRoas, To: r.MaxRoas, RuleIDs: []string{reachID, r.ID},
			})
			continue
		}

		switch {
		case r.MinRoas.GreaterThan(*reach):
			to := r.MinRoas
			cov.Issues = append(cov.Issues, TierIssue{
				Kind: TierGap, From: *reach, To: &to, RuleIDs: []string{reachID, r.ID},
			})
		case r.MinRoas.LessThan(*reach):
			to := *reach
			if r.MaxRoas != nil && r.MaxRoas.LessThan(to) {
				to = *r.MaxRoas
			}
			cov.Issues = append(cov.Issues, TierIssue{
				Kind: TierOverlap, From: r.MinRoas, To: &to, RuleIDs: []string{reachID, r.ID},
			})
		}

		if r.MaxRoas == nil || r.MaxRoas.GreaterThan(*reach) {
			reach = r.MaxRoas
			reachID = r.ID
		}
	}

	cov.UnboundedAbove = reach == nil
	cov.Complete = cov.StartsAtZero && cov.UnboundedAbove && len(cov.Issues) == 0
	return cov
}
