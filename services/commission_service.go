// Package services implements the business operations behind the HTTP handlers.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"agency_ops/lock"
	"agency_ops/models"
	"agency_ops/repository"
)

// CalculationResult is returned by CalculateCommissions.
type CalculationResult struct {
	Calculated  int                 `json:"calculated"` // commissions written in this run
	Month       string              `json:"month"`      // YYYY-MM
	Commissions []models.Commission `json:"commissions"`
}

// TeamMemberCommissions groups one team member's commissions.
type TeamMemberCommissions struct {
	TeamMemberID string              `json:"team_member_id"`
	Name         string              `json:"name"`
	Role         string              `json:"role"`
	Total        decimal.Decimal     `json:"total"`
	Commissions  []models.Commission `json:"commissions"`
}

// CommissionSummary is the per-team-member view of a month.
type CommissionSummary struct {
	Month       string                  `json:"month,omitempty"`
	Total       decimal.Decimal         `json:"total"`
	TeamMembers []TeamMemberCommissions `json:"team_members"`
}

// CommissionService calculates and lists monthly ROAS commissions.
type CommissionService struct {
	store  repository.CommissionStore
	locker lock.Locker
	logger *slog.Logger
}

// NewCommissionService wires the engine to its store and month locker.
// A nil logger falls back to slog.Default().
func NewCommissionService(store repository.CommissionStore, locker lock.Locker, logger *slog.Logger) *CommissionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommissionService{
		store:  store,
		locker: locker,
		logger: logger.With(slog.String("component", "commission_engine")),
	}
}

// CalculateCommissions computes and upserts the commissions of one month ("YYYY-MM").
//
// A run goes through these steps:
//  1. parse the month, failing with a ValidationError when it is empty or malformed
//  2. take the month lock so concurrent runs for the same month are serialized
//  3. inside one transaction, load the month's metrics and the active rules ordered
//     by MinRoas, failing with ErrNoActiveRules when there is none
//  4. for each metric, match the first rule containing its ROAS and upsert one
//     commission keyed by (client, traffic manager, month)
//  5. reload the written commissions with client, team member and rule for display
//
// Metrics whose client has no traffic manager, or whose ROAS falls outside every active
// tier, are skipped without error. Any store failure rolls back every write of the run
// and is returned as a PersistenceError.
func (s *CommissionService) CalculateCommissions(ctx context.Context, month string) (*CalculationResult, error) {
	ym, err := parseMonth(month)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, "commissions:"+ym.String())
	if err != nil {
		return nil, fmt.Errorf("lock month %s: %w", ym, err)
	}
	defer unlock()

	result := &CalculationResult{Month: ym.String(), Commissions: []models.Commission{}}
	skipped := 0

	err = s.store.InTransaction(ctx, func(store repository.CommissionStore) error {
		metrics, err := store.FindMetricsForMonth(ctx, ym)
		if err != nil {
			return persistenceErr("load client metrics", err)
		}

		rules, err := store.FindActiveRules(ctx)
		if err != nil {
			return persistenceErr("load commission rules", err)
		}
		if len(rules) == 0 {
			return ErrNoActiveRules
		}

		ids := make([]string, 0, len(metrics))
		for _, metric := range metrics {
			commission, reason := s.buildCommission(metric, rules, ym)
			if commission == nil {
				skipped++
				s.logger.Debug("metric skipped",
					slog.String("month", ym.String()),
					slog.String("client_id", metric.ClientID),
					slog.String("reason", reason),
				)
				continue
			}

			if err := store.UpsertCommission(ctx, commission); err != nil {
				return persistenceErr("upsert commission", err)
			}
			ids = append(ids, commission.ID)
		}
		result.Calculated = len(ids)

		if len(ids) == 0 {
			return nil
		}
		commissions, err := store.FindCommissions(ctx, repository.CommissionFilter{IDs: ids})
		if err != nil {
			return persistenceErr("reload commissions", err)
		}
		result.Commissions = commissions
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("commissions calculated",
		slog.String("month", ym.String()),
		slog.Int("calculated", result.Calculated),
		slog.Int("skipped", skipped),
	)
	return result, nil
}

// buildCommission returns nil and the skip reason when metric earns no commission.
func (s *CommissionService) buildCommission(metric models.ClientMetric, rules []models.CommissionRule, ym models.YearMonth) (*models.Commission, string) {
	if metric.Client == nil || !metric.Client.HasTrafficManager() {
		return nil, "no traffic manager assigned"
	}

	rule := MatchRule(rules, metric.Roas)
	if rule == nil {
		return nil, "roas outside every active tier"
	}

	ruleID := rule.ID
	return &models.Commission{
		ClientID:     metric.ClientID,
		TeamMemberID: *metric.Client.TrafficManagerID,
		Month:        ym.Start(),
		Roas:         metric.Roas,
		MediaSpend:   metric.MediaSpend,
		Revenue:      metric.Revenue,
		Percentage:   rule.Percentage,
		Amount:       rule.CommissionOn(metric.Revenue),
		RuleID:       &ruleID,
	}, ""
}

// ListCommissions returns commissions for display, optionally limited to one month
// and one team member, ordered by team member name then client name.
func (s *CommissionService) ListCommissions(ctx context.Context, query models.CommissionQuery) ([]models.Commission, error) {
	filter, err := commissionFilter(query)
	if err != nil {
		return nil, err
	}
	return s.findCommissions(ctx, filter)
}

// SummarizeByTeamMember groups the listed commissions per team member with totals.
func (s *CommissionService) SummarizeByTeamMember(ctx context.Context, query models.CommissionQuery) (*CommissionSummary, error) {
	filter, err := commissionFilter(query)
	if err != nil {
		return nil, err
	}
	commissions, err := s.findCommissions(ctx, filter)
	if err != nil {
		return nil, err
	}

	summary := &CommissionSummary{Total: decimal.Zero, TeamMembers: []TeamMemberCommissions{}}
	if filter.Month != nil {
		summary.Month = filter.Month.String()
	}

	index := make(map[string]int)
	for _, c := range commissions {
		i, ok := index[c.TeamMemberID]
		if !ok {
			group := TeamMemberCommissions{TeamMemberID: c.TeamMemberID, Total: decimal.Zero}
			if c.TeamMember != nil {
				group.Name = c.TeamMember.Name
				group.Role = c.TeamMember.Role
			}
			summary.TeamMembers = append(summary.TeamMembers, group)
			i = len(summary.TeamMembers) - 1
			index[c.TeamMemberID] = i
		}

		group := &summary.TeamMembers[i]
		group.Commissions = append(group.Commissions, c)
		group.Total = group.Total.Add(c.Amount)
		summary.Total = summary.Total.Add(c.Amount)
	}

	return summary, nil
}

func (s *CommissionService) findCommissions(ctx context.Context, filter repository.CommissionFilter) ([]models.Commission, error) {
	commissions, err := s.store.FindCommissions(ctx, filter)
	if err != nil {
		return nil, persistenceErr("list commissions", err)
	}
	return commissions, nil
}

// commissionFilter turns a listing query into a store filter, validating the month.
func commissionFilter(query models.CommissionQuery) (repository.CommissionFilter, error) {
	filter := repository.CommissionFilter{TeamMemberID: query.TeamMemberID}
	if query.Month != "" {
		ym, err := parseMonth(query.Month)
		if err != nil {
			return repository.CommissionFilter{}, err
		}
		filter.Month = &ym
	}
	return filter, nil
}

func parseMonth(month string) (models.YearMonth, error) {
	ym, err := models.ParseYearMonth(month)
	if err != nil {
		return models.YearMonth{}, &ValidationError{Field: "month", Message: err.Error()}
	}
	return ym, nil
}
