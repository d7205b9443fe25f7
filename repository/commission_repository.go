// Package repository holds the GORM-backed data access used by the services.
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"agency_ops/models"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// CommissionFilter narrows a commission listing.
type CommissionFilter struct {
	Month        *models.YearMonth // nil for every month
	TeamMemberID string            // empty for every team member
	IDs          []string          // restrict to these commission ids when non-empty
}

// CommissionStore is the data access the commission engine depends on.
type CommissionStore interface {
	// FindMetricsForMonth returns the metrics whose month falls in [ym.Start(), ym.End()],
	// each with its Client loaded.
	FindMetricsForMonth(ctx context.Context, ym models.YearMonth) ([]models.ClientMetric, error)
	// FindActiveRules returns active rules ordered by MinRoas ascending.
	FindActiveRules(ctx context.Context) ([]models.CommissionRule, error)
	// UpsertCommission inserts or overwrites the commission for its
	// (ClientID, TeamMemberID, Month) key and reloads c with the stored row.
	UpsertCommission(ctx context.Context, c *models.Commission) error
	// FindCommissions lists commissions with Client, TeamMember and Rule loaded,
	// ordered by team member name then client company name.
	FindCommissions(ctx context.Context, filter CommissionFilter) ([]models.Commission, error)
	// InTransaction runs fn against a store bound to a single transaction.
	InTransaction(ctx context.Context, fn func(store CommissionStore) error) error
}

// CommissionRepository implements CommissionStore with GORM.
type CommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository wraps db.
func NewCommissionRepository(db *gorm.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

// FindMetricsForMonth implements CommissionStore.
func (r *CommissionRepository) FindMetricsForMonth(ctx context.Context, ym models.YearMonth) ([]models.ClientMetric, error) {
	var metrics []models.ClientMetric
	err := r.db.WithContext(ctx).
		Preload("Client").
		Where("month BETWEEN ? AND ?", ym.Start(), ym.End()).
		Order("client_id ASC").
		Find(&metrics).Error
	if err != nil {
		return nil, err
	}
	return metrics, nil
}

// FindActiveRules implements CommissionStore.
func (r *CommissionRepository) FindActiveRules(ctx context.Context) ([]models.CommissionRule, error) {
	var rules []models.CommissionRule
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("min_roas ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// UpsertCommission implements CommissionStore.
func (r *CommissionRepository) UpsertCommission(ctx context.Context, c *models.Commission) error {
	db := r.db.WithContext(ctx)

	// ON CONFLICT on postgres/sqlite, ON DUPLICATE KEY on mysql; both rely on idx_commission_key
	err := db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "client_id"}, {Name: "team_member_id"}, {Name: "month"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"roas":        c.Roas,
			"media_spend": c.MediaSpend,
			"revenue":     c.Revenue,
			"percentage":  c.Percentage,
			"amount":      c.Amount,
			"rule_id":     c.RuleID,
			"updated_at":  time.Now(),
		}),
	}).Create(c).Error
	if err != nil {
		return err
	}

	// the generated id is discarded when the key already existed, so read into a
	// fresh value; First(c) would add the discarded id as a condition
	var stored models.Commission
	err = db.Where("client_id = ? AND team_member_id = ? AND month = ?", c.ClientID, c.TeamMemberID, c.Month).
		First(&stored).Error
	if err != nil {
		return err
	}
	*c = stored
	return nil
}

// FindCommissions implements CommissionStore.
func (r *CommissionRepository) FindCommissions(ctx context.Context, filter CommissionFilter) ([]models.Commission, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Select("commissions.*").
		Joins("JOIN team_members ON team_members.id = commissions.team_member_id").
		Joins("JOIN clients ON clients.id = commissions.client_id").
		Preload("Client").
		Preload("TeamMember").
		Preload("Rule")

	if filter.Month != nil {
		query = query.Where("commissions.month BETWEEN ? AND ?", filter.Month.Start(), filter.Month.End())
	}
	if filter.TeamMemberID != "" {
		query = query.Where("commissions.team_member_id = ?", filter.TeamMemberID)
	}
	if len(filter.IDs) > 0 {
		query = query.Where("commissions.id IN ?", filter.IDs)
	}

	var commissions []models.Commission
	err := query.
		Order("team_members.name ASC").
		Order("clients.company_name ASC").
		Order("commissions.month ASC").
		Find(&commissions).Error
	if err != nil {
		return nil, err
	}
	return commissions, nil
}

// InTransaction implements CommissionStore.
func (r *CommissionRepository) InTransaction(ctx context.Context, fn func(store CommissionStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&CommissionRepository{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
