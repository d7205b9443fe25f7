package repository

import (
	"context"

	"gorm.io/gorm"

	"agency_ops/models"
)

// RuleRepository manages commission rules for the rules administration endpoints.
type RuleRepository struct {
	db *gorm.DB
}

// NewRuleRepository wraps db.
func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// List returns rules ordered by MinRoas, optionally filtered by active state.
func (r *RuleRepository) List(ctx context.Context, query models.CommissionRuleQuery) ([]models.CommissionRule, error) {
	db := r.db.WithContext(ctx).Model(&models.CommissionRule{})
	if query.IsActive != nil {
		db = db.Where("is_active = ?", *query.IsActive)
	}

	var rules []models.CommissionRule
	if err := db.Order("min_roas ASC").Order("name ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// FindByID returns ErrNotFound when the rule does not exist.
func (r *RuleRepository) FindByID(ctx context.Context, id string) (*models.CommissionRule, error) {
	var rule models.CommissionRule
	if err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &rule, nil
}

// Create inserts a new rule.
func (r *RuleRepository) Create(ctx context.Context, rule *models.CommissionRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

// Save writes every column of an existing rule.
func (r *RuleRepository) Save(ctx context.Context, rule *models.CommissionRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

// Delete removes a rule. Commissions keep their snapshot and lose the rule reference.
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Commission{}).Where("rule_id = ?", id).Update("rule_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.CommissionRule{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
