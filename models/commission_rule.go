package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// CommissionRule is one commission tier: a half-open ROAS range [MinRoas, MaxRoas)
// mapped to a flat percentage of revenue. A nil MaxRoas leaves the tier unbounded above.
type CommissionRule struct {
	ID         string           `json:"id" gorm:"primaryKey;size:36"`                 // UUID
	Name       string           `json:"name" gorm:"size:100;not null"`                // tier name, e.g. "Level 1"
	MinRoas    decimal.Decimal  `json:"min_roas" gorm:"type:decimal(10,4);not null"`  // inclusive lower bound
	MaxRoas    *decimal.Decimal `json:"max_roas" gorm:"type:decimal(10,4)"`           // exclusive upper bound, nil = unbounded
	Percentage decimal.Decimal  `json:"percentage" gorm:"type:decimal(5,2);not null"` // 0-100
	IsActive   bool             `json:"is_active" gorm:"not null;index"`              // only active rules take part in calculations
	CreatedAt  time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name
func (CommissionRule) TableName() string {
	return "commission_rules"
}

// BeforeCreate assigns a UUID when none was set.
func (r *CommissionRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Contains reports whether roas falls inside the rule's range.
// The lower bound is inclusive and the upper bound exclusive, so a value equal to
// MaxRoas belongs to the next tier.
func (r *CommissionRule) Contains(roas decimal.Decimal) bool {
	if roas.LessThan(r.MinRoas) {
		return false
	}
	return r.MaxRoas == nil || roas.LessThan(*r.MaxRoas)
}

// CommissionOn returns revenue * percentage / 100 rounded to cents.
func (r *CommissionRule) CommissionOn(revenue decimal.Decimal) decimal.Decimal {
	return revenue.Mul(r.Percentage).Div(hundred).Round(2)
}

// Rule validation errors.
var (
	ErrNegativeMinRoas      = errors.New("min_roas must not be negative")
	ErrMaxRoasNotAboveMin   = errors.New("max_roas must be greater than min_roas")
	ErrPercentageOutOfRange = errors.New("percentage must be between 0 and 100")
)

// Validate checks the numeric invariants of a rule.
func (r *CommissionRule) Validate() error {
	if r.MinRoas.IsNegative() {
		return ErrNegativeMinRoas
	}
	if r.MaxRoas != nil && !r.MaxRoas.GreaterThan(r.MinRoas) {
		return ErrMaxRoasNotAboveMin
	}
	if r.Percentage.IsNegative() || r.Percentage.GreaterThan(hundred) {
		return ErrPercentageOutOfRange
	}
	return nil
}

// Enable makes the rule take part in calculations.
func (r *CommissionRule) Enable() {
	r.IsActive = true
}

// Disable takes the rule out of future calculations. Commissions already
// calculated with it keep their snapshot.
func (r *CommissionRule) Disable() {
	r.IsActive = false
}

// CommissionRuleQuery filters the rule listing.
type CommissionRuleQuery struct {
	IsActive *bool `json:"is_active" query:"active"` // nil lists every rule
}

// CommissionRuleRequest is the body accepted when creating or replacing a rule.
type CommissionRuleRequest struct {
	Name       string           `json:"name" validate:"required,max=100"` // tier name, required
	MinRoas    decimal.Decimal  `json:"min_roas"`                         // inclusive lower bound
	MaxRoas    *decimal.Decimal `json:"max_roas"`                         // exclusive upper bound, null = unbounded
	Percentage decimal.Decimal  `json:"percentage"`                       // 0-100
	IsActive   *bool            `json:"is_active"`                        // defaults to true on create
}

// ApplyTo copies the request onto rule and validates the result.
func (req *CommissionRuleRequest) ApplyTo(rule *CommissionRule) error {
	rule.Name = req.Name
	rule.MinRoas = req.MinRoas
	rule.MaxRoas = req.MaxRoas
	rule.Percentage = req.Percentage
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	return rule.Validate()
}
