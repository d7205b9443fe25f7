package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Commission is the monthly commission a team member earns on one client.
// (ClientID, TeamMemberID, Month) is the natural key: recalculating a month
// overwrites the metric snapshot and amount in place.
type Commission struct {
	ID           string          `json:"id" gorm:"primaryKey;size:36"`
	ClientID     string          `json:"client_id" gorm:"size:36;not null;uniqueIndex:idx_commission_key"`
	TeamMemberID string          `json:"team_member_id" gorm:"size:36;not null;uniqueIndex:idx_commission_key;index"`
	Month        time.Time       `json:"month" gorm:"type:date;not null;uniqueIndex:idx_commission_key"` // first day of the month, UTC
	Roas         decimal.Decimal `json:"roas" gorm:"type:decimal(10,4);not null"`                        // snapshot of the metric
	MediaSpend   decimal.Decimal `json:"media_spend" gorm:"type:decimal(14,2);not null"`                 // snapshot of the metric
	Revenue      decimal.Decimal `json:"revenue" gorm:"type:decimal(14,2);not null"`                     // snapshot of the metric
	Percentage   decimal.Decimal `json:"percentage" gorm:"type:decimal(5,2);not null"`                   // percentage of the matched rule
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(14,2);not null"`                      // revenue * percentage / 100
	RuleID       *string         `json:"rule_id" gorm:"size:36;index"`                                   // matched rule, kept nullable so rules can be deleted
	CreatedAt    time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `json:"updated_at" gorm:"autoUpdateTime"`

	Client     *Client         `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	TeamMember *TeamMember     `json:"team_member,omitempty" gorm:"foreignKey:TeamMemberID"`
	Rule       *CommissionRule `json:"rule,omitempty" gorm:"foreignKey:RuleID;constraint:OnDelete:SET NULL"`
}

// TableName returns the table name
func (Commission) TableName() string {
	return "commissions"
}

// BeforeCreate assigns a UUID when none was set.
func (c *Commission) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CommissionQuery filters the commission listing.
type CommissionQuery struct {
	Month        string `json:"month" query:"month"`                   // YYYY-MM, empty for all months
	TeamMemberID string `json:"team_member_id" query:"team_member_id"` // optional
}
