package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Client is an agency customer account.
// Only the fields the commission workflow reads are modelled here; the full
// client record is owned by the client-management collaborator.
type Client struct {
	ID               string      `json:"id" gorm:"primaryKey;size:36"`                // UUID
	CompanyName      string      `json:"company_name" gorm:"size:200;not null;index"` // company name, used for ordering
	TrafficManagerID *string     `json:"traffic_manager_id" gorm:"size:36;index"`     // assigned traffic manager, nil when unassigned
	TrafficManager   *TeamMember `json:"traffic_manager,omitempty" gorm:"foreignKey:TrafficManagerID"`
	CreatedAt        time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name
func (Client) TableName() string {
	return "clients"
}

// BeforeCreate assigns a UUID when none was set.
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// HasTrafficManager reports whether someone is assigned to earn this client's commission.
func (c *Client) HasTrafficManager() bool {
	return c.TrafficManagerID != nil && *c.TrafficManagerID != ""
}

// ClientMetric holds one month of ad performance for a client.
// Rows are produced by the metrics ingestion process, one per client per month.
type ClientMetric struct {
	ID         string          `json:"id" gorm:"primaryKey;size:36"`
	ClientID   string          `json:"client_id" gorm:"size:36;not null;uniqueIndex:idx_client_metric_month"`
	Client     *Client         `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Month      time.Time       `json:"month" gorm:"type:date;not null;uniqueIndex:idx_client_metric_month"` // first day of the month, UTC
	Roas       decimal.Decimal `json:"roas" gorm:"type:decimal(10,4);not null"`                             // revenue / media spend
	MediaSpend decimal.Decimal `json:"media_spend" gorm:"type:decimal(14,2);not null"`
	Revenue    decimal.Decimal `json:"revenue" gorm:"type:decimal(14,2);not null"`
	CreatedAt  time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name
func (ClientMetric) TableName() string {
	return "client_metrics"
}

// BeforeCreate assigns a UUID when none was set.
func (m *ClientMetric) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// ClientMetricRequest is the body pushed by the metrics ingestion process.
type ClientMetricRequest struct {
	ClientID   string          `json:"client_id" validate:"required,max=36"`
	Month      string          `json:"month" validate:"required"` // YYYY-MM
	Roas       decimal.Decimal `json:"roas"`
	MediaSpend decimal.Decimal `json:"media_spend"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// ErrNegativeMetric is returned for metrics with negative roas, spend or revenue.
var ErrNegativeMetric = errors.New("roas, media_spend and revenue must not be negative")

// ToMetric converts the request into a metric row keyed by the first day of the month.
func (req *ClientMetricRequest) ToMetric() (ClientMetric, error) {
	ym, err := ParseYearMonth(req.Month)
	if err != nil {
		return ClientMetric{}, err
	}
	if req.Roas.IsNegative() || req.MediaSpend.IsNegative() || req.Revenue.IsNegative() {
		return ClientMetric{}, ErrNegativeMetric
	}

	return ClientMetric{
		ClientID:   req.ClientID,
		Month:      ym.Start(),
		Roas:       req.Roas,
		MediaSpend: req.MediaSpend,
		Revenue:    req.Revenue,
	}, nil
}
