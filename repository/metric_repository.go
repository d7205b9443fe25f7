package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"agency_ops/models"
)

// MetricRepository stores client metrics pushed by the ingestion process.
type MetricRepository struct {
	db *gorm.DB
}

// NewMetricRepository wraps db.
func NewMetricRepository(db *gorm.DB) *MetricRepository {
	return &MetricRepository{db: db}
}

// FindClient returns ErrNotFound when the client does not exist.
func (r *MetricRepository) FindClient(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).First(&client, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &client, nil
}

// UpsertMetric inserts or replaces the metric for (ClientID, Month) and reloads m.
func (r *MetricRepository) UpsertMetric(ctx context.Context, m *models.ClientMetric) error {
	db := r.db.WithContext(ctx)

	err := db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "client_id"}, {Name: "month"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"roas":        m.Roas,
			"media_spend": m.MediaSpend,
			"revenue":     m.Revenue,
			"updated_at":  time.Now(),
		}),
	}).Create(m).Error
	if err != nil {
		return err
	}

	var stored models.ClientMetric
	if err := db.Where("client_id = ? AND month = ?", m.ClientID, m.Month).First(&stored).Error; err != nil {
		return err
	}
	*m = stored
	return nil
}

// FindByClient returns the latest metrics of a client, newest month first.
func (r *MetricRepository) FindByClient(ctx context.Context, clientID string, limit int) ([]models.ClientMetric, error) {
	if limit <= 0 {
		limit = 12
	}

	var metrics []models.ClientMetric
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("month DESC").
		Limit(limit).
		Find(&metrics).Error
	if err != nil {
		return nil, err
	}
	return metrics, nil
}
