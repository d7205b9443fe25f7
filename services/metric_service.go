package services

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"agency_ops/models"
	"agency_ops/repository"
)

// ErrClientNotFound is returned when a metric references an unknown client.
var ErrClientNotFound = errors.New("client not found")

// MetricStore is the metric persistence used by MetricService.
type MetricStore interface {
	FindClient(ctx context.Context, id string) (*models.Client, error)
	UpsertMetric(ctx context.Context, m *models.ClientMetric) error
}

// MetricService records the monthly metrics the commission engine reads.
type MetricService struct {
	store    MetricStore
	validate *validator.Validate
}

// NewMetricService creates a MetricService.
func NewMetricService(store MetricStore, validate *validator.Validate) *MetricService {
	if validate == nil {
		validate = validator.New()
	}
	return &MetricService{store: store, validate: validate}
}

// Record upserts the metric for (client, month). Recording a month again replaces it.
func (s *MetricService) Record(ctx context.Context, req models.ClientMetricRequest) (*models.ClientMetric, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	metric, err := req.ToMetric()
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	if _, err := s.store.FindClient(ctx, metric.ClientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, persistenceErr("load client", err)
	}

	if err := s.store.UpsertMetric(ctx, &metric); err != nil {
		return nil, persistenceErr("upsert client metric", err)
	}
	return &metric, nil
}
