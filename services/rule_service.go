package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"agency_ops/models"
	"agency_ops/repository"
)

// ErrRuleNotFound is returned when the requested rule does not exist.
var ErrRuleNotFound = errors.New("commission rule not found")

// RuleStore is the rule persistence used by RuleService.
type RuleStore interface {
	List(ctx context.Context, query models.CommissionRuleQuery) ([]models.CommissionRule, error)
	FindByID(ctx context.Context, id string) (*models.CommissionRule, error)
	Create(ctx context.Context, rule *models.CommissionRule) error
	Save(ctx context.Context, rule *models.CommissionRule) error
	Delete(ctx context.Context, id string) error
}

// RuleService administers the commission tiers.
type RuleService struct {
	store    RuleStore
	validate *validator.Validate
	logger   *slog.Logger
}

// NewRuleService creates a RuleService. A nil logger falls back to slog.Default().
func NewRuleService(store RuleStore, validate *validator.Validate, logger *slog.Logger) *RuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleService{store: store, validate: validate, logger: logger}
}

// List returns rules ordered by MinRoas.
func (s *RuleService) List(ctx context.Context, query models.CommissionRuleQuery) ([]models.CommissionRule, error) {
	rules, err := s.store.List(ctx, query)
	if err != nil {
		return nil, persistenceErr("list commission rules", err)
	}
	return rules, nil
}

// Get returns one rule.
func (s *RuleService) Get(ctx context.Context, id string) (*models.CommissionRule, error) {
	rule, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupErr(err)
	}
	return rule, nil
}

// Create validates and stores a new rule. Rules are active unless the request says otherwise.
func (s *RuleService) Create(ctx context.Context, req models.CommissionRuleRequest) (*models.CommissionRule, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	rule := &models.CommissionRule{IsActive: true}
	if err := req.ApplyTo(rule); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	if err := s.store.Create(ctx, rule); err != nil {
		return nil, persistenceErr("create commission rule", err)
	}

	s.logger.Info("commission rule created", slog.String("rule_id", rule.ID), slog.String("name", rule.Name))
	return rule, nil
}

// Update replaces the editable fields of a rule.
func (s *RuleService) Update(ctx context.Context, id string, req models.CommissionRuleRequest) (*models.CommissionRule, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	rule, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupErr(err)
	}
	if err := req.ApplyTo(rule); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	if err := s.store.Save(ctx, rule); err != nil {
		return nil, persistenceErr("update commission rule", err)
	}
	return rule, nil
}

// SetActive activates or deactivates a rule.
func (s *RuleService) SetActive(ctx context.Context, id string, active bool) (*models.CommissionRule, error) {
	rule, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupErr(err)
	}

	if active {
		rule.Enable()
	} else {
		rule.Disable()
	}
	if err := s.store.Save(ctx, rule); err != nil {
		return nil, persistenceErr("update commission rule", err)
	}
	return rule, nil
}

// Delete removes a rule.
func (s *RuleService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return s.lookupErr(err)
	}
	s.logger.Info("commission rule deleted", slog.String("rule_id", id))
	return nil
}

// Coverage reports gaps and overlaps among the active rules.
func (s *RuleService) Coverage(ctx context.Context) (TierCoverage, error) {
	active := true
	rules, err := s.store.List(ctx, models.CommissionRuleQuery{IsActive: &active})
	if err != nil {
		return TierCoverage{}, persistenceErr("list commission rules", err)
	}
	return CheckTierCoverage(rules), nil
}

func (s *RuleService) validateRequest(req models.CommissionRuleRequest) error {
	if err := s.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ValidationError{Field: fe.Field(), Message: fe.Field() + " is invalid (" + fe.Tag() + ")"}
		}
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

func (s *RuleService) lookupErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrRuleNotFound
	}
	return persistenceErr("load commission rule", err)
}
