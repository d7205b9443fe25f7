package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"agency_ops/models"
	"agency_ops/repository"
)

// fakeStore is an in-memory CommissionStore. Transactions snapshot the commission
// table and restore it when the callback fails.
type fakeStore struct {
	mu          sync.Mutex
	members     map[string]models.TeamMember
	clients     map[string]models.Client
	metrics     []models.ClientMetric
	rules       []models.CommissionRule
	commissions map[string]models.Commission // keyed by client|member|month
	nextID      int
	upserts     int
	failUpsert  int // fail the n-th upsert (1-based); 0 never fails
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:     make(map[string]models.TeamMember),
		clients:     make(map[string]models.Client),
		commissions: make(map[string]models.Commission),
	}
}

func (f *fakeStore) addMember(id, name string) {
	f.members[id] = models.TeamMember{ID: id, Name: name, Role: "TRAFFIC", IsActive: true}
}

func (f *fakeStore) addClient(id, name string, managerID *string) {
	f.clients[id] = models.Client{ID: id, CompanyName: name, TrafficManagerID: managerID}
}

func (f *fakeStore) addMetric(clientID string, month time.Time, roas, revenue string) {
	f.metrics = append(f.metrics, models.ClientMetric{
		ID:         fmt.Sprintf("metric-%d", len(f.metrics)+1),
		ClientID:   clientID,
		Month:      month,
		Roas:       decimal.RequireFromString(roas),
		MediaSpend: decimal.NewFromInt(1000),
		Revenue:    decimal.RequireFromString(revenue),
	})
}

func (f *fakeStore) setRevenue(clientID, revenue string) {
	for i := range f.metrics {
		if f.metrics[i].ClientID == clientID {
			f.metrics[i].Revenue = decimal.RequireFromString(revenue)
		}
	}
}

func (f *fakeStore) commissionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.commissions)
}

func (f *fakeStore) commissionFor(clientID, memberID string, month time.Time) (models.Commission, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.commissions[commissionKey(clientID, memberID, month)]
	return c, ok
}

func commissionKey(clientID, memberID string, month time.Time) string {
	return clientID + "|" + memberID + "|" + month.UTC().Format(time.RFC3339)
}

func (f *fakeStore) FindMetricsForMonth(ctx context.Context, ym models.YearMonth) ([]models.ClientMetric, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.ClientMetric
	for _, m := range f.metrics {
		if m.Month.Before(ym.Start()) || m.Month.After(ym.End()) {
			continue
		}
		client := f.clients[m.ClientID]
		m.Client = &client
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeStore) FindActiveRules(ctx context.Context) ([]models.CommissionRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.CommissionRule
	for _, r := range f.rules {
		if r.IsActive {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MinRoas.LessThan(out[j].MinRoas) })
	return out, nil
}

func (f *fakeStore) UpsertCommission(ctx context.Context, c *models.Commission) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.upserts++
	if f.failUpsert > 0 && f.upserts == f.failUpsert {
		return errors.New("connection reset")
	}

	// like the GORM store: a fresh id is generated, then discarded on conflict
	if c.ID == "" {
		f.nextID++
		c.ID = fmt.Sprintf("commission-%d", f.nextID)
	}

	key := commissionKey(c.ClientID, c.TeamMemberID, c.Month)
	stored := *c
	stored.UpdatedAt = time.Now()
	if existing, ok := f.commissions[key]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = stored.UpdatedAt
	}
	f.commissions[key] = stored

	*c = stored
	return nil
}

func (f *fakeStore) FindCommissions(ctx context.Context, filter repository.CommissionFilter) ([]models.Commission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make(map[string]bool, len(filter.IDs))
	for _, id := range filter.IDs {
		ids[id] = true
	}

	var out []models.Commission
	for _, c := range f.commissions {
		if len(ids) > 0 && !ids[c.ID] {
			continue
		}
		if filter.TeamMemberID != "" && c.TeamMemberID != filter.TeamMemberID {
			continue
		}
		if filter.Month != nil && (c.Month.Before(filter.Month.Start()) || c.Month.After(filter.Month.End())) {
			continue
		}

		member := f.members[c.TeamMemberID]
		client := f.clients[c.ClientID]
		c.TeamMember = &member
		c.Client = &client
		for i := range f.rules {
			if c.RuleID != nil && f.rules[i].ID == *c.RuleID {
				rule := f.rules[i]
				c.Rule = &rule
			}
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TeamMember.Name != out[j].TeamMember.Name {
			return out[i].TeamMember.Name < out[j].TeamMember.Name
		}
		return out[i].Client.CompanyName < out[j].Client.CompanyName
	})
	return out, nil
}

func (f *fakeStore) InTransaction(ctx context.Context, fn func(store repository.CommissionStore) error) error {
	f.mu.Lock()
	snapshot := make(map[string]models.Commission, len(f.commissions))
	for k, v := range f.commissions {
		snapshot[k] = v
	}
	f.mu.Unlock()

	if err := fn(f); err != nil {
		f.mu.Lock()
		f.commissions = snapshot
		f.mu.Unlock()
		return err
	}
	return nil
}
