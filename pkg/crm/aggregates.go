package crm

import (
	"context"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/query"
)

// OverviewMetrics returns the dashboard overview. Failures are returned.
func (s *Service) OverviewMetrics(ctx context.Context) (actor.OverviewMetrics, error) {
	return read(ctx, s, readSpec[actor.OverviewMetrics]{
		entity: "overview metrics",
		key:    k(keyOverviewMetrics),
		opts:   query.Options{StaleTime: listStaleTime, Retry: true},
		fetch: func(ctx context.Context, c actor.Client) (actor.OverviewMetrics, error) {
			return c.GetOverviewMetrics(ctx)
		},
		policy: propagateOnError,
		toast:  "Failed to load dashboard metrics",
	})
}

// CRMDashboardData returns the bulk export of every collection.
func (s *Service) CRMDashboardData(ctx context.Context) (actor.CRMDashboardData, error) {
	return read(ctx, s, readSpec[actor.CRMDashboardData]{
		entity: "CRM dashboard data",
		key:    k(keyCRMDashboardData),
		opts:   query.Options{StaleTime: listStaleTime, Retry: true},
		fetch: func(ctx context.Context, c actor.Client) (actor.CRMDashboardData, error) {
			return c.GetCRMDashboardData(ctx)
		},
		policy: propagateOnError,
	})
}

// CustomerPanels returns the customer queries split by line of business.
func (s *Service) CustomerPanels(ctx context.Context) (actor.CustomerPanels, error) {
	return read(ctx, s, readSpec[actor.CustomerPanels]{
		entity: "customer panels",
		key:    k(keyCustomerPanels),
		opts:   query.Options{StaleTime: listStaleTime},
		fetch: func(ctx context.Context, c actor.Client) (actor.CustomerPanels, error) {
			return c.GetCustomerPanels(ctx)
		},
		fallback: actor.CustomerPanels{
			RentPanel:     []actor.CustomerQuery{},
			SalesPanel:    []actor.CustomerQuery{},
			InteriorPanel: []actor.CustomerQuery{},
		},
	})
}
