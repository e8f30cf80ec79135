package crm

import (
	"context"

	"github.com/txn2/realty-crm/pkg/actor"
	"github.com/txn2/realty-crm/pkg/query"
)

// CustomersPage returns one page of customers. Each page is cached on its own.
func (s *Service) CustomersPage(ctx context.Context, index, size uint64) (actor.Page[actor.Customer], error) {
	return read(ctx, s, readSpec[actor.Page[actor.Customer]]{
		entity: "customers",
		key:    k(keyCustomers, segPaginated, index, size),
		opts:   query.Options{StaleTime: listStaleTime},
		fetch: func(ctx context.Context, c actor.Client) (actor.Page[actor.Customer], error) {
			return c.GetAllCustomers(ctx, pageRequest(index, size))
		},
		fallback: emptyPage[actor.Customer](),
		toast:    "Failed to load customers",
	})
}

// AllCustomers returns every customer.
func (s *Service) AllCustomers(ctx context.Context) ([]actor.Customer, error) {
	return read(ctx, s, readSpec[[]actor.Customer]{
		entity: "customers",
		key:    k(keyCustomers),
		fetch: func(ctx context.Context, c actor.Client) ([]actor.Customer, error) {
			page, err := c.GetAllCustomers(ctx, nil)
			return page.Items, err
		},
		fallback: []actor.Customer{},
		toast:    "Failed to load customers",
	})
}

// Customer returns one customer, or nil.
func (s *Service) Customer(ctx context.Context, id actor.ID) (*actor.Customer, error) {
	return read(ctx, s, readSpec[*actor.Customer]{
		entity: "customer",
		key:    k(keyCustomer, id),
		opts:   query.Options{Disabled: id == 0},
		fetch: func(ctx context.Context, c actor.Client) (*actor.Customer, error) {
			return c.GetCustomer(ctx, id)
		},
	})
}

// AddCustomer creates a customer.
func (s *Service) AddCustomer(ctx context.Context, customer actor.Customer) (actor.ID, error) {
	return write(ctx, s, writeSpec{
		name:    mutAddCustomer,
		success: "Customer added successfully",
		failure: "Failed to add customer",
	}, func(ctx context.Context, c actor.Client) (actor.ID, error) {
		return c.AddCustomer(ctx, customer)
	})
}

// UpdateCustomer replaces a customer.
func (s *Service) UpdateCustomer(ctx context.Context, id actor.ID, customer actor.Customer) error {
	return exec(ctx, s, writeSpec{
		name:    mutUpdateCustomer,
		success: "Customer updated successfully",
		failure: "Failed to update customer",
	}, func(ctx context.Context, c actor.Client) error {
		return c.UpdateCustomer(ctx, id, customer)
	})
}
