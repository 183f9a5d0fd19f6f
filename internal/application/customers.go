package application

import (
	"context"
	"fmt"

	"github.com/bnema/viewsync/internal/domain"
	"github.com/bnema/viewsync/internal/ports"
)

// CustomerStore adapts a customer gateway to the editor store contract.
type CustomerStore struct {
	gateway ports.CustomerGateway
}

var _ Store[*domain.Customer] = CustomerStore{}

func NewCustomerStore(gateway ports.CustomerGateway) CustomerStore {
	return CustomerStore{gateway: gateway}
}

func (s CustomerStore) New() *domain.Customer {
	return &domain.Customer{Contacts: domain.NewContacts()}
}

func (s CustomerStore) Load(ctx context.Context, id int64) (*domain.Customer, error) {
	resp, err := s.gateway.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.CustomerFromResponse(resp), nil
}

func (s CustomerStore) Save(ctx context.Context, id int64, c *domain.Customer) (*domain.Customer, error) {
	resp, err := s.gateway.Save(ctx, id, c.ToRequest())
	if err != nil {
		return nil, err
	}
	return domain.CustomerFromResponse(resp), nil
}

func (s CustomerStore) Delete(ctx context.Context, id int64) error {
	return s.gateway.Delete(ctx, id)
}

// CustomerEditor edits customers; server-managed timestamps never make a
// customer dirty.
type CustomerEditor = Editor[*domain.Customer]

func NewCustomerEditor(gateway ports.CustomerGateway, deps EditorDeps) *CustomerEditor {
	return NewEditor[*domain.Customer](NewCustomerStore(gateway), deps, "createdAt", "updatedAt")
}

// ListCustomers loads every customer and keeps those matching where. An
// empty where keeps all of them.
func ListCustomers(ctx context.Context, gateway ports.CustomerGateway, where string) ([]*domain.Customer, error) {
	match, err := CustomerPredicate(where)
	if err != nil {
		return nil, err
	}

	responses, err := gateway.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	customers := make([]*domain.Customer, 0, len(responses))
	for _, resp := range responses {
		c := domain.CustomerFromResponse(resp)
		if match(c) {
			customers = append(customers, c)
		}
	}
	return customers, nil
}
