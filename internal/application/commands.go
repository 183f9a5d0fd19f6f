package application

import (
	"fmt"

	"github.com/bnema/viewsync/internal/domain"
)

// EditCustomerCommand is a batch of field edits applied to a customer.
type EditCustomerCommand struct {
	Name  *string
	Email *string
	Phone *string
	Note  *string

	AddContacts []*domain.Contact
	// ContactWhere selects the contact ContactPatch applies to.
	ContactWhere string
	ContactPatch domain.ContactPatch
	RemoveContactAt *int
}

func (cmd EditCustomerCommand) Empty() bool {
	return cmd.Name == nil && cmd.Email == nil && cmd.Phone == nil && cmd.Note == nil &&
		len(cmd.AddContacts) == 0 && cmd.ContactWhere == "" && cmd.RemoveContactAt == nil
}

// Apply derives the edited customer. c is left untouched.
func (cmd EditCustomerCommand) Apply(c *domain.Customer) (*domain.Customer, error) {
	contacts := c.Contacts

	if cmd.RemoveContactAt != nil {
		next, err := contacts.RemoveAt(*cmd.RemoveContactAt)
		if err != nil {
			return nil, fmt.Errorf("remove contact: %w", err)
		}
		contacts = next
	}

	if cmd.ContactWhere != "" {
		match, err := ContactPredicate(cmd.ContactWhere)
		if err != nil {
			return nil, err
		}
		next, err := contacts.FromWhere(match, cmd.ContactPatch)
		if err != nil {
			return nil, fmt.Errorf("edit contact where %q: %w", cmd.ContactWhere, err)
		}
		contacts = next
	}

	if len(cmd.AddContacts) > 0 {
		contacts = contacts.AddMultiple(cmd.AddContacts...)
	}

	return c.From(domain.CustomerPatch{
		Name:     cmd.Name,
		Email:    cmd.Email,
		Phone:    cmd.Phone,
		Note:     cmd.Note,
		Contacts: &contacts,
	}), nil
}
