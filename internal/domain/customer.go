package domain

import (
	"strconv"
	"strings"
	"time"
)

// ResourceTypeCustomer is the presence resource type for customers.
const ResourceTypeCustomer = "customer"

// Customer is the editable customer model. Values are treated as immutable;
// derive changes with From. CreatedAt and UpdatedAt are display-only and are
// never sent back to the server.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Note      string    `json:"note"`
	Contacts  Contacts  `json:"contacts"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CustomerPatch struct {
	ID        *int64
	Name      *string
	Email     *string
	Phone     *string
	Note      *string
	Contacts  *Contacts
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

func (c *Customer) From(p CustomerPatch) *Customer {
	next := *c
	if p.ID != nil {
		next.ID = *p.ID
	}
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Email != nil {
		next.Email = *p.Email
	}
	if p.Phone != nil {
		next.Phone = *p.Phone
	}
	if p.Note != nil {
		next.Note = *p.Note
	}
	if p.Contacts != nil {
		next.Contacts = *p.Contacts
	}
	if p.CreatedAt != nil {
		next.CreatedAt = *p.CreatedAt
	}
	if p.UpdatedAt != nil {
		next.UpdatedAt = *p.UpdatedAt
	}
	return &next
}

// DisplayName is the name shown in lists and presence banners.
func (c *Customer) DisplayName() string {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return "(unnamed customer)"
	}
	return name
}

// PrimaryContact returns the first contact flagged as primary.
func (c *Customer) PrimaryContact() (*Contact, bool) {
	i := c.Contacts.IndexWhere(func(contact *Contact) bool { return contact.Primary })
	if i < 0 {
		return nil, false
	}
	return c.Contacts.At(i)
}

// Resource returns the presence descriptor for this customer.
func (c *Customer) Resource(mode AccessMode) Resource {
	return Resource{Type: ResourceTypeCustomer, PrimaryID: c.ID, Mode: mode}
}

func (c *Customer) Validate() error {
	verr := NewValidationError()
	if strings.TrimSpace(c.Name) == "" {
		verr.Add("name", "is required")
	}
	if email := strings.TrimSpace(c.Email); email != "" && !strings.Contains(email, "@") {
		verr.Add("email", "is not a valid address")
	}

	primaries := 0
	for i, contact := range c.Contacts.All() {
		if strings.TrimSpace(contact.Name) == "" {
			verr.Add(contactField(i, "name"), "is required")
		}
		if contact.Primary {
			primaries++
		}
	}
	if primaries > 1 {
		verr.Add("contacts", "at most one contact can be primary")
	}

	return verr.OrNil()
}

func contactField(i int, field string) string {
	return "contacts[" + strconv.Itoa(i) + "]." + field
}

type CustomerResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	Note        string            `json:"note"`
	Contacts    []ContactResponse `json:"contacts"`
	DisplayName string            `json:"displayName"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type CustomerRequest struct {
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Phone    string           `json:"phone"`
	Note     string           `json:"note"`
	Contacts []ContactRequest `json:"contacts"`
}

func CustomerFromResponse(r CustomerResponse) *Customer {
	contacts := make([]*Contact, 0, len(r.Contacts))
	for _, contact := range r.Contacts {
		contacts = append(contacts, ContactFromResponse(contact))
	}

	return &Customer{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Note:      r.Note,
		Contacts:  NewContacts(contacts...),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (c *Customer) ToRequest() CustomerRequest {
	contacts := make([]ContactRequest, 0, c.Contacts.Len())
	for _, contact := range c.Contacts.All() {
		contacts = append(contacts, contact.ToRequest())
	}

	return CustomerRequest{
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		Note:     c.Note,
		Contacts: contacts,
	}
}
