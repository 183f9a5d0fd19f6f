package domain

// Contact is a person attached to a customer. Values are treated as
// immutable; derive changes with From.
type Contact struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Primary bool   `json:"primary"`
}

type ContactPatch struct {
	ID      *int64
	Name    *string
	Email   *string
	Role    *string
	Primary *bool
}

// Contacts is the sequence type used by Customer.
type Contacts = Sequence[*Contact, ContactPatch]

func NewContacts(items ...*Contact) Contacts {
	return NewSequence[*Contact, ContactPatch](items...)
}

func (c *Contact) From(p ContactPatch) *Contact {
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
	if p.Role != nil {
		next.Role = *p.Role
	}
	if p.Primary != nil {
		next.Primary = *p.Primary
	}
	return &next
}

type ContactResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Primary bool   `json:"primary"`
}

// ContactRequest omits ID for contacts that do not exist on the server yet.
type ContactRequest struct {
	ID      *int64 `json:"id,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Primary bool   `json:"primary"`
}

func ContactFromResponse(r ContactResponse) *Contact {
	return &Contact{
		ID:      r.ID,
		Name:    r.Name,
		Email:   r.Email,
		Role:    r.Role,
		Primary: r.Primary,
	}
}

func (c *Contact) ToRequest() ContactRequest {
	req := ContactRequest{
		Name:    c.Name,
		Email:   c.Email,
		Role:    c.Role,
		Primary: c.Primary,
	}
	if c.ID != 0 {
		req.ID = Ptr(c.ID)
	}
	return req
}
