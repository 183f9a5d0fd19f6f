package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version       int              `toml:"version"`
	LastID        int64            `toml:"last_id"`
	LastContactID int64            `toml:"last_contact_id"`
	Customers     []customerSchema `toml:"customers"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
	for _, c := range s.Customers {
		if c.ID > s.LastID {
			s.LastID = c.ID
		}
		for _, contact := range c.Contacts {
			if contact.ID > s.LastContactID {
				s.LastContactID = contact.ID
			}
		}
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported records schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type customerSchema struct {
	ID        int64           `toml:"id"`
	Name      string          `toml:"name"`
	Email     string          `toml:"email,omitempty"`
	Phone     string          `toml:"phone,omitempty"`
	Note      string          `toml:"note,omitempty"`
	CreatedAt string          `toml:"created_at"`
	UpdatedAt string          `toml:"updated_at"`
	Contacts  []contactSchema `toml:"contacts,omitempty"`
}

type contactSchema struct {
	ID      int64  `toml:"id"`
	Name    string `toml:"name"`
	Email   string `toml:"email,omitempty"`
	Role    string `toml:"role,omitempty"`
	Primary bool   `toml:"primary,omitempty"`
}
