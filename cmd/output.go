package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bnema/viewsync/internal/domain"
	"github.com/bnema/viewsync/internal/presence"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

type contactOutput struct {
	ID      int64  `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Email   string `json:"email,omitempty" yaml:"email,omitempty"`
	Role    string `json:"role,omitempty" yaml:"role,omitempty"`
	Primary bool   `json:"primary" yaml:"primary"`
}

type customerOutput struct {
	ID        int64           `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	Email     string          `json:"email,omitempty" yaml:"email,omitempty"`
	Phone     string          `json:"phone,omitempty" yaml:"phone,omitempty"`
	Note      string          `json:"note,omitempty" yaml:"note,omitempty"`
	Contacts  []contactOutput `json:"contacts" yaml:"contacts"`
	CreatedAt time.Time       `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt" yaml:"updatedAt"`
	Viewers   []string        `json:"viewers,omitempty" yaml:"viewers,omitempty"`
	Editors   []string        `json:"editors,omitempty" yaml:"editors,omitempty"`
}

func toCustomerOutput(c *domain.Customer, viewers, editors []presence.User) customerOutput {
	contacts := make([]contactOutput, 0, c.Contacts.Len())
	for _, contact := range c.Contacts.All() {
		contacts = append(contacts, contactOutput{
			ID:      contact.ID,
			Name:    contact.Name,
			Email:   contact.Email,
			Role:    contact.Role,
			Primary: contact.Primary,
		})
	}

	return customerOutput{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Note:      c.Note,
		Contacts:  contacts,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Viewers:   userNames(viewers),
		Editors:   userNames(editors),
	}
}

func userNames(users []presence.User) []string {
	if len(users) == 0 {
		return nil
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.String())
	}
	return names
}

func validateOutputFormat(format string) error {
	switch format {
	case outputText, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want text, json or yaml)", format)
	}
}

// writeEncoded writes v as JSON or YAML. Text output is rendered by the
// caller.
func writeEncoded(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
