package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	customerrender "github.com/bnema/viewsync/internal/adapters/render/customer"
	"github.com/bnema/viewsync/internal/application"
	"github.com/bnema/viewsync/internal/domain"
)

func newCustomerCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "customer",
		Aliases: []string{"customers"},
		Short:   "View and edit customers",
	}

	cmd.AddCommand(
		newCustomerListCmd(app),
		newCustomerShowCmd(app),
		newCustomerEditCmd(app),
		newCustomerCreateCmd(app),
		newCustomerDeleteCmd(app),
	)

	return cmd
}

func newCustomerListCmd(app *app) *cobra.Command {
	var (
		where  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List customers",
		Example: `  vs customer list
  vs customer list --where 'contacts > 0 && name startsWith "A"' --output yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutputFormat(output); err != nil {
				return err
			}

			load := func(ctx context.Context) ([]*domain.Customer, error) {
				return application.ListCustomers(ctx, app.gateway, where)
			}

			var (
				customers []*domain.Customer
				err       error
			)
			if output == outputText {
				customers, err = loadWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Loading customers...", load)
			} else {
				customers, err = load(cmd.Context())
			}
			if err != nil {
				return err
			}

			if output != outputText {
				out := make([]customerOutput, 0, len(customers))
				for _, c := range customers {
					out = append(out, toCustomerOutput(c, nil, nil))
				}
				return writeEncoded(cmd.OutOrStdout(), output, out)
			}

			rendered, err := app.renderList(customers, customerrender.RenderOptions{Now: app.now()})
			if err != nil {
				return fmt.Errorf("render customers: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&where, "where", "", "Filter expression over id, name, email, phone, note, contacts, updatedAt")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")

	return cmd
}

func newCustomerShowCmd(app *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a customer and who else has it open",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			if err := validateOutputFormat(output); err != nil {
				return err
			}

			ctx := cmd.Context()
			detach := attachPrompt(cmd, app, false)
			defer detach()
			live := connectPresence(ctx, cmd, app)
			defer live.close(ctx)

			editor := application.NewCustomerEditor(app.gateway, live.editorDeps(app))
			if err := editor.Open(ctx, id, domain.AccessModeDetail); err != nil {
				return err
			}
			defer closeEditor(ctx, editor)
			live.awaitOccupants(ctx, editor)

			return writeCustomer(cmd, app, editor, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")

	return cmd
}

type customerEditFlags struct {
	name, email, phone, note string
	addContacts              []string
	contactWhere             string
	contactName              string
	contactEmail             string
	contactRole              string
	contactPrimary           bool
	removeContact            int
	yes                      bool
	output                   string
}

func (f *customerEditFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "Customer name")
	flags.StringVar(&f.email, "email", "", "Customer email")
	flags.StringVar(&f.phone, "phone", "", "Customer phone")
	flags.StringVar(&f.note, "note", "", "Free-text note")
	flags.StringArrayVar(&f.addContacts, "add-contact", nil, "Add a contact as name[,email[,role]] (repeatable)")
	flags.StringVar(&f.contactWhere, "contact-where", "", "Expression selecting the contact to edit (id, name, email, role, primary)")
	flags.StringVar(&f.contactName, "contact-name", "", "New name for the selected contact")
	flags.StringVar(&f.contactEmail, "contact-email", "", "New email for the selected contact")
	flags.StringVar(&f.contactRole, "contact-role", "", "New role for the selected contact")
	flags.BoolVar(&f.contactPrimary, "contact-primary", false, "Mark the selected contact as primary (or not, with =false)")
	flags.IntVar(&f.removeContact, "remove-contact", -1, "Remove the contact at this position")
	flags.BoolVarP(&f.yes, "yes", "y", false, "Answer yes to confirmations when stdin is not a terminal")
	flags.StringVarP(&f.output, "output", "o", outputText, "Output format: text, json or yaml")
}

func (f *customerEditFlags) command(cmd *cobra.Command) (application.EditCustomerCommand, error) {
	var edit application.EditCustomerCommand
	changed := cmd.Flags().Changed

	if changed("name") {
		edit.Name = domain.Ptr(f.name)
	}
	if changed("email") {
		edit.Email = domain.Ptr(f.email)
	}
	if changed("phone") {
		edit.Phone = domain.Ptr(f.phone)
	}
	if changed("note") {
		edit.Note = domain.Ptr(f.note)
	}

	for _, raw := range f.addContacts {
		contact, err := parseContact(raw)
		if err != nil {
			return edit, err
		}
		edit.AddContacts = append(edit.AddContacts, contact)
	}

	if changed("remove-contact") {
		edit.RemoveContactAt = domain.Ptr(f.removeContact)
	}

	patchChanged := changed("contact-name") || changed("contact-email") || changed("contact-role") || changed("contact-primary")
	if patchChanged && f.contactWhere == "" {
		return edit, errors.New("--contact-name, --contact-email, --contact-role and --contact-primary need --contact-where")
	}
	if f.contactWhere != "" {
		edit.ContactWhere = f.contactWhere
		if changed("contact-name") {
			edit.ContactPatch.Name = domain.Ptr(f.contactName)
		}
		if changed("contact-email") {
			edit.ContactPatch.Email = domain.Ptr(f.contactEmail)
		}
		if changed("contact-role") {
			edit.ContactPatch.Role = domain.Ptr(f.contactRole)
		}
		if changed("contact-primary") {
			edit.ContactPatch.Primary = domain.Ptr(f.contactPrimary)
		}
	}

	return edit, nil
}

func parseContact(raw string) (*domain.Contact, error) {
	parts := strings.SplitN(raw, ",", 3)
	contact := &domain.Contact{Name: strings.TrimSpace(parts[0])}
	if contact.Name == "" {
		return nil, fmt.Errorf("invalid contact %q: name is required", raw)
	}
	if len(parts) > 1 {
		contact.Email = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		contact.Role = strings.TrimSpace(parts[2])
	}
	return contact, nil
}

func newCustomerEditCmd(app *app) *cobra.Command {
	var flags customerEditFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a customer",
		Example: `  vs customer edit 4 --email ops@acme.test
  vs customer edit 4 --contact-where 'role == "billing"' --contact-primary
  vs customer edit 4 --add-contact "Grace,grace@acme.test,billing"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			return runCustomerEdit(cmd, app, id, &flags)
		},
	}
	flags.register(cmd)

	return cmd
}

func newCustomerCreateCmd(app *app) *cobra.Command {
	var flags customerEditFlags

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a customer",
		Example: `  vs customer create --name ACME --add-contact "Ada,ada@acme.test,owner"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCustomerEdit(cmd, app, 0, &flags)
		},
	}
	flags.register(cmd)

	return cmd
}

func runCustomerEdit(cmd *cobra.Command, app *app, id int64, flags *customerEditFlags) error {
	if err := validateOutputFormat(flags.output); err != nil {
		return err
	}
	edit, err := flags.command(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	detach := attachPrompt(cmd, app, flags.yes)
	defer detach()
	live := connectPresence(ctx, cmd, app)
	defer live.close(ctx)

	editor := application.NewCustomerEditor(app.gateway, live.editorDeps(app))
	if err := editor.Open(ctx, id, domain.AccessModeUpdate); err != nil {
		return err
	}
	defer closeEditor(ctx, editor)
	live.awaitOccupants(ctx, editor)

	if err := editor.Update(edit.Apply); err != nil {
		return err
	}

	if _, err := editor.Submit(ctx); err != nil {
		return err
	}

	return writeCustomer(cmd, app, editor, flags.output)
}

func newCustomerDeleteCmd(app *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			detach := attachPrompt(cmd, app, yes)
			defer detach()
			live := connectPresence(ctx, cmd, app)
			defer live.close(ctx)

			editor := application.NewCustomerEditor(app.gateway, live.editorDeps(app))
			if err := editor.Open(ctx, id, domain.AccessModeUpdate); err != nil {
				return err
			}

			deleted, err := editor.Delete(ctx)
			if err != nil {
				closeEditor(ctx, editor)
				return err
			}
			if !deleted {
				closeEditor(ctx, editor)
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "kept customer %d\n", id)
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted customer %d\n", id)
			return err
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Answer yes to confirmations when stdin is not a terminal")

	return cmd
}

func writeCustomer(cmd *cobra.Command, app *app, editor *application.CustomerEditor, output string) error {
	current := editor.Current()
	viewers, editors := editor.Occupants()

	if output != outputText {
		return writeEncoded(cmd.OutOrStdout(), output, toCustomerOutput(current, viewers, editors))
	}

	changed, err := editor.IsDirty()
	if err != nil {
		return err
	}

	rendered, err := app.renderDetail(customerrender.Detail{
		Customer: current,
		Viewers:  viewers,
		Editors:  editors,
		Dirty:    changed,
	}, customerrender.RenderOptions{Now: app.now()})
	if err != nil {
		return fmt.Errorf("render customer: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func closeEditor(ctx context.Context, editor *application.CustomerEditor) {
	closed, err := editor.Close(ctx)
	switch {
	case err != nil:
		glog.Infof("[cmd]close customer %d: %v\n", editor.ID(), err)
	case !closed:
		glog.Infof("[cmd]customer %d left with unsaved changes\n", editor.ID())
	}
}
