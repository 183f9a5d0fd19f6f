package application

import (
	"fmt"
	"strings"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
	"github.com/golang/glog"

	"github.com/bnema/viewsync/internal/domain"
)

// ContactPredicate compiles a boolean expr expression over a contact's
// fields (id, name, email, role, primary). An empty expression matches
// every contact.
func ContactPredicate(expression string) (func(*domain.Contact) bool, error) {
	program, err := compilePredicate(expression, contactEnv(&domain.Contact{}))
	if err != nil || program == nil {
		return func(*domain.Contact) bool { return true }, err
	}

	return func(c *domain.Contact) bool {
		return runPredicate(program, expression, contactEnv(c))
	}, nil
}

// CustomerPredicate compiles a boolean expr expression over a customer's
// fields (id, name, email, phone, note, contacts, updatedAt).
func CustomerPredicate(expression string) (func(*domain.Customer) bool, error) {
	program, err := compilePredicate(expression, customerEnv(&domain.Customer{}))
	if err != nil || program == nil {
		return func(*domain.Customer) bool { return true }, err
	}

	return func(c *domain.Customer) bool {
		return runPredicate(program, expression, customerEnv(c))
	}, nil
}

func contactEnv(c *domain.Contact) map[string]any {
	return map[string]any{
		"id":      c.ID,
		"name":    c.Name,
		"email":   c.Email,
		"role":    c.Role,
		"primary": c.Primary,
	}
}

func customerEnv(c *domain.Customer) map[string]any {
	return map[string]any{
		"id":        c.ID,
		"name":      c.Name,
		"email":     c.Email,
		"phone":     c.Phone,
		"note":      c.Note,
		"contacts":  c.Contacts.Len(),
		"updatedAt": c.UpdatedAt,
	}
}

func compilePredicate(expression string, env map[string]any) (*exprvm.Program, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, nil
	}

	program, err := exprlang.Compile(expression, exprlang.Env(env), exprlang.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile predicate %q: %w", expression, err)
	}
	return program, nil
}

func runPredicate(program *exprvm.Program, expression string, env map[string]any) bool {
	out, err := exprlang.Run(program, env)
	if err != nil {
		glog.Infof("[predicate]%q: %v\n", expression, err)
		return false
	}
	matched, _ := out.(bool)
	return matched
}
