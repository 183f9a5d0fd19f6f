package confirm

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bnema/viewsync/internal/domain"
)

// Kind names one entry of the confirmation catalog.
type Kind int

const (
	KindUndefinedError Kind = iota
	KindDeleting
	KindDiscarding
	KindNotFound
	KindForbidden
	KindConnectionError
	KindSubmissionError
	KindSubmissionSuccess
	KindDataUnchanged
	KindUnauthorized
	KindFileTooLarge
)

var kindNames = map[Kind]string{
	KindUndefinedError:    "UndefinedError",
	KindDeleting:          "Deleting",
	KindDiscarding:        "Discarding",
	KindNotFound:          "NotFound",
	KindForbidden:         "Forbidden",
	KindConnectionError:   "ConnectionError",
	KindSubmissionError:   "SubmissionError",
	KindSubmissionSuccess: "SubmissionSuccess",
	KindDataUnchanged:     "DataUnchanged",
	KindUnauthorized:      "Unauthorized",
	KindFileTooLarge:      "FileTooLarge",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsQuestion reports whether the kind asks the user for a yes/no decision.
// Every other kind is an acknowledgement.
func (k Kind) IsQuestion() bool {
	return k == KindDeleting || k == KindDiscarding
}

// Title is the short heading shown for the kind.
func (k Kind) Title() string {
	switch k {
	case KindDeleting:
		return "Delete record?"
	case KindDiscarding:
		return "Discard changes?"
	case KindNotFound:
		return "Not found"
	case KindForbidden:
		return "Access denied"
	case KindConnectionError:
		return "Connection problem"
	case KindSubmissionError:
		return "Could not save"
	case KindSubmissionSuccess:
		return "Saved"
	case KindDataUnchanged:
		return "Nothing to save"
	case KindUnauthorized:
		return "Signed out"
	case KindFileTooLarge:
		return "File too large"
	default:
		return "Something went wrong"
	}
}

// Message is the default body text for the kind.
func (k Kind) Message() string {
	switch k {
	case KindDeleting:
		return "This record will be deleted permanently."
	case KindDiscarding:
		return "You have unsaved changes. They will be lost."
	case KindNotFound:
		return "The record no longer exists."
	case KindForbidden:
		return "You are not allowed to do this."
	case KindConnectionError:
		return "The server could not be reached. Try again later."
	case KindSubmissionError:
		return "Some fields are invalid."
	case KindSubmissionSuccess:
		return "Your changes were saved."
	case KindDataUnchanged:
		return "There are no changes to save."
	case KindUnauthorized:
		return "Your session has expired. Log in again."
	case KindFileTooLarge:
		return "The file exceeds the upload limit."
	default:
		return "An unexpected error occurred."
	}
}

// Payload carries optional details for an acknowledgement.
type Payload struct {
	Detail string
	// Fields holds field-keyed validation messages for SubmissionError.
	Fields map[string][]string
}

// Lines flattens Fields into "field: message" lines in field order.
func (p Payload) Lines() []string {
	fields := make([]string, 0, len(p.Fields))
	for field := range p.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		lines = append(lines, field+": "+strings.Join(p.Fields[field], ", "))
	}
	return lines
}

// KindFor maps an error onto the catalog entry that reports it. Validation
// errors carry their field messages in the payload.
func KindFor(err error) (Kind, Payload) {
	var verr *domain.ValidationError
	switch {
	case err == nil:
		return KindUndefinedError, Payload{}
	case errors.As(err, &verr):
		return KindSubmissionError, Payload{Fields: verr.Fields}
	case errors.Is(err, domain.ErrNotFound):
		return KindNotFound, Payload{}
	case errors.Is(err, domain.ErrForbidden):
		return KindForbidden, Payload{}
	case errors.Is(err, domain.ErrUnauthorized):
		return KindUnauthorized, Payload{}
	case errors.Is(err, domain.ErrFileTooLarge):
		return KindFileTooLarge, Payload{}
	case errors.Is(err, domain.ErrConnection):
		return KindConnectionError, Payload{}
	default:
		return KindUndefinedError, Payload{Detail: err.Error()}
	}
}
