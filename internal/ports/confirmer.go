package ports

import (
	"context"

	"github.com/bnema/viewsync/internal/confirm"
)

// Confirmer asks the user yes/no questions and shows acknowledgements.
type Confirmer interface {
	Confirm(ctx context.Context, kind confirm.Kind) (bool, error)
	Acknowledge(ctx context.Context, kind confirm.Kind, payload confirm.Payload) error
}
