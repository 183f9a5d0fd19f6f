package ports

import (
	"context"

	"github.com/bnema/viewsync/internal/domain"
)

// Presence announces which resources this client holds.
type Presence interface {
	StartResourceAccess(ctx context.Context, r domain.Resource) error
	FinishResourceAccess(ctx context.Context, r domain.Resource) error
}
