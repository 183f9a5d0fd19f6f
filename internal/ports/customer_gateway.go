package ports

import (
	"context"

	"github.com/bnema/viewsync/internal/domain"
)

// CustomerGateway is the server side of customer records. It speaks the
// request/response shapes, never the editable model.
type CustomerGateway interface {
	GetByID(ctx context.Context, id int64) (domain.CustomerResponse, error)
	List(ctx context.Context) ([]domain.CustomerResponse, error)
	Save(ctx context.Context, id int64, req domain.CustomerRequest) (domain.CustomerResponse, error)
	Delete(ctx context.Context, id int64) error
}
