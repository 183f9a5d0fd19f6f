// Package chain layers several token stores so that a missing or broken
// backend falls through to the next one.
package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/glog"

	filestore "github.com/bnema/viewsync/internal/adapters/secrets/file"
	passstore "github.com/bnema/viewsync/internal/adapters/secrets/pass"
	"github.com/bnema/viewsync/internal/domain"
	"github.com/bnema/viewsync/internal/ports"
)

// Store consults its backends in order. Writes land in the first backend
// that accepts them; reads return the first token found; deletes clear
// every backend so that a stale copy never resurfaces after logout.
type Store struct {
	backends []ports.TokenStore
}

var _ ports.TokenStore = (*Store)(nil)

var errNoBackends = errors.New("token chain needs at least one backend")

func NewStore(backends ...ports.TokenStore) (*Store, error) {
	if len(backends) == 0 {
		return nil, errNoBackends
	}
	for i, b := range backends {
		if b == nil {
			return nil, fmt.Errorf("token chain backend %d is nil", i)
		}
	}
	return &Store{backends: backends}, nil
}

func NewPassFirstWithFileFallback(fileRoot string) (*Store, error) {
	return NewStore(passstore.NewStore(), filestore.NewStore(fileRoot))
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	var errs []error
	for i, b := range s.backends {
		err := b.Put(ctx, key, value)
		if err == nil {
			return nil
		}
		if isContextErr(err) {
			return err
		}
		glog.V(2).Infof("[tokens] backend %d put %q failed: %v\n", i, key, err)
		errs = append(errs, fmt.Errorf("backend %d: %w", i, err))
	}
	return fmt.Errorf("put token %q: %w", key, errors.Join(errs...))
}

// Get reports domain.ErrUnauthorized only when no backend holds the key and
// none of them failed for another reason.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var errs []error
	for i, b := range s.backends {
		value, err := b.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if isContextErr(err) {
			return "", err
		}
		if errors.Is(err, domain.ErrUnauthorized) {
			continue
		}
		glog.V(2).Infof("[tokens] backend %d get %q failed: %v\n", i, key, err)
		errs = append(errs, fmt.Errorf("backend %d: %w", i, err))
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("get token %q: %w", key, domain.ErrUnauthorized)
	}
	return "", fmt.Errorf("get token %q: %w", key, errors.Join(errs...))
}

func (s *Store) Delete(ctx context.Context, key string) error {
	var errs []error
	for i, b := range s.backends {
		err := b.Delete(ctx, key)
		switch {
		case err == nil, errors.Is(err, passstore.ErrUnavailable):
		case isContextErr(err):
			return err
		default:
			errs = append(errs, fmt.Errorf("backend %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("delete token %q: %w", key, errors.Join(errs...))
	}
	return nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
