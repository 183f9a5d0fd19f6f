package chain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	passstore "github.com/bnema/viewsync/internal/adapters/secrets/pass"
	"github.com/bnema/viewsync/internal/domain"
	portmocks "github.com/bnema/viewsync/internal/ports/mocks"
)

const tokenKey = "hub/access_token"

func newChain(t *testing.T) (*Store, *portmocks.MockTokenStore, *portmocks.MockTokenStore) {
	t.Helper()

	primary := portmocks.NewMockTokenStore(t)
	fallback := portmocks.NewMockTokenStore(t)
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)
	return store, primary, fallback
}

func TestNewStoreRejectsMissingBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStore()
	require.Error(t, err)

	_, err = NewStore(portmocks.NewMockTokenStore(t), nil)
	require.ErrorContains(t, err, "backend 1 is nil")
}

func TestStoreGetPrefersPrimary(t *testing.T) {
	t.Parallel()

	store, primary, _ := newChain(t)
	primary.EXPECT().Get(mock.Anything, tokenKey).Return("from-pass", nil).Once()

	value, err := store.Get(context.Background(), tokenKey)
	require.NoError(t, err)
	assert.Equal(t, "from-pass", value)
}

func TestStoreGetFallsThroughMissingAndBrokenBackends(t *testing.T) {
	t.Parallel()

	for name, primaryErr := range map[string]error{
		"missing":     fmt.Errorf("pass get: %w", domain.ErrUnauthorized),
		"unavailable": passstore.ErrUnavailable,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store, primary, fallback := newChain(t)
			primary.EXPECT().Get(mock.Anything, tokenKey).Return("", primaryErr).Once()
			fallback.EXPECT().Get(mock.Anything, tokenKey).Return("from-file", nil).Once()

			value, err := store.Get(context.Background(), tokenKey)
			require.NoError(t, err)
			assert.Equal(t, "from-file", value)
		})
	}
}

func TestStoreGetUnauthorizedWhenNoBackendHasToken(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Get(mock.Anything, tokenKey).Return("", domain.ErrUnauthorized).Once()
	fallback.EXPECT().Get(mock.Anything, tokenKey).Return("", domain.ErrUnauthorized).Once()

	_, err := store.Get(context.Background(), tokenKey)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestStoreGetJoinsRealFailures(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Get(mock.Anything, tokenKey).Return("", errors.New("gpg failed")).Once()
	fallback.EXPECT().Get(mock.Anything, tokenKey).Return("", domain.ErrUnauthorized).Once()

	_, err := store.Get(context.Background(), tokenKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorContains(t, err, "backend 0")
	assert.ErrorContains(t, err, "gpg failed")
}

func TestStoreGetStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	store, primary, _ := newChain(t)
	primary.EXPECT().Get(mock.Anything, tokenKey).Return("", context.Canceled).Once()

	_, err := store.Get(context.Background(), tokenKey)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStorePutFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Put(mock.Anything, tokenKey, "tok").Return(passstore.ErrUnavailable).Once()
	fallback.EXPECT().Put(mock.Anything, tokenKey, "tok").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), tokenKey, "tok"))
}

func TestStorePutStopsAtFirstSuccess(t *testing.T) {
	t.Parallel()

	store, primary, _ := newChain(t)
	primary.EXPECT().Put(mock.Anything, tokenKey, "tok").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), tokenKey, "tok"))
}

func TestStorePutReportsEveryFailure(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Put(mock.Anything, tokenKey, "tok").Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Put(mock.Anything, tokenKey, "tok").Return(errors.New("disk full")).Once()

	err := store.Put(context.Background(), tokenKey, "tok")
	require.Error(t, err)
	assert.ErrorContains(t, err, "pass failed")
	assert.ErrorContains(t, err, "disk full")
}

func TestStoreDeleteClearsEveryBackend(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Delete(mock.Anything, tokenKey).Return(passstore.ErrUnavailable).Once()
	fallback.EXPECT().Delete(mock.Anything, tokenKey).Return(nil).Once()

	require.NoError(t, store.Delete(context.Background(), tokenKey))
}

func TestStoreDeleteReportsFailure(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Delete(mock.Anything, tokenKey).Return(nil).Once()
	fallback.EXPECT().Delete(mock.Anything, tokenKey).Return(errors.New("permission denied")).Once()

	err := store.Delete(context.Background(), tokenKey)
	require.ErrorContains(t, err, "permission denied")
}
