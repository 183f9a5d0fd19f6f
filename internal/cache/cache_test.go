package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	calls atomic.Int32
}

// gated returns an initializer that blocks until release is closed.
func (c *counter) gated(release <-chan struct{}, value string, err error) Initializer[string] {
	return func(context.Context) (string, error) {
		c.calls.Add(1)
		<-release
		return value, err
	}
}

func (c *counter) immediate(value string) Initializer[string] {
	return func(context.Context) (string, error) {
		c.calls.Add(1)
		return value, nil
	}
}

func TestConcurrentAcquireInvokesInitializerOnce(t *testing.T) {
	c := New()
	var n counter
	release := make(chan struct{})

	first := Acquire(c, "customer:1", n.gated(release, "acme", nil))
	second := Acquire(c, "customer:1", n.gated(release, "other", nil))
	defer first.Release()
	defer second.Release()

	assert.False(t, first.Settled())

	var wg sync.WaitGroup
	results := make([]string, 2)
	for i, lease := range []*Lease[string]{first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := lease.Wait(context.Background())
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), n.calls.Load())
	assert.Equal(t, []string{"acme", "acme"}, results)
	assert.Equal(t, 2, c.Consumers("customer:1"))
}

func TestRejectionIsSharedAndNotRetried(t *testing.T) {
	c := New()
	var n counter
	release := make(chan struct{})
	boom := errors.New("boom")

	first := Acquire(c, "k", n.gated(release, "", boom))
	second := Acquire(c, "k", n.gated(release, "", nil))
	close(release)

	_, err := first.Wait(context.Background())
	require.ErrorIs(t, err, boom)
	_, err = second.Wait(context.Background())
	require.ErrorIs(t, err, boom)
	_, err = first.Wait(context.Background())
	require.ErrorIs(t, err, boom)

	assert.Equal(t, int32(1), n.calls.Load())

	first.Release()
	second.Release()

	v, lease, err := Load(context.Background(), c, "k", n.immediate("ok"))
	defer lease.Release()
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, int32(2), n.calls.Load())
}

func TestSettledValueStaysWhileAConsumerIsAttached(t *testing.T) {
	c := New()
	var n counter

	_, a, err := Load(context.Background(), c, "k", n.immediate("v1"))
	require.NoError(t, err)

	v, b, err := Load(context.Background(), c, "k", n.immediate("v2"))
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	a.Release()
	v, d, err := Load(context.Background(), c, "k", n.immediate("v3"))
	require.NoError(t, err)
	assert.Equal(t, "v1", v)
	assert.Equal(t, int32(1), n.calls.Load())

	b.Release()
	d.Release()
	assert.Zero(t, c.Len())

	v, e, err := Load(context.Background(), c, "k", n.immediate("v4"))
	defer e.Release()
	require.NoError(t, err)
	assert.Equal(t, "v4", v)
	assert.Equal(t, int32(2), n.calls.Load())
}

func TestReleaseIsIdempotent(t *testing.T) {
	c := New()
	var n counter

	_, a, err := Load(context.Background(), c, "k", n.immediate("v"))
	require.NoError(t, err)
	_, b, err := Load(context.Background(), c, "k", n.immediate("v"))
	require.NoError(t, err)

	a.Release()
	a.Release()

	assert.Equal(t, 1, c.Consumers("k"))
	b.Release()
	assert.Zero(t, c.Consumers("k"))
}

func TestEvictionWhilePendingDoesNotCancelInitializer(t *testing.T) {
	c := New()
	var n counter
	release := make(chan struct{})
	finished := make(chan struct{})

	lease := Acquire(c, "k", func(ctx context.Context) (string, error) {
		defer close(finished)
		n.calls.Add(1)
		<-release
		return "late", ctx.Err()
	})
	lease.Release()
	assert.Zero(t, c.Len())

	close(release)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("initializer did not run to completion")
	}

	v, next, err := Load(context.Background(), c, "k", n.immediate("fresh"))
	defer next.Release()
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestClearDropsEntriesAndOldLeasesDoNotEvictNewOnes(t *testing.T) {
	c := New()
	var n counter

	old, oldLease, err := Load(context.Background(), c, "k", n.immediate("old"))
	require.NoError(t, err)
	require.Equal(t, "old", old)

	c.Clear()
	assert.Zero(t, c.Len())

	v, err := oldLease.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "old", v)

	fresh, freshLease, err := Load(context.Background(), c, "k", n.immediate("new"))
	defer freshLease.Release()
	require.NoError(t, err)
	assert.Equal(t, "new", fresh)

	oldLease.Release()
	assert.Equal(t, 1, c.Consumers("k"))
}

func TestWaitHonorsContext(t *testing.T) {
	c := New()
	var n counter
	release := make(chan struct{})
	defer close(release)

	lease := Acquire(c, "k", n.gated(release, "v", nil))
	defer lease.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := lease.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, c.Consumers("k"))
}

func TestClosedCacheRejectsAcquire(t *testing.T) {
	c := New()
	var n counter
	c.Close()

	_, lease, err := Load(context.Background(), c, "k", n.immediate("v"))
	lease.Release()

	require.ErrorIs(t, err, ErrClosed)
	assert.Zero(t, n.calls.Load())
}

func TestTypeMismatchAcrossCallers(t *testing.T) {
	c := New()

	_, a, err := Load(context.Background(), c, "k", func(context.Context) (string, error) { return "text", nil })
	require.NoError(t, err)
	defer a.Release()

	_, b, err := Load(context.Background(), c, "k", func(context.Context) (int, error) { return 1, nil })
	defer b.Release()
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestInitializerPanicBecomesError(t *testing.T) {
	c := New()

	_, lease, err := Load(context.Background(), c, "k", func(context.Context) (string, error) {
		panic("kaboom")
	})
	defer lease.Release()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestInitializerReceivesCacheContext(t *testing.T) {
	type ctxKey struct{}
	c := New(WithContext(context.WithValue(context.Background(), ctxKey{}, "session-1")), WithName("session"))

	v, lease, err := Load(context.Background(), c, "k", func(ctx context.Context) (string, error) {
		return ctx.Value(ctxKey{}).(string), nil
	})
	defer lease.Release()

	require.NoError(t, err)
	assert.Equal(t, "session-1", v)
}

func TestInvalidateDropsOnlyThatKey(t *testing.T) {
	c := New()
	var acme, initech counter

	stale := Acquire(c, "customer:4", acme.immediate("acme"))
	other := Acquire(c, "customer:7", initech.immediate("initech"))
	defer other.Release()
	_, err := stale.Wait(context.Background())
	require.NoError(t, err)

	c.Invalidate("customer:4")
	c.Invalidate("customer:99")

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.Consumers("customer:7"))

	value, err := stale.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acme", value, "attached lease keeps its entry")

	fresh := Acquire(c, "customer:4", acme.immediate("acme v2"))
	defer fresh.Release()
	value, err = fresh.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acme v2", value)
	assert.Equal(t, int32(2), acme.calls.Load())

	stale.Release()
	assert.Equal(t, 1, c.Consumers("customer:4"), "old lease must not evict the reloaded entry")
	assert.Equal(t, int32(1), initech.calls.Load())
}
