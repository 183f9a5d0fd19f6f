package confirm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/viewsync/internal/domain"
)

type outcome struct {
	answer bool
	err    error
}

func confirmAsync(ctx context.Context, b *Broker, kind Kind) <-chan outcome {
	out := make(chan outcome, 1)
	go func() {
		answer, err := b.Confirm(ctx, kind)
		out <- outcome{answer: answer, err: err}
	}()
	return out
}

func acknowledgeAsync(ctx context.Context, b *Broker, kind Kind) <-chan outcome {
	out := make(chan outcome, 1)
	go func() {
		out <- outcome{err: b.Acknowledge(ctx, kind, Payload{})}
	}()
	return out
}

func waitActive(t *testing.T, b *Broker, kind Kind) Request {
	t.Helper()
	var req Request
	require.Eventually(t, func() bool {
		active, ok := b.Active()
		req = active
		return ok && active.Kind == kind
	}, time.Second, time.Millisecond)
	return req
}

func receive(t *testing.T, ch <-chan outcome) outcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(time.Second):
		t.Fatal("request did not complete")
		return outcome{}
	}
}

func TestConfirmReturnsTheUsersAnswer(t *testing.T) {
	for _, answer := range []bool{true, false} {
		t.Run(fmt.Sprint(answer), func(t *testing.T) {
			b := New()
			b.OnRequest(func(req Request) {
				assert.Equal(t, KindDeleting, req.Kind)
				require.NoError(t, b.Resolve(req.ID, answer))
			})

			got, err := b.Confirm(context.Background(), KindDeleting)
			require.NoError(t, err)
			assert.Equal(t, answer, got)

			_, active := b.Active()
			assert.False(t, active)
		})
	}
}

func TestKindVerbMismatch(t *testing.T) {
	b := New()

	_, err := b.Confirm(context.Background(), KindSubmissionSuccess)
	require.ErrorIs(t, err, ErrWrongKind)

	err = b.Acknowledge(context.Background(), KindDiscarding, Payload{})
	require.ErrorIs(t, err, ErrWrongKind)

	_, active := b.Active()
	assert.False(t, active)
}

func TestSupersedeCompletesReplacedRequest(t *testing.T) {
	b := New()

	first := confirmAsync(context.Background(), b, KindDiscarding)
	firstReq := waitActive(t, b, KindDiscarding)

	second := acknowledgeAsync(context.Background(), b, KindSubmissionSuccess)

	o := receive(t, first)
	require.ErrorIs(t, o.err, ErrSuperseded)
	assert.False(t, o.answer)

	secondReq := waitActive(t, b, KindSubmissionSuccess)
	require.ErrorIs(t, b.Resolve(firstReq.ID, true), ErrUnknownRequest)
	require.NoError(t, b.Resolve(secondReq.ID, false))
	require.NoError(t, receive(t, second).err)
}

func TestQueueServesRequestsInOrder(t *testing.T) {
	b := New(WithPolicy(PolicyQueue))
	var (
		mu   sync.Mutex
		seen []Kind
	)
	b.OnRequest(func(req Request) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, req.Kind)
	})

	first := confirmAsync(context.Background(), b, KindDeleting)
	firstReq := waitActive(t, b, KindDeleting)

	second := acknowledgeAsync(context.Background(), b, KindNotFound)
	require.Eventually(t, func() bool { return b.Queued() == 1 }, time.Second, time.Millisecond)

	active, _ := b.Active()
	assert.Equal(t, firstReq.ID, active.ID)

	require.NoError(t, b.Resolve(firstReq.ID, true))
	o := receive(t, first)
	require.NoError(t, o.err)
	assert.True(t, o.answer)

	secondReq := waitActive(t, b, KindNotFound)
	require.NoError(t, b.Resolve(secondReq.ID, true))
	require.NoError(t, receive(t, second).err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Kind{KindDeleting, KindNotFound}, seen)
}

func TestCancelledActiveRequestPromotesNext(t *testing.T) {
	b := New(WithPolicy(PolicyQueue))
	ctx, cancel := context.WithCancel(context.Background())

	first := confirmAsync(ctx, b, KindDeleting)
	waitActive(t, b, KindDeleting)
	second := confirmAsync(context.Background(), b, KindDiscarding)
	require.Eventually(t, func() bool { return b.Queued() == 1 }, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, receive(t, first).err, context.Canceled)

	req := waitActive(t, b, KindDiscarding)
	require.NoError(t, b.Resolve(req.ID, true))
	o := receive(t, second)
	require.NoError(t, o.err)
	assert.True(t, o.answer)
}

func TestResolveUnknownRequest(t *testing.T) {
	b := New()
	req := Request{}
	require.ErrorIs(t, b.Resolve(req.ID, true), ErrUnknownRequest)
}

func TestUnsubscribedListenerIsNotCalled(t *testing.T) {
	b := New()
	calls := 0
	h := b.OnRequest(func(Request) { calls++ })
	require.True(t, b.Unsubscribe(h))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := b.Confirm(ctx, KindDeleting)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, calls)
}

func TestCloseFailsOutstandingRequests(t *testing.T) {
	b := New(WithPolicy(PolicyQueue))

	first := confirmAsync(context.Background(), b, KindDeleting)
	waitActive(t, b, KindDeleting)
	second := acknowledgeAsync(context.Background(), b, KindDataUnchanged)
	require.Eventually(t, func() bool { return b.Queued() == 1 }, time.Second, time.Millisecond)

	b.Close()
	require.ErrorIs(t, receive(t, first).err, ErrClosed)
	require.ErrorIs(t, receive(t, second).err, ErrClosed)

	_, err := b.Confirm(context.Background(), KindDeleting)
	require.ErrorIs(t, err, ErrClosed)
}

func TestRequestCarriesClockAndPayload(t *testing.T) {
	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	b := New(WithClock(func() time.Time { return at }))
	var got Request
	b.OnRequest(func(req Request) {
		got = req
		require.NoError(t, b.Resolve(req.ID, true))
	})

	payload := Payload{Fields: map[string][]string{"name": {"is required"}}}
	require.NoError(t, b.Acknowledge(context.Background(), KindSubmissionError, payload))
	assert.Equal(t, at, got.CreatedAt)
	assert.Equal(t, payload, got.Payload)
	assert.False(t, got.ID.IsZero())
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		raw     string
		want    Policy
		wantErr bool
	}{
		{raw: "", want: PolicySupersede},
		{raw: "supersede", want: PolicySupersede},
		{raw: " Queue ", want: PolicyQueue},
		{raw: "lifo", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParsePolicy(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKindFor(t *testing.T) {
	verr := domain.NewValidationError()
	verr.Add("name", "is required")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "not found", err: fmt.Errorf("get customer: %w", domain.ErrNotFound), want: KindNotFound},
		{name: "forbidden", err: domain.ErrForbidden, want: KindForbidden},
		{name: "unauthorized", err: domain.ErrUnauthorized, want: KindUnauthorized},
		{name: "file too large", err: domain.ErrFileTooLarge, want: KindFileTooLarge},
		{name: "connection", err: fmt.Errorf("dial: %w", domain.ErrConnection), want: KindConnectionError},
		{name: "validation", err: fmt.Errorf("save: %w", verr), want: KindSubmissionError},
		{name: "other", err: errors.New("disk on fire"), want: KindUndefinedError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := KindFor(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKindForValidationCarriesFields(t *testing.T) {
	verr := domain.NewValidationError()
	verr.Add("name", "is required")
	verr.Add("contacts[0].name", "is required")

	kind, payload := KindFor(verr)
	assert.Equal(t, KindSubmissionError, kind)
	assert.Equal(t, []string{"contacts[0].name: is required", "name: is required"}, payload.Lines())
}

func TestKindCatalog(t *testing.T) {
	questions := 0
	for kind := KindUndefinedError; kind <= KindFileTooLarge; kind++ {
		assert.NotContains(t, kind.String(), "Kind(")
		assert.NotEmpty(t, kind.Title())
		assert.NotEmpty(t, kind.Message())
		if kind.IsQuestion() {
			questions++
		}
	}
	assert.Equal(t, 2, questions)
	assert.Equal(t, "Kind(99)", Kind(99).String())
}
