package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/bnema/viewsync/internal/adapters/prompt"
	"github.com/bnema/viewsync/internal/application"
	"github.com/bnema/viewsync/internal/presence"
)

// attachPrompt answers broker requests on the command's stdin/stderr until
// the returned func is called.
func attachPrompt(cmd *cobra.Command, app *app, assumeYes bool) func() {
	resolver := prompt.New(app.broker, cmd.InOrStdin(), cmd.ErrOrStderr(), prompt.WithAssumeYes(assumeYes))
	return resolver.Attach()
}

// liveSession is an optional presence connection. Without a configured hub
// every method is a no-op.
type liveSession struct {
	channel   *presence.Channel
	occupancy *presence.Occupancy
	self      presence.User
	detach    func()
	await     time.Duration
}

func connectPresence(ctx context.Context, cmd *cobra.Command, app *app) *liveSession {
	channel, err := app.newChannel()
	if err != nil {
		glog.V(2).Infof("[cmd]presence disabled: %v\n", err)
		return &liveSession{}
	}

	if err := channel.Start(ctx); err != nil {
		glog.Warningf("presence unavailable: %v", err)
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "presence unavailable: %v\n", err)
		return &liveSession{}
	}

	occupancy := presence.NewOccupancy()
	session := &liveSession{
		channel:   channel,
		occupancy: occupancy,
		detach:    occupancy.Attach(channel),
		await:     app.hub.AwaitTimeout,
	}
	if self, err := channel.Self(ctx); err == nil {
		session.self = self
	}
	return session
}

func (s *liveSession) editorDeps(app *app) application.EditorDeps {
	deps := application.EditorDeps{Cache: app.cache, Broker: app.broker}
	if s.channel != nil {
		deps.Presence = s.channel
		deps.Occupancy = s.occupancy
		deps.SelfID = s.self.ID
	}
	return deps
}

// awaitOccupants gives the hub a bounded moment to report who else holds
// the record the editor announced, so the first render can show them.
func (s *liveSession) awaitOccupants(ctx context.Context, editor *application.CustomerEditor) {
	if s.channel == nil || s.await <= 0 {
		return
	}
	r, ok := editor.Announced()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.await)
	defer cancel()
	if !s.occupancy.Await(ctx, r) {
		glog.V(2).Infof("[cmd]no occupancy for %s within %s\n", r, s.await)
	}
}

func (s *liveSession) close(ctx context.Context) {
	if s.channel == nil {
		return
	}
	s.detach()
	if err := s.channel.Stop(ctx); err != nil {
		glog.Infof("[cmd]stop presence: %v\n", err)
		s.channel.Close()
	}
}

func parseRecordID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid customer id %q: must be a positive integer", raw)
	}
	return id, nil
}
