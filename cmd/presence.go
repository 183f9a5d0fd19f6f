package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	customerrender "github.com/bnema/viewsync/internal/adapters/render/customer"
	"github.com/bnema/viewsync/internal/domain"
	"github.com/bnema/viewsync/internal/notify"
	"github.com/bnema/viewsync/internal/presence"
)

func newPresenceCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presence",
		Short: "Inspect the presence hub",
	}

	cmd.AddCommand(newPresenceWatchCmd(app))

	return cmd
}

func newPresenceWatchCmd(app *app) *cobra.Command {
	var (
		resource string
		mode     string
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print presence events until interrupted",
		Example: `  vs presence watch
  vs presence watch --resource customer/4 --mode Update --for 1m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var hold *domain.Resource
			if resource != "" {
				r, err := parseResource(resource, mode)
				if err != nil {
					return err
				}
				hold = &r
			}

			channel, err := app.newChannel()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			return watchPresence(ctx, channel, hold, cmd.OutOrStdout(), app.now)
		},
	}

	cmd.Flags().StringVar(&resource, "resource", "", "Hold a resource while watching, as type/primaryId[/secondaryId]")
	cmd.Flags().StringVar(&mode, "mode", domain.AccessModeDetail.String(), "Access mode for --resource: Detail or Update")
	cmd.Flags().DurationVar(&duration, "for", 0, "Stop after this long (0 waits for an interrupt)")

	return cmd
}

// watchPresence streams every inbound event to out until ctx is done.
func watchPresence(ctx context.Context, channel *presence.Channel, hold *domain.Resource, out io.Writer, now func() time.Time) error {
	var mu sync.Mutex
	emit := func(event string, r domain.Resource, users ...presence.User) {
		line, err := customerrender.RenderEvent(now(), event, r, users...)
		if err != nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintln(out, line)
	}

	h1 := channel.OnSelfAccessStarted(func(e presence.SelfAccessStarted) { emit("holding", e.Resource, e.Users...) })
	h2 := channel.OnUserAccessStarted(func(e presence.UserAccessStarted) { emit("started", e.Resource, e.User) })
	h3 := channel.OnUserAccessFinished(func(e presence.UserAccessFinished) {
		emit("finished", e.Resource, presence.User{ID: e.UserID})
	})
	h4 := channel.OnNotification(func(n presence.Notification) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintf(out, "%s notify   %s\n", now().Format("15:04:05"), string(n.Payload))
	})
	h5 := channel.OnStateChange(func(c presence.StateChange) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintf(out, "%s state    %s -> %s\n", now().Format("15:04:05"), c.From, c.To)
	})
	defer func() {
		for _, h := range []notify.Handle{h1, h2, h3, h4, h5} {
			channel.Unsubscribe(h)
		}
	}()

	if err := channel.Start(ctx); err != nil {
		return err
	}
	defer channel.Close()

	if hold != nil {
		if err := channel.StartResourceAccess(ctx, *hold); err != nil {
			return err
		}
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if hold != nil && channel.State() == presence.StateConnected {
		_ = channel.FinishResourceAccess(stopCtx, *hold)
	}
	if channel.State() == presence.StateConnected {
		return channel.Stop(stopCtx)
	}
	return nil
}

// parseResource reads type/primaryId[/secondaryId].
func parseResource(raw, mode string) (domain.Resource, error) {
	parts := strings.Split(raw, "/")
	if len(parts) < 2 || len(parts) > 3 {
		return domain.Resource{}, fmt.Errorf("invalid resource %q: want type/primaryId[/secondaryId]", raw)
	}

	accessMode, err := domain.ParseAccessMode(mode)
	if err != nil {
		return domain.Resource{}, err
	}

	primary, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return domain.Resource{}, fmt.Errorf("invalid resource %q: primary id: %w", raw, err)
	}

	r := domain.Resource{Type: parts[0], PrimaryID: primary, Mode: accessMode}
	if len(parts) == 3 {
		secondary, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return domain.Resource{}, fmt.Errorf("invalid resource %q: secondary id: %w", raw, err)
		}
		r.SecondaryID = domain.Ptr(secondary)
	}

	if err := r.Validate(); err != nil {
		return domain.Resource{}, err
	}
	return r, nil
}
