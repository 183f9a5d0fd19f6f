// Package presence keeps one hub connection per process and exchanges
// resource-access signals with it. It is advisory: nothing here prevents two
// sessions from editing the same resource.
package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bnema/viewsync/internal/domain"
	"github.com/bnema/viewsync/internal/notify"
	"github.com/bnema/viewsync/internal/ports"
)

const InstanceHeader = "X-Client-Instance"

var ErrNoToken = errors.New("no access token")

type Settings struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	PingInterval     time.Duration
	// ReconnectDelays is waited before each reconnect attempt in turn. When
	// it is exhausted the channel gives up and ends Disconnected.
	ReconnectDelays []time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		ReadTimeout:      30 * time.Second,
		PingInterval:     15 * time.Second,
		ReconnectDelays:  []time.Duration{0, 2 * time.Second, 10 * time.Second, 30 * time.Second},
	}
}

type Option func(*Channel)

func WithSettings(settings Settings) Option {
	return func(c *Channel) { c.settings = settings }
}

// WithToken authenticates with a fixed bearer token.
func WithToken(token string) Option {
	return func(c *Channel) { c.staticToken = token }
}

// WithTokenStore reads the bearer token from store under key on every dial.
func WithTokenStore(store ports.TokenStore, key string) Option {
	return func(c *Channel) {
		c.tokens = store
		c.tokenKey = key
	}
}

func WithDialer(dialer *websocket.Dialer) Option {
	return func(c *Channel) { c.dialer = dialer }
}

func WithInstanceID(id uuid.UUID) Option {
	return func(c *Channel) { c.instanceID = id }
}

type Channel struct {
	url         string
	settings    Settings
	dialer      *websocket.Dialer
	staticToken string
	tokens      ports.TokenStore
	tokenKey    string
	instanceID  uuid.UUID

	mu         sync.Mutex
	state      State
	generation uint64
	conn       *websocket.Conn
	cancelDial context.CancelFunc
	cancel     context.CancelFunc
	done       chan struct{}
	held       map[domain.ResourceKey]domain.Resource

	// listening is non-zero while the read goroutine runs listeners
	listening atomic.Int32

	// gorilla/websocket supports one concurrent writer
	writeMu sync.Mutex

	notifications notify.Registry[Notification]
	selfStarted   notify.Registry[SelfAccessStarted]
	userStarted   notify.Registry[UserAccessStarted]
	userFinished  notify.Registry[UserAccessFinished]
	stateChanges  notify.Registry[StateChange]
}

// New returns a disconnected channel for the hub at rawURL. http and https
// URLs are mapped to ws and wss.
func New(rawURL string, opts ...Option) *Channel {
	c := &Channel{
		url:        websocketURL(rawURL),
		settings:   DefaultSettings(),
		instanceID: uuid.New(),
		held:       map[domain.ResourceKey]domain.Resource{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) InstanceID() uuid.UUID {
	return c.instanceID
}

// Held returns the resources announced with StartResourceAccess and not
// yet finished.
func (c *Channel) Held() []domain.Resource {
	c.mu.Lock()
	defer c.mu.Unlock()
	return heldLocked(c.held)
}

// Start connects to the hub. It is only valid while Disconnected. A Close
// during the dial aborts it and Start returns a *StateError.
func (c *Channel) Start(ctx context.Context) error {
	dialCtx, cancelDial := context.WithCancel(ctx)
	defer cancelDial()

	c.mu.Lock()
	if c.state != StateDisconnected {
		state := c.state
		c.mu.Unlock()
		return &StateError{Op: "start", State: state}
	}
	c.generation++
	generation := c.generation
	c.cancelDial = cancelDial
	change := c.setStateLocked(StateConnecting)
	c.mu.Unlock()
	c.emitState(change)

	conn, leftover, err := c.dial(dialCtx)

	c.mu.Lock()
	if c.generation != generation || c.state != StateConnecting {
		state := c.state
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		glog.V(2).Infof("[presence]start abandoned, channel is %s\n", state)
		return &StateError{Op: "start", State: state}
	}
	c.cancelDial = nil
	if err != nil {
		change := c.setStateLocked(StateDisconnected)
		c.mu.Unlock()
		c.emitState(change)
		return fmt.Errorf("start presence: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.conn = conn
	c.cancel = cancel
	c.done = done
	change = c.setStateLocked(StateConnected)
	c.mu.Unlock()
	c.emitState(change)

	go c.run(runCtx, conn, leftover, done)
	return nil
}

// Stop disconnects from the hub. It is only valid while Connected. Held
// resources are forgotten. Called from an On* listener it does not wait for
// the read goroutine, which is the caller's own.
func (c *Channel) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateConnected {
		state := c.state
		c.mu.Unlock()
		return &StateError{Op: "stop", State: state}
	}
	change := c.setStateLocked(StateDisconnecting)
	conn, cancel, done := c.conn, c.cancel, c.done
	c.mu.Unlock()
	c.emitState(change)

	c.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(c.settings.WriteTimeout))
	if err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
		glog.V(2).Infof("[presence]close frame error = %s\n", err)
	}
	c.writeMu.Unlock()

	cancel()
	var err error
	if c.listening.Load() == 0 {
		select {
		case <-done:
		case <-ctx.Done():
			err = ctx.Err()
		}
	}

	c.mu.Lock()
	c.conn = nil
	c.cancel = nil
	clear(c.held)
	change = c.setStateLocked(StateDisconnected)
	c.mu.Unlock()
	c.emitState(change)
	return err
}

// Close tears the channel down from any state, aborting a dial in progress.
// Unlike Stop it never fails. Called from an On* listener it does not wait
// for the read goroutine.
func (c *Channel) Close() {
	c.mu.Lock()
	cancel, cancelDial, done := c.cancel, c.cancelDial, c.done
	c.cancelDial = nil
	c.mu.Unlock()

	if cancelDial != nil {
		cancelDial()
	}
	if cancel != nil {
		cancel()
		if c.listening.Load() == 0 {
			<-done
		}
	}

	c.mu.Lock()
	c.conn = nil
	c.cancel = nil
	clear(c.held)
	if c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}
	change := c.setStateLocked(StateDisconnected)
	c.mu.Unlock()
	c.emitState(change)
}

// StartResourceAccess tells the hub this session began accessing r.
func (c *Channel) StartResourceAccess(ctx context.Context, r domain.Resource) error {
	if err := r.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.state != StateConnected {
		state := c.state
		c.mu.Unlock()
		return &StateError{Op: "start resource access", State: state}
	}
	conn := c.conn
	key := r.Key()
	_, wasHeld := c.held[key]
	c.held[key] = r
	c.mu.Unlock()

	if err := c.invoke(ctx, conn, targetStartResourceAccess, r); err != nil {
		if !wasHeld {
			c.mu.Lock()
			delete(c.held, key)
			c.mu.Unlock()
		}
		return err
	}
	return nil
}

// FinishResourceAccess tells the hub this session stopped accessing r.
func (c *Channel) FinishResourceAccess(ctx context.Context, r domain.Resource) error {
	c.mu.Lock()
	if c.state != StateConnected {
		state := c.state
		c.mu.Unlock()
		return &StateError{Op: "finish resource access", State: state}
	}
	conn := c.conn
	delete(c.held, r.Key())
	c.mu.Unlock()

	return c.invoke(ctx, conn, targetFinishResourceAccess, r)
}

// The On* listeners run on the read goroutine in transport order. They may
// call Stop or Close, which then return without waiting for that goroutine.

func (c *Channel) OnNotification(fn func(Notification)) notify.Handle {
	return c.notifications.Subscribe(fn)
}

func (c *Channel) OnSelfAccessStarted(fn func(SelfAccessStarted)) notify.Handle {
	return c.selfStarted.Subscribe(fn)
}

func (c *Channel) OnUserAccessStarted(fn func(UserAccessStarted)) notify.Handle {
	return c.userStarted.Subscribe(fn)
}

func (c *Channel) OnUserAccessFinished(fn func(UserAccessFinished)) notify.Handle {
	return c.userFinished.Subscribe(fn)
}

func (c *Channel) OnStateChange(fn func(StateChange)) notify.Handle {
	return c.stateChanges.Subscribe(fn)
}

// Unsubscribe removes a listener registered with any On* method.
func (c *Channel) Unsubscribe(h notify.Handle) bool {
	return c.notifications.Unsubscribe(h) ||
		c.selfStarted.Unsubscribe(h) ||
		c.userStarted.Unsubscribe(h) ||
		c.userFinished.Unsubscribe(h) ||
		c.stateChanges.Unsubscribe(h)
}

// Self returns the user named by the access token. The token is not
// verified; the hub does that.
func (c *Channel) Self(ctx context.Context) (User, error) {
	token, err := c.token(ctx)
	if err != nil {
		return User{}, err
	}
	if token == "" {
		return User{}, ErrNoToken
	}
	return userFromToken(token)
}

func userFromToken(token string) (User, error) {
	parsed, _, err := gojwt.NewParser().ParseUnverified(token, gojwt.MapClaims{})
	if err != nil {
		return User{}, fmt.Errorf("parse access token: %w", err)
	}
	claims := parsed.Claims.(gojwt.MapClaims)

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return User{}, fmt.Errorf("access token has no subject")
	}
	user := User{ID: subject}
	for _, claim := range []string{"name", "preferred_username", "email"} {
		if name, ok := claims[claim].(string); ok && name != "" {
			user.Name = name
			break
		}
	}
	return user, nil
}

func (c *Channel) token(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return c.staticToken, nil
	}
	token, err := c.tokens.Get(ctx, c.tokenKey)
	if err != nil {
		return "", fmt.Errorf("read access token: %w", err)
	}
	return strings.TrimSpace(token), nil
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, [][]byte, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, nil, err
	}

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	header.Set(InstanceHeader, c.instanceID.String())

	dialer := websocket.DefaultDialer
	if c.dialer != nil {
		dialer = c.dialer
	}
	d := *dialer
	d.HandshakeTimeout = c.settings.HandshakeTimeout

	conn, resp, err := d.DialContext(ctx, c.url, header)
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return nil, nil, fmt.Errorf("dial hub: %w", domain.ErrUnauthorized)
			case http.StatusForbidden:
				return nil, nil, fmt.Errorf("dial hub: %w", domain.ErrForbidden)
			}
		}
		return nil, nil, fmt.Errorf("dial hub: %w: %w", domain.ErrConnection, err)
	}

	stopWatch := context.AfterFunc(ctx, func() { conn.Close() })
	success := false
	defer func() {
		if !success {
			stopWatch()
			conn.Close()
		}
	}()

	hello, err := handshakeFrame()
	if err != nil {
		return nil, nil, err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(c.settings.HandshakeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
		return nil, nil, fmt.Errorf("send handshake: %w: %w", domain.ErrConnection, err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(c.settings.HandshakeTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, nil, fmt.Errorf("read handshake: %w: %w", domain.ErrConnection, err)
	}

	frames := splitFrames(data)
	if len(frames) == 0 {
		return nil, nil, errors.New("empty handshake response")
	}
	var reply handshakeResponse
	if err := json.Unmarshal(frames[0], &reply); err != nil {
		return nil, nil, fmt.Errorf("decode handshake: %w", err)
	}
	if reply.Error != "" {
		return nil, nil, fmt.Errorf("hub rejected handshake: %s", reply.Error)
	}

	_ = conn.SetReadDeadline(time.Time{})
	if !stopWatch() {
		return nil, nil, fmt.Errorf("dial hub: %w", ctx.Err())
	}
	success = true
	glog.V(2).Infof("[presence]connected %s instance=%s\n", c.url, c.instanceID)
	return conn, frames[1:], nil
}

func (c *Channel) invoke(ctx context.Context, conn *websocket.Conn, target string, args ...any) error {
	message, err := invocationFrame(target, args...)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(c.settings.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(deadline)
	if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
		return fmt.Errorf("invoke %s: %w: %w", target, domain.ErrConnection, err)
	}
	glog.V(2).Infof("[presence]%s->\n", target)
	return nil
}

// run owns the connection until the channel is stopped or gives up
// reconnecting.
func (c *Channel) run(ctx context.Context, conn *websocket.Conn, leftover [][]byte, done chan struct{}) {
	defer close(done)

	for {
		err := c.serve(ctx, conn, leftover)
		if ctx.Err() != nil {
			return
		}
		glog.Infof("[presence]connection lost = %s\n", err)

		conn, leftover = c.reconnect(ctx)
		if conn == nil {
			return
		}
	}
}

func (c *Channel) serve(ctx context.Context, conn *websocket.Conn, leftover [][]byte) error {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go c.pingLoop(pingCtx, conn)

	for _, f := range leftover {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := c.handleFrame(f); err != nil {
			return err
		}
	}

	for {
		if c.settings.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(c.settings.ReadTimeout))
		}
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if messageType != websocket.TextMessage {
			glog.V(2).Infof("[presence]other=%d<-\n", messageType)
			continue
		}
		for _, f := range splitFrames(data) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := c.handleFrame(f); err != nil {
				return err
			}
		}
	}
}

func (c *Channel) pingLoop(ctx context.Context, conn *websocket.Conn) {
	if c.settings.PingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.settings.PingInterval)
	defer ticker.Stop()

	ping, err := pingFrame()
	if err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(c.settings.WriteTimeout))
			err := conn.WriteMessage(websocket.TextMessage, ping)
			c.writeMu.Unlock()
			if err != nil {
				// a failed write cannot be recovered; make the reader notice
				glog.Infof("[presence]ping error = %s\n", err)
				conn.Close()
				return
			}
		}
	}
}

// reconnect redials with the configured delays. It returns nil when the
// channel was stopped or every attempt failed.
func (c *Channel) reconnect(ctx context.Context) (*websocket.Conn, [][]byte) {
	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return nil, nil
	}
	c.conn = nil
	change := c.setStateLocked(StateReconnecting)
	c.mu.Unlock()
	c.emitStateFromRun(change)

	for attempt, delay := range c.settings.ReconnectDelays {
		select {
		case <-ctx.Done():
			return nil, nil
		case <-time.After(delay):
		}

		conn, leftover, err := c.dial(ctx)
		if err != nil {
			glog.Infof("[presence]reconnect attempt %d = %s\n", attempt+1, err)
			continue
		}

		c.mu.Lock()
		if ctx.Err() != nil {
			c.mu.Unlock()
			conn.Close()
			return nil, nil
		}
		c.conn = conn
		held := heldLocked(c.held)
		change := c.setStateLocked(StateConnected)
		c.mu.Unlock()
		c.emitStateFromRun(change)

		for _, r := range held {
			if err := c.invoke(ctx, conn, targetStartResourceAccess, r); err != nil {
				glog.Infof("[presence]re-announce %s = %s\n", r, err)
			}
		}
		return conn, leftover
	}

	glog.Infof("[presence]giving up after %d reconnect attempts\n", len(c.settings.ReconnectDelays))
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	clear(c.held)
	change = c.setStateLocked(StateDisconnected)
	c.mu.Unlock()
	c.emitStateFromRun(change)
	if cancel != nil {
		cancel()
	}
	return nil, nil
}

func (c *Channel) handleFrame(data []byte) error {
	var msg hubMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		glog.Infof("[presence]drop undecodable frame = %s\n", err)
		return nil
	}

	switch msg.Type {
	case messageInvocation:
		c.dispatch(msg)
	case messagePing:
		glog.V(2).Infof("[presence]ping<-\n")
	case messageClose:
		if msg.Error != "" {
			return fmt.Errorf("hub closed connection: %s", msg.Error)
		}
		return errors.New("hub closed connection")
	default:
		glog.V(2).Infof("[presence]other type=%d<-\n", msg.Type)
	}
	return nil
}

// dispatch delivers one inbound invocation on the read goroutine, so
// listeners observe events in transport order.
func (c *Channel) dispatch(msg hubMessage) {
	glog.V(2).Infof("[presence]%s<-\n", msg.Target)
	c.listening.Add(1)
	defer c.listening.Add(-1)

	var err error
	switch {
	case strings.EqualFold(msg.Target, targetReceiveNotification):
		var n Notification
		if len(msg.Arguments) > 0 {
			n.Payload = msg.Arguments[0]
		}
		c.notifications.Emit(n)
	case strings.EqualFold(msg.Target, targetResourceAccessStarted):
		var e SelfAccessStarted
		if err = decodeArgs(msg.Arguments, &e.Resource, &e.Users); err == nil {
			c.selfStarted.Emit(e)
		}
	case strings.EqualFold(msg.Target, targetUserStartedResourceAccess):
		var e UserAccessStarted
		if err = decodeArgs(msg.Arguments, &e.Resource, &e.User); err == nil {
			c.userStarted.Emit(e)
		}
	case strings.EqualFold(msg.Target, targetUserFinishedResourceAccess):
		var e UserAccessFinished
		if err = decodeArgs(msg.Arguments, &e.Resource, &e.UserID); err == nil {
			c.userFinished.Emit(e)
		}
	default:
		glog.V(2).Infof("[presence]no handler for %s\n", msg.Target)
	}
	if err != nil {
		glog.Infof("[presence]drop %s = %s\n", msg.Target, err)
	}
}

func (c *Channel) setStateLocked(next State) StateChange {
	change := StateChange{From: c.state, To: next}
	c.state = next
	return change
}

func (c *Channel) emitState(change StateChange) {
	if change.From == change.To {
		return
	}
	glog.V(2).Infof("[presence]state %s -> %s\n", change.From, change.To)
	c.stateChanges.Emit(change)
}

// emitStateFromRun is emitState for changes made by the read goroutine.
func (c *Channel) emitStateFromRun(change StateChange) {
	c.listening.Add(1)
	defer c.listening.Add(-1)
	c.emitState(change)
}

func heldLocked(held map[domain.ResourceKey]domain.Resource) []domain.Resource {
	resources := make([]domain.Resource, 0, len(held))
	for _, r := range held {
		resources = append(resources, r)
	}
	slices.SortFunc(resources, func(a, b domain.Resource) int {
		return strings.Compare(a.String(), b.String())
	})
	return resources
}

func websocketURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	return u.String()
}
