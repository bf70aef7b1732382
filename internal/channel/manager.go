package channel

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sawtfeel/livesync/internal/domain"
	"github.com/sawtfeel/livesync/internal/errors"
	"github.com/sawtfeel/livesync/internal/metrics"
)

// State is the lifecycle state of one channel.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Options tunes heartbeat and reconnection behavior.
type Options struct {
	HeartbeatInterval    time.Duration // default 30s
	BaseReconnectDelay   time.Duration // default 1s
	MaxReconnectDelay    time.Duration // default 30s
	MaxReconnectAttempts int           // default 5
}

func (o Options) withDefaults() Options {
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = 30 * time.Second
	}
	if o.BaseReconnectDelay <= 0 {
		o.BaseReconnectDelay = time.Second
	}
	if o.MaxReconnectDelay <= 0 {
		o.MaxReconnectDelay = 30 * time.Second
	}
	if o.MaxReconnectAttempts <= 0 {
		o.MaxReconnectAttempts = 5
	}
	return o
}

// Events are the callbacks a consumer registers with the manager. All
// callbacks run on the manager goroutine: they must return promptly and
// must not call blocking Manager methods.
type Events struct {
	OnOpen        func(key string)
	OnMessage     func(key string, msg domain.Message)
	OnError       func(key string, err error)
	OnStateChange func(key string, state State)
	// OnMaxAttempts fires when reconnection gives up; the consumer is
	// expected to fall back to polling.
	OnMaxAttempts func(key string)
}

// FrameLog archives raw inbound frames for diagnostics. Optional.
type FrameLog interface {
	LogFrame(data []byte)
}

// ChannelInfo is an observable snapshot of one channel.
type ChannelInfo struct {
	Key       string `json:"key"`
	Address   string `json:"address"`
	State     State  `json:"state"`
	Attempts  int    `json:"reconnect_attempts"`
	LastError string `json:"last_error,omitempty"`
}

// --- Command types ---

type managerCmd interface{ managerCmd() }

type cmdConnect struct {
	key     string
	address string
}

func (cmdConnect) managerCmd() {}

type cmdDialResult struct {
	key  string
	gen  uint64
	conn Conn
	err  error
}

func (cmdDialResult) managerCmd() {}

type cmdInbound struct {
	key  string
	gen  uint64
	data []byte
}

func (cmdInbound) managerCmd() {}

type cmdReadClosed struct {
	key string
	gen uint64
	err error
}

func (cmdReadClosed) managerCmd() {}

type cmdHeartbeat struct {
	key string
	gen uint64
}

func (cmdHeartbeat) managerCmd() {}

type cmdRedial struct {
	key string
	gen uint64
}

func (cmdRedial) managerCmd() {}

type cmdSend struct {
	key     string
	msg     domain.Message
	replyCh chan bool
}

func (cmdSend) managerCmd() {}

type cmdDisconnect struct {
	key    string
	doneCh chan struct{}
}

func (cmdDisconnect) managerCmd() {}

type cmdDisconnectAll struct {
	doneCh chan struct{}
}

func (cmdDisconnectAll) managerCmd() {}

type cmdInspect struct {
	key     string
	replyCh chan ChannelInfo
}

func (cmdInspect) managerCmd() {}

type cmdSnapshot struct {
	replyCh chan []ChannelInfo
}

func (cmdSnapshot) managerCmd() {}

type cmdStop struct {
	doneCh chan struct{}
}

func (cmdStop) managerCmd() {}

// --- Per-channel record ---

type channelState struct {
	key            string
	address        string
	state          State
	conn           Conn
	gen            uint64 // invalidates stale read loops, timers and dials
	attempts       int
	lastActivity   time.Time
	lastErr        error
	reconnectTimer clockwork.Timer
	heartbeatStop  chan struct{}
}

// --- Manager ---

// Manager owns one logical streaming connection per key and performs
// connect, reconnect with exponential backoff, heartbeat liveness checks
// and typed inbound dispatch. It is a single goroutine processing commands,
// so per-channel state never needs locking.
type Manager struct {
	cmdCh    chan managerCmd
	dialer   Dialer
	clock    clockwork.Clock
	events   Events
	opts     Options
	frameLog FrameLog
	channels map[string]*channelState
	nextGen  uint64
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewManager creates and starts a channel manager. frameLog may be nil.
func NewManager(dialer Dialer, clock clockwork.Clock, events Events, opts Options, frameLog FrameLog) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cmdCh:    make(chan managerCmd, 256),
		dialer:   dialer,
		clock:    clock,
		events:   events,
		opts:     opts.withDefaults(),
		frameLog: frameLog,
		channels: make(map[string]*channelState),
		ctx:      ctx,
		cancel:   cancel,
	}
	go m.run()
	return m
}

func (m *Manager) run() {
	for cmd := range m.cmdCh {
		switch c := cmd.(type) {
		case cmdConnect:
			m.handleConnect(c.key, c.address)
		case cmdDialResult:
			m.handleDialResult(c)
		case cmdInbound:
			m.handleInbound(c)
		case cmdReadClosed:
			m.handleReadClosed(c)
		case cmdHeartbeat:
			m.handleHeartbeat(c)
		case cmdRedial:
			m.handleRedial(c)
		case cmdSend:
			c.replyCh <- m.handleSend(c.key, c.msg)
		case cmdDisconnect:
			m.handleDisconnect(c.key)
			close(c.doneCh)
		case cmdDisconnectAll:
			for key := range m.channels {
				m.handleDisconnect(key)
			}
			close(c.doneCh)
		case cmdInspect:
			c.replyCh <- m.inspect(c.key)
		case cmdSnapshot:
			out := make([]ChannelInfo, 0, len(m.channels))
			for key := range m.channels {
				out = append(out, m.inspect(key))
			}
			c.replyCh <- out
		case cmdStop:
			for key := range m.channels {
				m.handleDisconnect(key)
			}
			m.cancel()
			close(c.doneCh)
			return
		}
	}
}

// post delivers a command unless the manager has stopped.
func (m *Manager) post(cmd managerCmd) {
	select {
	case m.cmdCh <- cmd:
	case <-m.ctx.Done():
	}
}

// --- Command handlers (manager goroutine only) ---

func (m *Manager) handleConnect(key, address string) {
	if existing, ok := m.channels[key]; ok {
		// Idempotent replace: tear the old channel down first.
		m.teardown(existing, "replaced")
		delete(m.channels, key)
	}

	m.nextGen++
	ch := &channelState{
		key:     key,
		address: address,
		gen:     m.nextGen,
	}
	m.channels[key] = ch
	m.setState(ch, StateConnecting)
	m.dial(ch)
}

func (m *Manager) dial(ch *channelState) {
	key, gen, address := ch.key, ch.gen, ch.address
	go func() {
		conn, err := m.dialer.Dial(m.ctx, address)
		m.post(cmdDialResult{key: key, gen: gen, conn: conn, err: err})
	}()
}

func (m *Manager) handleDialResult(c cmdDialResult) {
	ch, ok := m.channels[c.key]
	if !ok || ch.gen != c.gen {
		// Arrived after a disconnect or replace; discard.
		if c.conn != nil {
			_ = c.conn.Close(CloseGoingAway, "stale dial")
		}
		return
	}

	if c.err != nil {
		ch.lastErr = c.err
		slog.Warn("Channel dial failed", "key", ch.key, "error", c.err)
		m.emitError(ch.key, c.err)
		m.scheduleReconnect(ch)
		return
	}

	ch.conn = c.conn
	ch.attempts = 0
	ch.lastActivity = m.clock.Now()
	m.setState(ch, StateConnected)
	m.startReadLoop(ch)
	m.startHeartbeat(ch)
	slog.Info("Channel connected", "key", ch.key, "address", ch.address)
	if m.events.OnOpen != nil {
		m.events.OnOpen(ch.key)
	}
}

func (m *Manager) startReadLoop(ch *channelState) {
	key, gen, conn := ch.key, ch.gen, ch.conn
	go func() {
		for {
			data, err := conn.ReadMessage()
			if err != nil {
				m.post(cmdReadClosed{key: key, gen: gen, err: err})
				return
			}
			m.post(cmdInbound{key: key, gen: gen, data: data})
		}
	}()
}

func (m *Manager) startHeartbeat(ch *channelState) {
	stop := make(chan struct{})
	ch.heartbeatStop = stop
	key, gen := ch.key, ch.gen
	ticker := m.clock.NewTicker(m.opts.HeartbeatInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				m.post(cmdHeartbeat{key: key, gen: gen})
			case <-stop:
				return
			case <-m.ctx.Done():
				return
			}
		}
	}()
}

func (m *Manager) handleInbound(c cmdInbound) {
	ch, ok := m.channels[c.key]
	if !ok || ch.gen != c.gen {
		return
	}

	ch.lastActivity = m.clock.Now()
	if m.frameLog != nil {
		m.frameLog.LogFrame(c.data)
	}

	msg, err := domain.Decode(c.data)
	if err != nil {
		// Malformed payloads are reported, never fatal to the channel.
		ch.lastErr = err
		metrics.ChannelProtocolErrorsTotal.Inc()
		slog.Warn("Dropping malformed frame", "key", ch.key, "error", err)
		m.emitError(ch.key, err)
		return
	}

	metrics.ChannelMessagesTotal.WithLabelValues(msg.Type()).Inc()
	if errMsg, ok := msg.(domain.ErrorMessage); ok {
		ch.lastErr = errors.Protocol(errMsg.Message, nil)
	}
	if m.events.OnMessage != nil {
		m.events.OnMessage(ch.key, msg)
	}
}

func (m *Manager) handleHeartbeat(c cmdHeartbeat) {
	ch, ok := m.channels[c.key]
	if !ok || ch.gen != c.gen || ch.state != StateConnected {
		return
	}

	// A transport can die without delivering a close frame; treat a silent
	// channel as gone once it misses two heartbeat windows.
	if m.clock.Now().Sub(ch.lastActivity) > 2*m.opts.HeartbeatInterval {
		staleErr := errors.Connectivity("channel stale: no activity within heartbeat window", nil)
		ch.lastErr = staleErr
		slog.Warn("Channel stale, forcing reconnect", "key", ch.key)
		m.emitError(ch.key, staleErr)
		m.dropConn(ch, "stale")
		m.scheduleReconnect(ch)
		return
	}

	data, err := domain.Encode(domain.Ping{Timestamp: float64(m.clock.Now().UnixMilli()) / 1000})
	if err == nil {
		err = ch.conn.WriteMessage(data)
	}
	if err != nil {
		// The close handler owns reconnection; a failed ping only reports.
		m.emitError(ch.key, err)
	}
}

func (m *Manager) handleReadClosed(c cmdReadClosed) {
	ch, ok := m.channels[c.key]
	if !ok || ch.gen != c.gen {
		return
	}

	m.stopHeartbeat(ch)
	ch.conn = nil

	code := closeCodeOf(c.err)
	if code == CloseNormal || code == CloseGoingAway {
		slog.Info("Channel closed", "key", ch.key, "code", code)
		m.setState(ch, StateDisconnected)
		delete(m.channels, ch.key)
		return
	}

	closeErr := errors.Connectivity("channel closed abnormally", c.err)
	ch.lastErr = closeErr
	slog.Warn("Channel closed abnormally", "key", ch.key, "code", code, "error", c.err)
	m.emitError(ch.key, closeErr)
	m.scheduleReconnect(ch)
}

func (m *Manager) scheduleReconnect(ch *channelState) {
	if ch.attempts >= m.opts.MaxReconnectAttempts {
		ch.lastErr = errors.Exhaustion("reconnect attempts exhausted", ch.lastErr)
		slog.Error("Channel gave up reconnecting", "key", ch.key, "attempts", ch.attempts)
		m.setState(ch, StateDisconnected)
		if m.events.OnMaxAttempts != nil {
			m.events.OnMaxAttempts(ch.key)
		}
		return
	}

	delay := m.opts.BaseReconnectDelay << ch.attempts
	if delay > m.opts.MaxReconnectDelay {
		delay = m.opts.MaxReconnectDelay
	}
	ch.attempts++
	metrics.ChannelReconnectsTotal.WithLabelValues(ch.key).Inc()
	m.setState(ch, StateReconnecting)
	slog.Info("Channel reconnect scheduled", "key", ch.key, "attempt", ch.attempts, "delay", delay)

	key, gen := ch.key, ch.gen
	ch.reconnectTimer = m.clock.AfterFunc(delay, func() {
		m.post(cmdRedial{key: key, gen: gen})
	})
}

func (m *Manager) handleRedial(c cmdRedial) {
	ch, ok := m.channels[c.key]
	if !ok || ch.gen != c.gen || ch.state != StateReconnecting {
		return
	}
	ch.reconnectTimer = nil
	m.setState(ch, StateConnecting)
	m.dial(ch)
}

func (m *Manager) handleSend(key string, msg domain.Message) bool {
	ch, ok := m.channels[key]
	if !ok || ch.state != StateConnected || ch.conn == nil {
		metrics.ChannelSendFailuresTotal.Inc()
		return false
	}

	data, err := domain.Encode(msg)
	if err == nil {
		err = ch.conn.WriteMessage(data)
	}
	if err != nil {
		ch.lastErr = err
		metrics.ChannelSendFailuresTotal.Inc()
		m.emitError(key, err)
		return false
	}
	return true
}

func (m *Manager) handleDisconnect(key string) {
	ch, ok := m.channels[key]
	if !ok {
		return
	}
	m.teardown(ch, "client disconnect")
	m.setState(ch, StateDisconnected)
	delete(m.channels, key)
	slog.Info("Channel disconnected", "key", key)
}

// teardown cancels timers, stops the heartbeat and closes the transport
// with a normal-closure code. The generation bump discards anything still
// in flight for the old connection.
func (m *Manager) teardown(ch *channelState, reason string) {
	if ch.reconnectTimer != nil {
		ch.reconnectTimer.Stop()
		ch.reconnectTimer = nil
	}
	m.dropConn(ch, reason)
}

func (m *Manager) dropConn(ch *channelState, reason string) {
	m.stopHeartbeat(ch)
	if ch.conn != nil {
		_ = ch.conn.Close(CloseNormal, reason)
		ch.conn = nil
	}
	m.nextGen++
	ch.gen = m.nextGen
}

func (m *Manager) stopHeartbeat(ch *channelState) {
	if ch.heartbeatStop != nil {
		close(ch.heartbeatStop)
		ch.heartbeatStop = nil
	}
}

func (m *Manager) setState(ch *channelState, state State) {
	if ch.state == state {
		return
	}
	if ch.state == StateConnected {
		metrics.ChannelsConnected.Dec()
	}
	if state == StateConnected {
		metrics.ChannelsConnected.Inc()
	}
	ch.state = state
	if m.events.OnStateChange != nil {
		m.events.OnStateChange(ch.key, state)
	}
}

func (m *Manager) emitError(key string, err error) {
	if m.events.OnError != nil {
		m.events.OnError(key, err)
	}
}

func (m *Manager) inspect(key string) ChannelInfo {
	ch, ok := m.channels[key]
	if !ok {
		return ChannelInfo{Key: key, State: StateDisconnected}
	}
	info := ChannelInfo{
		Key:      ch.key,
		Address:  ch.address,
		State:    ch.state,
		Attempts: ch.attempts,
	}
	if ch.lastErr != nil {
		info.LastError = ch.lastErr.Error()
	}
	return info
}

// --- Public API ---

// Connect opens (or replaces) the channel for key. The dial happens
// asynchronously; the outcome surfaces through OnOpen or OnError.
func (m *Manager) Connect(key, address string) {
	m.post(cmdConnect{key: key, address: address})
}

// Send transmits msg if the channel is connected. It returns false rather
// than failing loudly so callers can choose to buffer or drop.
func (m *Manager) Send(key string, msg domain.Message) bool {
	replyCh := make(chan bool, 1)
	m.post(cmdSend{key: key, msg: msg, replyCh: replyCh})
	select {
	case ok := <-replyCh:
		return ok
	case <-m.ctx.Done():
		return false
	}
}

// Disconnect closes the channel for key terminally: pending reconnects are
// canceled and the record removed.
func (m *Manager) Disconnect(key string) {
	doneCh := make(chan struct{})
	m.post(cmdDisconnect{key: key, doneCh: doneCh})
	select {
	case <-doneCh:
	case <-m.ctx.Done():
	}
}

// DisconnectAll disconnects every registered channel.
func (m *Manager) DisconnectAll() {
	doneCh := make(chan struct{})
	m.post(cmdDisconnectAll{doneCh: doneCh})
	select {
	case <-doneCh:
	case <-m.ctx.Done():
	}
}

// IsConnected reports whether the channel for key is connected.
func (m *Manager) IsConnected(key string) bool {
	return m.State(key) == StateConnected
}

// State returns the lifecycle state for key; unknown keys are disconnected.
func (m *Manager) State(key string) State {
	return m.Info(key).State
}

// LastError returns the last error message observed on key, if any.
func (m *Manager) LastError(key string) string {
	return m.Info(key).LastError
}

// ReconnectAttempts returns the current reconnect-attempt counter for key.
func (m *Manager) ReconnectAttempts(key string) int {
	return m.Info(key).Attempts
}

// Info returns an observable snapshot for key.
func (m *Manager) Info(key string) ChannelInfo {
	replyCh := make(chan ChannelInfo, 1)
	m.post(cmdInspect{key: key, replyCh: replyCh})
	select {
	case info := <-replyCh:
		return info
	case <-m.ctx.Done():
		return ChannelInfo{Key: key, State: StateDisconnected}
	}
}

// Snapshot returns snapshots of all registered channels.
func (m *Manager) Snapshot() []ChannelInfo {
	replyCh := make(chan []ChannelInfo, 1)
	m.post(cmdSnapshot{replyCh: replyCh})
	select {
	case out := <-replyCh:
		return out
	case <-m.ctx.Done():
		return nil
	}
}

// Stop disconnects every channel and shuts the manager down. Used at
// process teardown.
func (m *Manager) Stop() {
	doneCh := make(chan struct{})
	select {
	case m.cmdCh <- cmdStop{doneCh: doneCh}:
		<-doneCh
	case <-m.ctx.Done():
	}
}
