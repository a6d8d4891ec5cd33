package stream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/streamwatch/internal/logfields"
	"git.home.luguber.info/inful/streamwatch/internal/metrics"
)

// State is the connection lifecycle state. Transitions are driven only by
// the Manager.
type State int

const (
	// StateIdle means no connection was ever attempted.
	StateIdle State = iota
	// StateConnecting means the handshake is in flight.
	StateConnecting
	// StateOpen means the stream is live and frames are being consumed.
	StateOpen
	// StateClosed means the connection ended, by error or by request. It
	// stays Closed until an explicit reconnect.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ManagerConfig carries the connection parameters for a Manager.
type ManagerConfig struct {
	// StreamURL is the base URL of the streaming service.
	StreamURL string
	// EventsPath is the SSE endpoint path, default "/stream".
	EventsPath string
	// PingPath is the reachability probe path, default "/stream/ping".
	PingPath string
	// Token is an optional bearer token passed as a query parameter, the
	// way EventSource clients deliver auth.
	Token string
	// PingTimeout bounds the reachability probe, default 3s.
	PingTimeout time.Duration
	// Client is the HTTP client used for the stream; defaults to a client
	// with no overall timeout (the stream is long-lived).
	Client *http.Client
	// Recorder receives pipeline metrics; nil means no metrics.
	Recorder metrics.Recorder
	// OnEvent, when set, observes every appended event after it enters the
	// buffer. Used to tee events into a session archive.
	OnEvent func(Event)
}

// Manager owns the lifecycle of one streaming connection: connect, consume,
// disconnect. Decoded events are appended to the buffer; decode failures are
// logged and dropped; transport failures transition the state to Closed and
// are retained as the last error. There is no automatic reconnection.
type Manager struct {
	cfg    ManagerConfig
	buffer *Buffer
	rec    metrics.Recorder

	mu       sync.Mutex
	state    State
	lastErr  error
	gen      uint64
	cancel   context.CancelFunc
	openedAt time.Time
}

// NewManager creates a Manager writing into buffer.
func NewManager(buffer *Buffer, cfg ManagerConfig) *Manager {
	if cfg.EventsPath == "" {
		cfg.EventsPath = "/stream"
	}
	if cfg.PingPath == "" {
		cfg.PingPath = "/stream/ping"
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 3 * time.Second
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	rec := cfg.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Manager{
		cfg:    cfg,
		buffer: buffer,
		rec:    rec,
		state:  StateIdle,
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastError returns the most recent connection-level error, or nil.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Connect opens the streaming connection scoped by criteria. Calling Connect
// while Connecting or Open is a no-op; a second concurrent connection is
// never created. Reconnecting with different criteria requires Disconnect
// first.
//
// The handshake happens synchronously; frame consumption continues in the
// background until the transport fails, ctx is canceled, or Disconnect is
// called.
func (m *Manager) Connect(ctx context.Context, criteria Criteria) error {
	m.mu.Lock()
	if m.state == StateConnecting || m.state == StateOpen {
		m.mu.Unlock()
		m.rec.IncConnectAttempt(metrics.ConnectNoop)
		slog.Debug("connect ignored, stream already active")
		return nil
	}
	if m.cfg.StreamURL == "" {
		err := &ConfigurationError{Field: "stream URL"}
		m.lastErr = err
		m.mu.Unlock()
		m.rec.IncConnectAttempt(metrics.ConnectConfigError)
		return err
	}

	endpoint, err := m.eventsURL(criteria)
	if err != nil {
		m.lastErr = err
		m.mu.Unlock()
		m.rec.IncConnectAttempt(metrics.ConnectConfigError)
		return err
	}

	m.state = StateConnecting
	m.lastErr = nil
	m.gen++
	gen := m.gen
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	req, err := http.NewRequestWithContext(runCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		cerr := &ConnectionError{Stage: "connect", Cause: err}
		m.fail(gen, cerr)
		return cerr
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := m.cfg.Client.Do(req)
	if err != nil {
		cerr := &ConnectionError{Stage: "connect", Cause: err}
		m.fail(gen, cerr)
		return cerr
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		cerr := &ConnectionError{Stage: "connect", Cause: fmt.Errorf("unexpected status %s", resp.Status)}
		m.fail(gen, cerr)
		return cerr
	}

	m.mu.Lock()
	if m.gen != gen {
		// Disconnected while the handshake was in flight.
		m.mu.Unlock()
		_ = resp.Body.Close()
		return nil
	}
	m.state = StateOpen
	m.openedAt = time.Now()
	m.mu.Unlock()

	m.rec.IncConnectAttempt(metrics.ConnectOpened)
	slog.Info("stream connected", logfields.URL(redactToken(endpoint)))

	go m.readLoop(gen, resp.Body)
	return nil
}

// Disconnect closes the underlying connection if any and transitions to
// Closed. It is idempotent and releases the transport synchronously; frames
// already in flight are discarded by the generation guard.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.gen++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	wasOpen := m.state == StateOpen
	opened := m.openedAt
	m.openedAt = time.Time{}
	m.state = StateClosed
	m.mu.Unlock()

	if wasOpen {
		m.rec.ObserveStreamDuration(time.Since(opened))
	}
	slog.Info("stream disconnected", logfields.State(StateClosed.String()))
}

// Ping probes the stream service reachability endpoint. Failure is
// non-fatal: callers may still attempt Connect afterwards.
func (m *Manager) Ping(ctx context.Context) error {
	if m.cfg.StreamURL == "" {
		return &ConfigurationError{Field: "stream URL"}
	}
	endpoint, err := url.JoinPath(m.cfg.StreamURL, m.cfg.PingPath)
	if err != nil {
		return &ConfigurationError{Field: "stream URL"}
	}

	pingCtx, cancel := context.WithTimeout(ctx, m.cfg.PingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(pingCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &ConnectionError{Stage: "ping", Cause: err}
	}
	if m.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+m.cfg.Token)
	}

	resp, err := m.cfg.Client.Do(req)
	if err != nil {
		return &ConnectionError{Stage: "ping", Cause: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return &ConnectionError{Stage: "ping", Cause: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	return nil
}

// readLoop consumes SSE frames until the transport ends or the generation
// is superseded by Disconnect/reconnect.
func (m *Manager) readLoop(gen uint64, body io.ReadCloser) {
	defer body.Close()

	var frames, dropped int64
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data []string
	flush := func() {
		if len(data) == 0 {
			return
		}
		if m.dispatch(gen, strings.Join(data, "\n")) {
			frames++
		} else {
			dropped++
		}
		data = data[:0]
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ":") {
			continue // heartbeat comment
		}
		if line == "" {
			flush()
			continue
		}
		data = append(data, line)
	}
	flush()

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	m.fail(gen, &ConnectionError{Stage: "read", Cause: err})
	slog.Info("stream reader finished", logfields.Frames(frames), logfields.Dropped(dropped))
}

// dispatch decodes one frame and appends it. Returns false when the frame
// was dropped. Frames belonging to a superseded generation are ignored.
func (m *Manager) dispatch(gen uint64, raw string) bool {
	if !m.isCurrent(gen) {
		return false
	}
	ev, err := Decode(raw)
	if err != nil {
		m.rec.IncFrameDropped()
		slog.Warn("dropping undecodable frame", logfields.Error(err))
		return false
	}
	if !m.isCurrent(gen) {
		return false
	}
	m.buffer.Append(ev)
	m.rec.IncFrameDecoded()
	m.rec.IncEvent(string(ev.Type), metrics.SourceLive)
	m.rec.SetBufferSize(m.buffer.Len())
	if m.cfg.OnEvent != nil {
		m.cfg.OnEvent(ev)
	}
	return true
}

// fail records a terminal transport error for the given generation. A stale
// generation (already disconnected or reconnected) is ignored.
func (m *Manager) fail(gen uint64, err *ConnectionError) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.state = StateClosed
	m.lastErr = err
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	wasOpen := !m.openedAt.IsZero()
	opened := m.openedAt
	m.openedAt = time.Time{}
	m.mu.Unlock()

	if wasOpen {
		m.rec.ObserveStreamDuration(time.Since(opened))
	}
	if err.Stage == "connect" {
		m.rec.IncConnectAttempt(metrics.ConnectFailed)
	}
	slog.Warn("stream closed", logfields.State(StateClosed.String()), logfields.Error(err))
}

func (m *Manager) isCurrent(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen == gen
}

// eventsURL builds the SSE endpoint URL with the criteria and auth token as
// query parameters.
func (m *Manager) eventsURL(criteria Criteria) (string, error) {
	base, err := url.Parse(m.cfg.StreamURL)
	if err != nil {
		return "", &ConfigurationError{Field: "stream URL"}
	}
	joined, err := url.JoinPath(base.String(), m.cfg.EventsPath)
	if err != nil {
		return "", &ConfigurationError{Field: "stream URL"}
	}
	u, err := url.Parse(joined)
	if err != nil {
		return "", &ConfigurationError{Field: "stream URL"}
	}

	q := u.Query()
	if m.cfg.Token != "" {
		q.Set("token", m.cfg.Token)
	}
	if criteria.EventType != "" && criteria.EventType != CriteriaAll {
		q.Set("type", criteria.EventType)
	}
	if criteria.ActorOnly {
		q.Set("userOnly", "true")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// redactToken hides the auth token in logged URLs.
func redactToken(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "***")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
