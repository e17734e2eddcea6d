package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zrougamed/cerberus-watch/internal/backend"
	"github.com/zrougamed/cerberus-watch/internal/databases"
	"github.com/zrougamed/cerberus-watch/internal/eventlog"
	"github.com/zrougamed/cerberus-watch/internal/logger"
	"github.com/zrougamed/cerberus-watch/internal/metrics"
	"github.com/zrougamed/cerberus-watch/internal/models"
	"github.com/zrougamed/cerberus-watch/internal/presentation"
	"github.com/zrougamed/cerberus-watch/internal/stream"

	"github.com/google/uuid"
)

const DEFAULT_DURATION = 10

var (
	ErrInvalidDuration = errors.New("invalid duration")
	ErrClosed          = errors.New("monitor closed")
)

// Backend is the simulation service as seen by the monitor. OpenStream must
// return without invoking any hook on the calling goroutine.
type Backend interface {
	StartSimulation(duration int) (*models.StartResponse, error)
	OpenStream(ctx context.Context, hooks stream.Hooks) stream.Handle
}

type Options struct {
	Renderer *presentation.Renderer
	Log      *eventlog.Log
	// Prefs is optional; when set the last requested duration is remembered.
	Prefs *databases.Preferences
	// Dispatch runs the start call off the caller's goroutine. Defaults to
	// starting a goroutine.
	Dispatch func(func())
}

// Monitor owns the lifecycle of the single monitoring session: the start
// control, the start call, the stream subscription and the rendered view.
type Monitor struct {
	backend  Backend
	renderer *presentation.Renderer
	log      *eventlog.Log
	prefs    *databases.Preferences
	dispatch func(func())
	logger   *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.Mutex
	closed         bool
	state          models.SessionState
	controlEnabled bool
	starting       bool
	startGen       uint64
	streamGen      uint64
	sub            stream.Handle
	sessionID      string
	lastDuration   int
	display        *models.DisplayState
	progress       float64
	progressText   string

	notifyMu     sync.Mutex
	listenersMu  sync.RWMutex
	listeners    map[int]func(models.View)
	nextListener int
}

func New(backend Backend, opts Options) (*Monitor, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if opts.Renderer == nil {
		opts.Renderer = presentation.NewRenderer(databases.LoadDefaultTopology(), "en")
	}
	if opts.Log == nil {
		log, err := eventlog.New(eventlog.DEFAULT_CAPACITY)
		if err != nil {
			return nil, err
		}
		opts.Log = log
	}
	if opts.Dispatch == nil {
		opts.Dispatch = func(f func()) { go f() }
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Monitor{
		backend:        backend,
		renderer:       opts.Renderer,
		log:            opts.Log,
		prefs:          opts.Prefs,
		dispatch:       opts.Dispatch,
		logger:         logger.NewLogger("Monitor"),
		ctx:            ctx,
		cancel:         cancel,
		state:          models.SessionIdle,
		controlEnabled: true,
		progressText:   "0%",
		listeners:      make(map[int]func(models.View)),
	}

	if m.prefs != nil {
		if d, ok := m.prefs.LastDuration(); ok {
			if d >= models.MIN_DURATION && d <= models.MAX_DURATION {
				m.lastDuration = d
			} else if err := m.prefs.Forget(); err != nil {
				m.logger.Warnf("Could not drop stored duration %d: %v", d, err)
			}
		}
	}

	return m, nil
}

// Ready records the initialization log line shown when the dashboard comes up.
func (m *Monitor) Ready() {
	m.log.Append("System initialized and ready", models.SeveritySuccess)
	m.notify()
}

// DefaultDuration is the value pre-filled in the duration input.
func (m *Monitor) DefaultDuration() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastDuration >= models.MIN_DURATION && m.lastDuration <= models.MAX_DURATION {
		return m.lastDuration
	}
	return DEFAULT_DURATION
}

// StartSimulation validates duration and, if valid, disables the start control
// and issues the start call asynchronously. A newer start supersedes any
// earlier one.
func (m *Monitor) StartSimulation(duration int) error {
	if duration < models.MIN_DURATION || duration > models.MAX_DURATION {
		m.log.Append(fmt.Sprintf("Invalid duration (%d-%d seconds)", models.MIN_DURATION, models.MAX_DURATION), models.SeverityError)
		metrics.RecordStart("invalid")
		m.notify()
		return fmt.Errorf("%w: %d", ErrInvalidDuration, duration)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.startGen++
	gen := m.startGen
	m.starting = true
	m.state = models.SessionStarting
	m.controlEnabled = false
	m.lastDuration = duration
	m.log.Append(fmt.Sprintf("Starting simulation of %d seconds...", duration), models.SeverityInfo)
	m.mu.Unlock()

	if m.prefs != nil {
		if err := m.prefs.SetLastDuration(duration); err != nil {
			m.logger.Warnf("Could not remember duration: %v", err)
		}
	}
	m.notify()

	m.dispatch(func() {
		began := time.Now()
		resp, err := m.backend.StartSimulation(duration)
		metrics.RecordStartDuration(time.Since(began).Seconds())
		m.handleStartResult(gen, resp, err)
	})

	return nil
}

func (m *Monitor) handleStartResult(gen uint64, resp *models.StartResponse, err error) {
	m.mu.Lock()
	if m.closed || gen != m.startGen {
		m.mu.Unlock()
		m.logger.Debugf("Dropping start result of superseded request #%d", gen)
		return
	}
	m.starting = false

	if err == nil && resp == nil {
		err = fmt.Errorf("%w: empty reply", backend.ErrBadResponse)
	}

	switch {
	case err != nil:
		metrics.RecordStart("failed")
		m.log.Append(fmt.Sprintf("Failed to start simulation: %v", err), models.SeverityError)
		m.rearmLocked()

	case !resp.Accepted():
		metrics.RecordStart("rejected")
		m.log.Append(resp.Message, models.SeverityError)
		m.rearmLocked()

	default:
		metrics.RecordStart("accepted")
		m.log.Append(resp.Message, models.SeveritySuccess)
		m.sessionID = uuid.NewString()
		m.controlEnabled = false
		m.openStreamLocked()
		m.logger.Infof("Session %s streaming from backend", m.sessionID)
	}
	m.mu.Unlock()

	m.notify()
}

// rearmLocked re-enables the control after a failed start. An older
// subscription, if still open, keeps streaming.
func (m *Monitor) rearmLocked() {
	m.controlEnabled = true
	if m.sub != nil {
		m.state = models.SessionStreaming
	} else {
		m.state = models.SessionIdle
	}
}

func (m *Monitor) openStreamLocked() {
	m.closeStreamLocked()

	m.streamGen++
	gen := m.streamGen

	metrics.RecordSubscriptionOpened()
	m.sub = m.backend.OpenStream(m.ctx, stream.Hooks{
		OnSnapshot: func(s models.Snapshot) { m.handleSnapshot(gen, s) },
		OnError:    func(err error) { m.handleStreamError(gen, err) },
		OnClose:    metrics.RecordSubscriptionClosed,
	})
	m.state = models.SessionStreaming
}

func (m *Monitor) closeStreamLocked() {
	if m.sub != nil {
		m.sub.Close()
		m.sub = nil
	}
}

// endSessionLocked closes the subscription and hands the control back to the
// operator, unless a newer start is already in flight.
func (m *Monitor) endSessionLocked() {
	m.closeStreamLocked()
	if m.starting {
		return
	}
	m.controlEnabled = true
	m.state = models.SessionEnded
}

func (m *Monitor) handleSnapshot(gen uint64, s models.Snapshot) {
	m.mu.Lock()
	if m.closed || gen != m.streamGen || m.sub == nil {
		m.mu.Unlock()
		return
	}

	consistent := s.Stats.Consistent()
	metrics.RecordSnapshot(consistent)
	if !consistent {
		m.logger.Warnf("Snapshot packet split %d+%d does not match total %d",
			s.Stats.NormalPackets, s.Stats.AttackPackets, s.Stats.TotalPackets)
	}

	display := m.renderer.Render(s)
	m.display = &display
	if display.Progress.Valid {
		m.progress = display.Progress.Percent
		m.progressText = fmt.Sprintf("%d%%", display.Progress.Display)
	}

	if s.Terminal() {
		m.log.Append("Simulation completed", models.SeveritySuccess)
		m.progress = 100
		m.progressText = "100%"
		m.endSessionLocked()
		metrics.RecordSessionCompleted()

		if s.Stats.AttacksDetected > 0 {
			m.log.Append(fmt.Sprintf("%d attacks detected", s.Stats.AttacksDetected), models.SeverityWarning)
			m.log.Append(fmt.Sprintf("%d hosts blocked", s.Stats.BlockedHosts), models.SeverityWarning)
		}
	}
	m.mu.Unlock()

	m.notify()
}

func (m *Monitor) handleStreamError(gen uint64, err error) {
	m.mu.Lock()
	if m.closed || gen != m.streamGen || m.sub == nil {
		m.mu.Unlock()
		return
	}

	if errors.Is(err, stream.ErrMalformedSnapshot) {
		metrics.RecordStreamError("malformed")
		m.log.Append(fmt.Sprintf("Malformed snapshot received: %v", err), models.SeverityError)
	} else {
		metrics.RecordStreamError("transport")
		m.log.Append(fmt.Sprintf("Stream connection lost: %v", err), models.SeverityError)
	}
	m.endSessionLocked()
	m.mu.Unlock()

	m.notify()
}

// Close disposes the monitor and its subscription. Further starts fail with
// ErrClosed.
func (m *Monitor) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.closeStreamLocked()
	m.cancel()
	m.mu.Unlock()
}

// View returns a copy of everything the operator surface displays.
func (m *Monitor) View() models.View {
	m.mu.Lock()
	defer m.mu.Unlock()

	view := models.View{
		SessionID:       m.sessionID,
		State:           m.state,
		ControlEnabled:  m.controlEnabled,
		Subscribed:      m.sub != nil,
		LastDuration:    m.lastDuration,
		ProgressPercent: m.progress,
		ProgressText:    m.progressText,
		Log:             m.log.Entries(),
	}
	if m.display != nil {
		display := *m.display
		view.Display = &display
	}
	return view
}

func (m *Monitor) Log() *eventlog.Log {
	return m.log
}

// OnChange registers fn to receive the view after every change. The returned
// function unregisters it. Views are delivered in change order.
func (m *Monitor) OnChange(fn func(models.View)) func() {
	m.listenersMu.Lock()
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = fn
	m.listenersMu.Unlock()

	return func() {
		m.listenersMu.Lock()
		delete(m.listeners, id)
		m.listenersMu.Unlock()
	}
}

func (m *Monitor) notify() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.listenersMu.RLock()
	fns := make([]func(models.View), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.listenersMu.RUnlock()

	if len(fns) == 0 {
		return
	}

	view := m.View()
	for _, fn := range fns {
		fn(view)
	}
}
