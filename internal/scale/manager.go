package scale

import (
	"bufio"
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultPollInterval       = 5 * time.Second
	DefaultSimulationInterval = time.Second

	eventQueueSize = 32
)

// Publisher receives every event the manager produces.
type Publisher interface {
	Publish(Event)
}

type Options struct {
	PollInterval       time.Duration
	SimulationInterval time.Duration
	SimulationBaseline int
	Rand               *rand.Rand
	Now                func() time.Time
}

func (o *Options) fillDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.SimulationInterval <= 0 {
		o.SimulationInterval = DefaultSimulationInterval
	}
	if o.SimulationBaseline <= 0 {
		o.SimulationBaseline = DefaultSimulationBaseline
	}
	if o.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		o.Rand = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Manager owns the indicator connection. All state below the "loop-owned"
// marker is touched only by the goroutine running loop; every other goroutine
// talks to it by posting events.
type Manager struct {
	driver Driver
	pub    Publisher
	logger zerolog.Logger
	opts   Options

	events chan any
	done   chan struct{}

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	snapMu     sync.RWMutex
	status     Status
	lastWeight *WeightUpdate

	// loop-owned
	state        ConnectionState
	path         string
	baud         int
	port         io.ReadCloser
	gen          uint64
	connecting   bool
	pending      bool
	pollInFlight bool
	filter       *StabilityFilter
	sim          *simulator
	simTask      *Task
	pollTask     *Task
}

type reconnectRequest struct {
	path    string
	baud    int
	initial bool
}

type connectResult struct {
	gen  uint64
	port io.ReadCloser
	err  error
}

type lineEvent struct {
	gen  uint64
	line string
}

type lostEvent struct {
	gen uint64
	err error
}

type simTick struct{ task *Task }

type pollTick struct{ task *Task }

type pollResult struct {
	task  *Task
	ports []string
	err   error
}

func NewManager(driver Driver, pub Publisher, logger zerolog.Logger, opts Options) *Manager {
	opts.fillDefaults()

	m := &Manager{
		driver: driver,
		pub:    pub,
		logger: logger,
		opts:   opts,
		events: make(chan any, eventQueueSize),
		done:   make(chan struct{}),
		filter: NewStabilityFilter(),
		sim:    newSimulator(opts.SimulationBaseline, opts.Rand),
	}
	m.status = Status{State: Disconnected}

	return m
}

// Start runs the event loop until ctx is cancelled or Stop is called. A
// Manager cannot be restarted after Stop.
func (m *Manager) Start(parent context.Context) error {
	if m.running.Swap(true) {
		return nil
	}

	select {
	case <-m.done:
		return ErrManagerStopped
	default:
	}

	ctx, cancel := context.WithCancel(parent)
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(m.done)
		m.loop(ctx)
	}()

	return nil
}

func (m *Manager) Stop() {
	if !m.running.Load() {
		return
	}

	if m.cancel != nil {
		m.cancel()
	}

	m.wg.Wait()
	m.running.Store(false)
}

// Initialize requests the first connect cycle for path at baud.
func (m *Manager) Initialize(path string, baud int) {
	m.post(reconnectRequest{path: path, baud: baud, initial: true})
}

// Reconnect tears down whatever feed is active and connects to path at baud.
// While an attempt is already in flight the request is remembered and served
// once that attempt settles.
func (m *Manager) Reconnect(path string, baud int) {
	m.post(reconnectRequest{path: path, baud: baud})
}

// Status returns a copy of the current connection status.
func (m *Manager) Status() Status {
	m.snapMu.RLock()
	defer m.snapMu.RUnlock()
	return m.status
}

func (m *Manager) State() ConnectionState {
	return m.Status().State
}

// Snapshot returns the events a late subscriber needs: the status and, when
// one exists, the last weight update.
func (m *Manager) Snapshot() []Event {
	m.snapMu.RLock()
	defer m.snapMu.RUnlock()

	events := []Event{StatusEvent(m.status)}
	if m.lastWeight != nil {
		events = append(events, WeightEvent(*m.lastWeight))
	}
	return events
}

func (m *Manager) post(ev any) bool {
	select {
	case <-m.done:
		return false
	default:
	}

	select {
	case m.events <- ev:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) loop(ctx context.Context) {
	defer m.teardown()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-m.events:
			m.handle(ev)
		}
	}
}

func (m *Manager) handle(ev any) {
	switch e := ev.(type) {
	case reconnectRequest:
		m.handleReconnect(e)
	case connectResult:
		m.handleConnectResult(e)
	case lineEvent:
		m.handleLine(e)
	case lostEvent:
		m.handleLost(e)
	case simTick:
		m.handleSimTick(e)
	case pollTick:
		m.handlePollTick(e)
	case pollResult:
		m.handlePollResult(e)
	}
}

func (m *Manager) handleReconnect(req reconnectRequest) {
	m.path, m.baud = req.path, req.baud

	if req.initial {
		m.logger.Info().Str("port", req.path).Int("baud", req.baud).Msg("Inicjalizacja połączenia z wagą")
	} else {
		m.logger.Info().Str("port", req.path).Int("baud", req.baud).Msg("Ponowne łączenie z wagą")
	}

	m.closePort()
	m.stopSimulation()
	m.stopPoll()

	if m.connecting {
		m.pending = true
		m.setState(Connecting)
		m.logger.Debug().Msg("Próba połączenia w toku, nowa konfiguracja poczeka na jej zakończenie")
		return
	}

	m.startAttempt()
}

func (m *Manager) startAttempt() {
	m.gen++
	gen := m.gen
	path, baud := m.path, m.baud

	m.connecting = true
	m.setState(Connecting)

	go func() {
		port, err := m.driver.Open(path, baud)
		if err != nil && !errors.Is(err, ErrTransportOpenFailed) {
			err = errors.Join(ErrTransportOpenFailed, err)
		}
		if !m.post(connectResult{gen: gen, port: port, err: err}) && port != nil {
			_ = port.Close()
		}
	}()
}

func (m *Manager) handleConnectResult(res connectResult) {
	if res.gen != m.gen {
		if res.port != nil {
			_ = res.port.Close()
		}
		return
	}

	m.connecting = false

	if m.pending {
		m.pending = false
		if res.port != nil {
			_ = res.port.Close()
		}
		m.startAttempt()
		return
	}

	if res.err != nil {
		m.logger.Warn().Err(res.err).Str("port", m.path).Msg("Nie udało się otworzyć portu wagi, przechodzę w tryb symulacji")
		m.fallback()
		return
	}

	m.port = res.port
	m.filter.Reset()
	m.stopSimulation()
	m.stopPoll()
	m.setState(Connected)

	m.logger.Info().Str("port", m.path).Int("baud", m.baud).Msg("Połączono z wagą")

	go m.read(res.gen, res.port)
}

func (m *Manager) read(gen uint64, port io.Reader) {
	scanner := bufio.NewScanner(port)
	scanner.Split(scanLines)

	for scanner.Scan() {
		if !m.post(lineEvent{gen: gen, line: scanner.Text()}) {
			return
		}
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	m.post(lostEvent{gen: gen, err: errors.Join(ErrTransportRuntime, err)})
}

func (m *Manager) handleLine(ev lineEvent) {
	if ev.gen != m.gen || m.state != Connected {
		return
	}

	value, err := ParseWeight(ev.line)
	if err != nil {
		m.logger.Debug().Err(err).Str("line", ev.line).Msg("Pominięto linię z wagi")
		return
	}

	m.ingest(value, false)
}

func (m *Manager) handleLost(ev lostEvent) {
	if ev.gen != m.gen || m.state != Connected {
		return
	}

	m.logger.Warn().Err(ev.err).Str("port", m.path).Msg("Utracono połączenie z wagą, przechodzę w tryb symulacji")

	m.closePort()
	m.fallback()
}

// fallback moves to Simulating and makes sure both the simulated feed and the
// reconnect poll are running.
func (m *Manager) fallback() {
	m.startSimulation()
	m.startPoll()
	m.setState(Simulating)
}

func (m *Manager) handleSimTick(ev simTick) {
	if ev.task != m.simTask {
		return
	}

	if m.state == Connected {
		m.stopSimulation()
		return
	}

	m.ingest(m.sim.next(), true)
}

func (m *Manager) handlePollTick(ev pollTick) {
	if ev.task != m.pollTask {
		return
	}

	if m.state == Connected {
		m.stopPoll()
		return
	}

	if m.connecting || m.pollInFlight {
		return
	}

	m.pollInFlight = true
	task := ev.task
	go func() {
		ports, err := m.driver.ListPorts()
		m.post(pollResult{task: task, ports: ports, err: err})
	}()
}

func (m *Manager) handlePollResult(res pollResult) {
	// A result from a stopped task must not release the current task's
	// listing.
	if res.task != m.pollTask {
		return
	}
	m.pollInFlight = false

	if m.state == Connected || m.connecting {
		return
	}

	if res.err != nil {
		m.logger.Debug().Err(res.err).Msg("Nie udało się pobrać listy portów")
		return
	}

	if !endpointAvailable(res.ports, m.path) {
		return
	}

	m.logger.Info().Str("port", m.path).Msg("Port wagi dostępny, ponawiam połączenie")
	m.startAttempt()
}

func (m *Manager) ingest(value float64, simulated bool) {
	if !InRange(value) {
		return
	}

	update := m.filter.Ingest(WeightSample{Value: value, Timestamp: m.opts.Now()})
	update.Simulation = simulated

	m.snapMu.Lock()
	m.lastWeight = &update
	m.snapMu.Unlock()

	m.pub.Publish(WeightEvent(update))
}

func (m *Manager) startSimulation() {
	if m.simTask != nil {
		return
	}

	m.filter.Reset()
	m.sim.reset()
	m.simTask = Every(m.opts.SimulationInterval, func(t *Task) {
		m.post(simTick{task: t})
	})
	m.logger.Info().Msg("Tryb symulacji włączony")
}

func (m *Manager) stopSimulation() {
	if m.simTask == nil {
		return
	}

	m.simTask.Stop()
	m.simTask = nil
	m.filter.Reset()
	m.logger.Info().Msg("Tryb symulacji wyłączony")
}

func (m *Manager) startPoll() {
	if m.pollTask != nil {
		return
	}

	m.pollTask = Every(m.opts.PollInterval, func(t *Task) {
		m.post(pollTick{task: t})
	})
}

func (m *Manager) stopPoll() {
	if m.pollTask == nil {
		return
	}

	m.pollTask.Stop()
	m.pollTask = nil
	m.pollInFlight = false
}

func (m *Manager) closePort() {
	if m.port == nil {
		return
	}

	// Advance the generation so the reader's final lostEvent is ignored.
	m.gen++
	_ = m.port.Close()
	m.port = nil
}

func (m *Manager) setState(state ConnectionState) {
	m.state = state

	status := Status{
		State:      state,
		Connected:  state == Connected,
		Simulation: m.simTask != nil,
		Port:       m.path,
		BaudRate:   m.baud,
	}

	m.snapMu.Lock()
	changed := status != m.status
	m.status = status
	m.snapMu.Unlock()

	if changed {
		m.pub.Publish(StatusEvent(status))
	}
}

func (m *Manager) teardown() {
	m.closePort()
	m.stopSimulation()
	m.stopPoll()
	m.connecting = false
	m.pending = false
	m.setState(Disconnected)

	for {
		select {
		case ev := <-m.events:
			if res, ok := ev.(connectResult); ok && res.port != nil {
				_ = res.port.Close()
			}
		default:
			m.logger.Info().Msg("Menedżer wagi zatrzymany")
			return
		}
	}
}
