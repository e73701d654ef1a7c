// Package agent wires the scale connection, the event hub, the print
// dispatcher, the local HTTP/WebSocket server and the optional broker relays
// into one process with a Start/Stop lifecycle.
package agent

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/NowakAdmin/ScaleBridge/internal/broadcast"
	"github.com/NowakAdmin/ScaleBridge/internal/config"
	"github.com/NowakAdmin/ScaleBridge/internal/logging"
	"github.com/NowakAdmin/ScaleBridge/internal/printing"
	"github.com/NowakAdmin/ScaleBridge/internal/relay"
	"github.com/NowakAdmin/ScaleBridge/internal/scale"
	"github.com/NowakAdmin/ScaleBridge/internal/server"
	"github.com/NowakAdmin/ScaleBridge/internal/version"
)

// Options replaces the real devices, mostly for tests. Zero values select the
// production implementations.
type Options struct {
	Driver    scale.Driver
	Engine    printing.PDFEngine
	Queue     printing.LocalQueue
	RawSender printing.RawSender
	// Save persists configuration changes made through the API.
	Save func(*config.Config) error
}

type Agent struct {
	cfg    *config.Config
	cfgMu  sync.Mutex
	logger zerolog.Logger
	opts   Options

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.RWMutex
	hub     *broadcast.Hub[scale.Event]
	manager *scale.Manager
	server  *server.Server
}

func New(cfg *config.Config, logger zerolog.Logger, opts Options) *Agent {
	if opts.Driver == nil {
		opts.Driver = scale.SerialDriver{}
	}
	if opts.Save == nil {
		opts.Save = config.Save
	}

	return &Agent{
		cfg:    cfg,
		logger: logger,
		opts:   opts,
	}
}

// Start brings every component up. A failed start leaves nothing running.
// After Stop the agent can be started again; each start gets fresh components.
func (a *Agent) Start(parent context.Context) error {
	if a.running.Swap(true) {
		return nil
	}

	ctx, cancel := context.WithCancel(parent)

	cfg := a.snapshotConfig()

	hub := broadcast.New[scale.Event]()
	hub.OnPrune(func(_ broadcast.Subscriber[scale.Event], err error) {
		a.logger.Debug().Err(err).Msg("Odbiorca zdarzeń usunięty")
	})

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		hub.Run(ctx)
	}()

	manager := scale.NewManager(a.opts.Driver, hub, logging.WithComponent(a.logger, "scale"), scale.Options{
		PollInterval:       cfg.Scale.PollInterval,
		SimulationInterval: cfg.Scale.SimulationInterval,
		SimulationBaseline: cfg.Scale.SimulationBaseline,
	})
	hub.SetSnapshot(manager.Snapshot)

	dispatcher, err := a.newDispatcher(cfg)
	if err != nil {
		a.abort(cancel)
		return err
	}

	srv, err := server.New(server.Deps{
		Listen:   cfg.Server.Listen,
		Logger:   logging.WithComponent(a.logger, "server"),
		Hub:      hub,
		Scale:    &scaleService{agent: a, manager: manager, driver: a.opts.Driver},
		Printing: dispatcher,
		Version:  version.Version,
	})
	if err != nil {
		a.abort(cancel)
		return err
	}

	if err = manager.Start(ctx); err != nil {
		a.abort(cancel)
		return fmt.Errorf("starting scale manager: %w", err)
	}

	if err = srv.Start(ctx); err != nil {
		manager.Stop()
		a.abort(cancel)
		return err
	}

	a.startRelays(cfg, hub)
	manager.Initialize(cfg.Scale.Port, cfg.Scale.BaudRate)

	a.mu.Lock()
	a.cancel = cancel
	a.hub = hub
	a.manager = manager
	a.server = srv
	a.mu.Unlock()

	a.logger.Info().
		Str("listen", srv.Addr()).
		Str("port", cfg.Scale.Port).
		Int("baud", cfg.Scale.BaudRate).
		Msg("Agent uruchomiony")

	return nil
}

func (a *Agent) abort(cancel context.CancelFunc) {
	cancel()
	a.wg.Wait()
	a.running.Store(false)
}

func (a *Agent) Stop() {
	if !a.running.Load() {
		return
	}

	a.mu.Lock()
	srv, manager, cancel := a.server, a.manager, a.cancel
	a.server, a.manager, a.hub, a.cancel = nil, nil, nil, nil
	a.mu.Unlock()

	if srv != nil {
		if err := srv.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Błąd zatrzymania serwera HTTP")
		}
	}
	if manager != nil {
		manager.Stop()
	}
	if cancel != nil {
		cancel()
	}

	// The hub closes the remaining subscribers (WebSocket clients, relays) on
	// its way out.
	a.wg.Wait()
	a.running.Store(false)

	a.logger.Info().Msg("Agent zatrzymany")
}

func (a *Agent) IsRunning() bool {
	return a.running.Load()
}

// Addr is the bound HTTP address while running.
func (a *Agent) Addr() string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.server == nil {
		return ""
	}
	return a.server.Addr()
}

// ScaleStatus reports the live connection status, or Disconnected when the
// agent is stopped.
func (a *Agent) ScaleStatus() scale.Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.manager == nil {
		return scale.Status{State: scale.Disconnected}
	}
	return a.manager.Status()
}

// Subscribe attaches s to the running hub. It returns false when the agent
// is stopped.
func (a *Agent) Subscribe(s broadcast.Subscriber[scale.Event]) bool {
	a.mu.RLock()
	hub := a.hub
	a.mu.RUnlock()

	if hub == nil {
		return false
	}
	hub.Subscribe(s)
	return true
}

func (a *Agent) snapshotConfig() config.Config {
	a.cfgMu.Lock()
	defer a.cfgMu.Unlock()
	return *a.cfg
}

func (a *Agent) newDispatcher(cfg config.Config) (*printing.Dispatcher, error) {
	markup, err := printing.LoadTemplateMarkup(cfg.Printer.TemplatePath)
	if err != nil {
		return nil, err
	}

	engine := a.opts.Engine
	if engine == nil {
		engine = printing.NewChromeEngine(cfg.Printer.RenderTimeout)
	}

	queue := a.opts.Queue
	if queue == nil {
		queue = printing.NewSystemQueue(printing.DefaultQueueTimeout)
	}

	raw := a.opts.RawSender
	if raw == nil {
		raw = printing.RawWriter{Timeout: cfg.Printer.WriteTimeout, ProbeTimeout: cfg.Printer.ProbeTimeout}
	}

	mode, ok := printing.ParseMode(cfg.Printer.DefaultMode)
	if !ok {
		mode = printing.ModeHTML
	}

	return printing.NewDispatcher(markup, engine, queue, raw, logging.WithComponent(a.logger, "printing"), printing.Options{
		DefaultMode: mode,
		DefaultTarget: printing.Target{
			Name: cfg.Printer.PrinterName,
			Host: cfg.Printer.Host,
			Port: cfg.Printer.Port,
		},
		DefaultCopies: cfg.Printer.Copies,
	}), nil
}

// startRelays attaches the broker sinks that are enabled. A broker that cannot
// be reached is logged and skipped; the agent keeps serving local clients.
func (a *Agent) startRelays(cfg config.Config, hub *broadcast.Hub[scale.Event]) {
	if cfg.NATS.Enabled {
		sink, err := relay.DialNATS(cfg.NATS, logging.WithComponent(a.logger, "nats"))
		if err != nil {
			a.logger.Warn().Err(err).Msg("Przekaźnik NATS niedostępny")
		} else {
			hub.Subscribe(sink)
		}
	}

	if cfg.MQTT.Enabled {
		sink, err := relay.DialMQTT(cfg.MQTT, logging.WithComponent(a.logger, "mqtt"))
		if err != nil {
			a.logger.Warn().Err(err).Msg("Przekaźnik MQTT niedostępny")
		} else {
			hub.Subscribe(sink)
		}
	}

	if cfg.InfluxDB.Enabled {
		sink, err := relay.DialInfluxDB(cfg.InfluxDB, logging.WithComponent(a.logger, "influxdb"))
		if err != nil {
			a.logger.Warn().Err(err).Msg("Przekaźnik InfluxDB niedostępny")
		} else {
			hub.Subscribe(sink)
		}
	}
}

// scaleService adapts the manager to the HTTP API and persists endpoint
// changes.
type scaleService struct {
	agent   *Agent
	manager *scale.Manager
	driver  scale.Driver
}

func (s *scaleService) Status() scale.Status {
	return s.manager.Status()
}

func (s *scaleService) Ports() ([]string, error) {
	return s.driver.ListPorts()
}

// Reconfigure reconnects immediately; a failure to persist is reported but
// does not undo the reconnect.
func (s *scaleService) Reconfigure(path string, baud int) error {
	s.manager.Reconnect(path, baud)

	a := s.agent
	a.cfgMu.Lock()
	a.cfg.Scale.Port = path
	a.cfg.Scale.BaudRate = baud
	saved := *a.cfg
	a.cfgMu.Unlock()

	a.logger.Info().Str("port", path).Int("baud", baud).Msg("Zmieniono konfigurację wagi")

	if err := a.opts.Save(&saved); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}
