package relay

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/NowakAdmin/ScaleBridge/internal/config"
	"github.com/NowakAdmin/ScaleBridge/internal/scale"
)

const natsFlushTimeout = time.Second

// NATSSink publishes every event on <subject>.<type>, e.g.
// scalebridge.events.weight.
type NATSSink struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
	closed  atomic.Bool
}

// DialNATS connects in the background: an unreachable server at startup is
// retried forever instead of failing the agent.
func DialNATS(cfg config.NATSConfig, logger zerolog.Logger) (*NATSSink, error) {
	subject := strings.Trim(cfg.Subject, ".")
	if subject == "" {
		return nil, errors.New("relay: nats subject is required")
	}

	opts := []nats.Option{
		nats.Name("ScaleBridge"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS rozłączony")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS połączony ponownie")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Debug().Msg("NATS połączenie zamknięte")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("relay: connecting to nats %s: %w", cfg.URL, err)
	}

	logger.Info().Str("url", cfg.URL).Str("subject", subject).Msg("Przekaźnik NATS uruchomiony")

	return &NATSSink{conn: nc, subject: subject, logger: logger}, nil
}

func (s *NATSSink) Deliver(ev scale.Event) error {
	if s.closed.Load() {
		return ErrSinkClosed
	}

	msg, err := encode(ev)
	if err != nil {
		return err
	}

	if err := s.conn.Publish(s.subject+"."+msg.kind, msg.payload); err != nil {
		if errors.Is(err, nats.ErrConnectionClosed) {
			return err
		}
		s.logger.Debug().Err(err).Str("type", msg.kind).Msg("NATS: pominięto zdarzenie")
	}

	return nil
}

func (s *NATSSink) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	if s.conn.IsConnected() {
		_ = s.conn.FlushTimeout(natsFlushTimeout)
	}
	s.conn.Close()
	return nil
}
