package relay

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"github.com/NowakAdmin/ScaleBridge/internal/config"
	"github.com/NowakAdmin/ScaleBridge/internal/scale"
)

const (
	influxPingTimeout    = 10 * time.Second
	defaultBatchSize     = 100
	defaultFlushInterval = 10 // seconds

	measurementWeight = "scale_weight"
	measurementStatus = "scale_status"
)

// InfluxSink records the weight history and connection changes as time
// series. Writes are batched by the client and never block the hub.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	station  string
	logger   zerolog.Logger
	now      func() time.Time
	closed   atomic.Bool
}

func DialInfluxDB(cfg config.InfluxDBConfig, logger zerolog.Logger) (*InfluxSink, error) {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}

	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*1000),
	)

	ctx, cancel := context.WithTimeout(context.Background(), influxPingTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("relay: influxdb ping %s: %w", cfg.URL, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("relay: influxdb %s not healthy", cfg.URL)
	}

	s := &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		station:  cfg.Station,
		logger:   logger,
		now:      time.Now,
	}
	go s.logWriteErrors(s.writeAPI.Errors())

	logger.Info().Str("url", cfg.URL).Str("bucket", cfg.Bucket).Msg("Przekaźnik InfluxDB uruchomiony")

	return s, nil
}

func (s *InfluxSink) logWriteErrors(errs <-chan error) {
	for err := range errs {
		s.logger.Warn().Err(err).Msg("InfluxDB: błąd zapisu")
	}
}

func (s *InfluxSink) Deliver(ev scale.Event) error {
	if s.closed.Load() {
		return ErrSinkClosed
	}

	s.writeAPI.WritePoint(s.point(ev))
	return nil
}

func (s *InfluxSink) point(ev scale.Event) *write.Point {
	if ev.Type == scale.EventWeight {
		u := ev.Weight
		ts := u.Timestamp
		if ts.IsZero() {
			ts = s.now()
		}

		return write.NewPoint(
			measurementWeight,
			map[string]string{
				"station":    s.station,
				"simulation": strconv.FormatBool(u.Simulation),
			},
			map[string]any{
				"weight":        u.Weight,
				"stable":        u.Stable,
				"stable_weight": u.StableWeight,
			},
			ts,
		)
	}

	st := ev.Status
	return write.NewPoint(
		measurementStatus,
		map[string]string{
			"station": s.station,
			"port":    st.Port,
		},
		map[string]any{
			"state":      st.State.String(),
			"connected":  st.Connected,
			"simulation": st.Simulation,
		},
		s.now(),
	)
}

// Close flushes pending points before disconnecting.
func (s *InfluxSink) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.writeAPI.Flush()
	s.client.Close()
	return nil
}
