package relay

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NowakAdmin/ScaleBridge/internal/config"
	"github.com/NowakAdmin/ScaleBridge/internal/scale"
)

type influxStub struct {
	mu     sync.Mutex
	lines  []string
	bucket string
}

func (s *influxStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ping":
		w.WriteHeader(http.StatusNoContent)
	case "/api/v2/write":
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.bucket = r.URL.Query().Get("bucket")
		for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
			if line != "" {
				s.lines = append(s.lines, line)
			}
		}
		s.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (s *influxStub) written() ([]string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...), s.bucket
}

func TestInfluxSink_WritesWeightAndStatus(t *testing.T) {
	stub := &influxStub{}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	sink, err := DialInfluxDB(config.InfluxDBConfig{
		URL:       srv.URL,
		Org:       "scalebridge",
		Bucket:    "weighbridge",
		Station:   "waga-1",
		BatchSize: 10,
	}, zerolog.Nop())
	require.NoError(t, err)
	sink.now = func() time.Time { return time.Unix(1_773_480_600, 0) }

	ts := time.UnixMilli(1_773_480_600_500)
	require.NoError(t, sink.Deliver(scale.WeightEvent(scale.WeightUpdate{
		Weight: 39172, Stable: true, StableWeight: 39170, Timestamp: ts,
	})))
	require.NoError(t, sink.Deliver(scale.StatusEvent(scale.Status{
		State: scale.Simulating, Simulation: true, Port: "COM3",
	})))

	require.NoError(t, sink.Close())

	lines, bucket := stub.written()
	assert.Equal(t, "weighbridge", bucket)
	require.Len(t, lines, 2)

	weight := lines[0]
	assert.True(t, strings.HasPrefix(weight, "scale_weight,simulation=false,station=waga-1 "), weight)
	assert.Contains(t, weight, "stable=true")
	assert.Contains(t, weight, "weight=39172")
	assert.Contains(t, weight, "stable_weight=39170")
	assert.True(t, strings.HasSuffix(weight, " 1773480600500000000"), weight)

	status := lines[1]
	assert.True(t, strings.HasPrefix(status, "scale_status,port=COM3,station=waga-1 "), status)
	assert.Contains(t, status, `state="simulating"`)
	assert.Contains(t, status, "connected=false")
	assert.Contains(t, status, "simulation=true")

	assert.ErrorIs(t, sink.Deliver(scale.StatusEvent(scale.Status{})), ErrSinkClosed)
	require.NoError(t, sink.Close())
}

func TestDialInfluxDB_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := DialInfluxDB(config.InfluxDBConfig{URL: srv.URL, Bucket: "weighbridge"}, zerolog.Nop())
	require.Error(t, err)
}
