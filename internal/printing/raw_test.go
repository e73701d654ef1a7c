package printing

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePrinter accepts one connection, reads until the client half-closes and
// then either closes (job done) or holds the socket open.
func fakePrinter(t *testing.T, closeAfterRead bool) (host string, port int, received <-chan []byte) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	out := make(chan []byte, 1)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() {
			_ = conn.Close()
		}()

		data, _ := io.ReadAll(conn)
		out <- data

		if !closeAfterRead {
			<-release
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port, out
}

func closedPort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	return port
}

func TestRawWriter_SendDeliversAllBytesAndWaitsForClose(t *testing.T) {
	host, port, received := fakePrinter(t, true)
	payload := BuildRawDocument(Bill{ID: "1", Vehicle: "WA 1"}, Company{Name: "Test"}, time.Now())

	err := RawWriter{Timeout: 2 * time.Second}.Send(context.Background(), host, port, payload)

	require.NoError(t, err)
	select {
	case got := <-received:
		assert.Equal(t, payload, got)
	case <-time.After(time.Second):
		t.Fatal("printer received nothing")
	}
}

func TestRawWriter_SendTimesOutWhenPrinterNeverCloses(t *testing.T) {
	host, port, _ := fakePrinter(t, false)

	start := time.Now()
	err := RawWriter{Timeout: 200 * time.Millisecond}.Send(context.Background(), host, port, []byte("job"))

	require.ErrorIs(t, err, ErrSocketTimeout)
	assert.Equal(t, "socket_timeout", Kind(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRawWriter_SendRefused(t *testing.T) {
	port := closedPort(t)

	err := RawWriter{Timeout: time.Second}.Send(context.Background(), "127.0.0.1", port, []byte("job"))

	require.Error(t, err)
	assert.Contains(t, []string{"socket_refused", "connection_error"}, Kind(err))
}

func TestRawWriter_SendHonoursContext(t *testing.T) {
	host, port, _ := fakePrinter(t, false)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := RawWriter{Timeout: 5 * time.Second}.Send(ctx, host, port, []byte("job"))

	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRawWriter_SendReportsCancellation(t *testing.T) {
	host, port, _ := fakePrinter(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	err := RawWriter{Timeout: 5 * time.Second}.Send(ctx, host, port, []byte("job"))

	require.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, "cancelled", Kind(err))
	assert.NotErrorIs(t, err, ErrSocketTimeout)
}

func TestRawWriter_SendRequiresHost(t *testing.T) {
	err := SendRaw(context.Background(), "  ", 9100, []byte("job"))

	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestTestConnectivity_ClosedPort(t *testing.T) {
	port := closedPort(t)

	start := time.Now()
	r := TestConnectivity(context.Background(), "127.0.0.1", port)

	assert.False(t, r.Reachable)
	assert.NotEmpty(t, r.Error)
	assert.Equal(t, "127.0.0.1", r.Host)
	assert.Equal(t, port, r.Port)
	assert.Less(t, time.Since(start), DefaultProbeTimeout)
}

func TestTestConnectivity_OpenPortSendsNothing(t *testing.T) {
	host, port, received := fakePrinter(t, true)

	r := TestConnectivity(context.Background(), host, port)

	assert.True(t, r.Reachable)
	assert.Empty(t, r.Error)
	select {
	case got := <-received:
		assert.Empty(t, got)
	case <-time.After(time.Second):
		t.Fatal("probe connection was not closed")
	}
}

func TestTestConnectivity_DefaultPort(t *testing.T) {
	r := RawWriter{ProbeTimeout: 50 * time.Millisecond}.Probe(context.Background(), "", 0)

	assert.False(t, r.Reachable)
	assert.Equal(t, DefaultRawPort, r.Port)
	assert.NotEmpty(t, r.Error)
}
