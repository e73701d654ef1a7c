package printing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	DefaultRawPort      = 9100
	DefaultSendTimeout  = 10 * time.Second
	DefaultProbeTimeout = 4 * time.Second
)

// RawWriter sends jobs over RAW/JetDirect. Timeout bounds the connect and
// every later wait on the socket; the printer closing its side marks the job
// as complete.
type RawWriter struct {
	Timeout      time.Duration
	ProbeTimeout time.Duration
}

func (w RawWriter) timeout() time.Duration {
	if w.Timeout <= 0 {
		return DefaultSendTimeout
	}
	return w.Timeout
}

func (w RawWriter) probeTimeout() time.Duration {
	if w.ProbeTimeout <= 0 {
		return DefaultProbeTimeout
	}
	return w.ProbeTimeout
}

// SendRaw writes data to host:port with the default timeout.
func SendRaw(ctx context.Context, host string, port int, data []byte) error {
	return RawWriter{}.Send(ctx, host, port, data)
}

// TestConnectivity checks that host:port accepts connections, without
// sending a payload.
func TestConnectivity(ctx context.Context, host string, port int) Reachability {
	return RawWriter{}.Probe(ctx, host, port)
}

func (w RawWriter) Send(ctx context.Context, host string, port int, data []byte) error {
	addr, err := rawAddr(host, port)
	if err != nil {
		return err
	}

	timeout := w.timeout()
	dialer := net.Dialer{Timeout: timeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return sendError(ctx, addr, err)
	}
	defer func() {
		_ = conn.Close()
	}()

	// Cancelling ctx unblocks any pending socket call.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	if _, err = conn.Write(data); err != nil {
		return sendError(ctx, addr, err)
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		if err = tcp.CloseWrite(); err != nil {
			return sendError(ctx, addr, err)
		}
	}

	// The printer owns job completion: wait for it to close the connection.
	// Whatever it sends back in the meantime is status chatter.
	buf := make([]byte, 512)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(timeout))
		_, err = conn.Read(buf)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return sendError(ctx, addr, err)
		}
	}
}

func (w RawWriter) Probe(ctx context.Context, host string, port int) Reachability {
	if port <= 0 {
		port = DefaultRawPort
	}
	result := Reachability{Host: host, Port: port}

	addr, err := rawAddr(host, port)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, w.probeTimeout())
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		result.Error = classifyNetError(addr, err).Error()
		return result
	}
	_ = conn.Close()

	result.Reachable = true
	return result
}

func rawAddr(host string, port int) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("%w: brak adresu drukarki", ErrInvalidRequest)
	}
	if port <= 0 {
		port = DefaultRawPort
	}
	if port > 65535 {
		return "", fmt.Errorf("%w: nieprawidłowy port %d", ErrInvalidRequest, port)
	}

	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// sendError reports a cancelled ctx as such; a deadline on ctx still counts
// as a socket timeout.
func sendError(ctx context.Context, addr string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%w: %s: %w", ErrCancelled, addr, context.Cause(ctx))
	}
	return classifyNetError(addr, err)
}

func classifyNetError(addr string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %s: %w", ErrSocketTimeout, addr, err)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("%w: %s: %w", ErrSocketRefused, addr, err)
	default:
		return fmt.Errorf("%w: %s: %w", ErrConnection, addr, err)
	}
}
