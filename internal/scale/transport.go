package scale

import (
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"go.bug.st/serial"
)

const tcpPrefix = "tcp://"

// Driver opens the indicator feed and lists the endpoints currently present.
type Driver interface {
	Open(path string, baud int) (io.ReadCloser, error)
	ListPorts() ([]string, error)
}

// SerialDriver talks to indicators on a serial port. Paths of the form
// tcp://host:port reach indicators behind a serial-to-Ethernet converter.
type SerialDriver struct {
	DialTimeout time.Duration
}

func (d SerialDriver) Open(path string, baud int) (io.ReadCloser, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: brak portu wagi w konfiguracji", ErrTransportOpenFailed)
	}

	if strings.HasPrefix(path, tcpPrefix) {
		return d.openTCP(strings.TrimPrefix(path, tcpPrefix))
	}

	if baud <= 0 {
		baud = 9600
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransportOpenFailed, path, err)
	}

	return port, nil
}

func (d SerialDriver) openTCP(addr string) (io.ReadCloser, error) {
	timeout := d.DialTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransportOpenFailed, addr, err)
	}

	return conn, nil
}

func (SerialDriver) ListPorts() ([]string, error) {
	return serial.GetPortsList()
}

// endpointAvailable reports whether path is worth a connect attempt. Network
// endpoints cannot be enumerated, so they always qualify.
func endpointAvailable(ports []string, path string) bool {
	if strings.HasPrefix(path, tcpPrefix) {
		return true
	}

	for _, p := range ports {
		if strings.EqualFold(p, path) {
			return true
		}
	}

	return false
}
