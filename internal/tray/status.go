package tray

import (
	"errors"
	"fmt"
	"sync"

	"github.com/NowakAdmin/ScaleBridge/internal/scale"
)

var errFeedClosed = errors.New("tray: status feed closed")

// statusFeed is a hub subscriber keeping only the latest scale status for the
// menu. Weight events are ignored.
type statusFeed struct {
	updates   chan scale.Status
	done      chan struct{}
	closeOnce sync.Once
}

func newStatusFeed() *statusFeed {
	return &statusFeed{
		updates: make(chan scale.Status, 1),
		done:    make(chan struct{}),
	}
}

func (f *statusFeed) Deliver(ev scale.Event) error {
	if ev.Type != scale.EventStatus {
		return nil
	}

	select {
	case <-f.done:
		return errFeedClosed
	default:
	}

	// Replace a status the menu has not picked up yet.
	for {
		select {
		case f.updates <- ev.Status:
			return nil
		default:
		}
		select {
		case <-f.updates:
		default:
		}
	}
}

func (f *statusFeed) Close() error {
	f.closeOnce.Do(func() { close(f.done) })
	return nil
}

func statusLine(running bool, st scale.Status) string {
	if !running {
		return "Status: zatrzymany"
	}

	switch st.State {
	case scale.Connected:
		return fmt.Sprintf("Waga: połączona (%s, %d)", st.Port, st.BaudRate)
	case scale.Connecting:
		return fmt.Sprintf("Waga: łączenie z %s…", st.Port)
	case scale.Simulating:
		return "Waga: symulacja (brak urządzenia)"
	default:
		return "Waga: rozłączona"
	}
}
