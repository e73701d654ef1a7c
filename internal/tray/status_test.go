package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NowakAdmin/ScaleBridge/internal/scale"
)

func TestStatusFeed_KeepsLatestStatus(t *testing.T) {
	feed := newStatusFeed()

	require.NoError(t, feed.Deliver(scale.StatusEvent(scale.Status{State: scale.Connecting})))
	require.NoError(t, feed.Deliver(scale.WeightEvent(scale.WeightUpdate{Weight: 100})))
	require.NoError(t, feed.Deliver(scale.StatusEvent(scale.Status{State: scale.Simulating, Simulation: true})))

	got := <-feed.updates
	assert.Equal(t, scale.Simulating, got.State)

	select {
	case extra := <-feed.updates:
		t.Fatalf("unexpected queued status %v", extra)
	default:
	}
}

func TestStatusFeed_ClosedFeedIsPruned(t *testing.T) {
	feed := newStatusFeed()

	require.NoError(t, feed.Close())
	require.NoError(t, feed.Close())

	assert.ErrorIs(t, feed.Deliver(scale.StatusEvent(scale.Status{})), errFeedClosed)
	assert.NoError(t, feed.Deliver(scale.WeightEvent(scale.WeightUpdate{})))
}

func TestStatusLine(t *testing.T) {
	tests := []struct {
		name    string
		running bool
		status  scale.Status
		want    string
	}{
		{name: "stopped", running: false, status: scale.Status{State: scale.Connected}, want: "Status: zatrzymany"},
		{name: "connected", running: true, status: scale.Status{State: scale.Connected, Port: "COM3", BaudRate: 9600}, want: "Waga: połączona (COM3, 9600)"},
		{name: "connecting", running: true, status: scale.Status{State: scale.Connecting, Port: "COM3"}, want: "Waga: łączenie z COM3…"},
		{name: "simulating", running: true, status: scale.Status{State: scale.Simulating, Simulation: true}, want: "Waga: symulacja (brak urządzenia)"},
		{name: "disconnected", running: true, status: scale.Status{}, want: "Waga: rozłączona"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusLine(tt.running, tt.status))
		})
	}
}
