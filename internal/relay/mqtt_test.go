package relay

import (
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NowakAdmin/ScaleBridge/internal/config"
	"github.com/NowakAdmin/ScaleBridge/internal/scale"
)

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }

func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type publication struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

// fakeClient records publications; unused Client methods panic through the
// nil embedded interface.
type fakeClient struct {
	pahomqtt.Client

	mu           sync.Mutex
	open         bool
	published    []publication
	disconnected bool
}

func (c *fakeClient) IsConnectionOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	var body string
	switch p := payload.(type) {
	case string:
		body = p
	case []byte:
		body = string(p)
	}
	c.published = append(c.published, publication{topic: topic, qos: qos, retained: retained, payload: body})
	return doneToken{}
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	c.open = false
	c.disconnected = true
	c.mu.Unlock()
}

func (c *fakeClient) snapshot() []publication {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]publication(nil), c.published...)
}

func TestMQTTSink_TopicsAndRetain(t *testing.T) {
	client := &fakeClient{open: true}
	sink := newMQTTSink(client, "scalebridge", 1, zerolog.Nop())
	t.Cleanup(func() { _ = sink.Close() })

	require.NoError(t, sink.Deliver(scale.StatusEvent(scale.Status{State: scale.Connected, Connected: true})))
	require.NoError(t, sink.Deliver(scale.WeightEvent(scale.WeightUpdate{Weight: 1500, Timestamp: time.UnixMilli(1)})))

	require.Eventually(t, func() bool { return len(client.snapshot()) == 2 }, 2*time.Second, 5*time.Millisecond)

	got := client.snapshot()
	assert.Equal(t, "scalebridge/status", got[0].topic)
	assert.True(t, got[0].retained)
	assert.Equal(t, byte(1), got[0].qos)
	assert.JSONEq(t, `{"type":"status","connected":true,"simulation":false,"state":"connected"}`, got[0].payload)

	assert.Equal(t, "scalebridge/weight", got[1].topic)
	assert.False(t, got[1].retained)
	assert.Contains(t, got[1].payload, `"weight":1500`)
}

func TestMQTTSink_SkipsWhileDisconnected(t *testing.T) {
	client := &fakeClient{}
	sink := newMQTTSink(client, "scalebridge", 0, zerolog.Nop())

	require.NoError(t, sink.Deliver(scale.WeightEvent(scale.WeightUpdate{Weight: 10})))
	require.NoError(t, sink.Close())

	assert.Empty(t, client.snapshot())
	assert.True(t, client.disconnected)
}

func TestMQTTSink_CloseMarksOffline(t *testing.T) {
	client := &fakeClient{open: true}
	sink := newMQTTSink(client, "yard/scale1", 0, zerolog.Nop())

	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	got := client.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, publication{topic: "yard/scale1/availability", retained: true, payload: "offline"}, got[0])
	assert.ErrorIs(t, sink.Deliver(scale.StatusEvent(scale.Status{})), ErrSinkClosed)
}

func TestDialMQTT_RequiresPrefix(t *testing.T) {
	_, err := DialMQTT(config.MQTTConfig{Broker: "tcp://127.0.0.1:1883", TopicPrefix: "/"}, zerolog.Nop())
	require.Error(t, err)
}
