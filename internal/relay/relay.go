// Package relay forwards scale events to message brokers so that systems other
// than the browser (yard displays, ERP integrations) can follow the weighbridge.
//
// Each sink is a broadcast subscriber. Broker trouble is logged and the event
// dropped; a sink only reports a delivery error once it has been closed, which
// is what makes the hub prune it.
package relay

import (
	"encoding/json"
	"errors"

	"github.com/NowakAdmin/ScaleBridge/internal/scale"
)

var ErrSinkClosed = errors.New("relay: sink closed")

// message is the wire form shared by all sinks: the same JSON the WebSocket
// clients receive, addressed by event type.
type message struct {
	kind    string
	payload []byte
}

func encode(ev scale.Event) (message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return message{}, err
	}

	kind := ev.Type
	if kind == "" {
		kind = scale.EventStatus
	}

	return message{kind: kind, payload: payload}, nil
}
