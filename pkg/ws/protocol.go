package ws

import (
	"bytes"
	"encoding/json"
)

// Client→server frames are restricted to connection lifecycle. Clients
// never author notification content; anything outside this tiny protocol
// closes the connection.
const (
	// OpJoin asks to join one more category namespace, subject to the
	// connection's role.
	OpJoin = "join"

	// OpAck acknowledges receipt of a delivered message.
	OpAck = "ack"
)

// clientFrame is the envelope for client→server frames.
type clientFrame struct {
	Op        string `json:"op"`
	Namespace string `json:"namespace,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

func parseClientFrame(raw []byte) (clientFrame, error) {
	var frame clientFrame

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&frame); err != nil {
		return clientFrame{}, err
	}

	switch frame.Op {
	case OpJoin:
		if frame.Namespace == "" {
			return clientFrame{}, errEmptyJoinNamespace
		}
	case OpAck:
		if frame.MessageID == "" {
			return clientFrame{}, errEmptyAckMessageID
		}
	default:
		return clientFrame{}, errUnknownOp
	}
	return frame, nil
}
