package ipcsock

import "encoding/json"

// OpCode is an administrative op code embedded in a channel message, per
// spec §6. Absence of op_code in an inbound message means ROUTE.
type OpCode int

const (
	OpRoute OpCode = iota
	OpTogglePause
	OpDie
	OpSetCount
	OpKillOff
	OpSpinUp
)

// Envelope is the top-level JSON object carried over the wire: either a bare
// data record (OpCode defaults to OpRoute, Data holds the record) or an
// administrative command.
type Envelope struct {
	OpCode OpCode          `json:"op_code"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Route wraps an arbitrary payload as a ROUTE envelope, ready to encode.
func Route(payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{OpCode: OpRoute, Data: raw}, nil
}

// Admin wraps an administrative command with an optional payload (e.g. the
// new worker count for SET_COUNT, or a kill count for KILL_OFF).
func Admin(op OpCode, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{OpCode: op}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{OpCode: op, Data: raw}, nil
}

// Decode unmarshals the envelope's data payload into v.
func (e Envelope) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}
