package client

import (
	"encoding/json"
	"fmt"
)

// Envelope is the relay backend's response wrapper.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *EnvelopeError  `json:"error,omitempty"`
}

// EnvelopeError is the error half of an Envelope.
type EnvelopeError struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// decode unwraps the envelope into out, or reports ErrEnvelope.
func (e *Envelope) decode(endpoint string, out any) error {
	if !e.Success {
		message := "unknown error"
		if e.Error != nil && e.Error.Message != "" {
			message = e.Error.Message
		}
		return fmt.Errorf("%w: %s: %s", ErrEnvelope, endpoint, message)
	}
	if len(e.Data) == 0 {
		return fmt.Errorf("%w: %s: empty data", ErrEnvelope, endpoint)
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", endpoint, err)
	}
	return nil
}
